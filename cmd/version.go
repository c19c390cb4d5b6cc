package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/bbs"
)

// annotationNoSetup marks commands that run without loading config.
const annotationNoSetup = "bbs-poster/no-setup"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version number",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoSetup: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bbs-poster version %s (user agent %q)\n", Version, bbs.UserAgent)
		},
	}
}
