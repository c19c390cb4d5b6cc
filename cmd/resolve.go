package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newResolveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <url>",
		Short: "Find the thread a URL posts to, its charset and title",
		Long: `resolve classifies the URL, looks up the latest thread when it names a
board, then reads the start of the thread page to detect its charset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := a.svc.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "thread\t%s\n", target.URL)
			fmt.Fprintf(w, "charset\t%s\n", target.Charset)
			fmt.Fprintf(w, "title\t%s\n", target.Title)
			return w.Flush()
		},
	}
}
