package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newClassifyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <url>",
		Short: "Show which engine and kind a URL is",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.svc.Classify(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "kind\t%s\n", c.Kind)
			fmt.Fprintf(w, "engine\t%s\n", c.Kind.Engine())
			if c.Dir != "" {
				fmt.Fprintf(w, "dir\t%s\n", c.Dir)
				fmt.Fprintf(w, "board\t%d\n", c.BoardNumber)
			} else {
				fmt.Fprintf(w, "board\t%s\n", c.Board)
			}
			if c.Kind.IsThread() {
				fmt.Fprintf(w, "key\t%d\n", c.Key)
			}
			return w.Flush()
		},
	}
}
