package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/poster"
)

type postOptions struct {
	message     string
	messageFile string
	name        string
	sage        bool
}

func newPostCommand(a *app) *cobra.Command {
	opts := &postOptions{}

	cmd := &cobra.Command{
		Use:   "post <url>...",
		Short: "Post a message to one or more threads or boards",
		Long: `post sends the message to each URL. A board URL posts to its newest
thread. With several URLs the posts run concurrently and one failure does
not stop the others.`,
		Example: `  bbs-poster post https://jbbs.shitaraba.net/bbs/read.cgi/radio/22607/1484488601/ -m "test"
  echo "test" | bbs-poster post https://bbs.jpnkn.com/progre/ --message-file - --sage=false`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPost(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "message to post")
	cmd.Flags().StringVar(&opts.messageFile, "message-file", "", `read the message from a file, "-" for stdin`)
	cmd.Flags().StringVar(&opts.name, "name", "", "poster name (default from config)")
	cmd.Flags().BoolVar(&opts.sage, "sage", true, "do not bump the thread (default from config)")

	return cmd
}

func (a *app) runPost(cmd *cobra.Command, opts *postOptions, urls []string) error {
	message, err := readMessage(opts.message, opts.messageFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	req := poster.Request{
		Message: message,
		Name:    a.cfg.Post.Name,
		Sage:    a.cfg.Post.Sage,
	}
	if cmd.Flags().Changed("name") {
		req.Name = opts.name
	}
	if cmd.Flags().Changed("sage") {
		req.Sage = opts.sage
	}

	out := cmd.OutOrStdout()

	if len(urls) == 1 {
		req.URL = urls[0]
		res, err := a.svc.Post(cmd.Context(), req)
		if err != nil {
			return err
		}
		printResult(cmd, res)
		return nil
	}

	deliveries, err := a.svc.Broadcast(cmd.Context(), urls, req)
	for _, d := range deliveries {
		if d.Err != nil {
			fmt.Fprintf(out, "FAIL\t%s\t[%s] %v\n", d.URL, poster.Outcome(d.Err), d.Err)
			continue
		}
		fmt.Fprintf(out, "OK\t%s\t%s\n", d.URL, d.Result.ThreadURL)
	}
	return err
}

func printResult(cmd *cobra.Command, res poster.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "posted to %s\n", res.ThreadURL)
	fmt.Fprintf(out, "  engine   %s\n", res.Engine)
	fmt.Fprintf(out, "  charset  %s\n", res.Charset)
	if res.Title != "" {
		fmt.Fprintf(out, "  title    %s\n", res.Title)
	}
	fmt.Fprintf(out, "  attempt  %s\n", res.AttemptID)
}
