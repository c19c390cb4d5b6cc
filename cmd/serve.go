package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/api"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/handler"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		Long: `serve exposes classify, resolve and post over HTTP on the configured
address, with Prometheus metrics on /metrics. It stops gracefully on
SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := api.NewServer(a.cfg.Server, a.log, api.Deps{
				Poster: a.svc,
				Defaults: handler.PostDefaults{
					Name: a.cfg.Post.Name,
					Sage: a.cfg.Post.Sage,
				},
				Gatherer: a.registry,
				Version:  Version,
			})
			return srv.Run(cmd.Context())
		},
	}
}
