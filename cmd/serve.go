package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/skyops/app"
)

func serveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				return svc.Run(ctx)
			})
		},
	}
}
