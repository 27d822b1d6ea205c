package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dagr-org/dagr/internal/common/logger"
	"github.com/dagr-org/dagr/internal/frontend"
)

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the registry API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ctx, app, err := setupApp(ctx)
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.service.Sync(ctx); err != nil {
				logger.Warn(ctx, "initial registry sync failed", "err", err)
			}

			return frontend.New(app.cfg, app.service).Serve(ctx)
		},
	}
}
