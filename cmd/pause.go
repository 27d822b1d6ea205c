package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dagr-org/dagr/internal/registry"
)

func pauseCmd() *cobra.Command {
	var pause bool

	cmd := &cobra.Command{
		Use:   "pause <dag-id>",
		Short: "Pause or unpause a DAG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, app, err := setupApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			patch := registry.DAGPatch{IsPaused: &pause}
			_, err = app.service.PatchDAG(ctx, args[0], patch, []string{"is_paused"})
			return err
		},
	}

	cmd.Flags().BoolVar(&pause, "pause", true, "pause the DAG (use --pause=false to unpause)")

	return cmd
}
