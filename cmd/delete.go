package cmd

import (
	"github.com/spf13/cobra"
)

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <dag-id>",
		Short: "Delete a DAG and its run records",
		Long: `Delete a DAG metadata record together with its run records.
Deletion is refused while the DAG still has queued or running runs.
This shares the deletion routine used by the API server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, app, err := setupApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			return app.service.DeleteDAG(ctx, args[0])
		},
	}
}
