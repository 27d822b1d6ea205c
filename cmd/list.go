package cmd

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dagr-org/dagr/internal/auth"
	"github.com/dagr-org/dagr/internal/registry"
)

func listCmd() *cobra.Command {
	var (
		pattern    string
		tags       []string
		onlyActive bool
		limit      int
		offset     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered DAGs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, app, err := setupApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.service.Sync(ctx); err != nil {
				return err
			}

			// Local CLI operates as the admin principal.
			adminUser := &auth.User{Username: "cli", Role: auth.RoleAdmin}
			result, err := app.service.ListDAGs(ctx, adminUser, registry.ListRequest{
				Limit:      limit,
				Offset:     offset,
				IDPattern:  pattern,
				Tags:       tags,
				OnlyActive: onlyActive,
			})
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"DAG", "PAUSED", "TAGS", "DESCRIPTION"})
			for _, dag := range result.Items {
				t.AppendRow(table.Row{
					dag.ID, dag.IsPaused, strings.Join(dag.Tags, ","), dag.Description,
				})
			}
			t.AppendFooter(table.Row{"TOTAL", result.TotalCount, "", ""})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "filter by id substring (case-insensitive)")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "filter by tags (match any)")
	cmd.Flags().BoolVar(&onlyActive, "only-active", true, "show only active DAGs")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (0 for default)")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")

	return cmd
}
