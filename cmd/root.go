package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dagr-org/dagr/internal/build"
)

var (
	// cfgFile is the --config flag value.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           build.Slug,
		Short:         "Workflow-definition registry with a REST API.",
		Long:          `Workflow-definition registry: serves, lists, pauses and deletes DAG metadata.`,
		Version:       build.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute runs the root command. Called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "",
		"config file (default is $XDG_CONFIG_HOME/dagr/dagr.yaml)",
	)

	rootCmd.AddCommand(serverCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(pauseCmd())
	rootCmd.AddCommand(deleteCmd())
}
