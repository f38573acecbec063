package commands

import (
	"github.com/spf13/cobra"

	"github.com/user/release-portal/internal/commands/export"
	"github.com/user/release-portal/internal/commands/serve"
)

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   "relport",
		Short: "Release portal server and tooling",
	}

	rootCmd.PersistentFlags().String("config", "config.yaml", "path to config file")

	rootCmd.AddCommand(serve.NewCommand())
	rootCmd.AddCommand(export.NewCommand())

	return rootCmd.Execute()
}
