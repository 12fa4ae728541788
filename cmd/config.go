package cmd

import (
	"github.com/spf13/cobra"
)

// newConfigCmd represents the base command for configuration management.
func (a *app) newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage PromptForge configuration",
		Long: `Provides commands to initialize, show, locate and manage the PromptForge
configuration files and secrets.
This command itself does not perform any action but serves as a parent for subcommands.`,
	}
	configCmd.AddCommand(
		a.newConfigInitCmd(),
		a.newConfigLocateCmd(),
		a.newConfigShowCmd(),
		a.newConfigSetKeyCmd(),
	)
	return configCmd
}
