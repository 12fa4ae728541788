package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func (a *app) newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize PromptForge configuration",
		Long: `Creates the default configuration directory and files if they don't exist:
config.yaml, schema.yaml and system_prompt.txt. Existing files are left untouched.`,
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			provider, err := a.Provider()
			if err != nil {
				return err
			}
			return configInitRunE(provider.Config, cmd.OutOrStdout())
		}),
	}
}

// configInitRunE contains the core logic for the 'config init' command.
func configInitRunE(configProvider ConfigProvider, writer io.Writer) error {
	Log.Info().Msg("Initializing configuration...")
	dir, err := configProvider.EnsureConfigDir()
	if err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	if err := configProvider.CreateDefaultConfigFiles(); err != nil {
		Log.Error().Err(err).Msg("Failed to initialize configuration files")
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	Log.Info().Str("path", dir).Msg("Configuration initialization complete.")
	fmt.Fprintf(writer, "Configuration directory and default files ensured in %s\n", dir)
	return nil
}
