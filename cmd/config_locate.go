package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/karolswdev/promptforge/internal/config"
)

// configLocateRunE prints the configuration directory, the files read from
// it and the library location.
func configLocateRunE(cfgProvider ConfigProvider, out io.Writer) error {
	configDir, err := cfgProvider.EnsureConfigDir()
	if err != nil {
		return fmt.Errorf("error ensuring config directory: %w", err)
	}

	fmt.Fprintf(out, "Configuration directory: %s\n", configDir)
	fmt.Fprintln(out, "Expected configuration files:")
	fmt.Fprintf(out, "- %s\n", filepath.Join(configDir, config.DefaultConfigFileName))
	fmt.Fprintf(out, "- %s\n", filepath.Join(configDir, config.DefaultSchemaFileName))
	fmt.Fprintf(out, "- %s\n", filepath.Join(configDir, config.DefaultPromptFileName))

	cfg, err := cfgProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	fmt.Fprintf(out, "Library (%s): %s\n", cfg.Storage.Driver, cfg.StoragePath())
	return nil
}

func (a *app) newConfigLocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Locate PromptForge configuration files",
		Long: `Displays the paths to the configuration files and the library used by PromptForge.
This command helps you find where PromptForge is looking for its settings.`,
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			provider, err := a.Provider()
			if err != nil {
				return err
			}
			return configLocateRunE(provider.Config, cmd.OutOrStdout())
		}),
	}
}
