package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/karolswdev/promptforge/internal/config"
)

func (a *app) newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current PromptForge configuration",
		Long: `Displays the currently loaded configuration values
from config files and environment variables, and whether each secret is set.`,
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			provider, err := a.Provider()
			if err != nil {
				return err
			}
			return configShowRunE(provider.Config, provider.Keyring, cmd.OutOrStdout())
		}),
	}
}

// configShowRunE contains the core logic for the 'config show' command.
// Secret values are never printed.
func configShowRunE(cfgProvider ConfigProvider, keyringClient KeyringClient, writer io.Writer) error {
	cfg, err := cfgProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	fmt.Fprintln(writer, "Current PromptForge Configuration:")
	fmt.Fprintf(writer, "  Directory: %s\n", cfg.Dir)
	shown := *cfg
	if shown.Server.DebugToken != "" {
		shown.Server.DebugToken = "********"
	}
	body, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("error rendering configuration: %w", err)
	}
	fmt.Fprintln(writer)
	writer.Write(body)
	fmt.Fprintln(writer)

	fmt.Fprintln(writer, "Secrets:")
	for _, s := range config.Secrets {
		status := "Set (use 'pforge config set-key' to change)"
		if _, err := keyringClient.Get(s); err != nil {
			if errors.Is(err, config.ErrSecretNotFound) {
				status = "Not Set (use 'pforge config set-key " + s.Name + "' to set)"
			} else {
				status = fmt.Sprintf("Status Unknown (error checking keychain/env: %v)", err)
			}
		}
		fmt.Fprintf(writer, "  %-15s %s\n", s.Name+":", status)
	}
	return nil
}
