package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/karolswdev/promptforge/internal/config"
)

func (a *app) newConfigSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key <openai|stripe|stripe-webhook> <value>",
		Short: "Stores a secret securely in the OS keychain",
		Long: `Stores a secret securely in the operating system's keychain or keyring.
Secrets are kept under the service 'promptforge':

  openai          OpenAI API key used by 'pforge assist'
  stripe          Stripe secret key used by the billing portal
  stripe-webhook  Stripe webhook signing secret used by 'pforge serve'

Each secret can also be supplied through its environment variable.`,
		Args: cobra.ExactArgs(2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			provider, err := a.Provider()
			if err != nil {
				return err
			}
			return configSetKeyRun(provider.Keyring, cmd.OutOrStdout(), args[0], args[1])
		}),
	}
}

// configSetKeyRun contains the core logic for the 'config set-key' command.
func configSetKeyRun(kc KeyringClient, writer io.Writer, name, value string) error {
	secret, err := config.LookupSecret(name)
	if err != nil {
		return err
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value cannot be empty")
	}

	Log.Info().Msgf("Attempting to store %s secret in keychain for service '%s'...", secret.Name, config.KeyringServiceName)
	if err := kc.Set(secret, value); err != nil {
		Log.Error().Err(err).Msg("Failed to store secret in keychain")
		return fmt.Errorf("failed to store %s secret in keychain: %w", secret.Name, err)
	}

	fmt.Fprintf(writer, "%s secret stored successfully.\n", secret.Name)
	return nil
}
