package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
)

// KeyringServiceName is the service every secret is stored under.
const KeyringServiceName = "promptforge"

// Secret describes one credential: its keyring user and env fallback.
type Secret struct {
	Name   string
	User   string
	EnvVar string
}

var (
	SecretOpenAI        = Secret{Name: "openai", User: "openai_api_key", EnvVar: "PFORGE_OPENAI_API_KEY"}
	SecretStripe        = Secret{Name: "stripe", User: "stripe_secret_key", EnvVar: "STRIPE_SECRET_KEY"}
	SecretStripeWebhook = Secret{Name: "stripe-webhook", User: "stripe_webhook_secret", EnvVar: "STRIPE_WEBHOOK_SECRET"}
)

// Secrets lists every known secret.
var Secrets = []Secret{SecretOpenAI, SecretStripe, SecretStripeWebhook}

// LookupSecret returns the secret called name.
func LookupSecret(name string) (Secret, error) {
	for _, s := range Secrets {
		if strings.EqualFold(s.Name, strings.TrimSpace(name)) {
			return s, nil
		}
	}
	names := make([]string, len(Secrets))
	for i, s := range Secrets {
		names[i] = s.Name
	}
	return Secret{}, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownSecret, name, strings.Join(names, ", "))
}

// GetSecret retrieves s from the OS keyring, then from its environment
// variable. ErrSecretNotFound is returned when neither has it.
func GetSecret(s Secret) (string, error) {
	value, err := keyring.Get(KeyringServiceName, s.User)
	if err == nil {
		log.Debug().Str("secret", s.Name).Msg("Secret retrieved from keychain")
		return value, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		log.Error().Err(err).Str("service", KeyringServiceName).Str("user", s.User).Msg("Error reading key from keychain")
		return "", fmt.Errorf("%w: %w", ErrKeyringGet, err)
	}

	if value = os.Getenv(s.EnvVar); value != "" {
		log.Debug().Str("secret", s.Name).Str("env_var", s.EnvVar).Msg("Secret retrieved from environment")
		return value, nil
	}
	return "", fmt.Errorf("%w: %s (keychain %s/%s or $%s)", ErrSecretNotFound, s.Name, KeyringServiceName, s.User, s.EnvVar)
}

// SetSecret stores value for s in the OS keyring.
func SetSecret(s Secret, value string) error {
	if err := keyring.Set(KeyringServiceName, s.User, value); err != nil {
		log.Error().Err(err).Str("service", KeyringServiceName).Str("user", s.User).Msg("Failed to set secret in keychain")
		return fmt.Errorf("%w: %w", ErrKeyringSet, err)
	}
	log.Info().Str("secret", s.Name).Msg("Secret stored in keychain")
	return nil
}
