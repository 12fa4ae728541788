package cmd

import (
	"github.com/karolswdev/promptforge/internal/config"
	"github.com/karolswdev/promptforge/internal/schema"
)

// ConfigProvider defines an interface for components that load the PromptForge
// configuration: the main config, the field schema and the assist system
// prompt. It also manages the configuration directory and default files.
// This abstraction allows commands to be tested with mocked configuration.
type ConfigProvider interface {
	LoadConfig() (*config.AppConfig, error)
	LoadSchema() (*schema.Schema, error)
	LoadSystemPrompt() (string, error)
	CreateDefaultConfigFiles() error
	EnsureConfigDir() (string, error)
}

// KeyringClient defines an interface for components that interact with the
// operating system's secure credential store. It abstracts storing and
// retrieving the OpenAI and Stripe secrets.
type KeyringClient interface {
	Set(secret config.Secret, value string) error
	Get(secret config.Secret) (string, error)
}
