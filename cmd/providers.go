package cmd

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/karolswdev/promptforge/internal/config"
	"github.com/karolswdev/promptforge/internal/editor"
	"github.com/karolswdev/promptforge/internal/filestore"
	"github.com/karolswdev/promptforge/internal/library"
	"github.com/karolswdev/promptforge/internal/llm"
	"github.com/karolswdev/promptforge/internal/schema"
	"github.com/karolswdev/promptforge/internal/sqlitestore"
)

// --- Concrete Implementations of Shared Interfaces ---

// DefaultConfigProvider implements ConfigProvider with the config package.
// An empty BaseDir resolves through PFORGE_CONFIG_DIR and ~/.promptforge.
type DefaultConfigProvider struct {
	BaseDir string
}

func (p *DefaultConfigProvider) LoadConfig() (*config.AppConfig, error) {
	return config.LoadConfig(p.BaseDir)
}

func (p *DefaultConfigProvider) LoadSchema() (*schema.Schema, error) {
	return config.LoadSchema(p.BaseDir)
}

func (p *DefaultConfigProvider) LoadSystemPrompt() (string, error) {
	return config.LoadSystemPrompt(p.BaseDir)
}

// CreateDefaultConfigFiles writes the default files into the config directory.
func (p *DefaultConfigProvider) CreateDefaultConfigFiles() error {
	return config.CreateDefaultConfigFiles(p.BaseDir)
}

// EnsureConfigDir calls the underlying config function to ensure the config directory exists.
func (p *DefaultConfigProvider) EnsureConfigDir() (string, error) {
	return config.EnsureConfigDir(p.BaseDir)
}

// --- Keyring Client Implementation ---

// defaultKeyringClient implements KeyringClient with the OS keyring and the
// environment fallbacks of each secret.
type defaultKeyringClient struct{}

func (k *defaultKeyringClient) Set(secret config.Secret, value string) error {
	return config.SetSecret(secret, value)
}

func (k *defaultKeyringClient) Get(secret config.Secret) (string, error) {
	return config.GetSecret(secret)
}

// --- Central Provider ---

// Provider serves as a central dependency injection container, aggregating the
// services the commands need: configuration, secrets and the assist LLM.
// Tests build one directly with mocks.
type Provider struct {
	Config  ConfigProvider
	Keyring KeyringClient
	LLM     llm.Client // nil when no provider is configured
}

// GetProvider builds a Provider with the real configuration and keyring. The
// LLM client is only created when an OpenAI key can be found; commands that
// need it fail later with a hint.
func GetProvider() (*Provider, error) {
	cfgProvider := &DefaultConfigProvider{}
	appCfg, err := cfgProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load application config: %w", err)
	}
	keyringClient := &defaultKeyringClient{}

	provider := &Provider{Config: cfgProvider, Keyring: keyringClient}
	provider.LLM = newLLMClient(appCfg, keyringClient)

	Log.Debug().Msg("Service Provider initialized successfully.")
	return provider, nil
}

// newLLMClient returns the configured assist client or nil.
func newLLMClient(cfg *config.AppConfig, keys KeyringClient) llm.Client {
	switch cfg.LLM.Provider {
	case "openai":
	case "none", "":
		Log.Debug().Msg("LLM provider disabled. Assist is unavailable.")
		return nil
	default:
		Log.Warn().Str("provider", cfg.LLM.Provider).Msg("Unsupported LLM provider specified in config. LLM client not initialized.")
		return nil
	}

	apiKey, err := keys.Get(config.SecretOpenAI)
	if err != nil {
		if errors.Is(err, config.ErrSecretNotFound) {
			Log.Debug().Msg("OpenAI API key not set. LLM client not initialized.")
		} else {
			Log.Warn().Err(err).Msg("Failed to get LLM API key during provider setup. Assist might fail.")
		}
		return nil
	}

	openAIConfig := openai.DefaultConfig(apiKey)
	if cfg.LLM.OpenAI.BaseURL != "" {
		openAIConfig.BaseURL = cfg.LLM.OpenAI.BaseURL
		Log.Debug().Str("baseURLUsed", openAIConfig.BaseURL).Msg("Using custom OpenAI BaseURL")
	}
	client, err := llm.NewOpenAIClient(openai.NewClientWithConfig(openAIConfig), cfg.LLM.OpenAI.ModelName)
	if err != nil {
		Log.Warn().Err(err).Msg("Failed to initialize OpenAI client. Assist might fail.")
		return nil
	}
	return client
}

// --- Workspace ---

// workspace is an opened library together with the config it came from.
type workspace struct {
	Config   *config.AppConfig
	Store    *library.Store
	Strategy editor.Strategy // editor.default_strategy
	close    func() error
}

// Close releases the storage backend.
func (w *workspace) Close() error {
	if w.close == nil {
		return nil
	}
	return w.close()
}

// openWorkspace loads config and schema and opens the configured library.
func openWorkspace(ctx context.Context, cp ConfigProvider) (*workspace, error) {
	cfg, err := cp.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	s, err := cp.LoadSchema()
	if err != nil {
		return nil, fmt.Errorf("error loading schema: %w", err)
	}
	strategy, err := editor.ParseStrategy(cfg.Editor.DefaultStrategy)
	if err != nil {
		return nil, err
	}

	var (
		persister library.Persister
		closer    func() error
	)
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlitestore.Open(cfg.StoragePath())
		if err != nil {
			return nil, err
		}
		persister, closer = db, db.Close
	default:
		persister = filestore.New(cfg.StoragePath())
	}
	Log.Debug().Str("driver", cfg.Storage.Driver).Str("path", cfg.StoragePath()).Msg("Opening library")

	store, err := library.Open(ctx, persister, library.Options{
		MaxItems:     cfg.Storage.MaxItems,
		Schema:       s,
		HistoryLimit: cfg.Editor.HistoryLimit,
	})
	if err != nil {
		if closer != nil {
			_ = closer()
		}
		return nil, err
	}
	return &workspace{Config: cfg, Store: store, Strategy: strategy, close: closer}, nil
}
