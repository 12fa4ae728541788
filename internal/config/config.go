package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/karolswdev/promptforge/internal/schema"
)

const (
	// DefaultConfigFileName is the standard name for the main configuration file.
	DefaultConfigFileName = "config.yaml"
	// DefaultSchemaFileName is the standard name for the field schema file.
	DefaultSchemaFileName = "schema.yaml"
	// DefaultPromptFileName is the standard name for the assist system prompt file.
	DefaultPromptFileName = "system_prompt.txt"
	// DefaultConfigDirName is the configuration directory within the user's home directory.
	DefaultConfigDirName = ".promptforge"
	// ConfigDirEnvVar overrides the default configuration directory path.
	ConfigDirEnvVar = "PFORGE_CONFIG_DIR"
	// EnvPrefix is the prefix of environment overrides (PFORGE_STORAGE_DRIVER, ...).
	EnvPrefix = "PFORGE"
)

// Storage drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Webhook ledgers.
const (
	LedgerMemory = "memory"
	LedgerSQLite = "sqlite"
)

// EnsureConfigDir checks if the configuration directory exists, creating it if necessary.
// It prioritizes baseDir if provided. If baseDir is empty, it checks the PFORGE_CONFIG_DIR
// environment variable, and falls back to ~/.promptforge.
// The directory is created with 0700 permissions.
func EnsureConfigDir(baseDir string) (string, error) {
	configDirPath := baseDir
	switch {
	case configDirPath != "":
		log.Debug().Str("path", configDirPath).Msg("Using provided base directory path")
	case os.Getenv(ConfigDirEnvVar) != "":
		configDirPath = os.Getenv(ConfigDirEnvVar)
		log.Debug().Str("path", configDirPath).Str("env_var", ConfigDirEnvVar).Msg("Using config directory path from environment variable")
	default:
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDirPath = filepath.Join(homeDir, DefaultConfigDirName)
		log.Debug().Str("path", configDirPath).Msg("Using default config directory path")
	}

	info, err := os.Stat(configDirPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", configDirPath).Msg("Config directory does not exist, attempting to create")
			if mkdirErr := os.MkdirAll(configDirPath, 0700); mkdirErr != nil {
				log.Error().Err(mkdirErr).Str("path", configDirPath).Msg("Failed to create config directory")
				return "", fmt.Errorf("%w: %w", ErrConfigDirCreate, mkdirErr)
			}
			return configDirPath, nil
		}
		log.Error().Err(err).Str("path", configDirPath).Msg("Failed to stat config directory path")
		return "", fmt.Errorf("%w: %w", ErrConfigDirStat, err)
	}
	if !info.IsDir() {
		log.Error().Str("path", configDirPath).Msg("Config path exists but is not a directory")
		return "", ErrConfigDirNotDir
	}
	return configDirPath, nil
}

// OpenAIConfig holds configuration specific to the OpenAI provider.
type OpenAIConfig struct {
	ModelName string `mapstructure:"model_name" yaml:"model_name"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// LLMConfig selects the assist provider.
type LLMConfig struct {
	Provider string       `mapstructure:"provider" yaml:"provider"` // "openai" or "none"
	OpenAI   OpenAIConfig `mapstructure:"openai" yaml:"openai"`
}

// StorageConfig selects where the library lives.
type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	// Path overrides the database or JSON file location. Relative paths are
	// resolved against the config directory.
	Path     string `mapstructure:"path" yaml:"path,omitempty"`
	MaxItems int    `mapstructure:"max_items" yaml:"max_items"`
}

// EditorConfig holds editor defaults.
type EditorConfig struct {
	DefaultStrategy string `mapstructure:"default_strategy" yaml:"default_strategy"`
	HistoryLimit    int    `mapstructure:"history_limit" yaml:"history_limit"`
}

// ServerConfig configures `pforge serve`.
type ServerConfig struct {
	Addr            string `mapstructure:"addr" yaml:"addr"`
	Development     bool   `mapstructure:"development" yaml:"development"`
	DebugToken      string `mapstructure:"debug_token" yaml:"debug_token,omitempty"`
	Ledger          string `mapstructure:"ledger" yaml:"ledger"`
	PortalReturnURL string `mapstructure:"portal_return_url" yaml:"portal_return_url,omitempty"`
}

// AppConfig holds the overall application configuration.
type AppConfig struct {
	// Dir is the configuration directory the file was loaded from.
	Dir     string        `mapstructure:"-" yaml:"-"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Editor  EditorConfig  `mapstructure:"editor" yaml:"editor"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
}

// Validate rejects unknown drivers, ledgers and strategies.
func (c *AppConfig) Validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("%w: storage.driver %q (want %s or %s)", ErrInvalidConfig, c.Storage.Driver, DriverFile, DriverSQLite)
	}
	switch c.Server.Ledger {
	case LedgerMemory, LedgerSQLite:
	default:
		return fmt.Errorf("%w: server.ledger %q (want %s or %s)", ErrInvalidConfig, c.Server.Ledger, LedgerMemory, LedgerSQLite)
	}
	switch c.Editor.DefaultStrategy {
	case "replace", "merge", "smart":
	default:
		return fmt.Errorf("%w: editor.default_strategy %q", ErrInvalidConfig, c.Editor.DefaultStrategy)
	}
	if c.Storage.MaxItems < 0 {
		return fmt.Errorf("%w: storage.max_items must not be negative", ErrInvalidConfig)
	}
	return nil
}

// StoragePath returns the resolved library location for the configured driver.
func (c *AppConfig) StoragePath() string {
	p := c.Storage.Path
	if p == "" {
		if c.Storage.Driver == DriverSQLite {
			p = "promptforge.db"
		} else {
			p = "library.json"
		}
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.Dir, p)
	}
	return p
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.max_items", 20)
	v.SetDefault("editor.default_strategy", "merge")
	v.SetDefault("editor.history_limit", 50)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.openai.model_name", "gpt-4o")
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("server.addr", ":8787")
	v.SetDefault("server.development", false)
	v.SetDefault("server.debug_token", "")
	v.SetDefault("server.ledger", LedgerMemory)
	v.SetDefault("server.portal_return_url", "")
}

// LoadConfig loads the application configuration from <config dir>/config.yaml,
// environment variables (PFORGE_*), and defaults.
// If baseDir is empty, EnsureConfigDir picks the directory.
func LoadConfig(baseDir string) (*AppConfig, error) {
	configDir, err := EnsureConfigDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure config directory: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	configPath := filepath.Join(configDir, DefaultConfigFileName)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // storage.driver -> PFORGE_STORAGE_DRIVER

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Debug().Str("path", configPath).Msg("Config file not found. Using defaults and environment variables.")
		} else {
			log.Error().Err(err).Str("path", configPath).Msg("Failed to read config file")
			return nil, fmt.Errorf("%w: %w", ErrConfigRead, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		log.Error().Err(err).Str("path", configPath).Msg("Failed to unmarshal config file")
		return nil, fmt.Errorf("%w: %w", ErrConfigParse, err)
	}
	cfg.Dir = configDir
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Debug().Str("path", configPath).Str("driver", cfg.Storage.Driver).Msg("Loaded config")
	return &cfg, nil
}

// LoadSchema loads <config dir>/schema.yaml, falling back to the built-in
// schema when the file does not exist.
func LoadSchema(baseDir string) (*schema.Schema, error) {
	configDir, err := EnsureConfigDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure config directory for schema: %w", err)
	}
	return schema.Load(filepath.Join(configDir, DefaultSchemaFileName))
}

// LoadSystemPrompt loads <config dir>/system_prompt.txt.
// It returns an empty string if the file doesn't exist.
func LoadSystemPrompt(baseDir string) (string, error) {
	configDir, err := EnsureConfigDir(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to ensure config directory for system prompt: %w", err)
	}

	promptPath := filepath.Join(configDir, DefaultPromptFileName)
	fileBytes, err := os.ReadFile(promptPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", promptPath).Msg("System prompt file not found, returning empty string")
			return "", nil
		}
		log.Error().Err(err).Str("path", promptPath).Msg("Failed to read system prompt file")
		return "", fmt.Errorf("%w: %w", ErrSystemPromptRead, err)
	}
	log.Debug().Str("path", promptPath).Int("bytes", len(fileBytes)).Msg("Read system prompt file successfully")
	return string(fileBytes), nil
}

// --- Default File Creation ---

const defaultConfigYAML = `# Configuration for the PromptForge CLI (pforge)
# Every key can be overridden with a PFORGE_ environment variable,
# e.g. PFORGE_STORAGE_DRIVER=sqlite.

storage:
  # "file" keeps the library in library.json, "sqlite" in promptforge.db.
  driver: "file"
  # Records kept per collection; the oldest are dropped first.
  max_items: 20

editor:
  # How loaded fragments combine with the current prompt: replace, merge or smart.
  default_strategy: "merge"
  history_limit: 50

llm:
  provider: "openai"
  openai:
    model_name: "gpt-4o"
    # base_url: ""

server:
  addr: ":8787"
  # Exposes /api/debug-config and /api/test without a token.
  development: false
  # debug_token: ""
  # "memory" or "sqlite" event ledger for webhook deduplication.
  ledger: "memory"
  # portal_return_url: "https://example.com/account"
`

const defaultSystemPromptTXT = `You are an assistant that turns a short idea into a structured video generation prompt.
You receive the idea and the list of fields you may fill. For select fields only the listed options are allowed.

Output:
Generate ONLY a JSON object mapping field keys to values. Omit fields you cannot fill sensibly.
Do not include explanations or any text outside the JSON object.
`

// writeFileIfNotExists writes content to filePath unless the file already exists.
func writeFileIfNotExists(filePath string, content string, perm os.FileMode) error {
	_, err := os.Stat(filePath)
	if err == nil {
		log.Debug().Str("path", filePath).Msg("File already exists, no action needed")
		return nil
	}
	if !os.IsNotExist(err) {
		log.Error().Err(err).Str("path", filePath).Msg("Failed to stat file path")
		return fmt.Errorf("%w: %w", ErrDefaultFileStat, err)
	}
	if errWrite := os.WriteFile(filePath, []byte(content), perm); errWrite != nil {
		log.Error().Err(errWrite).Str("path", filePath).Msg("Failed to write default file content")
		return fmt.Errorf("%w: %w", ErrDefaultFileWrite, errWrite)
	}
	log.Info().Str("path", filePath).Msg("Wrote default file")
	return nil
}

// CreateDefaultConfigFiles creates config.yaml, schema.yaml and
// system_prompt.txt in the configuration directory unless they already exist.
func CreateDefaultConfigFiles(baseDir string) error {
	configDir, err := EnsureConfigDir(baseDir)
	if err != nil {
		return fmt.Errorf("failed to ensure config directory: %w", err)
	}

	filesToCreate := []struct {
		name    string
		content string
		perm    os.FileMode
	}{
		{DefaultConfigFileName, defaultConfigYAML, 0600},
		{DefaultSchemaFileName, schema.DefaultYAML, 0644},
		{DefaultPromptFileName, defaultSystemPromptTXT, 0644},
	}
	for _, file := range filesToCreate {
		if err := writeFileIfNotExists(filepath.Join(configDir, file.name), file.content, file.perm); err != nil {
			return err
		}
	}
	return nil
}
