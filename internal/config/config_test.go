package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestEnsureConfigDir(t *testing.T) {
	t.Run("DirectoryDoesNotExist", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "fresh")

		returnedDir, err := EnsureConfigDir(dir)
		require.NoError(t, err)
		require.DirExists(t, dir)
		require.Equal(t, dir, returnedDir)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	})

	t.Run("EnvOverride", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(ConfigDirEnvVar, dir)
		returnedDir, err := EnsureConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, dir, returnedDir)
	})

	t.Run("PathIsAFile", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(file, nil, 0600))
		_, err := EnsureConfigDir(file)
		assert.ErrorIs(t, err, ErrConfigDirNotDir)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		tempDir := t.TempDir()
		validYAML := `
storage:
  driver: "sqlite"
  max_items: 5
editor:
  default_strategy: "smart"
llm:
  provider: "openai"
  openai:
    model_name: "gpt-4o-mini"
server:
  addr: "127.0.0.1:9000"
  ledger: "sqlite"
  development: true
`
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, DefaultConfigFileName), []byte(validYAML), 0644))

		cfg, err := LoadConfig(tempDir)
		require.NoError(t, err)
		assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
		assert.Equal(t, 5, cfg.Storage.MaxItems)
		assert.Equal(t, "smart", cfg.Editor.DefaultStrategy)
		assert.Equal(t, 50, cfg.Editor.HistoryLimit, "unset keys keep defaults")
		assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.ModelName)
		assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
		assert.Equal(t, LedgerSQLite, cfg.Server.Ledger)
		assert.True(t, cfg.Server.Development)
		assert.Equal(t, filepath.Join(tempDir, "promptforge.db"), cfg.StoragePath())
	})

	t.Run("FileNotFound", func(t *testing.T) {
		tempDir := t.TempDir()
		cfg, err := LoadConfig(tempDir)
		require.NoError(t, err, "a missing config file falls back to defaults")
		assert.Equal(t, DriverFile, cfg.Storage.Driver)
		assert.Equal(t, 20, cfg.Storage.MaxItems)
		assert.Equal(t, "merge", cfg.Editor.DefaultStrategy)
		assert.Equal(t, "openai", cfg.LLM.Provider)
		assert.Equal(t, LedgerMemory, cfg.Server.Ledger)
		assert.Equal(t, filepath.Join(tempDir, "library.json"), cfg.StoragePath())
	})

	t.Run("EnvOverride", func(t *testing.T) {
		t.Setenv("PFORGE_STORAGE_DRIVER", "sqlite")
		t.Setenv("PFORGE_SERVER_DEVELOPMENT", "true")
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
		assert.True(t, cfg.Server.Development)
	})

	t.Run("InvalidYAML", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, DefaultConfigFileName), []byte(`storage: driver: "file"`), 0644))
		_, err := LoadConfig(tempDir)
		assert.ErrorIs(t, err, ErrConfigRead)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, DefaultConfigFileName), []byte("storage:\n  driver: postgres\n"), 0644))
		_, err := LoadConfig(tempDir)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestStoragePath_Absolute(t *testing.T) {
	cfg := AppConfig{Dir: "/etc/pforge", Storage: StorageConfig{Driver: DriverFile, Path: "/var/lib/pforge/lib.json"}}
	assert.Equal(t, "/var/lib/pforge/lib.json", cfg.StoragePath())
}

func TestLoadSchema(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		s, err := LoadSchema(t.TempDir())
		require.NoError(t, err)
		_, ok := s.Field("subject")
		assert.True(t, ok)
	})

	t.Run("FromFile", func(t *testing.T) {
		tempDir := t.TempDir()
		yaml := `version: 1
fields:
  - key: mood
    label: Mood
    type: select
    options:
      - value: calm
      - value: tense
`
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, DefaultSchemaFileName), []byte(yaml), 0644))
		s, err := LoadSchema(tempDir)
		require.NoError(t, err)
		assert.Equal(t, []string{"mood"}, s.Keys())
	})
}

func TestLoadSystemPrompt(t *testing.T) {
	t.Run("ValidPrompt", func(t *testing.T) {
		tempDir := t.TempDir()
		promptContent := "Fill the fields."
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, DefaultPromptFileName), []byte(promptContent), 0644))

		prompt, err := LoadSystemPrompt(tempDir)
		require.NoError(t, err)
		assert.Equal(t, promptContent, prompt)
	})

	t.Run("FileNotFound", func(t *testing.T) {
		prompt, err := LoadSystemPrompt(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, prompt)
	})
}

func TestCreateDefaultConfigFiles(t *testing.T) {
	t.Run("CreateDefaults", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, CreateDefaultConfigFiles(tempDir))

		require.FileExists(t, filepath.Join(tempDir, DefaultConfigFileName))
		require.FileExists(t, filepath.Join(tempDir, DefaultSchemaFileName))
		require.FileExists(t, filepath.Join(tempDir, DefaultPromptFileName))

		cfg, err := LoadConfig(tempDir)
		require.NoError(t, err, "the default config file loads")
		assert.Equal(t, DriverFile, cfg.Storage.Driver)
		_, err = LoadSchema(tempDir)
		require.NoError(t, err, "the default schema file parses")
	})

	t.Run("FilesAlreadyExist", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, DefaultConfigFileName)
		initialContent := "storage:\n  driver: 'sqlite'\n"
		require.NoError(t, os.WriteFile(configPath, []byte(initialContent), 0644))

		require.NoError(t, CreateDefaultConfigFiles(tempDir))

		current, err := os.ReadFile(configPath)
		require.NoError(t, err)
		assert.Equal(t, initialContent, string(current), "existing files are not overwritten")
		require.FileExists(t, filepath.Join(tempDir, DefaultSchemaFileName))
	})
}

func TestSecrets(t *testing.T) {
	keyring.MockInit()

	t.Run("Lookup", func(t *testing.T) {
		s, err := LookupSecret("Stripe-Webhook")
		require.NoError(t, err)
		assert.Equal(t, SecretStripeWebhook, s)
		_, err = LookupSecret("github")
		assert.ErrorIs(t, err, ErrUnknownSecret)
	})

	t.Run("NotFound", func(t *testing.T) {
		t.Setenv(SecretStripe.EnvVar, "")
		_, err := GetSecret(SecretStripe)
		assert.ErrorIs(t, err, ErrSecretNotFound)
	})

	t.Run("EnvFallback", func(t *testing.T) {
		t.Setenv(SecretOpenAI.EnvVar, "sk-from-env")
		v, err := GetSecret(SecretOpenAI)
		require.NoError(t, err)
		assert.Equal(t, "sk-from-env", v)
	})

	t.Run("KeyringWins", func(t *testing.T) {
		t.Setenv(SecretStripeWebhook.EnvVar, "whsec_env")
		require.NoError(t, SetSecret(SecretStripeWebhook, "whsec_keyring"))
		v, err := GetSecret(SecretStripeWebhook)
		require.NoError(t, err)
		assert.Equal(t, "whsec_keyring", v)
	})
}
