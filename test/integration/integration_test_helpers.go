//go:build integration

package integration

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/karolswdev/promptforge/cmd"
	"github.com/karolswdev/promptforge/internal/config"
)

// mockLLMServer creates a mock HTTP server simulating the OpenAI API.
func mockLLMServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// setupTestEnvironment creates a temporary config directory with a config.yaml
// using driver and, when llmURL is set, an OpenAI base URL pointing at it.
// PFORGE_CONFIG_DIR points at the directory for the rest of the test and the
// OS keyring is replaced by an in-memory mock.
func setupTestEnvironment(t *testing.T, driver, llmURL string) string {
	t.Helper()
	keyring.MockInit()
	tempDir := t.TempDir()

	configContent := fmt.Sprintf(`
storage:
  driver: %q
  max_items: 10
editor:
  default_strategy: "merge"
llm:
  provider: "openai"
  openai:
    model_name: "test-model"
    base_url: %q
`, driver, llmURL)
	err := os.WriteFile(filepath.Join(tempDir, config.DefaultConfigFileName), []byte(configContent), 0600)
	require.NoError(t, err, "Failed to write temp config file")

	t.Setenv(config.ConfigDirEnvVar, tempDir)
	for _, s := range config.Secrets {
		t.Setenv(s.EnvVar, "")
	}
	return tempDir
}

// executePforgeCommand runs the pforge root command with given arguments
// in-process and captures stdout and stderr. PFORGE_CONFIG_DIR must already
// point at the test directory (see setupTestEnvironment).
func executePforgeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	return execute(t, cmd.NewRootCmd(), args...)
}

// executeWithProvider runs a command tree built around p.
func executeWithProvider(t *testing.T, p *cmd.Provider, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	return execute(t, cmd.NewRootCmdWithProvider(p), args...)
}

func execute(t *testing.T, root *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(originalLevel) })

	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetIn(bytes.NewReader(nil))
	root.SetArgs(append([]string{"--log-level", "debug"}, args...))

	err := root.ExecuteContext(context.Background())
	return outBuf.String(), errBuf.String(), err
}
