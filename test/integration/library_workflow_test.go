//go:build integration

package integration

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karolswdev/promptforge/internal/transfer"
)

// TestLibraryWorkflow covers:
// 1. config init
// 2. editing fields
// 3. saving, exporting and re-importing a scene
// 4. loading it back with replace and undoing
func TestLibraryWorkflow(t *testing.T) {
	for _, driver := range []string{"file", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			dir := setupTestEnvironment(t, driver, "")

			stdout, _, err := executePforgeCommand(t, "config", "init")
			require.NoError(t, err)
			assert.Contains(t, stdout, dir)

			for _, args := range [][]string{
				{"field", "set", "subject", "a fox in the snow"},
				{"field", "set", "setting", "misty forest"},
				{"field", "set", "camera_shot", "close-up"},
				{"field", "detail", "camera_shot", "lens", "85mm"},
			} {
				_, stderr, err := executePforgeCommand(t, args...)
				require.NoError(t, err, stderr)
			}

			stdout, _, err = executePforgeCommand(t, "scene", "save", "Fox")
			require.NoError(t, err)
			assert.Contains(t, stdout, `Saved scene "Fox"`)

			exportPath := filepath.Join(t.TempDir(), "fox.json")
			_, _, err = executePforgeCommand(t, "scene", "export", "Fox", "--file", exportPath)
			require.NoError(t, err)
			require.FileExists(t, exportPath)

			stdout, _, err = executePforgeCommand(t, "scene", "import", exportPath)
			require.NoError(t, err)
			assert.Contains(t, stdout, `Imported scene "Fox"`)

			stdout, _, err = executePforgeCommand(t, "-o", "json", "scene", "list")
			require.NoError(t, err)
			var scenes []map[string]any
			require.NoError(t, json.Unmarshal([]byte(stdout), &scenes))
			require.Len(t, scenes, 2, "imports never overwrite")
			assert.NotEqual(t, scenes[0]["id"], scenes[1]["id"])

			_, _, err = executePforgeCommand(t, "prompt", "reset")
			require.NoError(t, err)
			_, _, err = executePforgeCommand(t, "scene", "load", "fox", "--strategy", "replace")
			require.NoError(t, err)

			stdout, _, err = executePforgeCommand(t, "prompt", "show")
			require.NoError(t, err)
			var prompt map[string]map[string]any
			require.NoError(t, json.Unmarshal([]byte(stdout), &prompt))
			assert.Equal(t, "a fox in the snow", prompt["subject"]["subject"])
			assert.Equal(t, "misty forest", prompt["scene"]["setting"])

			_, _, err = executePforgeCommand(t, "prompt", "undo")
			require.NoError(t, err)
			stdout, _, err = executePforgeCommand(t, "prompt", "show")
			require.NoError(t, err)
			assert.Equal(t, "{}\n", stdout, "undo returns to the reset prompt")
		})
	}
}

// TestBackupAndPackWorkflow covers backup export/import and scene packs.
func TestBackupAndPackWorkflow(t *testing.T) {
	setupTestEnvironment(t, "file", "")

	for _, args := range [][]string{
		{"field", "set", "character_age", "elderly"},
		{"character", "save", "Sage"},
		{"field", "set", "setting", "open desert"},
		{"scene", "save", "Dunes"},
		{"pack", "generate", "Desert variants", "--count", "3", "--fields", "time_of_day,music", "--seed", "11", "--coherent"},
	} {
		_, stderr, err := executePforgeCommand(t, args...)
		require.NoError(t, err, stderr)
	}

	stdout, _, err := executePforgeCommand(t, "pack", "show", "desert variants")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Variant 3:")
	assert.Contains(t, stdout, "setting = open desert")

	backupPath := filepath.Join(t.TempDir(), "backup.json")
	_, _, err = executePforgeCommand(t, "backup", "export", "-f", backupPath)
	require.NoError(t, err)

	stdout, _, err = executePforgeCommand(t, "backup", "import", backupPath)
	require.NoError(t, err)
	assert.Equal(t, "Imported 1 characters and 1 scenes.\n", stdout)

	_, stderr, err := executePforgeCommand(t, "character", "import", backupPath)
	assert.ErrorIs(t, err, transfer.ErrInvalidEnvelope)
	assert.Contains(t, stderr, "Hint:")
}
