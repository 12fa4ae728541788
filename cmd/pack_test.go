package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karolswdev/promptforge/internal/editor"
	"github.com/karolswdev/promptforge/internal/library"
)

func TestPackGenerate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, fieldSetRunE(ctx, store, &bytes.Buffer{}, "subject", "a lighthouse keeper", false))
	before := store.Document()

	var out bytes.Buffer
	opts := editor.RandomOptions{Keys: []string{"setting", "time_of_day"}, Rand: editor.NewRand(3)}
	require.NoError(t, packGenerateRunE(ctx, store, &out, "Coastal", 4, opts))

	assert.Contains(t, out.String(), `Generated pack "Coastal"`)
	assert.Contains(t, out.String(), "with 4 variants")
	assert.Equal(t, before, store.Document(), "generating a pack leaves the prompt alone")

	p, err := store.GetPack("coastal")
	require.NoError(t, err)
	require.Len(t, p.Variants, 4)
	for _, v := range p.Variants {
		assert.Equal(t, "a lighthouse keeper", v["subject"])
		assert.Contains(t, v, "setting")
		assert.Contains(t, v, "time_of_day")
	}

	t.Run("Show", func(t *testing.T) {
		cmd, out := newOutputCmd("text")
		require.NoError(t, packShowRunE(cmd, store, p.ID))
		assert.Contains(t, out.String(), "Variant 4:")
		assert.Contains(t, out.String(), "  subject = a lighthouse keeper")
	})

	t.Run("InvalidCount", func(t *testing.T) {
		err := packGenerateRunE(ctx, store, &bytes.Buffer{}, "None", 0, opts)
		assert.ErrorIs(t, err, editor.ErrInvalidValue)
	})

	t.Run("MissingPack", func(t *testing.T) {
		cmd, _ := newOutputCmd("text")
		assert.ErrorIs(t, packShowRunE(cmd, store, "nope"), library.ErrNotFound)
	})
}

func TestProjectCommands(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, fieldSetRunE(ctx, store, &bytes.Buffer{}, "art_style", "oil painting", false))
	require.NoError(t, fragmentSaveRunE(ctx, store, &bytes.Buffer{}, library.KindStyle, "Baroque", nil))
	require.NoError(t, store.UpdateEditor(ctx, func(e *editor.Editor) error { e.Reset(); return nil }))

	var out bytes.Buffer
	require.NoError(t, projectCreateRunE(ctx, store, &out, "Museum short", "Paintings come alive", "baroque"))
	assert.Contains(t, out.String(), `Created project "Museum short"`)

	err := projectCreateRunE(ctx, store, &bytes.Buffer{}, "Broken", "", "missing style")
	assert.ErrorIs(t, err, library.ErrNotFound)

	t.Run("SwitchAppliesStyle", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, projectSwitchRunE(ctx, store, &out, "museum short", editor.StrategyMerge))
		assert.Contains(t, out.String(), `Switched to project "Museum short"`)
		assert.Equal(t, "oil painting", store.Document().ActiveValues()["art_style"])

		p, ok := store.ActiveProject()
		require.True(t, ok)
		assert.Equal(t, "Museum short", p.Name)
	})

	t.Run("List", func(t *testing.T) {
		cmd, out := newOutputCmd("text")
		require.NoError(t, projectListRunE(cmd, store))
		assert.Contains(t, out.String(), "* ")
		assert.Contains(t, out.String(), " - Museum short: Paintings come alive")
	})

	t.Run("SwitchNone", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, projectSwitchRunE(ctx, store, &out, "", editor.StrategyMerge))
		assert.Equal(t, "No project active.\n", out.String())
		_, ok := store.ActiveProject()
		assert.False(t, ok)
	})

	t.Run("SwitchUnknown", func(t *testing.T) {
		err := projectSwitchRunE(ctx, store, &bytes.Buffer{}, "Opera", editor.StrategyMerge)
		assert.ErrorIs(t, err, library.ErrNotFound)
	})
}
