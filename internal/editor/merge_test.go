package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{
		"":         StrategyMerge,
		"merge":    StrategyMerge,
		"REPLACE":  StrategyReplace,
		" smart  ": StrategySmart,
	} {
		got, err := ParseStrategy(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	_, err := ParseStrategy("overwrite")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestMergeValues(t *testing.T) {
	current := map[string]any{"a": 1, "b": 2}
	incoming := map[string]any{"b": 3, "c": 4}

	t.Run("Replace", func(t *testing.T) {
		assert.Equal(t, map[string]any{"b": 3, "c": 4}, MergeValues(current, incoming, StrategyReplace))
	})

	t.Run("Merge", func(t *testing.T) {
		assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, MergeValues(current, incoming, StrategyMerge))
	})

	t.Run("Smart", func(t *testing.T) {
		assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, MergeValues(current, incoming, StrategySmart))
	})

	t.Run("InputsUntouched", func(t *testing.T) {
		_ = MergeValues(current, incoming, StrategyMerge)
		assert.Equal(t, map[string]any{"a": 1, "b": 2}, current)
		assert.Equal(t, map[string]any{"b": 3, "c": 4}, incoming)
	})
}

func TestMergeValues_SmartCharacters(t *testing.T) {
	current := map[string]any{
		"setting": "forest",
		"characters": []any{
			map[string]any{"name": "Ada", "role": "pilot"},
			map[string]any{"name": "Borin", "role": "smith"},
		},
	}
	incoming := map[string]any{
		"characters": []any{
			map[string]any{"name": "ada", "role": "captain"},
			map[string]any{"name": "Cleo", "role": "bard"},
		},
	}

	t.Run("SmartMergesByName", func(t *testing.T) {
		got := MergeValues(current, incoming, StrategySmart)
		assert.Equal(t, "forest", got["setting"])
		assert.Equal(t, []any{
			map[string]any{"name": "ada", "role": "captain"},
			map[string]any{"name": "Borin", "role": "smith"},
			map[string]any{"name": "Cleo", "role": "bard"},
		}, got["characters"])
	})

	t.Run("MergeReplacesArray", func(t *testing.T) {
		got := MergeValues(current, incoming, StrategyMerge)
		assert.Equal(t, incoming["characters"], got["characters"])
	})

	t.Run("UnnamedCharactersAppend", func(t *testing.T) {
		got := MergeValues(current, map[string]any{
			"characters": []map[string]any{{"role": "extra"}},
		}, StrategySmart)
		assert.Len(t, got["characters"], 3)
	})

	t.Run("NonObjectEntriesFallBackToMerge", func(t *testing.T) {
		got := MergeValues(current, map[string]any{"characters": []any{"just a string"}}, StrategySmart)
		assert.Equal(t, []any{"just a string"}, got["characters"])
	})
}
