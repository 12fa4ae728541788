package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karolswdev/promptforge/internal/schema"
)

func weightedSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Parse([]byte(`
fields:
  - key: theme
    type: select
    category: scene
    options:
      - {value: ruins, tags: [old]}
  - key: palette
    type: select
    category: style
    options:
      - {value: sepia, tags: [old]}
      - {value: neon}
  - key: odds
    type: select
    category: style
    options:
      - {value: rare, weight: 1}
      - {value: common, weight: 9}
  - key: note
    type: text
    category: misc
`))
	require.NoError(t, err)
	return s
}

func TestRandomValues_Weighted(t *testing.T) {
	s := weightedSchema(t)
	rng := NewRand(42)

	common := 0
	const runs = 10000
	for i := 0; i < runs; i++ {
		picked, err := RandomValues(s, []string{"odds"}, false, rng)
		require.NoError(t, err)
		if picked["odds"] == "common" {
			common++
		}
	}
	assert.InDelta(t, 0.9, float64(common)/runs, 0.03, "weights should bias selection")
}

func TestRandomValues_Coherent(t *testing.T) {
	s := weightedSchema(t)
	rng := NewRand(7)

	sepia := 0
	const runs = 4000
	for i := 0; i < runs; i++ {
		picked, err := RandomValues(s, []string{"theme", "palette"}, true, rng)
		require.NoError(t, err)
		assert.Equal(t, "ruins", picked["theme"])
		if picked["palette"] == "sepia" {
			sepia++
		}
	}
	// sepia shares the "old" tag with ruins: weight 3 against 1.
	assert.InDelta(t, 0.75, float64(sepia)/runs, 0.05)
}

func TestRandomValues_Deterministic(t *testing.T) {
	s := schema.Default()
	keys := RandomKeys(s, NewDocument())
	a, err := RandomValues(s, keys, true, NewRand(99))
	require.NoError(t, err)
	b, err := RandomValues(s, keys, true, NewRand(99))
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed should yield the same picks")
}

func TestRandomValues_Errors(t *testing.T) {
	s := weightedSchema(t)

	_, err := RandomValues(s, []string{"note"}, false, NewRand(1))
	assert.ErrorIs(t, err, ErrNotRandomizable)

	_, err = RandomValues(s, []string{"missing"}, false, NewRand(1))
	assert.ErrorIs(t, err, schema.ErrUnknownField)

	_, err = RandomValues(nil, []string{"odds"}, false, NewRand(1))
	assert.ErrorIs(t, err, ErrNoSchema)
}

func TestRandomKeys(t *testing.T) {
	s := weightedSchema(t)
	doc := NewDocument()
	assert.Equal(t, []string{"theme", "palette", "odds"}, RandomKeys(s, doc), "no enabled fields means all select fields")

	doc.Enabled["palette"] = true
	doc.Enabled["note"] = true
	assert.Equal(t, []string{"palette"}, RandomKeys(s, doc))
}

func TestEditor_Randomize(t *testing.T) {
	e := New(nil, weightedSchema(t))
	require.NoError(t, e.SetEnabled("odds", true))

	picked, err := e.Randomize(RandomOptions{Rand: NewRand(3)})
	require.NoError(t, err)
	require.Contains(t, picked, "odds")
	assert.Equal(t, picked["odds"], e.Document().Values["odds"])

	require.NoError(t, e.Undo())
	_, has := e.Document().Values["odds"]
	assert.False(t, has, "randomize is a single undoable step")

	_, err = New(nil, nil).Randomize(RandomOptions{})
	assert.ErrorIs(t, err, ErrNoSchema)
}
