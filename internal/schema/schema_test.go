package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	require.NotEmpty(t, s.Fields)

	f, ok := s.Field("setting")
	require.True(t, ok, "default schema should define 'setting'")
	assert.Equal(t, TypeSelect, f.Type)
	assert.True(t, f.HasOption("misty forest"))
	assert.False(t, f.HasOption("the moon"))

	assert.Contains(t, s.Category("character"), CharactersKey)
	assert.Equal(t, "subject", s.Categories()[0], "categories keep first-seen order")
}

func TestParse(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		s, err := Parse([]byte(`
version: 2
fields:
  - key: mood
    type: select
    category: style
    options:
      - value: calm
      - value: tense
        weight: 4
  - key: notes
    type: text
    category: misc
`))
		require.NoError(t, err)
		assert.Equal(t, 2, s.Version)
		assert.Equal(t, []string{"mood", "notes"}, s.Keys())
		mood, _ := s.Field("mood")
		assert.Equal(t, 1.0, mood.Options[0].EffectiveWeight())
		assert.Equal(t, 4.0, mood.Options[1].EffectiveWeight())
	})

	t.Run("DuplicateKey", func(t *testing.T) {
		_, err := Parse([]byte(`
fields:
  - {key: a, type: text}
  - {key: a, type: text}
`))
		require.ErrorIs(t, err, ErrSchemaInvalid)
		assert.Contains(t, err.Error(), "duplicate key")
	})

	t.Run("SelectWithoutOptions", func(t *testing.T) {
		_, err := Parse([]byte(`fields: [{key: a, type: select}]`))
		require.ErrorIs(t, err, ErrSchemaInvalid)
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := Parse([]byte(`fields: [{key: a, type: slider}]`))
		require.ErrorIs(t, err, ErrSchemaInvalid)
	})

	t.Run("NegativeWeight", func(t *testing.T) {
		_, err := Parse([]byte(`fields: [{key: a, type: select, options: [{value: x, weight: -1}]}]`))
		require.ErrorIs(t, err, ErrSchemaInvalid)
	})

	t.Run("MalformedYAML", func(t *testing.T) {
		_, err := Parse([]byte(`fields: - key`))
		require.ErrorIs(t, err, ErrSchemaParse)
	})
}

func TestLoad(t *testing.T) {
	t.Run("FileNotFound", func(t *testing.T) {
		s, err := Load(filepath.Join(t.TempDir(), "schema.yaml"))
		require.NoError(t, err, "a missing schema file falls back to the default")
		assert.Equal(t, Default().Keys(), s.Keys())
	})

	t.Run("FromFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.yaml")
		require.NoError(t, os.WriteFile(path, []byte("fields: [{key: only, type: text, category: x}]"), 0644))
		s, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"only"}, s.Keys())
	})
}
