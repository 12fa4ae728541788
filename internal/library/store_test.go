package library

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karolswdev/promptforge/internal/editor"
	"github.com/karolswdev/promptforge/internal/schema"
)

// fixedClock returns a clock frozen at one instant, so ids rely on the
// generator's monotonic bump.
func fixedClock() func() time.Time {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return at }
}

func openTestStore(t *testing.T, p Persister) *Store {
	t.Helper()
	s, err := Open(context.Background(), p, Options{Schema: schema.Default(), Now: fixedClock()})
	require.NoError(t, err)
	return s
}

func TestOpen_EmptyPersister(t *testing.T) {
	s := openTestStore(t, NewMemoryPersister())
	assert.Empty(t, s.ListFragments(KindScene, false))
	assert.Empty(t, s.Document().Values)
}

func TestOpen_LoadError(t *testing.T) {
	_, err := Open(context.Background(), failingLoader{}, Options{})
	assert.ErrorIs(t, err, ErrLoad)
}

type failingLoader struct{}

func (failingLoader) Load(context.Context) (*Snapshot, error) { return nil, errors.New("disk on fire") }
func (failingLoader) Save(context.Context, *Snapshot) error   { return nil }

func TestSaveFragment(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	s := openTestStore(t, p)

	f, err := s.SaveFragment(ctx, KindScene, "Night market", map[string]any{"setting": "neon-lit city street"})
	require.NoError(t, err)
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, KindScene, f.Kind)
	assert.Equal(t, 1, p.Saves, "each mutation persists once")

	got, err := s.GetFragment(KindScene, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	byName, err := s.GetFragment(KindScene, "night MARKET")
	require.NoError(t, err)
	assert.Equal(t, f.ID, byName.ID)

	_, err = s.SaveFragment(ctx, KindScene, "  ", nil)
	assert.ErrorIs(t, err, ErrEmptyName)
	_, err = s.SaveFragment(ctx, Kind("prop"), "x", nil)
	assert.ErrorIs(t, err, ErrUnknownKind)

	reopened := openTestStore(t, p)
	assert.Len(t, reopened.ListFragments(KindScene, false), 1, "state survives reopening")
}

func TestSaveFragment_IdsAreUnique(t *testing.T) {
	s := openTestStore(t, NewMemoryPersister())
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		f, err := s.SaveFragment(context.Background(), KindStyle, fmt.Sprintf("style %d", i), nil)
		require.NoError(t, err)
		assert.False(t, seen[f.ID], "duplicate id %s", f.ID)
		seen[f.ID] = true
	}
}

func TestSaveFragment_TruncatesOldest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, NewMemoryPersister())

	var first Fragment
	for i := 0; i < DefaultMaxItems; i++ {
		f, err := s.SaveFragment(ctx, KindCharacter, fmt.Sprintf("char %d", i), map[string]any{"n": i})
		require.NoError(t, err)
		if i == 0 {
			first = f
		}
	}
	require.Len(t, s.ListFragments(KindCharacter, false), 20)

	_, err := s.SaveFragment(ctx, KindCharacter, "char 20", nil)
	require.NoError(t, err)

	list := s.ListFragments(KindCharacter, false)
	assert.Len(t, list, 20, "list stays at the limit")
	assert.Equal(t, "char 1", list[0].Name, "oldest is dropped")
	assert.Equal(t, "char 20", list[19].Name)
	_, err = s.GetFragment(KindCharacter, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteFragment(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, NewMemoryPersister())
	f, err := s.SaveFragment(ctx, KindAudio, "rain", nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteFragment(ctx, KindAudio, f.ID))
	assert.Empty(t, s.ListFragments(KindAudio, false))
	assert.ErrorIs(t, s.DeleteFragment(ctx, KindAudio, f.ID), ErrNotFound)
}

func TestPersistFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	s := openTestStore(t, p)

	p.Err = errors.New("quota exceeded")
	_, err := s.SaveFragment(ctx, KindScene, "lost", nil)
	require.ErrorIs(t, err, ErrPersist)
	assert.Empty(t, s.ListFragments(KindScene, false))
}

func TestLoadFragment(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, NewMemoryPersister())

	require.NoError(t, s.UpdateEditor(ctx, func(e *editor.Editor) error {
		return e.SetValue("subject", "a lighthouse")
	}))
	scene, err := s.SaveFragment(ctx, KindScene, "coast", map[string]any{"weather": "storm"})
	require.NoError(t, err)

	_, err = s.LoadFragment(ctx, KindScene, scene.ID, editor.StrategyMerge)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"subject": "a lighthouse", "weather": "storm"}, s.Document().Values)

	_, err = s.LoadFragment(ctx, KindScene, scene.ID, editor.StrategyReplace)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"weather": "storm"}, s.Document().Values)

	_, err = s.LoadFragment(ctx, KindScene, "missing", editor.StrategyMerge)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateEditor_FailureIsNotSaved(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	s := openTestStore(t, p)

	err := s.UpdateEditor(ctx, func(e *editor.Editor) error {
		require.NoError(t, e.SetValue("subject", "half done"))
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Empty(t, s.Document().Values)
	assert.Zero(t, p.Saves)
}

func TestProjects(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, NewMemoryPersister())

	style, err := s.SaveFragment(ctx, KindStyle, "noir", map[string]any{"art_style": "oil painting", "color_palette": "black and white"})
	require.NoError(t, err)

	_, err = s.CreateProject(ctx, "Bad", "", "no-such-style")
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := s.CreateProject(ctx, "Detective short", "rainy city", "noir")
	require.NoError(t, err)
	assert.Equal(t, style.ID, p.DefaultStyle, "style names resolve to ids")

	_, err = s.SwitchProject(ctx, p.ID, editor.StrategyMerge)
	require.NoError(t, err)
	active, ok := s.ActiveProject()
	require.True(t, ok)
	assert.Equal(t, p.ID, active.ID)
	assert.Equal(t, "oil painting", s.Document().Values["art_style"], "switching applies the default style")

	scene, err := s.SaveFragment(ctx, KindScene, "alley", nil)
	require.NoError(t, err)
	assert.Equal(t, p.ID, scene.ProjectID, "new fragments join the active project")
	assert.Len(t, s.ListFragments(KindScene, true), 1)

	_, err = s.SwitchProject(ctx, "", editor.StrategyMerge)
	require.NoError(t, err)
	_, ok = s.ActiveProject()
	assert.False(t, ok)

	_, err = s.SwitchProject(ctx, p.ID, editor.StrategyMerge)
	require.NoError(t, err)
	require.NoError(t, s.DeleteProject(ctx, p.ID))
	_, ok = s.ActiveProject()
	assert.False(t, ok, "deleting the active project clears it")
	assert.Empty(t, s.ListProjects())
	assert.ErrorIs(t, s.DeleteProject(ctx, p.ID), ErrNotFound)
}

func TestGeneratePack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, NewMemoryPersister())
	require.NoError(t, s.UpdateEditor(ctx, func(e *editor.Editor) error {
		if err := e.SetValue("subject", "a lighthouse"); err != nil {
			return err
		}
		return e.SetValue("setting", "misty forest")
	}))
	before := s.Document()

	pack, err := s.GeneratePack(ctx, "variants", 4, editor.RandomOptions{Rand: editor.NewRand(11)})
	require.NoError(t, err)
	require.Len(t, pack.Variants, 4)
	for _, v := range pack.Variants {
		assert.Equal(t, "a lighthouse", v["subject"])
		assert.Contains(t, v, "setting")
	}
	assert.Equal(t, before, s.Document(), "pack generation leaves the editor alone")

	got, err := s.GetPack("VARIANTS")
	require.NoError(t, err)
	assert.Equal(t, pack.ID, got.ID)
	assert.Len(t, s.ListPacks(), 1)

	_, err = s.GeneratePack(ctx, "none", 0, editor.RandomOptions{})
	assert.ErrorIs(t, err, editor.ErrInvalidValue)

	require.NoError(t, s.DeletePack(ctx, pack.ID))
	assert.Empty(t, s.ListPacks())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Scene ")
	require.NoError(t, err)
	assert.Equal(t, KindScene, k)
	_, err = ParseKind("prop")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
