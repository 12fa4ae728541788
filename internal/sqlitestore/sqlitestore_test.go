package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karolswdev/promptforge/internal/editor"
	"github.com/karolswdev/promptforge/internal/library"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestStore_LoadEmpty(t *testing.T) {
	s, _ := openTemp(t)
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, library.ErrNoSnapshot)
}

func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)

	first := library.NewSnapshot()
	first.ActiveProject = "a"
	require.NoError(t, s.Save(ctx, first))

	second := library.NewSnapshot()
	second.ActiveProject = "b"
	require.NoError(t, s.Save(ctx, second))

	var rows int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&rows))
	assert.Equal(t, 1, rows)

	require.NoError(t, s.Close())
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	loaded, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", loaded.ActiveProject)
}

func TestStore_BacksLibrary(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	lib, err := library.Open(ctx, s, library.Options{})
	require.NoError(t, err)
	require.NoError(t, lib.UpdateEditor(ctx, func(e *editor.Editor) error {
		return e.SetValue("subject", "a glass greenhouse")
	}))

	again, err := library.Open(ctx, s, library.Options{})
	require.NoError(t, err)
	assert.Equal(t, "a glass greenhouse", again.Document().Values["subject"])
}

func TestOpenDB_Memory(t *testing.T) {
	db, err := OpenDB(":memory:", `CREATE TABLE t (x INTEGER)`)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`INSERT INTO t (x) VALUES (1)`)
	require.NoError(t, err)
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n))
	assert.Equal(t, 1, n)
}
