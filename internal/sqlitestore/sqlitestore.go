// Package sqlitestore keeps the library snapshot in a SQLite database
// (modernc.org/sqlite, no cgo) and exposes the connection helper other
// packages use for their own tables.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/karolswdev/promptforge/internal/library"
)

// DefaultFileName is the database file name inside the config directory.
const DefaultFileName = "promptforge.db"

// snapshotName is the row holding the library snapshot.
const snapshotName = "library"

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
    name       TEXT PRIMARY KEY,
    body       TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);`

// ErrOpen wraps failures opening or preparing the database.
var ErrOpen = errors.New("failed to open sqlite database")

// OpenDB opens path with WAL journaling and a busy timeout, then executes
// each schema statement. ":memory:" is pinned to one connection so every
// query sees the same database.
func OpenDB(path string, schemas ...string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("%w: mkdir: %w", ErrOpen, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	stmts := append([]string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}, schemas...)
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %w", ErrOpen, firstLine(s), err)
		}
	}
	log.Debug().Str("path", path).Msg("Opened sqlite database")
	return db, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' && i > 0 {
			return s[:i]
		}
	}
	return s
}

// Store is a library.Persister backed by the snapshots table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and prepares the snapshots table.
func Open(path string) (*Store, error) {
	db, err := OpenDB(path, snapshotSchema)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// NewWithDB uses an already opened database, creating the table if needed.
func NewWithDB(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(snapshotSchema); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Load implements library.Persister.
func (s *Store) Load(ctx context.Context) (*library.Snapshot, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE name = ?`, snapshotName).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, library.ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	var snap library.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Save implements library.Persister.
func (s *Store) Save(ctx context.Context, snap *library.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO snapshots (name, body, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		snapshotName, string(body), s.now().UnixMilli())
	if err != nil {
		return err
	}
	log.Debug().Int("bytes", len(body)).Msg("Wrote library snapshot to sqlite")
	return nil
}
