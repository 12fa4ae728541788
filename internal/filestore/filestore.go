// Package filestore persists the library snapshot as a JSON file in the
// configuration directory.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/karolswdev/promptforge/internal/library"
)

// DefaultFileName is the snapshot file name inside the config directory.
const DefaultFileName = "library.json"

// ErrDecode indicates the snapshot file exists but is not valid JSON.
var ErrDecode = errors.New("failed to decode library file")

// Store reads and writes a snapshot at Path.
type Store struct {
	Path string
}

// New returns a Store writing to path.
func New(path string) *Store { return &Store{Path: path} }

// Load implements library.Persister.
func (s *Store) Load(ctx context.Context) (*library.Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("path", s.Path).Msg("Library file not found")
			return nil, library.ErrNoSnapshot
		}
		return nil, err
	}
	var snap library.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Error().Err(err).Str("path", s.Path).Msg("Failed to decode library file")
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	log.Debug().Str("path", s.Path).Int("bytes", len(data)).Msg("Loaded library file")
	return &snap, nil
}

// Save implements library.Persister. The file is replaced atomically so a
// crash never leaves a half-written snapshot behind.
func (s *Store) Save(ctx context.Context, snap *library.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".library-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return err
	}
	log.Debug().Str("path", s.Path).Int("bytes", len(data)).Msg("Wrote library file")
	return nil
}
