// Package transfer implements the portable JSON envelope used to export
// and import scenes, characters and full backups.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/karolswdev/promptforge/internal/library"
)

// FormatVersion is written into every envelope.
const FormatVersion = "1.0"

// Type identifies what an envelope carries.
type Type string

const (
	TypeScene     Type = "scene"
	TypeCharacter Type = "character"
	TypeBackup    Type = "backup"
)

// ErrInvalidEnvelope is returned for malformed JSON, unknown types and
// envelopes missing their payload.
var ErrInvalidEnvelope = errors.New("invalid export file")

// Envelope is the file format. Single exports use Data; backups use
// Characters and Scenes.
type Envelope struct {
	Type       Type               `json:"type"`
	Version    string             `json:"version"`
	Timestamp  time.Time          `json:"timestamp"`
	Data       *library.Fragment  `json:"data,omitempty"`
	Characters []library.Fragment `json:"characters,omitempty"`
	Scenes     []library.Fragment `json:"scenes,omitempty"`
}

// Library is the part of library.Store used here.
type Library interface {
	ListFragments(kind library.Kind, projectOnly bool) []library.Fragment
	AddFragment(ctx context.Context, f library.Fragment) (library.Fragment, error)
}

// ExportFragment wraps a scene or character in an envelope.
func ExportFragment(f library.Fragment, now time.Time) (Envelope, error) {
	var t Type
	switch f.Kind {
	case library.KindScene:
		t = TypeScene
	case library.KindCharacter:
		t = TypeCharacter
	default:
		return Envelope{}, fmt.Errorf("%w: cannot export %s fragments", ErrInvalidEnvelope, f.Kind)
	}
	return Envelope{Type: t, Version: FormatVersion, Timestamp: now.UTC(), Data: &f}, nil
}

// ExportBackup collects every stored character and scene.
func ExportBackup(lib Library, now time.Time) Envelope {
	return Envelope{
		Type:       TypeBackup,
		Version:    FormatVersion,
		Timestamp:  now.UTC(),
		Characters: lib.ListFragments(library.KindCharacter, false),
		Scenes:     lib.ListFragments(library.KindScene, false),
	}
}

// Encode writes env as indented JSON.
func Encode(w io.Writer, env Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// Decode parses and validates an envelope.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	switch env.Type {
	case TypeScene, TypeCharacter:
		if env.Data == nil {
			return Envelope{}, fmt.Errorf("%w: %s export has no data", ErrInvalidEnvelope, env.Type)
		}
	case TypeBackup:
	default:
		return Envelope{}, fmt.Errorf("%w: unknown type %q", ErrInvalidEnvelope, env.Type)
	}
	if env.Version != FormatVersion {
		log.Warn().Str("version", env.Version).Str("expected", FormatVersion).Msg("Importing export file with a different version")
	}
	return env, nil
}

// Import decodes data and stores every record it carries under new ids.
// Records keep their names, data and creation time and join the active
// project. Every record is checked before the first is stored, so a record
// without a name rejects the whole file with ErrInvalidEnvelope and nothing
// is imported. The stored fragments are returned in file order.
func Import(ctx context.Context, lib Library, data []byte) ([]library.Fragment, error) {
	env, err := Decode(data)
	if err != nil {
		return nil, err
	}

	type item struct {
		kind library.Kind
		f    library.Fragment
	}
	var items []item
	switch env.Type {
	case TypeScene:
		items = append(items, item{library.KindScene, *env.Data})
	case TypeCharacter:
		items = append(items, item{library.KindCharacter, *env.Data})
	case TypeBackup:
		for _, f := range env.Characters {
			items = append(items, item{library.KindCharacter, f})
		}
		for _, f := range env.Scenes {
			items = append(items, item{library.KindScene, f})
		}
	}

	for i, it := range items {
		if strings.TrimSpace(it.f.Name) == "" {
			return nil, fmt.Errorf("%w: %s record %d has no name", ErrInvalidEnvelope, it.kind, i+1)
		}
	}

	out := make([]library.Fragment, 0, len(items))
	for _, it := range items {
		f := it.f
		f.Kind = it.kind
		f.ID = ""
		f.ProjectID = ""
		stored, err := lib.AddFragment(ctx, f)
		if err != nil {
			return out, fmt.Errorf("import %s %q: %w", it.kind, f.Name, err)
		}
		out = append(out, stored)
	}
	log.Info().Str("type", string(env.Type)).Int("records", len(out)).Msg("Imported export file")
	return out, nil
}
