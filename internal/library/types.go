// Package library stores reusable prompt fragments, scene packs and projects
// next to the in-progress editor state. Persistence is delegated to a
// Persister so the same Store runs over a JSON file, SQLite or memory.
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/karolswdev/promptforge/internal/editor"
)

// Kind names a fragment collection.
type Kind string

const (
	KindCharacter Kind = "character"
	KindScene     Kind = "scene"
	KindStyle     Kind = "style"
	KindAudio     Kind = "audio"
	KindAction    Kind = "action"
	KindSetting   Kind = "setting"
)

// Kinds lists every fragment kind in display order.
var Kinds = []Kind{KindCharacter, KindScene, KindStyle, KindAudio, KindAction, KindSetting}

// ParseKind validates a kind name.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Fragment is a named snapshot of field values.
type Fragment struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Name      string         `json:"name"`
	ProjectID string         `json:"projectId,omitempty"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ScenePack is a named bundle of generated scene variants.
type ScenePack struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	ProjectID string           `json:"projectId,omitempty"`
	Variants  []map[string]any `json:"variants"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Project groups fragments and can carry a default style that is applied
// when the project becomes active.
type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	DefaultStyle string    `json:"defaultStyle,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SnapshotVersion is the current snapshot layout version.
const SnapshotVersion = 1

// Snapshot is everything the library persists, saved and loaded as one unit.
type Snapshot struct {
	Version       int                 `json:"version"`
	Editor        editor.State        `json:"editor"`
	Fragments     map[Kind][]Fragment `json:"fragments"`
	Packs         []ScenePack         `json:"packs"`
	Projects      []Project           `json:"projects"`
	ActiveProject string              `json:"activeProject,omitempty"`
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version:   SnapshotVersion,
		Editor:    *editor.NewState(),
		Fragments: map[Kind][]Fragment{},
	}
}

// Persister loads and saves whole snapshots. Load returns ErrNoSnapshot when
// nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}
