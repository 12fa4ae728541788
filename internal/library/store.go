package library

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/karolswdev/promptforge/internal/editor"
	"github.com/karolswdev/promptforge/internal/schema"
)

// DefaultMaxItems is how many records each collection keeps.
const DefaultMaxItems = 20

// Options configures a Store. Zero values select defaults.
type Options struct {
	// MaxItems caps each fragment kind and the scene packs. Oldest records are dropped first.
	MaxItems int
	// Schema is attached to the editor for validation and randomization.
	Schema *schema.Schema
	// Now is the clock used for timestamps and ids.
	Now func() time.Time
	// HistoryLimit caps the editor undo stack.
	HistoryLimit int
}

// Store is the library state container. All mutations go through it, are
// applied to a copy of the snapshot and only become visible once the
// Persister accepted the copy. Store is safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	p    Persister
	snap *Snapshot
	opts Options
	ids  *IDGenerator
}

// Open loads the current snapshot from p, starting empty when p has none.
func Open(ctx context.Context, p Persister, opts Options) (*Store, error) {
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = editor.DefaultHistoryLimit
	}

	snap, err := p.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		log.Debug().Msg("No library snapshot stored yet, starting empty")
		snap = NewSnapshot()
	case err != nil:
		log.Error().Err(err).Msg("Failed to load library snapshot")
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if snap.Fragments == nil {
		snap.Fragments = map[Kind][]Fragment{}
	}

	s := &Store{p: p, snap: snap, opts: opts, ids: NewIDGenerator(opts.Now)}
	for _, list := range snap.Fragments {
		for _, f := range list {
			s.ids.Observe(f.ID)
		}
	}
	for _, pk := range snap.Packs {
		s.ids.Observe(pk.ID)
	}
	for _, pr := range snap.Projects {
		s.ids.Observe(pr.ID)
	}
	return s, nil
}

// Schema returns the schema attached to the store, possibly nil.
func (s *Store) Schema() *schema.Schema { return s.opts.Schema }

// NewID issues an id from the store's generator.
func (s *Store) NewID() string { return s.ids.Next() }

// mutate runs fn on a copy of the snapshot and persists it. The live
// snapshot is replaced only when both succeed.
func (s *Store) mutate(ctx context.Context, fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := cloneSnapshot(s.snap)
	next.Version = SnapshotVersion
	if err := fn(next); err != nil {
		return err
	}
	if err := s.p.Save(ctx, next); err != nil {
		log.Error().Err(err).Msg("Failed to persist library snapshot")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.snap = next
	return nil
}

func (s *Store) view(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.snap)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *Snapshot {
	var out *Snapshot
	s.view(func(snap *Snapshot) { out = cloneSnapshot(snap) })
	return out
}

// --- Fragments ---

// SaveFragment stores data as a new fragment of kind in the active project.
func (s *Store) SaveFragment(ctx context.Context, kind Kind, name string, data map[string]any) (Fragment, error) {
	return s.AddFragment(ctx, Fragment{Kind: kind, Name: name, Data: data})
}

// AddFragment stores f under a freshly issued id. Any id on f is ignored so
// imported records never collide with existing ones. A zero CreatedAt is set
// to now, and an empty ProjectID is set to the active project.
func (s *Store) AddFragment(ctx context.Context, f Fragment) (Fragment, error) {
	kind, err := ParseKind(string(f.Kind))
	if err != nil {
		return Fragment{}, err
	}
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return Fragment{}, ErrEmptyName
	}
	f.Kind = kind
	f.ID = s.ids.Next()
	f.Data = editor.CloneValues(f.Data)
	if f.Data == nil {
		f.Data = map[string]any{}
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.opts.Now()
	}

	err = s.mutate(ctx, func(snap *Snapshot) error {
		if f.ProjectID == "" {
			f.ProjectID = snap.ActiveProject
		}
		list := append(snap.Fragments[kind], f)
		if over := len(list) - s.opts.MaxItems; over > 0 {
			log.Info().Str("kind", string(kind)).Int("dropped", over).Msg("Fragment limit reached, dropping oldest")
			list = list[over:]
		}
		snap.Fragments[kind] = list
		return nil
	})
	if err != nil {
		return Fragment{}, err
	}
	log.Debug().Str("kind", string(kind)).Str("id", f.ID).Str("name", f.Name).Msg("Saved fragment")
	return cloneFragment(f), nil
}

// GetFragment returns the fragment of kind matching ref, which is either an
// id or a name (case-insensitive, newest wins).
func (s *Store) GetFragment(kind Kind, ref string) (Fragment, error) {
	var (
		out   Fragment
		found bool
	)
	s.view(func(snap *Snapshot) {
		list := snap.Fragments[kind]
		for _, f := range list {
			if f.ID == ref {
				out, found = cloneFragment(f), true
				return
			}
		}
		for i := len(list) - 1; i >= 0; i-- {
			if strings.EqualFold(list[i].Name, strings.TrimSpace(ref)) {
				out, found = cloneFragment(list[i]), true
				return
			}
		}
	})
	if !found {
		return Fragment{}, fmt.Errorf("%w: %s %q", ErrNotFound, kind, ref)
	}
	return out, nil
}

// ListFragments returns fragments of kind, oldest first. With projectOnly
// set and a project active, only that project's fragments are returned.
func (s *Store) ListFragments(kind Kind, projectOnly bool) []Fragment {
	var out []Fragment
	s.view(func(snap *Snapshot) {
		for _, f := range snap.Fragments[kind] {
			if projectOnly && snap.ActiveProject != "" && f.ProjectID != snap.ActiveProject {
				continue
			}
			out = append(out, cloneFragment(f))
		}
	})
	return out
}

// DeleteFragment removes the fragment of kind with id.
func (s *Store) DeleteFragment(ctx context.Context, kind Kind, id string) error {
	return s.mutate(ctx, func(snap *Snapshot) error {
		list := snap.Fragments[kind]
		i := slices.IndexFunc(list, func(f Fragment) bool { return f.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
		}
		snap.Fragments[kind] = slices.Delete(list, i, i+1)
		return nil
	})
}

// LoadFragment applies a stored fragment to the editor with strategy.
func (s *Store) LoadFragment(ctx context.Context, kind Kind, ref string, strategy editor.Strategy) (Fragment, error) {
	f, err := s.GetFragment(kind, ref)
	if err != nil {
		return Fragment{}, err
	}
	err = s.UpdateEditor(ctx, func(e *editor.Editor) error {
		e.Apply(f.Data, strategy)
		return nil
	})
	if err != nil {
		return Fragment{}, err
	}
	log.Info().Str("kind", string(kind)).Str("id", f.ID).Str("strategy", string(strategy)).Msg("Loaded fragment into editor")
	return f, nil
}

// --- Editor ---

// Document returns a copy of the in-progress document.
func (s *Store) Document() editor.Document {
	var doc editor.Document
	s.view(func(snap *Snapshot) { doc = snap.Editor.Document.Clone() })
	return doc
}

// UpdateEditor runs fn against the editor and persists the result. If fn
// fails nothing is saved.
func (s *Store) UpdateEditor(ctx context.Context, fn func(*editor.Editor) error) error {
	return s.mutate(ctx, func(snap *Snapshot) error {
		e := editor.New(&snap.Editor, s.opts.Schema)
		e.SetHistoryLimit(s.opts.HistoryLimit)
		return fn(e)
	})
}

// --- Scene packs ---

// SavePack stores variants as a new scene pack.
func (s *Store) SavePack(ctx context.Context, name string, variants []map[string]any) (ScenePack, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ScenePack{}, ErrEmptyName
	}
	pack := ScenePack{ID: s.ids.Next(), Name: name, CreatedAt: s.opts.Now()}
	for _, v := range variants {
		pack.Variants = append(pack.Variants, editor.CloneValues(v))
	}
	err := s.mutate(ctx, func(snap *Snapshot) error {
		pack.ProjectID = snap.ActiveProject
		list := append(snap.Packs, pack)
		if over := len(list) - s.opts.MaxItems; over > 0 {
			log.Info().Int("dropped", over).Msg("Scene pack limit reached, dropping oldest")
			list = list[over:]
		}
		snap.Packs = list
		return nil
	})
	if err != nil {
		return ScenePack{}, err
	}
	return clonePack(pack), nil
}

// GeneratePack builds count randomized variants on top of the current
// document, without changing it, and saves them as a pack.
func (s *Store) GeneratePack(ctx context.Context, name string, count int, opts editor.RandomOptions) (ScenePack, error) {
	if s.opts.Schema == nil {
		return ScenePack{}, editor.ErrNoSchema
	}
	if count <= 0 {
		return ScenePack{}, fmt.Errorf("%w: variant count must be positive", editor.ErrInvalidValue)
	}
	doc := s.Document()
	keys := opts.Keys
	if len(keys) == 0 {
		keys = editor.RandomKeys(s.opts.Schema, doc)
	}
	base := doc.ActiveValues()
	variants := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		picked, err := editor.RandomValues(s.opts.Schema, keys, opts.Coherent, opts.Rand)
		if err != nil {
			return ScenePack{}, err
		}
		variants = append(variants, editor.MergeValues(base, picked, editor.StrategyMerge))
	}
	return s.SavePack(ctx, name, variants)
}

// GetPack returns the pack with id or name.
func (s *Store) GetPack(ref string) (ScenePack, error) {
	var (
		out   ScenePack
		found bool
	)
	s.view(func(snap *Snapshot) {
		for i := len(snap.Packs) - 1; i >= 0; i-- {
			p := snap.Packs[i]
			if p.ID == ref || strings.EqualFold(p.Name, strings.TrimSpace(ref)) {
				out, found = clonePack(p), true
				return
			}
		}
	})
	if !found {
		return ScenePack{}, fmt.Errorf("%w: pack %q", ErrNotFound, ref)
	}
	return out, nil
}

// ListPacks returns every stored pack, oldest first.
func (s *Store) ListPacks() []ScenePack {
	var out []ScenePack
	s.view(func(snap *Snapshot) {
		for _, p := range snap.Packs {
			out = append(out, clonePack(p))
		}
	})
	return out
}

// DeletePack removes the pack with id.
func (s *Store) DeletePack(ctx context.Context, id string) error {
	return s.mutate(ctx, func(snap *Snapshot) error {
		i := slices.IndexFunc(snap.Packs, func(p ScenePack) bool { return p.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: pack %q", ErrNotFound, id)
		}
		snap.Packs = slices.Delete(snap.Packs, i, i+1)
		return nil
	})
}

// --- Projects ---

// CreateProject stores a new project. defaultStyle, when set, must reference
// an existing style fragment.
func (s *Store) CreateProject(ctx context.Context, name, description, defaultStyle string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, ErrEmptyName
	}
	if defaultStyle != "" {
		style, err := s.GetFragment(KindStyle, defaultStyle)
		if err != nil {
			return Project{}, err
		}
		defaultStyle = style.ID
	}
	p := Project{ID: s.ids.Next(), Name: name, Description: description, DefaultStyle: defaultStyle, CreatedAt: s.opts.Now()}
	err := s.mutate(ctx, func(snap *Snapshot) error {
		snap.Projects = append(snap.Projects, p)
		return nil
	})
	if err != nil {
		return Project{}, err
	}
	log.Debug().Str("id", p.ID).Str("name", p.Name).Msg("Created project")
	return p, nil
}

// ListProjects returns every project, oldest first.
func (s *Store) ListProjects() []Project {
	var out []Project
	s.view(func(snap *Snapshot) { out = slices.Clone(snap.Projects) })
	return out
}

// GetProject returns the project with id or name.
func (s *Store) GetProject(ref string) (Project, error) {
	var (
		out   Project
		found bool
	)
	s.view(func(snap *Snapshot) {
		for _, p := range snap.Projects {
			if p.ID == ref || strings.EqualFold(p.Name, strings.TrimSpace(ref)) {
				out, found = p, true
				return
			}
		}
	})
	if !found {
		return Project{}, fmt.Errorf("%w: project %q", ErrNotFound, ref)
	}
	return out, nil
}

// ActiveProject returns the active project, if any.
func (s *Store) ActiveProject() (Project, bool) {
	var id string
	s.view(func(snap *Snapshot) { id = snap.ActiveProject })
	if id == "" {
		return Project{}, false
	}
	p, err := s.GetProject(id)
	return p, err == nil
}

// DeleteProject removes a project. Fragments keep their project id; the
// active project is cleared when it is the one deleted.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return s.mutate(ctx, func(snap *Snapshot) error {
		i := slices.IndexFunc(snap.Projects, func(p Project) bool { return p.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: project %q", ErrNotFound, id)
		}
		snap.Projects = slices.Delete(snap.Projects, i, i+1)
		if snap.ActiveProject == id {
			snap.ActiveProject = ""
		}
		return nil
	})
}

// SwitchProject makes the project referenced by ref active; an empty ref
// leaves every project. When the project has a default style that still
// exists, its data is applied to the editor with strategy in the same step.
func (s *Store) SwitchProject(ctx context.Context, ref string, strategy editor.Strategy) (Project, error) {
	var p Project
	if ref != "" {
		var err error
		if p, err = s.GetProject(ref); err != nil {
			return Project{}, err
		}
	}

	var style *Fragment
	if p.DefaultStyle != "" {
		if f, err := s.GetFragment(KindStyle, p.DefaultStyle); err == nil {
			style = &f
		} else {
			log.Warn().Str("project", p.ID).Str("style", p.DefaultStyle).Msg("Default style of project no longer exists")
		}
	}

	err := s.mutate(ctx, func(snap *Snapshot) error {
		snap.ActiveProject = p.ID
		if style != nil {
			e := editor.New(&snap.Editor, s.opts.Schema)
			e.SetHistoryLimit(s.opts.HistoryLimit)
			e.Apply(style.Data, strategy)
		}
		return nil
	})
	if err != nil {
		return Project{}, err
	}
	log.Info().Str("project", p.ID).Bool("style_applied", style != nil).Msg("Switched project")
	return p, nil
}

// --- copying ---

func cloneFragment(f Fragment) Fragment {
	f.Data = editor.CloneValues(f.Data)
	return f
}

func clonePack(p ScenePack) ScenePack {
	variants := make([]map[string]any, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = editor.CloneValues(v)
	}
	p.Variants = variants
	return p
}

func cloneSnapshot(src *Snapshot) *Snapshot {
	dst := &Snapshot{
		Version:       src.Version,
		Fragments:     make(map[Kind][]Fragment, len(src.Fragments)),
		Projects:      slices.Clone(src.Projects),
		ActiveProject: src.ActiveProject,
	}
	dst.Editor.Document = src.Editor.Document.Clone()
	for _, d := range src.Editor.History {
		dst.Editor.History = append(dst.Editor.History, d.Clone())
	}
	for k, list := range src.Fragments {
		out := make([]Fragment, len(list))
		for i, f := range list {
			out[i] = cloneFragment(f)
		}
		dst.Fragments[k] = out
	}
	for _, p := range src.Packs {
		dst.Packs = append(dst.Packs, clonePack(p))
	}
	return dst
}
