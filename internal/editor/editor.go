package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/karolswdev/promptforge/internal/schema"
)

// DefaultHistoryLimit is the number of undo steps kept.
const DefaultHistoryLimit = 50

// State is the persisted form of the editor: the current document and the
// undo stack, oldest first.
type State struct {
	Document Document   `json:"document"`
	History  []Document `json:"history,omitempty"`
}

// NewState returns an empty editor state.
func NewState() *State {
	return &State{Document: NewDocument()}
}

// Editor applies mutations to a State. Every mutating call records the prior
// document so it can be undone. An Editor is not safe for concurrent use;
// callers serialize access (library.Store does).
type Editor struct {
	state  *State
	schema *schema.Schema
	limit  int
}

// New wraps state. A nil state starts empty; a nil schema disables key and
// value validation.
func New(state *State, s *schema.Schema) *Editor {
	if state == nil {
		state = NewState()
	}
	state.Document.normalize()
	return &Editor{state: state, schema: s, limit: DefaultHistoryLimit}
}

// SetHistoryLimit changes how many undo steps are kept. Values below one are ignored.
func (e *Editor) SetHistoryLimit(n int) {
	if n > 0 {
		e.limit = n
		e.trimHistory()
	}
}

// State returns the underlying state.
func (e *Editor) State() *State { return e.state }

// Document returns the current document. Callers must not mutate it.
func (e *Editor) Document() Document { return e.state.Document }

// Schema returns the attached schema, possibly nil.
func (e *Editor) Schema() *schema.Schema { return e.schema }

// CanUndo reports whether there is a step to undo.
func (e *Editor) CanUndo() bool { return len(e.state.History) > 0 }

// Undo restores the document recorded before the last mutation.
func (e *Editor) Undo() error {
	n := len(e.state.History)
	if n == 0 {
		return ErrNothingToUndo
	}
	e.state.Document = e.state.History[n-1]
	e.state.Document.normalize()
	e.state.History = e.state.History[:n-1]
	log.Debug().Int("remaining", n-1).Msg("Undid last editor change")
	return nil
}

func (e *Editor) record() {
	e.state.History = append(e.state.History, e.state.Document.Clone())
	e.trimHistory()
}

func (e *Editor) trimHistory() {
	if over := len(e.state.History) - e.limit; over > 0 {
		e.state.History = append([]Document(nil), e.state.History[over:]...)
	}
}

func (e *Editor) field(key string) (schema.Field, error) {
	if e.schema == nil {
		return schema.Field{Key: key}, nil
	}
	f, ok := e.schema.Field(key)
	if !ok {
		return schema.Field{}, fmt.Errorf("%w: %q", schema.ErrUnknownField, key)
	}
	return f, nil
}

// SetValue stores value for key and enables the field.
func (e *Editor) SetValue(key string, value any) error {
	f, err := e.field(key)
	if err != nil {
		return err
	}
	if err := e.checkValue(f, value); err != nil {
		return err
	}
	e.record()
	e.state.Document.Values[key] = cloneValue(value)
	e.state.Document.Enabled[key] = true
	return nil
}

func (e *Editor) checkValue(f schema.Field, value any) error {
	if e.schema == nil {
		return nil
	}
	switch f.Type {
	case schema.TypeSelect:
		s, ok := value.(string)
		if !ok || (!f.HasOption(s) && e.state.Document.Custom[f.Key] == "") {
			return fmt.Errorf("%w: %v is not an option of %q", ErrInvalidValue, value, f.Key)
		}
	case schema.TypeNumber:
		switch value.(type) {
		case float64, float32, int, int64:
		default:
			return fmt.Errorf("%w: %q expects a number", ErrInvalidValue, f.Key)
		}
	}
	return nil
}

// CoerceValue converts raw text into the Go value stored for key: numbers for
// number fields, the text itself otherwise.
func (e *Editor) CoerceValue(key, raw string) (any, error) {
	f, err := e.field(key)
	if err != nil {
		return nil, err
	}
	if f.Type == schema.TypeNumber {
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q expects a number: %w", ErrInvalidValue, key, err)
		}
		return n, nil
	}
	return raw, nil
}

// Toggle flips the enabled flag of key and returns the new state.
func (e *Editor) Toggle(key string) (bool, error) {
	if _, err := e.field(key); err != nil {
		return false, err
	}
	e.record()
	on := !e.state.Document.Enabled[key]
	e.state.Document.Enabled[key] = on
	return on, nil
}

// SetEnabled sets the enabled flag of key.
func (e *Editor) SetEnabled(key string, on bool) error {
	if _, err := e.field(key); err != nil {
		return err
	}
	e.record()
	e.state.Document.Enabled[key] = on
	return nil
}

// SetDetail stores a named entry in the detail sub-panel of key.
func (e *Editor) SetDetail(key, name string, value any) error {
	if _, err := e.field(key); err != nil {
		return err
	}
	if name == "" || name == "value" {
		return fmt.Errorf("%w: detail name %q is reserved or empty", ErrInvalidValue, name)
	}
	e.record()
	d := e.state.Document.Details[key]
	if d == nil {
		d = map[string]any{}
		e.state.Document.Details[key] = d
	}
	d[name] = cloneValue(value)
	return nil
}

// ClearDetails removes the detail sub-panel of key.
func (e *Editor) ClearDetails(key string) error {
	if _, err := e.field(key); err != nil {
		return err
	}
	e.record()
	delete(e.state.Document.Details, key)
	return nil
}

// SetCustom sets a free-text override for key and enables it. Empty text
// removes the override.
func (e *Editor) SetCustom(key, text string) error {
	if _, err := e.field(key); err != nil {
		return err
	}
	e.record()
	if text == "" {
		delete(e.state.Document.Custom, key)
		return nil
	}
	e.state.Document.Custom[key] = text
	e.state.Document.Enabled[key] = true
	return nil
}

// Reset clears the document. The cleared state can be undone.
func (e *Editor) Reset() {
	e.record()
	e.state.Document = NewDocument()
}

// Apply loads incoming values into the document with strategy. Incoming keys
// become enabled. Replace also resets enabled flags, details and overrides
// so only the incoming keys remain.
func (e *Editor) Apply(incoming map[string]any, strategy Strategy) {
	e.record()
	doc := &e.state.Document
	doc.Values = MergeValues(doc.Values, incoming, strategy)
	if strategy == StrategyReplace {
		doc.Enabled = make(map[string]bool, len(incoming))
		doc.Details = map[string]map[string]any{}
		doc.Custom = map[string]string{}
	}
	for k := range incoming {
		doc.Enabled[k] = true
		if strategy != StrategyReplace {
			delete(doc.Custom, k)
		}
	}
	log.Debug().Str("strategy", string(strategy)).Int("incoming", len(incoming)).Int("values", len(doc.Values)).Msg("Applied values to editor")
}
