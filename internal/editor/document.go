// Package editor holds the in-progress prompt document and the rules for
// mutating it: enabled flags, values, per-field details, custom overrides,
// an undo stack and the merge strategies used when a stored fragment is
// loaded on top of the current work.
package editor

import (
	"maps"
	"slices"
)

// Document is the field-value mapping being edited together with its
// per-field presentation state.
type Document struct {
	Values  map[string]any            `json:"values"`
	Enabled map[string]bool           `json:"enabled"`
	Details map[string]map[string]any `json:"details,omitempty"`
	Custom  map[string]string         `json:"custom,omitempty"`
}

// NewDocument returns an empty document with all maps allocated.
func NewDocument() Document {
	return Document{
		Values:  map[string]any{},
		Enabled: map[string]bool{},
		Details: map[string]map[string]any{},
		Custom:  map[string]string{},
	}
}

// normalize allocates any nil maps, e.g. after decoding an older snapshot.
func (d *Document) normalize() {
	if d.Values == nil {
		d.Values = map[string]any{}
	}
	if d.Enabled == nil {
		d.Enabled = map[string]bool{}
	}
	if d.Details == nil {
		d.Details = map[string]map[string]any{}
	}
	if d.Custom == nil {
		d.Custom = map[string]string{}
	}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	c := Document{
		Values:  CloneValues(d.Values),
		Enabled: maps.Clone(d.Enabled),
		Details: make(map[string]map[string]any, len(d.Details)),
		Custom:  maps.Clone(d.Custom),
	}
	for k, v := range d.Details {
		c.Details[k] = CloneValues(v)
	}
	c.normalize()
	return c
}

// EnabledKeys returns the keys of enabled fields, sorted.
func (d Document) EnabledKeys() []string {
	keys := make([]string, 0, len(d.Enabled))
	for k, on := range d.Enabled {
		if on {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// ActiveValues returns the enabled subset of Values with custom overrides applied.
func (d Document) ActiveValues() map[string]any {
	out := make(map[string]any)
	for _, k := range d.EnabledKeys() {
		if c := d.Custom[k]; c != "" {
			out[k] = c
			continue
		}
		if v, ok := d.Values[k]; ok {
			out[k] = cloneValue(v)
		}
	}
	return out
}

// Subset returns the enabled values whose keys are in keys.
func (d Document) Subset(keys []string) map[string]any {
	active := d.ActiveValues()
	out := make(map[string]any)
	for _, k := range keys {
		if v, ok := active[k]; ok {
			out[k] = v
		}
	}
	return out
}

// CloneValues deep-copies a JSON-shaped value map.
func CloneValues(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneValues(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValues(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}
