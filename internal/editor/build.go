package editor

import (
	"encoding/json"

	"github.com/karolswdev/promptforge/internal/schema"
)

const (
	generalCategory = "general"
	otherCategory   = "other"
)

// Build renders the structured prompt: enabled fields grouped by category.
// Custom overrides win over stored values and fields with details render as
// an object holding the value next to the detail entries. Enabled keys the
// schema does not know land in the "other" category.
func Build(doc Document, s *schema.Schema) map[string]any {
	out := map[string]any{}
	seen := map[string]bool{}

	put := func(category, key string) {
		if category == "" {
			category = generalCategory
		}
		v, ok := renderField(doc, key)
		if !ok {
			return
		}
		group, _ := out[category].(map[string]any)
		if group == nil {
			group = map[string]any{}
			out[category] = group
		}
		group[key] = v
	}

	if s != nil {
		for _, f := range s.Fields {
			seen[f.Key] = true
			if doc.Enabled[f.Key] {
				put(f.Category, f.Key)
			}
		}
	}
	for _, k := range doc.EnabledKeys() {
		if !seen[k] {
			put(otherCategory, k)
		}
	}
	return out
}

func renderField(doc Document, key string) (any, bool) {
	value, has := doc.Values[key]
	if c := doc.Custom[key]; c != "" {
		value, has = c, true
	}
	details := doc.Details[key]
	if len(details) == 0 {
		if !has {
			return nil, false
		}
		return cloneValue(value), true
	}
	obj := CloneValues(details)
	if has {
		obj["value"] = cloneValue(value)
	}
	return obj, true
}

// RenderJSON returns the indented JSON of Build.
func RenderJSON(doc Document, s *schema.Schema) ([]byte, error) {
	return json.MarshalIndent(Build(doc, s), "", "  ")
}
