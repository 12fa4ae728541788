package editor

import (
	"fmt"
	"strings"

	"github.com/karolswdev/promptforge/internal/schema"
)

// Strategy is the conflict-resolution policy applied when incoming values are
// loaded on top of the current document.
type Strategy string

const (
	// StrategyReplace discards the current values entirely.
	StrategyReplace Strategy = "replace"
	// StrategyMerge overlays incoming values on the current ones.
	StrategyMerge Strategy = "merge"
	// StrategySmart merges like StrategyMerge and reconciles character arrays by name.
	StrategySmart Strategy = "smart"
)

// ParseStrategy maps a user-supplied name to a Strategy. Empty means merge.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case "", StrategyMerge:
		return StrategyMerge, nil
	case StrategyReplace:
		return StrategyReplace, nil
	case StrategySmart:
		return StrategySmart, nil
	default:
		return "", fmt.Errorf("%w: %q (expected replace, merge or smart)", ErrUnknownStrategy, name)
	}
}

// MergeValues combines current and incoming according to strategy. Neither
// input is modified.
func MergeValues(current, incoming map[string]any, strategy Strategy) map[string]any {
	if strategy == StrategyReplace {
		out := CloneValues(incoming)
		if out == nil {
			out = map[string]any{}
		}
		return out
	}

	out := CloneValues(current)
	if out == nil {
		out = make(map[string]any, len(incoming))
	}
	for k, v := range incoming {
		out[k] = cloneValue(v)
	}

	if strategy == StrategySmart {
		existing, okCur := characterList(current[schema.CharactersKey])
		arriving, okIn := characterList(incoming[schema.CharactersKey])
		if okCur && okIn {
			out[schema.CharactersKey] = mergeCharacters(existing, arriving)
		}
	}
	return out
}

// mergeCharacters appends arriving characters to existing ones; a character
// whose name matches an existing one (case-insensitive) replaces it in place.
func mergeCharacters(existing, arriving []map[string]any) []any {
	merged := make([]any, 0, len(existing)+len(arriving))
	for _, c := range existing {
		merged = append(merged, CloneValues(c))
	}
	for _, c := range arriving {
		name := characterName(c)
		replaced := false
		if name != "" {
			for i, m := range merged {
				if strings.EqualFold(characterName(m.(map[string]any)), name) {
					merged[i] = CloneValues(c)
					replaced = true
					break
				}
			}
		}
		if !replaced {
			merged = append(merged, CloneValues(c))
		}
	}
	return merged
}

func characterName(c map[string]any) string {
	name, _ := c["name"].(string)
	return strings.TrimSpace(name)
}

// characterList accepts the shapes a characters value takes after JSON
// decoding or direct construction. Non-object entries disqualify the list.
func characterList(v any) ([]map[string]any, bool) {
	switch t := v.(type) {
	case []map[string]any:
		return t, true
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, m)
		}
		return out, true
	default:
		return nil, false
	}
}
