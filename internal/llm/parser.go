package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/karolswdev/promptforge/internal/schema"
)

// Suggestion holds the field values the model proposed that fit the schema.
// Dropped lists keys that were returned but discarded, sorted.
type Suggestion struct {
	Values  map[string]any
	Dropped []string
}

// jsonRegex finds a JSON object inside ``` or ```json fences.
// \x60 is a backtick.
var jsonRegex = regexp.MustCompile(`(?s)\x60{3}(?:[jJ][sS][oO][nN])?\s*(\{.*\})\s*\x60{3}`)

// extractJSON returns the JSON object in raw, fenced or bare.
func extractJSON(raw string) (string, error) {
	if match := jsonRegex.FindStringSubmatch(raw); len(match) == 2 {
		return strings.TrimSpace(match[1]), nil
	}
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, nil
	}
	log.Error().Str("raw_response", raw).Msg("Could not find JSON object within code fences or as a standalone object")
	return "", ErrLLMResponseJSONFind
}

// ParseSuggestion decodes the model output and keeps only values that are
// valid for fields: unknown keys, select values outside the options,
// non-numeric numbers and empty strings are dropped. An empty result is
// ErrLLMResponseMissingField.
func ParseSuggestion(raw string, fields []schema.Field) (Suggestion, error) {
	jsonStr, err := extractJSON(raw)
	if err != nil {
		return Suggestion{}, err
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &decoded); err != nil {
		log.Error().Err(err).Str("json_string", jsonStr).Msg("Failed to unmarshal LLM response JSON")
		return Suggestion{}, fmt.Errorf("%w: %w", ErrLLMResponseJSONUnmarshal, err)
	}

	byKey := make(map[string]schema.Field, len(fields))
	for _, f := range fields {
		byKey[f.Key] = f
	}

	out := Suggestion{Values: map[string]any{}}
	for key, value := range decoded {
		f, ok := byKey[key]
		if !ok {
			out.Dropped = append(out.Dropped, key)
			continue
		}
		if v, ok := acceptValue(f, value); ok {
			out.Values[key] = v
		} else {
			out.Dropped = append(out.Dropped, key)
		}
	}
	sort.Strings(out.Dropped)

	if len(out.Values) == 0 {
		log.Error().Strs("dropped", out.Dropped).Msg("LLM response contained no usable fields")
		return out, fmt.Errorf("%w: no known field was filled", ErrLLMResponseMissingField)
	}
	if len(out.Dropped) > 0 {
		log.Debug().Strs("dropped", out.Dropped).Msg("Discarded fields from LLM response")
	}
	return out, nil
}

func acceptValue(f schema.Field, value any) (any, bool) {
	switch f.Type {
	case schema.TypeNumber:
		n, ok := value.(float64)
		return n, ok
	case schema.TypeSelect:
		s, ok := value.(string)
		if !ok || !f.HasOption(strings.TrimSpace(s)) {
			return nil, false
		}
		return strings.TrimSpace(s), true
	case schema.TypeCustom:
		return value, value != nil
	default:
		s, ok := value.(string)
		s = strings.TrimSpace(s)
		return s, ok && s != ""
	}
}
