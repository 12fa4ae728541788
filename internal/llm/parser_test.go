package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karolswdev/promptforge/internal/schema"
)

var testFields = []schema.Field{
	{Key: "subject", Type: schema.TypeTextarea},
	{Key: "setting", Type: schema.TypeSelect, Options: []schema.Option{{Value: "misty forest"}, {Value: "desert canyon"}}},
	{Key: "duration_seconds", Type: schema.TypeNumber},
}

func TestParseSuggestion(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expectErr   error
		expected    map[string]any
		wantDropped []string
	}{
		{
			name:     "Valid JSON",
			input:    `{"subject": "a fox at dawn", "setting": "misty forest", "duration_seconds": 6}`,
			expected: map[string]any{"subject": "a fox at dawn", "setting": "misty forest", "duration_seconds": 6.0},
		},
		{
			name:     "Standard markdown fence",
			input:    "```json\n{\"subject\": \"a fox at dawn\"}\n```",
			expected: map[string]any{"subject": "a fox at dawn"},
		},
		{
			name:     "Fence without language and surrounding text",
			input:    "Here you go:\n```\n{\"setting\": \"desert canyon\"}\n```\nEnjoy!",
			expected: map[string]any{"setting": "desert canyon"},
		},
		{
			name:        "Unknown keys and invalid values are dropped",
			input:       `{"subject": "a fox", "mood": "tense", "setting": "moon base", "duration_seconds": "long"}`,
			expected:    map[string]any{"subject": "a fox"},
			wantDropped: []string{"duration_seconds", "mood", "setting"},
		},
		{
			name:      "Nothing usable",
			input:     `{"mood": "tense", "subject": "  "}`,
			expectErr: ErrLLMResponseMissingField,
		},
		{
			name:      "Syntax error",
			input:     `{"subject": "a fox",}`,
			expectErr: ErrLLMResponseJSONUnmarshal,
		},
		{
			name:      "Empty input",
			input:     "",
			expectErr: ErrLLMResponseJSONFind,
		},
		{
			name:      "Not an object",
			input:     `"just a string"`,
			expectErr: ErrLLMResponseJSONFind,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSuggestion(tc.input, testFields)
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.Values)
			assert.Equal(t, tc.wantDropped, got.Dropped)
		})
	}
}
