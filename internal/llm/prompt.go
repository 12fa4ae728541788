package llm

import (
	"fmt"
	"strings"

	"github.com/karolswdev/promptforge/internal/schema"
)

// ConstructPrompt builds the user message: the fillable fields with their
// allowed options, then the idea.
func ConstructPrompt(idea string, fields []schema.Field) string {
	var b strings.Builder

	b.WriteString("Fields:\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s (%s)", f.Key, f.Type)
		if f.Label != "" {
			fmt.Fprintf(&b, ": %s", f.Label)
		}
		if len(f.Options) > 0 {
			values := make([]string, len(f.Options))
			for i, o := range f.Options {
				values[i] = o.Value
			}
			fmt.Fprintf(&b, " [one of: %s]", strings.Join(values, " | "))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("Idea:\n")
	b.WriteString(idea)
	b.WriteString("\n\n")

	b.WriteString("Respond with a single JSON object mapping field keys to values, for example:\n")
	b.WriteString("{\"subject\": \"<text>\", \"setting\": \"<one of the options>\"}\n")
	b.WriteString("Number fields take numbers. Ensure the output is a single, valid JSON object and nothing else.")

	return b.String()
}
