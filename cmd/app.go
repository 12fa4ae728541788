package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/karolswdev/promptforge/internal/config"
	"github.com/karolswdev/promptforge/internal/editor"
	"github.com/karolswdev/promptforge/internal/library"
	"github.com/karolswdev/promptforge/internal/llm"
	"github.com/karolswdev/promptforge/internal/schema"
	"github.com/karolswdev/promptforge/internal/transfer"
)

// app carries the provider factory shared by every command in one tree.
type app struct {
	getProvider func() (*Provider, error)
	provider    *Provider
}

// Provider returns the memoized service provider.
func (a *app) Provider() (*Provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}
	p, err := a.getProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get service provider: %w", err)
	}
	a.provider = p
	return p, nil
}

// withWorkspace opens the library for the duration of fn.
func (a *app) withWorkspace(cmd *cobra.Command, fn func(ws *workspace) error) error {
	p, err := a.Provider()
	if err != nil {
		return err
	}
	ws, err := openWorkspace(cmd.Context(), p.Config)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			Log.Warn().Err(cerr).Msg("Failed to close library")
		}
	}()
	return fn(ws)
}

// runE wraps a command body and prints a hint for errors the user can fix.
func runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil {
			printHint(cmd.ErrOrStderr(), err)
		}
		return err
	}
}

func printHint(w io.Writer, err error) {
	var hint string
	switch {
	case errors.Is(err, library.ErrNotFound):
		hint = "Use the matching 'list' command to see stored ids and names."
	case errors.Is(err, schema.ErrUnknownField):
		hint = "Run 'pforge field list' to see the fields of the current schema."
	case errors.Is(err, editor.ErrInvalidValue):
		hint = "Select fields only accept their listed options; number fields need a number."
	case errors.Is(err, editor.ErrUnknownStrategy):
		hint = "Valid strategies are replace, merge and smart."
	case errors.Is(err, errNothingToSave):
		hint = "Enable fields with 'pforge field set' or 'pforge field toggle' first."
	case errors.Is(err, editor.ErrNothingToUndo):
		hint = "The undo history is empty."
	case errors.Is(err, transfer.ErrInvalidEnvelope):
		hint = "The file is not a PromptForge export."
	case errors.Is(err, config.ErrSecretNotFound):
		hint = "Set it with 'pforge config set-key <name> <value>' or its environment variable."
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrConfigRead), errors.Is(err, schema.ErrSchemaParse), errors.Is(err, schema.ErrSchemaInvalid):
		hint = "Check the files listed by 'pforge config locate'."
	case errors.Is(err, errAssistUnavailable):
		hint = "Run 'pforge config set-key openai <key>' and make sure llm.provider is \"openai\"."
	case errors.Is(err, llm.ErrLLMCompletion):
		hint = "Check your network connection and the llm.openai settings."
	case errors.Is(err, llm.ErrLLMResponseJSONFind), errors.Is(err, llm.ErrLLMResponseJSONUnmarshal), errors.Is(err, llm.ErrLLMResponseMissingField):
		hint = "The model did not return usable field values. Try rephrasing the idea."
	default:
		return
	}
	fmt.Fprintf(w, "Hint: %s\n", hint)
}

// --- Output ---

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func outputFormat(cmd *cobra.Command) (string, error) {
	f, _ := cmd.Flags().GetString("output")
	f = strings.ToLower(strings.TrimSpace(f))
	switch f {
	case "", formatText:
		return formatText, nil
	case formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q (want text, json or yaml)", f)
	}
}

// render writes v in the selected format. text is used for the text format.
func render(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return writeYAML(w, v)
	default:
		return text(w)
	}
}

// writeYAML renders v through its JSON form so keys match the JSON output.
func writeYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(jsonNumbers(generic)); err != nil {
		return err
	}
	return enc.Close()
}

// jsonNumbers replaces json.Number with plain numbers for YAML.
func jsonNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			t[k] = jsonNumbers(x)
		}
		return t
	case []any:
		for i, x := range t {
			t[i] = jsonNumbers(x)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

// parseFieldList splits a --fields value of comma separated keys.
func parseFieldList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// formatValue renders a field value on one line.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
