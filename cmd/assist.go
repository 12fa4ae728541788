package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/karolswdev/promptforge/internal/editor"
	"github.com/karolswdev/promptforge/internal/library"
	"github.com/karolswdev/promptforge/internal/llm"
	"github.com/karolswdev/promptforge/internal/schema"
)

var errAssistUnavailable = errors.New("no LLM client configured")

// assistOptions holds the flags of the assist command.
type assistOptions struct {
	Fields      []string
	DryRun      bool
	Interactive bool
}

func (a *app) newAssistCmd() *cobra.Command {
	var (
		fields string
		opts   assistOptions
	)
	c := &cobra.Command{
		Use:   "assist <idea...>",
		Short: "Fill prompt fields from a short idea using an LLM",
		Long: `Sends the idea, the system prompt and the fillable schema fields to the
configured LLM and merges the suggested values into the current prompt.
Suggestions for unknown fields or invalid select options are dropped.

Example:
  pforge assist "a lone knight crossing a misty forest at dawn"
  pforge assist --fields setting,time_of_day --dry-run "rainy cyberpunk chase"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			provider, err := a.Provider()
			if err != nil {
				return err
			}
			opts.Fields = parseFieldList(fields)
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return assistRunE(cmd.Context(), provider.Config, provider.LLM, ws.Store, cmd.InOrStdin(), cmd.OutOrStdout(), strings.Join(args, " "), opts)
			})
		}),
	}
	c.Flags().StringVar(&fields, "fields", "", "Comma separated fields the model may fill")
	c.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the suggestion without changing the prompt")
	c.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "Confirm before applying the suggestion")
	return c
}

// assistFields returns the schema fields offered to the model. Custom fields
// are never offered.
func assistFields(s *schema.Schema, keys []string) ([]schema.Field, error) {
	if len(keys) == 0 {
		keys = s.Keys()
	}
	var out []schema.Field
	for _, k := range keys {
		f, ok := s.Field(k)
		if !ok {
			return nil, fmt.Errorf("%w: %q", schema.ErrUnknownField, k)
		}
		if f.Type == schema.TypeCustom {
			continue
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no fillable fields selected", editor.ErrInvalidValue)
	}
	return out, nil
}

func assistRunE(ctx context.Context, cp ConfigProvider, client llm.Client, store *library.Store, in io.Reader, w io.Writer, idea string, opts assistOptions) error {
	if client == nil {
		return errAssistUnavailable
	}
	fields, err := assistFields(store.Schema(), opts.Fields)
	if err != nil {
		return err
	}
	systemPrompt, err := cp.LoadSystemPrompt()
	if err != nil {
		return fmt.Errorf("error loading system prompt: %w", err)
	}

	Log.Info().Int("fields", len(fields)).Msg("Requesting field suggestions from LLM")
	suggestion, err := client.SuggestFields(ctx, idea, systemPrompt, fields)
	if err != nil {
		Log.Error().Err(err).Msg("LLM suggestion failed")
		return err
	}

	for _, k := range slices.Sorted(maps.Keys(suggestion.Values)) {
		fmt.Fprintf(w, "%s = %s\n", k, formatValue(suggestion.Values[k]))
	}
	if len(suggestion.Dropped) > 0 {
		fmt.Fprintf(w, "Dropped: %s\n", strings.Join(suggestion.Dropped, ", "))
	}
	if opts.DryRun {
		return nil
	}
	if opts.Interactive {
		ok, err := confirm(in, w, "Apply these values?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	if err := store.UpdateEditor(ctx, func(e *editor.Editor) error {
		e.Apply(suggestion.Values, editor.StrategyMerge)
		return nil
	}); err != nil {
		return err
	}
	fmt.Fprintf(w, "Applied %d suggested fields.\n", len(suggestion.Values))
	return nil
}

// confirm asks a yes/no question on w and reads the answer from in.
func confirm(in io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		Log.Error().Err(err).Msg("Failed to read user input for confirmation")
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(input))
	return answer == "y" || answer == "yes", nil
}
