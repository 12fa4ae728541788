package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"math/rand/v2"
	"slices"

	"github.com/spf13/cobra"

	"github.com/karolswdev/promptforge/internal/editor"
	"github.com/karolswdev/promptforge/internal/library"
)

func (a *app) newPromptCmd() *cobra.Command {
	promptCmd := &cobra.Command{
		Use:   "prompt",
		Short: "Show, randomize, reset or undo the current prompt",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the structured prompt built from the enabled fields",
		Long: `Prints the structured prompt as JSON: enabled fields grouped by their
schema category, with custom overrides and detail entries applied.`,
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return promptShowRunE(cmd, ws.Store)
			})
		}),
	}

	undoCmd := &cobra.Command{
		Use:   "undo",
		Short: "Revert the last change to the prompt",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				if err := ws.Store.UpdateEditor(cmd.Context(), func(e *editor.Editor) error { return e.Undo() }); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Undid last change.")
				return nil
			})
		}),
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear every field of the prompt (undoable)",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				if err := ws.Store.UpdateEditor(cmd.Context(), func(e *editor.Editor) error { e.Reset(); return nil }); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Prompt reset.")
				return nil
			})
		}),
	}

	var rf randomFlags
	randomizeCmd := &cobra.Command{
		Use:   "randomize",
		Short: "Pick weighted random options for select fields",
		Long: `Picks a weighted random option for each enabled select field, or for every
select field when none is enabled. --fields restricts the run, --coherent
favours options whose tags match earlier picks and --seed makes the run
reproducible.`,
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return promptRandomizeRunE(cmd.Context(), ws.Store, cmd.OutOrStdout(), rf.options(cmd))
			})
		}),
	}
	rf.register(randomizeCmd)

	promptCmd.AddCommand(showCmd, undoCmd, resetCmd, randomizeCmd)
	return promptCmd
}

func promptShowRunE(cmd *cobra.Command, store *library.Store) error {
	doc := store.Document()
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if format == formatYAML {
		return writeYAML(cmd.OutOrStdout(), editor.Build(doc, store.Schema()))
	}
	body, err := editor.RenderJSON(doc, store.Schema())
	if err != nil {
		return fmt.Errorf("failed to render prompt: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return nil
}

func promptRandomizeRunE(ctx context.Context, store *library.Store, w io.Writer, opts editor.RandomOptions) error {
	var picked map[string]any
	err := store.UpdateEditor(ctx, func(e *editor.Editor) error {
		var err error
		picked, err = e.Randomize(opts)
		return err
	})
	if err != nil {
		return err
	}
	for _, k := range slices.Sorted(maps.Keys(picked)) {
		fmt.Fprintf(w, "%s = %s\n", k, formatValue(picked[k]))
	}
	return nil
}

// randomFlags are the flags shared by randomize and pack generate.
type randomFlags struct {
	fields   string
	coherent bool
	seed     uint64
}

func (f *randomFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.fields, "fields", "", "Comma separated select fields to randomize")
	cmd.Flags().BoolVar(&f.coherent, "coherent", false, "Favour options sharing tags with earlier picks")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Seed for a reproducible run")
}

func (f *randomFlags) options(cmd *cobra.Command) editor.RandomOptions {
	opts := editor.RandomOptions{Keys: parseFieldList(f.fields), Coherent: f.coherent}
	if cmd.Flags().Changed("seed") {
		opts.Rand = editor.NewRand(f.seed)
	} else {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return opts
}
