package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/karolswdev/promptforge/internal/editor"
	"github.com/karolswdev/promptforge/internal/library"
	"github.com/karolswdev/promptforge/internal/transfer"
)

var errNothingToSave = errors.New("no enabled fields to save")

// newFragmentCmd builds the save/load/list/delete group for one fragment
// kind. Scenes and characters also get export and import.
func (a *app) newFragmentCmd(kind library.Kind) *cobra.Command {
	k := string(kind)
	group := &cobra.Command{
		Use:   k,
		Short: fmt.Sprintf("Manage saved %s fragments", k),
		Long: fmt.Sprintf(`Saves the enabled fields of the current prompt as a named %[1]s,
and loads stored %[1]s fragments back into the prompt.`, k),
	}

	var fields string
	saveCmd := &cobra.Command{
		Use:   "save <name>",
		Short: fmt.Sprintf("Save the enabled fields as a %s", k),
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return fragmentSaveRunE(cmd.Context(), ws.Store, cmd.OutOrStdout(), kind, args[0], parseFieldList(fields))
			})
		}),
	}
	saveCmd.Flags().StringVar(&fields, "fields", "", "Comma separated fields to save instead of every enabled field (characters default to the character category)")

	var strategy string
	loadCmd := &cobra.Command{
		Use:   "load <id|name>",
		Short: fmt.Sprintf("Load a %s into the current prompt", k),
		Long: `Loads a stored fragment into the current prompt. --strategy picks how it
combines with the current values: replace, merge or smart. The default comes
from editor.default_strategy.`,
		Args: cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				s := ws.Strategy
				if cmd.Flags().Changed("strategy") {
					var err error
					if s, err = editor.ParseStrategy(strategy); err != nil {
						return err
					}
				}
				return fragmentLoadRunE(cmd.Context(), ws.Store, cmd.OutOrStdout(), kind, args[0], s)
			})
		}),
	}
	loadCmd.Flags().StringVar(&strategy, "strategy", "", "replace, merge or smart")

	var projectOnly bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List saved %s fragments", k),
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return fragmentListRunE(cmd, ws.Store, kind, projectOnly)
			})
		}),
	}
	listCmd.Flags().BoolVar(&projectOnly, "project", false, "Only list fragments of the active project")

	deleteCmd := &cobra.Command{
		Use:   "delete <id|name>",
		Short: fmt.Sprintf("Delete a saved %s", k),
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return fragmentDeleteRunE(cmd.Context(), ws.Store, cmd.OutOrStdout(), kind, args[0])
			})
		}),
	}

	group.AddCommand(saveCmd, loadCmd, listCmd, deleteCmd)
	if kind == library.KindScene || kind == library.KindCharacter {
		group.AddCommand(a.newFragmentExportCmd(kind), a.newFragmentImportCmd(kind))
	}
	return group
}

func (a *app) newFragmentExportCmd(kind library.Kind) *cobra.Command {
	var file string
	c := &cobra.Command{
		Use:   "export <id|name>",
		Short: fmt.Sprintf("Export a %s as a JSON file", kind),
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				w, done, err := createOutput(cmd, file)
				if err != nil {
					return err
				}
				if err := fragmentExportRunE(ws.Store, w, kind, args[0], time.Now()); err != nil {
					_ = done()
					return err
				}
				return done()
			})
		}),
	}
	c.Flags().StringVarP(&file, "file", "f", "", "Write to this file instead of stdout")
	return c
}

func (a *app) newFragmentImportCmd(kind library.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: fmt.Sprintf("Import a %s export file", kind),
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return fragmentImportRunE(cmd.Context(), ws.Store, cmd.OutOrStdout(), kind, data)
			})
		}),
	}
}

func fragmentSaveRunE(ctx context.Context, store *library.Store, w io.Writer, kind library.Kind, name string, fields []string) error {
	doc := store.Document()
	if len(fields) == 0 && kind == library.KindCharacter && store.Schema() != nil {
		fields = store.Schema().Category(string(library.KindCharacter))
	}
	data := doc.ActiveValues()
	if len(fields) > 0 {
		data = doc.Subset(fields)
	}
	if len(data) == 0 {
		return errNothingToSave
	}
	f, err := store.SaveFragment(ctx, kind, name, data)
	if err != nil {
		return err
	}
	Log.Info().Str("kind", string(kind)).Str("id", f.ID).Int("fields", len(data)).Msg("Saved fragment")
	fmt.Fprintf(w, "Saved %s %q (%s)\n", kind, f.Name, f.ID)
	return nil
}

func fragmentLoadRunE(ctx context.Context, store *library.Store, w io.Writer, kind library.Kind, ref string, strategy editor.Strategy) error {
	f, err := store.LoadFragment(ctx, kind, ref, strategy)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Loaded %s %q with %s strategy\n", kind, f.Name, strategy)
	return nil
}

func fragmentListRunE(cmd *cobra.Command, store *library.Store, kind library.Kind, projectOnly bool) error {
	list := store.ListFragments(kind, projectOnly)
	return render(cmd, list, func(w io.Writer) error {
		if len(list) == 0 {
			fmt.Fprintf(w, "No %s fragments saved.\n", kind)
			return nil
		}
		for _, f := range list {
			fmt.Fprintf(w, "- %s - %s (%d fields, %s)\n", f.ID, f.Name, len(f.Data), f.CreatedAt.Format(time.DateTime))
		}
		return nil
	})
}

func fragmentDeleteRunE(ctx context.Context, store *library.Store, w io.Writer, kind library.Kind, ref string) error {
	f, err := store.GetFragment(kind, ref)
	if err != nil {
		return err
	}
	if err := store.DeleteFragment(ctx, kind, f.ID); err != nil {
		return err
	}
	fmt.Fprintf(w, "Deleted %s %q\n", kind, f.Name)
	return nil
}

func fragmentExportRunE(store *library.Store, w io.Writer, kind library.Kind, ref string, now time.Time) error {
	f, err := store.GetFragment(kind, ref)
	if err != nil {
		return err
	}
	env, err := transfer.ExportFragment(f, now)
	if err != nil {
		return err
	}
	return transfer.Encode(w, env)
}

func fragmentImportRunE(ctx context.Context, store *library.Store, w io.Writer, kind library.Kind, data []byte) error {
	env, err := transfer.Decode(data)
	if err != nil {
		return err
	}
	if want := transfer.Type(kind); env.Type != want {
		return fmt.Errorf("%w: file holds a %s export, expected %s", transfer.ErrInvalidEnvelope, env.Type, want)
	}
	imported, err := transfer.Import(ctx, store, data)
	if err != nil {
		return err
	}
	for _, f := range imported {
		fmt.Fprintf(w, "Imported %s %q (%s)\n", f.Kind, f.Name, f.ID)
	}
	return nil
}

// createOutput returns the command's stdout, or a created file when path is
// set. done closes the file.
func createOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if strings.TrimSpace(path) == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return file, func() error {
		if err := file.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
		return nil
	}, nil
}
