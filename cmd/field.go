package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/karolswdev/promptforge/internal/editor"
	"github.com/karolswdev/promptforge/internal/library"
	"github.com/karolswdev/promptforge/internal/schema"
)

func (a *app) newFieldCmd() *cobra.Command {
	fieldCmd := &cobra.Command{
		Use:   "field",
		Short: "Edit the fields of the current prompt",
		Long: `Lists the schema fields and edits their values, enabled flags,
detail entries and free-text overrides in the current prompt.
Every change can be reverted with 'pforge prompt undo'.`,
	}

	var category string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List schema fields with their current values",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return fieldListRunE(cmd, ws.Store, category)
			})
		}),
	}
	listCmd.Flags().StringVar(&category, "category", "", "Only list fields of this category")

	var asJSON bool
	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a field value and enable the field",
		Args:  cobra.ExactArgs(2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return fieldSetRunE(cmd.Context(), ws.Store, cmd.OutOrStdout(), args[0], args[1], asJSON)
			})
		}),
	}
	setCmd.Flags().BoolVar(&asJSON, "json", false, "Decode the value as JSON (e.g. a character list)")

	var on, off bool
	toggleCmd := &cobra.Command{
		Use:   "toggle <key>",
		Short: "Flip, or with --on/--off set, the enabled flag of a field",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return fieldToggleRunE(cmd.Context(), ws.Store, cmd.OutOrStdout(), args[0], on, off)
			})
		}),
	}
	toggleCmd.Flags().BoolVar(&on, "on", false, "Enable the field")
	toggleCmd.Flags().BoolVar(&off, "off", false, "Disable the field")
	toggleCmd.MarkFlagsMutuallyExclusive("on", "off")

	var clearAll bool
	detailCmd := &cobra.Command{
		Use:   "detail <key> [<name> <value>]",
		Short: "Set a detail entry of a field, or clear them with --clear",
		Args: func(cmd *cobra.Command, args []string) error {
			if clearAll {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(3)(cmd, args)
		},
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return fieldDetailRunE(cmd.Context(), ws.Store, cmd.OutOrStdout(), args, clearAll)
			})
		}),
	}
	detailCmd.Flags().BoolVar(&clearAll, "clear", false, "Remove every detail entry of the field")

	customCmd := &cobra.Command{
		Use:   "custom <key> <text>",
		Short: "Override a field with free text; empty text removes the override",
		Args:  cobra.ExactArgs(2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return fieldCustomRunE(cmd.Context(), ws.Store, cmd.OutOrStdout(), args[0], args[1])
			})
		}),
	}

	fieldCmd.AddCommand(listCmd, setCmd, toggleCmd, detailCmd, customCmd)
	return fieldCmd
}

type fieldView struct {
	Key      string           `json:"key"`
	Label    string           `json:"label"`
	Type     schema.FieldType `json:"type"`
	Category string           `json:"category"`
	Enabled  bool             `json:"enabled"`
	Value    any              `json:"value,omitempty"`
	Custom   string           `json:"custom,omitempty"`
	Details  map[string]any   `json:"details,omitempty"`
	Options  []string         `json:"options,omitempty"`
}

func fieldListRunE(cmd *cobra.Command, store *library.Store, category string) error {
	s := store.Schema()
	doc := store.Document()

	keys := s.Keys()
	if category != "" {
		keys = s.Category(category)
		if len(keys) == 0 {
			return fmt.Errorf("no fields in category %q", category)
		}
	}

	views := make([]fieldView, 0, len(keys))
	for _, k := range keys {
		f, _ := s.Field(k)
		v := fieldView{
			Key:      f.Key,
			Label:    f.Label,
			Type:     f.Type,
			Category: f.Category,
			Enabled:  doc.Enabled[k],
			Value:    doc.Values[k],
			Custom:   doc.Custom[k],
			Details:  doc.Details[k],
		}
		for _, o := range f.Options {
			v.Options = append(v.Options, o.Value)
		}
		views = append(views, v)
	}

	return render(cmd, views, func(w io.Writer) error {
		for _, v := range views {
			mark := " "
			if v.Enabled {
				mark = "x"
			}
			line := fmt.Sprintf("[%s] %s (%s, %s)", mark, v.Key, v.Type, v.Category)
			switch {
			case v.Custom != "":
				line += fmt.Sprintf(" = %q (custom)", v.Custom)
			case v.Value != nil:
				line += " = " + formatValue(v.Value)
			}
			fmt.Fprintln(w, line)
			for _, name := range slices.Sorted(maps.Keys(v.Details)) {
				fmt.Fprintf(w, "      %s: %s\n", name, formatValue(v.Details[name]))
			}
		}
		return nil
	})
}

func fieldSetRunE(ctx context.Context, store *library.Store, w io.Writer, key, raw string, asJSON bool) error {
	err := store.UpdateEditor(ctx, func(e *editor.Editor) error {
		var value any
		if asJSON {
			if err := json.Unmarshal([]byte(raw), &value); err != nil {
				return fmt.Errorf("%w: %q is not valid JSON: %w", editor.ErrInvalidValue, key, err)
			}
		} else {
			v, err := e.CoerceValue(key, raw)
			if err != nil {
				return err
			}
			value = v
		}
		return e.SetValue(key, value)
	})
	if err != nil {
		return err
	}
	Log.Debug().Str("field", key).Msg("Field value set")
	fmt.Fprintf(w, "Set %s\n", key)
	return nil
}

func fieldToggleRunE(ctx context.Context, store *library.Store, w io.Writer, key string, on, off bool) error {
	var enabled bool
	err := store.UpdateEditor(ctx, func(e *editor.Editor) error {
		if on || off {
			enabled = on
			return e.SetEnabled(key, on)
		}
		var err error
		enabled, err = e.Toggle(key)
		return err
	})
	if err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintf(w, "%s %s\n", key, state)
	return nil
}

func fieldDetailRunE(ctx context.Context, store *library.Store, w io.Writer, args []string, clearAll bool) error {
	key := args[0]
	err := store.UpdateEditor(ctx, func(e *editor.Editor) error {
		if clearAll {
			return e.ClearDetails(key)
		}
		return e.SetDetail(key, args[1], args[2])
	})
	if err != nil {
		return err
	}
	if clearAll {
		fmt.Fprintf(w, "Cleared details of %s\n", key)
	} else {
		fmt.Fprintf(w, "Set %s detail %s\n", key, args[1])
	}
	return nil
}

func fieldCustomRunE(ctx context.Context, store *library.Store, w io.Writer, key, text string) error {
	if err := store.UpdateEditor(ctx, func(e *editor.Editor) error { return e.SetCustom(key, text) }); err != nil {
		return err
	}
	if text == "" {
		fmt.Fprintf(w, "Removed override of %s\n", key)
	} else {
		fmt.Fprintf(w, "Overrode %s\n", key)
	}
	return nil
}
