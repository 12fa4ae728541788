package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/karolswdev/promptforge/internal/editor"
	"github.com/karolswdev/promptforge/internal/library"
)

func (a *app) newPackCmd() *cobra.Command {
	packCmd := &cobra.Command{
		Use:   "pack",
		Short: "Generate and manage randomized scene packs",
	}

	var (
		rf    randomFlags
		count int
	)
	generateCmd := &cobra.Command{
		Use:   "generate <name>",
		Short: "Generate randomized variants of the current prompt as a pack",
		Long: `Generates --count variants of the current prompt, each with freshly
randomized select fields, and stores them as a named scene pack. The current
prompt is not changed.`,
		Args: cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return packGenerateRunE(cmd.Context(), ws.Store, cmd.OutOrStdout(), args[0], count, rf.options(cmd))
			})
		}),
	}
	rf.register(generateCmd)
	generateCmd.Flags().IntVarP(&count, "count", "n", 5, "Number of variants")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List scene packs",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				packs := ws.Store.ListPacks()
				return render(cmd, packs, func(w io.Writer) error {
					if len(packs) == 0 {
						fmt.Fprintln(w, "No scene packs saved.")
					}
					for _, p := range packs {
						fmt.Fprintf(w, "- %s - %s (%d variants, %s)\n", p.ID, p.Name, len(p.Variants), p.CreatedAt.Format(time.DateTime))
					}
					return nil
				})
			})
		}),
	}

	showCmd := &cobra.Command{
		Use:   "show <id|name>",
		Short: "Print the variants of a pack",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return packShowRunE(cmd, ws.Store, args[0])
			})
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a scene pack",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				p, err := ws.Store.GetPack(args[0])
				if err != nil {
					return err
				}
				if err := ws.Store.DeletePack(cmd.Context(), p.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted pack %q\n", p.Name)
				return nil
			})
		}),
	}

	packCmd.AddCommand(generateCmd, listCmd, showCmd, deleteCmd)
	return packCmd
}

func packGenerateRunE(ctx context.Context, store *library.Store, w io.Writer, name string, count int, opts editor.RandomOptions) error {
	p, err := store.GeneratePack(ctx, name, count, opts)
	if err != nil {
		return err
	}
	Log.Info().Str("id", p.ID).Int("variants", len(p.Variants)).Bool("coherent", opts.Coherent).Msg("Generated scene pack")
	fmt.Fprintf(w, "Generated pack %q (%s) with %d variants\n", p.Name, p.ID, len(p.Variants))
	return nil
}

func packShowRunE(cmd *cobra.Command, store *library.Store, ref string) error {
	p, err := store.GetPack(ref)
	if err != nil {
		return err
	}
	return render(cmd, p, func(w io.Writer) error {
		fmt.Fprintf(w, "%s (%s)\n", p.Name, p.ID)
		for i, v := range p.Variants {
			fmt.Fprintf(w, "Variant %d:\n", i+1)
			for _, k := range slices.Sorted(maps.Keys(v)) {
				fmt.Fprintf(w, "  %s = %s\n", k, formatValue(v[k]))
			}
		}
		return nil
	})
}
