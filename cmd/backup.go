package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/karolswdev/promptforge/internal/library"
	"github.com/karolswdev/promptforge/internal/transfer"
)

func (a *app) newBackupCmd() *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import every saved character and scene",
	}

	var file string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup of all characters and scenes",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				w, done, err := createOutput(cmd, file)
				if err != nil {
					return err
				}
				if err := backupExportRunE(ws.Store, w, time.Now()); err != nil {
					_ = done()
					return err
				}
				return done()
			})
		}),
	}
	exportCmd.Flags().StringVarP(&file, "file", "f", "", "Write to this file instead of stdout")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a backup or a single scene or character export",
		Long: `Imports every record of an export file under new ids. Existing records
are never overwritten, so importing the same file twice stores duplicates.`,
		Args: cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return backupImportRunE(cmd.Context(), ws.Store, cmd.OutOrStdout(), data)
			})
		}),
	}

	backupCmd.AddCommand(exportCmd, importCmd)
	return backupCmd
}

func backupExportRunE(store *library.Store, w io.Writer, now time.Time) error {
	env := transfer.ExportBackup(store, now)
	Log.Info().Int("characters", len(env.Characters)).Int("scenes", len(env.Scenes)).Msg("Exporting backup")
	return transfer.Encode(w, env)
}

func backupImportRunE(ctx context.Context, store *library.Store, w io.Writer, data []byte) error {
	imported, err := transfer.Import(ctx, store, data)
	if err != nil {
		return err
	}
	counts := map[library.Kind]int{}
	for _, f := range imported {
		counts[f.Kind]++
	}
	fmt.Fprintf(w, "Imported %d characters and %d scenes.\n", counts[library.KindCharacter], counts[library.KindScene])
	return nil
}
