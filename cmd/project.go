package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/karolswdev/promptforge/internal/editor"
	"github.com/karolswdev/promptforge/internal/library"
)

func (a *app) newProjectCmd() *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Group fragments into projects",
		Long: `Projects group saved fragments and scene packs. New records join the
active project, and a project's default style is applied when it becomes active.`,
	}

	var description, style string
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return projectCreateRunE(cmd.Context(), ws.Store, cmd.OutOrStdout(), args[0], description, style)
			})
		}),
	}
	createCmd.Flags().StringVar(&description, "description", "", "Project description")
	createCmd.Flags().StringVar(&style, "style", "", "Id or name of a saved style applied on switch")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects; the active one is marked with *",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				return projectListRunE(cmd, ws.Store)
			})
		}),
	}

	var (
		none     bool
		strategy string
	)
	switchCmd := &cobra.Command{
		Use:   "switch [<id|name>]",
		Short: "Make a project active, or leave every project with --none",
		Args: func(cmd *cobra.Command, args []string) error {
			if none {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				s := ws.Strategy
				if cmd.Flags().Changed("strategy") {
					var err error
					if s, err = editor.ParseStrategy(strategy); err != nil {
						return err
					}
				}
				ref := ""
				if len(args) == 1 {
					ref = args[0]
				}
				return projectSwitchRunE(cmd.Context(), ws.Store, cmd.OutOrStdout(), ref, s)
			})
		}),
	}
	switchCmd.Flags().BoolVar(&none, "none", false, "Leave the active project")
	switchCmd.Flags().StringVar(&strategy, "strategy", "", "Strategy used to apply the default style: replace, merge or smart")

	deleteCmd := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a project; its fragments are kept",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, func(ws *workspace) error {
				p, err := ws.Store.GetProject(args[0])
				if err != nil {
					return err
				}
				if err := ws.Store.DeleteProject(cmd.Context(), p.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %q\n", p.Name)
				return nil
			})
		}),
	}

	projectCmd.AddCommand(createCmd, listCmd, switchCmd, deleteCmd)
	return projectCmd
}

func projectCreateRunE(ctx context.Context, store *library.Store, w io.Writer, name, description, style string) error {
	p, err := store.CreateProject(ctx, name, description, style)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created project %q (%s)\n", p.Name, p.ID)
	return nil
}

type projectView struct {
	library.Project
	Active bool `json:"active"`
}

func projectListRunE(cmd *cobra.Command, store *library.Store) error {
	active, _ := store.ActiveProject()
	projects := store.ListProjects()
	views := make([]projectView, len(projects))
	for i, p := range projects {
		views[i] = projectView{Project: p, Active: p.ID == active.ID}
	}
	return render(cmd, views, func(w io.Writer) error {
		if len(views) == 0 {
			fmt.Fprintln(w, "No projects created.")
		}
		for _, v := range views {
			mark := " "
			if v.Active {
				mark = "*"
			}
			line := fmt.Sprintf("%s %s - %s", mark, v.ID, v.Name)
			if v.Description != "" {
				line += ": " + v.Description
			}
			fmt.Fprintln(w, line)
		}
		return nil
	})
}

func projectSwitchRunE(ctx context.Context, store *library.Store, w io.Writer, ref string, strategy editor.Strategy) error {
	p, err := store.SwitchProject(ctx, ref, strategy)
	if err != nil {
		return err
	}
	if ref == "" {
		fmt.Fprintln(w, "No project active.")
		return nil
	}
	fmt.Fprintf(w, "Switched to project %q\n", p.Name)
	return nil
}
