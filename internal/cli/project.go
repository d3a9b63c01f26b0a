package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fastygo/tasktracker/domain"
)

func projectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects", "p"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(projectAddCmd(a))
	cmd.AddCommand(projectListCmd(a))
	cmd.AddCommand(projectShowCmd(a))
	cmd.AddCommand(projectAddTaskCmd(a))
	cmd.AddCommand(projectRemoveTaskCmd(a))
	cmd.AddCommand(projectRemoveCmd(a))
	return cmd
}

func projectAddCmd(a *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.tracker.AddNewProject(args[0], description)
			if err != nil {
				return err
			}
			return a.render(p, projectTable([]domain.Project{p}))
		},
	}
	cmd.Flags().StringVarP(&description, "description", "D", "", "Project description")
	return cmd
}

func projectListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects := a.tracker.AllProjects()
			return a.render(projects, projectTable(projects))
		},
	}
}

func projectShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showProject(args[0])
		},
	}
}

func projectAddTaskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-task [name] [task-id]",
		Short: "Put a task in a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tracker.AddTaskToProject(args[0], args[1]); err != nil {
				return err
			}
			return a.showProject(args[0])
		},
	}
}

func projectRemoveTaskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-task [name] [task-id]",
		Short: "Take a task out of a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tracker.RemoveTaskFromProject(args[0], args[1]); err != nil {
				return err
			}
			return a.showProject(args[0])
		},
	}
}

func projectRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm [name]",
		Aliases: []string{"delete"},
		Short:   "Delete a project; its tasks are kept",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tracker.DeleteProject(args[0]); err != nil {
				return err
			}
			return a.render(map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "deleted project %s\n", args[0])
			})
		},
	}
}

func (a *app) showProject(name string) error {
	p, err := a.tracker.GetProject(name)
	if err != nil {
		return err
	}
	tasks := make([]domain.Task, 0, len(p.Tasks))
	for _, id := range p.Tasks {
		if t, err := a.tracker.GetTask(id); err == nil {
			tasks = append(tasks, t)
		}
	}
	return a.render(p, func(w io.Writer) {
		fmt.Fprintf(w, "Project:\t%s\n", p.Name)
		if p.Description != "" {
			fmt.Fprintf(w, "Description:\t%s\n", p.Description)
		}
		fmt.Fprintln(w)
		taskTable(tasks, a.loc)(w)
	})
}
