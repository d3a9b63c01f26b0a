package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/usecase/tracker"
)

func taskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks", "t"},
		Short:   "Manage tasks",
	}
	cmd.AddCommand(taskAddCmd(a))
	cmd.AddCommand(taskListCmd(a))
	cmd.AddCommand(taskShowCmd(a))
	cmd.AddCommand(taskUpdateCmd(a))
	cmd.AddCommand(taskDoneCmd(a))
	cmd.AddCommand(taskRemoveCmd(a))
	return cmd
}

func taskAddCmd(a *app) *cobra.Command {
	var (
		importance int
		due        string
		notes      string
		done       bool
	)
	cmd := &cobra.Command{
		Use:   "add [description]",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := domain.ParseDueDate(due, a.loc)
			if err != nil {
				return fmt.Errorf("--due: %w", err)
			}
			created, err := a.tracker.AddNewTask(strings.Join(args, " "), importance, dueDate, notes, done)
			if err != nil {
				return err
			}
			return a.render(created, taskDetail(created, a.loc))
		},
	}
	cmd.Flags().IntVarP(&importance, "importance", "i", domain.ImportanceLow, "0 low, 1 medium, 2 high")
	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date, e.g. 2024-06-12 or 2024-06-12T18:00")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Free-form notes")
	cmd.Flags().BoolVar(&done, "done", false, "Create the task already completed")
	_ = cmd.MarkFlagRequired("due")
	return cmd
}

func taskListCmd(a *app) *cobra.Command {
	var view, order string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.tracker.ListTasks(tracker.View(view), tracker.Order(order))
			if err != nil {
				return err
			}
			return a.render(tasks, taskTable(tasks, a.loc))
		},
	}
	cmd.Flags().StringVar(&view, "view", string(tracker.ViewAll), "all, today, week, completed, pending or overdue")
	cmd.Flags().StringVar(&order, "sort", "", "due or importance")
	return cmd
}

func taskShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [task-id]",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.tracker.GetTask(args[0])
			if err != nil {
				return err
			}
			return a.render(t, taskDetail(t, a.loc))
		},
	}
}

func taskUpdateCmd(a *app) *cobra.Command {
	var (
		description string
		importance  int
		due         string
		notes       string
		completed   bool
	)
	cmd := &cobra.Command{
		Use:   "update [task-id]",
		Short: "Change selected fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]any{}
			flags := cmd.Flags()
			if flags.Changed("description") {
				fields[domain.FieldDescription] = description
			}
			if flags.Changed("importance") {
				fields[domain.FieldImportance] = importance
			}
			if flags.Changed("due") {
				fields[domain.FieldDueDate] = due
			}
			if flags.Changed("notes") {
				fields[domain.FieldNotes] = notes
			}
			if flags.Changed("completed") {
				fields[domain.FieldCompleted] = completed
			}

			if err := a.tracker.UpdateTask(args[0], fields); err != nil {
				return err
			}
			t, err := a.tracker.GetTask(args[0])
			if err != nil {
				return err
			}
			return a.render(t, taskDetail(t, a.loc))
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().IntVarP(&importance, "importance", "i", 0, "0 low, 1 medium, 2 high")
	cmd.Flags().StringVarP(&due, "due", "d", "", "New due date")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "New notes")
	cmd.Flags().BoolVar(&completed, "completed", false, "Completion state")
	return cmd
}

func taskDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done [task-id]",
		Short: "Toggle a task's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tracker.ToggleComplete(args[0]); err != nil {
				return err
			}
			t, err := a.tracker.GetTask(args[0])
			if err != nil {
				return err
			}
			return a.render(t, taskDetail(t, a.loc))
		},
	}
}

func taskRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm [task-id]",
		Aliases: []string{"delete"},
		Short:   "Delete a task and drop it from every project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tracker.DeleteTask(args[0]); err != nil {
				return err
			}
			return a.render(map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "deleted %s\n", args[0])
			})
		},
	}
}

func nextCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next pending task that is due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := a.tracker.NextDue()
			if !ok {
				return a.render(map[string]any{"found": false}, func(w io.Writer) {
					fmt.Fprintln(w, "nothing due")
				})
			}
			return a.render(t, taskDetail(t, a.loc))
		},
	}
}
