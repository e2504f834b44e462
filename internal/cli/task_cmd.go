package cli

import (
	"fmt"

	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create and update tasks",
	}

	cmd.AddCommand(
		newTaskCreateCmd(app),
		newTaskUpdateCmd(app),
		newTaskDeleteCmd(app),
	)

	return cmd
}

// taskFlags are the editable task attributes shared by create and update.
type taskFlags struct {
	text, parent, start, typ, column string
	duration                         int
	progress                         float32
	closed                           bool
}

func (f *taskFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.text, "text", "", "Task title")
	fs.StringVar(&f.parent, "parent", "", "Parent task id")
	fs.StringVar(&f.start, "start", "", "Start date (YYYY-MM-DD, empty to unschedule)")
	fs.IntVar(&f.duration, "duration", 0, "Duration in days")
	fs.StringVar(&f.typ, "type", "", "Task type (task, milestone, project)")
	fs.Float32Var(&f.progress, "progress", 0, "Progress between 0 and 1")
	fs.StringVar(&f.column, "column", "", "Workboard column PHID")
	fs.BoolVar(&f.closed, "closed", false, "Mark the task closed")
}

// apply copies the flags the user set onto t.
func (f *taskFlags) apply(fs *pflag.FlagSet, t *domain.Task) {
	if fs.Changed("text") {
		t.Text = f.text
	}
	if fs.Changed("parent") {
		t.Parent = f.parent
	}
	if fs.Changed("start") {
		t.StartDate = f.start
		t.Unscheduled = f.start == ""
	}
	if fs.Changed("duration") {
		t.Duration = f.duration
	}
	if fs.Changed("type") {
		t.Type = domain.TaskType(f.typ)
	}
	if fs.Changed("progress") {
		t.Progress = f.progress
	}
	if fs.Changed("column") {
		t.Column = f.column
	}
	if fs.Changed("closed") {
		t.Open = !f.closed
	}
}

func newTaskCreateCmd(app *App) *cobra.Command {
	var flags taskFlags

	cmd := &cobra.Command{
		Use:   "create <project>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireServer(); err != nil {
				return err
			}
			project, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}

			task := domain.Task{Type: domain.TaskTypeTask, Open: true}
			flags.apply(cmd.Flags(), &task)

			session := newEditSession(app, project.PHID)
			id, err := session.service.CreateTask(ctx, project.PHID, task)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s in %s\n", id, projectLabel(project))
			session.report(cmd.ErrOrStderr())
			return nil
		},
	}

	flags.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("text")

	return cmd
}

func newTaskUpdateCmd(app *App) *cobra.Command {
	var flags taskFlags

	cmd := &cobra.Command{
		Use:   "update <project> <id>",
		Short: "Update a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireServer(); err != nil {
				return err
			}
			project, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}

			// The server replaces the whole task, so start from its current state.
			task, err := currentTask(ctx, app, project.PHID, args[1])
			if err != nil {
				return err
			}
			flags.apply(cmd.Flags(), &task)

			session := newEditSession(app, project.PHID)
			if err := session.service.UpdateTask(ctx, project.PHID, task); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s in %s\n", task.ID, projectLabel(project))
			session.report(cmd.ErrOrStderr())
			return nil
		},
	}

	flags.register(cmd.Flags())

	return cmd
}

func newTaskDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project> <id>",
		Short: "Delete a task (not supported by the server)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session := newEditSession(app, args[0])
			return session.service.DeleteTask(cmd.Context(), args[0], args[1])
		},
	}
}
