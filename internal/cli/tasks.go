package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"go-todo-client/internal/model"
	"go-todo-client/internal/moderation"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"todos"},
		Short:   "Your todos",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				return err
			}
			return app.requireSession("")
		},
	}

	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksToggleCmd(app))
	cmd.AddCommand(newTasksRemoveCmd(app))

	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your todos",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.tasks.Load(cmd.Context()); err != nil {
				return err
			}
			return app.render.Tasks(app.tasks.Tasks(), false)
		},
	}
}

func newTasksAddCmd(app *App) *cobra.Command {
	var draft model.TaskDraft

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft.Title = args[0]

			created, err := app.tasks.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return app.render.Task(created)
		},
	}

	cmd.Flags().StringVarP(&draft.Description, "description", "d", "", "Longer description")
	cmd.Flags().IntVarP(&draft.Priority, "priority", "p", 3, fmt.Sprintf("Priority from %d (low) to %d (very high)", model.MinPriority, model.MaxPriority))

	return cmd
}

func newTasksToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a todo done, or not done again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.tasks.Load(cmd.Context()); err != nil {
				return err
			}

			task, err := app.tasks.ToggleComplete(cmd.Context(), id)
			if err != nil {
				return err
			}
			return app.render.Task(task)
		},
	}
}

func newTasksRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete one of your todos",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.tasks.Load(cmd.Context()); err != nil {
				return err
			}

			if err := app.tasks.Delete(cmd.Context(), id); err != nil {
				return err
			}
			return app.render.Message(fmt.Sprintf("Deleted todo %d.", id), false)
		},
	}
}

func newAdminCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderate every user's todos (admin only)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				return err
			}
			return app.requireSession(model.RoleAdmin)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "tasks",
		Short: "List todos of all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.moderation.LoadAll(cmd.Context()); err != nil {
				return err
			}
			return app.render.Tasks(app.moderation.Tasks(), true)
		},
	})

	var yes bool
	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete any user's todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.moderation.LoadAll(cmd.Context()); err != nil {
				return err
			}

			var confirm moderation.Confirmer = moderation.ConfirmFunc(app.confirm)
			if yes {
				confirm = moderation.AlwaysConfirm
			}
			if err := app.moderation.DeleteAny(cmd.Context(), id, confirm); err != nil {
				return err
			}
			return app.render.Message(fmt.Sprintf("Deleted todo %d.", id), false)
		},
	}
	rm.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.AddCommand(rm)

	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", raw)
	}
	return id, nil
}
