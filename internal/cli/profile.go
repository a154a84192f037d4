package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"go-todo-client/internal/profile"
)

// maxPasswordAttempts bounds how often passwd re-prompts after a rejection.
const maxPasswordAttempts = 3

var errPasswordRejected = errors.New("password not changed")

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account behind the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireSession(""); err != nil {
				return err
			}

			user, err := app.profile.FetchSelf(cmd.Context())
			if err != nil {
				return err
			}
			return app.render.User(user)
		},
	}
}

func newPasswdCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change your password (the session stays valid)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireSession(""); err != nil {
				return err
			}

			var form profile.PasswordForm
			var err error
			if form.Current, err = app.readSecret("Current password: "); err != nil {
				return err
			}
			if form.New, err = app.readSecret("New password: "); err != nil {
				return err
			}

			for attempt := 1; ; attempt++ {
				result, err := form.Submit(cmd.Context(), app.profile)
				if err != nil {
					return err
				}
				if result.Outcome == profile.Changed {
					return app.render.Message(result.Message, false)
				}

				if err := app.render.Message(result.Message, true); err != nil {
					return err
				}
				if attempt == maxPasswordAttempts {
					return errPasswordRejected
				}

				prompt, target := "Current password: ", &form.Current
				if result.Field == profile.FieldNew {
					prompt, target = "New password: ", &form.New
				}
				value, err := app.readSecret(prompt)
				if errors.Is(err, io.EOF) {
					return errPasswordRejected
				}
				if err != nil {
					return err
				}
				*target = value
			}
		},
	}
}
