package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"go-todo-client/internal/model"
	"go-todo-client/internal/session"
	"go-todo-client/internal/view"
)

func newLoginCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in and remember the session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := ""
			if len(args) == 1 {
				username = args[0]
			} else {
				var err error
				if username, err = app.readLine("Username: "); err != nil {
					return err
				}
			}

			password, err := app.readSecret("Password: ")
			if err != nil {
				return err
			}

			credential, err := app.session.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			return app.render.Message("Login successful! Signed in as "+strings.TrimSpace(username)+" ("+string(credential.Role)+")", false)
		},
	}
}

func newSignupCmd(app *App) *cobra.Command {
	var request model.SignupRequest
	var role string

	cmd := &cobra.Command{
		Use:   "signup <username>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request.Username = args[0]
			request.Role = model.ParseRole(role)

			password, err := app.readSecret("Password: ")
			if err != nil {
				return err
			}
			request.Password = password

			credential, err := app.session.Signup(cmd.Context(), request)
			if err != nil {
				return err
			}

			return app.render.Message("Account created. Signed in as "+request.Username+" ("+string(credential.Role)+")", false)
		},
	}

	cmd.Flags().StringVar(&request.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&request.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&request.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&role, "role", string(model.RoleUser), "Requested role (the server decides)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.session.Logout()
			return app.render.Message("Logged out.", false)
		},
	}
}

type statusOutput struct {
	State string `json:"state" yaml:"state"`
	Role  string `json:"role,omitempty" yaml:"role,omitempty"`
	Admin bool   `json:"admin" yaml:"admin"`
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := statusOutput{State: string(app.session.State())}
			if credential, ok := app.session.Credential(); ok {
				status.Role = string(credential.Role)
				status.Admin = app.session.Guard(model.RoleAdmin).Verdict == session.Allow
			}

			if app.render.Format() != view.FormatTable {
				return app.render.Value(status)
			}
			if status.State == string(session.StateAnonymous) {
				return app.render.Message("Not logged in.", false)
			}
			return app.render.Message("Logged in as "+status.Role+".", false)
		},
	}
}
