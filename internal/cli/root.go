package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"go-todo-client/internal/apiclient"
	"go-todo-client/internal/config"
	"go-todo-client/internal/event"
	"go-todo-client/internal/logger"
	"go-todo-client/internal/model"
	"go-todo-client/internal/moderation"
	"go-todo-client/internal/profile"
	"go-todo-client/internal/session"
	"go-todo-client/internal/storage"
	"go-todo-client/internal/taskstore"
	"go-todo-client/internal/view"
	"go-todo-client/pkg/apierror"
)

type App struct {
	APIURL         string
	CredentialFile string
	Output         string
	Timeout        time.Duration
	Verbose        bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	reader *bufio.Reader

	logger      *slog.Logger
	render      *view.Renderer
	credentials storage.CredentialStore
	bus         *event.InMemoryBus
	session     *session.Manager
	tasks       *taskstore.Store
	moderation  *moderation.ViewModel
	profile     *profile.Flow
	cleanup     []func()
}

// Execute runs the todo command line with args and returns the first error.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	app := &App{in: stdin, out: stdout, errOut: stderr}
	defer app.close()

	cmd := NewRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	return cmd.ExecuteContext(ctx)
}

func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Manage your todos from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Sign in, then list and add todos
  todo login alice
  todo tasks list
  todo tasks add "Buy milk" --priority 2

  # Moderate every user's todos (admin accounts)
  todo admin tasks
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "Base URL of the todo API (env TODO_API_URL)")
	cmd.PersistentFlags().StringVar(&app.CredentialFile, "credential-file", "", "Where the session credential is kept (env TODO_CREDENTIAL_FILE)")
	cmd.PersistentFlags().StringVarP(&app.Output, "output", "o", "", "Output format: table, json or yaml (env TODO_OUTPUT)")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", 0, "Per-request timeout, 0 for none (env TODO_REQUEST_TIMEOUT)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log requests to stderr")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newSignupCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newPasswdCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newAdminCmd(app))

	return cmd
}

func (a *App) setup() error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	if a.APIURL != "" {
		cfg.APIBaseURL = a.APIURL
	}
	if a.CredentialFile != "" {
		cfg.CredentialFile = a.CredentialFile
	}
	if a.Output != "" {
		cfg.Output = strings.ToLower(a.Output)
	}
	if a.Timeout != 0 {
		cfg.RequestTimeout = a.Timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if a.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(logger.NewPrettyHandler(a.errOut, &slog.HandlerOptions{Level: level}, isTerminal(a.errOut)))

	format, err := view.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}
	a.render = view.NewRenderer(a.out, format)

	credentials, err := storage.NewFileCredentialStore(cfg.CredentialFile)
	if err != nil {
		return err
	}
	a.credentials = credentials
	a.bus = event.NewBus()

	client, err := apiclient.New(apiclient.Config{
		BaseURL:     cfg.APIBaseURL,
		Credentials: credentials,
		Logger:      a.logger,
		Bus:         a.bus,
		Timeout:     cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}

	a.session = session.NewManager(client, credentials, a.bus, a.logger)
	a.tasks = taskstore.New(client, credentials, a.bus, a.logger)
	a.moderation = moderation.New(client, credentials, a.bus, a.logger)
	a.profile = profile.NewFlow(client, a.logger)
	a.cleanup = append(a.cleanup, a.tasks.Bind(a.bus), a.moderation.Bind(a.bus))

	a.logger.Debug("client ready", "api", cfg.APIBaseURL, "credential_file", credentials.Path())
	return nil
}

func (a *App) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

// requireSession turns a guard redirect into an error telling the user what
// to do instead.
func (a *App) requireSession(required model.Role) error {
	decision := a.session.Guard(required)
	if decision.Allowed() {
		return nil
	}

	switch decision.Destination {
	case session.DestinationTodos:
		return apierror.New(apierror.CodeForbidden, "insufficient permissions", "admin role required; try `todo tasks list`", 0)
	default:
		return apierror.New(apierror.CodeUnauthenticated, "not logged in", "run `todo login` first", 0)
	}
}

func (a *App) readLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(a.errOut, prompt)
	}
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}

	line, err := a.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readSecret prompts with echo disabled on a terminal and falls back to a
// plain line read when input is piped.
func (a *App) readSecret(prompt string) (string, error) {
	file, ok := a.in.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return a.readLine("")
	}

	fmt.Fprint(a.errOut, prompt)
	secret, err := term.ReadPassword(int(file.Fd()))
	fmt.Fprintln(a.errOut)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}

func (a *App) confirm(prompt string) (bool, error) {
	answer, err := a.readLine(prompt + " [y/N] ")
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// ErrorMessage is how main reports err to the person at the terminal.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrCancelled):
		return "Cancelled."
	case errors.Is(err, model.ErrInFlight):
		return err.Error()
	case errors.Is(err, model.ErrTaskNotFound):
		return "No such todo."
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatus == 0 && apiErr.Details != "" &&
		(apiErr.Code == apierror.CodeUnauthenticated || apiErr.Code == apierror.CodeForbidden) {
		return apierror.UserMessage(err) + " (" + apiErr.Details + ")"
	}
	return apierror.UserMessage(err)
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, model.ErrCancelled):
		return 0
	case apierror.Is(err, apierror.CodeUnauthenticated), apierror.Is(err, apierror.CodeAuthRejected):
		return 3
	case apierror.Is(err, apierror.CodeForbidden):
		return 4
	case apiclient.IsUnavailable(err):
		return 5
	default:
		return 1
	}
}
