package session

import (
	"context"
	"log/slog"
	"strings"

	"go-todo-client/internal/event"
	"go-todo-client/internal/model"
	"go-todo-client/internal/storage"
	"go-todo-client/pkg/apierror"
)

// API is the part of the remote API the session manager talks to.
type API interface {
	Login(ctx context.Context, username string, password string) (model.TokenResponse, error)
	Signup(ctx context.Context, request model.SignupRequest) (model.TokenResponse, error)
}

type State string

const (
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

const loginFailedMessage = "Login failed, check credentials"

type Manager struct {
	api         API
	credentials storage.CredentialStore
	bus         event.Bus
	logger      *slog.Logger
}

func NewManager(api API, credentials storage.CredentialStore, bus event.Bus, logger *slog.Logger) *Manager {
	if bus == nil {
		bus = event.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		api:         api,
		credentials: credentials,
		bus:         bus,
		logger:      logger,
	}
}

// Login exchanges username and password for a credential and stores it.
// A refused login is reported as AUTH_REJECTED without saying which of the
// two values was wrong.
func (m *Manager) Login(ctx context.Context, username string, password string) (model.Credential, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.Credential{}, apierror.New(apierror.CodeAuthRejected, loginFailedMessage, "username and password are required", 0)
	}

	resp, err := m.api.Login(ctx, username, password)
	if err != nil {
		return model.Credential{}, loginError(err)
	}

	return m.establish(resp, username)
}

// Signup registers an account. The submitted role is only a suggestion; the
// stored role is always the one the server answers with. When the server
// replies with the new user instead of a token, the account is logged in with
// the submitted credentials.
func (m *Manager) Signup(ctx context.Context, request model.SignupRequest) (model.Credential, error) {
	request.Username = strings.TrimSpace(request.Username)
	request.Email = strings.TrimSpace(request.Email)
	if request.Role == "" {
		request.Role = model.RoleUser
	}

	resp, err := m.api.Signup(ctx, request)
	if err != nil {
		return model.Credential{}, err
	}

	if strings.TrimSpace(resp.AccessToken) == "" {
		m.logger.Debug("signup returned no token, logging in", "username", request.Username)
		return m.Login(ctx, request.Username, request.Password)
	}

	return m.establish(resp, request.Username)
}

// Logout drops the stored credential. It is idempotent and never fails.
func (m *Manager) Logout() {
	_, wasPresent := m.credentials.Get()

	if err := m.credentials.Clear(); err != nil {
		m.logger.Warn("clear credential on logout", "error", err)
	}

	if wasPresent {
		m.logger.Info("logged out")
		m.bus.Publish(event.New(event.TypeSessionEnded, "", nil))
	}
}

func (m *Manager) State() State {
	if _, ok := m.credentials.Get(); ok {
		return StateAuthenticated
	}
	return StateAnonymous
}

// Credential returns the active credential, if any.
func (m *Manager) Credential() (model.Credential, bool) {
	return m.credentials.Get()
}

func (m *Manager) establish(resp model.TokenResponse, username string) (model.Credential, error) {
	if strings.TrimSpace(resp.AccessToken) == "" {
		return model.Credential{}, apierror.New(apierror.CodeUnavailable, "server issued no access token", "", 0)
	}

	credential := model.Credential{
		AccessToken: resp.AccessToken,
		Role:        model.ParseRole(resp.Role),
	}

	if err := m.credentials.Set(credential); err != nil {
		return model.Credential{}, apierror.Wrap(apierror.CodeUnavailable, "store credential", err)
	}

	m.logger.Info("login successful", "username", username, "role", credential.Role)
	m.bus.Publish(event.New(event.TypeSessionStarted, "", map[string]string{
		"username": username,
		"role":     string(credential.Role),
	}))

	return credential, nil
}

func loginError(err error) error {
	switch apierror.CodeOf(err) {
	case apierror.CodeUnauthenticated, apierror.CodeValidationRejected, apierror.CodeForbidden:
		apiErr := apierror.New(apierror.CodeAuthRejected, loginFailedMessage, "", 0)
		apiErr.Err = err
		return apiErr
	default:
		return err
	}
}
