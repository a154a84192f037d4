//go:build integration

package integration

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-todo-client/internal/apiclient"
	"go-todo-client/internal/app"
	"go-todo-client/internal/cli"
	"go-todo-client/internal/config"
	"go-todo-client/internal/event"
	"go-todo-client/internal/moderation"
	"go-todo-client/internal/profile"
	"go-todo-client/internal/session"
	"go-todo-client/internal/storage"
	"go-todo-client/internal/taskstore"
)

const (
	adminUsername = "root"
	adminPassword = "rootpw1"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.ServerConfig{
		ServerPort:        "0",
		RequestTimeout:    5 * time.Second,
		JWTSecret:         "integration-secret",
		JWTAccessTTL:      15 * time.Minute,
		BcryptCost:        4,
		AuthRateLimitRPM:  1000,
		SeedAdminUsername: adminUsername,
		SeedAdminPassword: adminPassword,
	}

	handler, err := app.NewHandler(t.Context(), cfg)
	require.NoError(t, err)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// client is one signed-in device: its own credential file, bus and stores.
type client struct {
	credentials *storage.FileCredentialStore
	bus         *event.InMemoryBus
	api         *apiclient.Client
	session     *session.Manager
	tasks       *taskstore.Store
	moderation  *moderation.ViewModel
	profile     *profile.Flow
}

func newClient(t *testing.T, serverURL string, credentialFile string, now func() time.Time) *client {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	credentials, err := storage.NewFileCredentialStore(credentialFile)
	require.NoError(t, err)

	bus := event.NewBus()
	api, err := apiclient.New(apiclient.Config{
		BaseURL:     serverURL,
		Credentials: credentials,
		Logger:      logger,
		Bus:         bus,
		Timeout:     5 * time.Second,
		Now:         now,
	})
	require.NoError(t, err)

	c := &client{
		credentials: credentials,
		bus:         bus,
		api:         api,
		session:     session.NewManager(api, credentials, bus, logger),
		tasks:       taskstore.New(api, credentials, bus, logger),
		moderation:  moderation.New(api, credentials, bus, logger),
		profile:     profile.NewFlow(api, logger),
	}
	t.Cleanup(c.tasks.Bind(bus))
	t.Cleanup(c.moderation.Bind(bus))
	return c
}

func credentialPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "credential.json")
}

func runCLI(t *testing.T, serverURL string, credentialFile string, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	full := append([]string{"--api-url", serverURL, "--credential-file", credentialFile}, args...)
	err := cli.Execute(t.Context(), full, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}
