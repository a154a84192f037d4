//go:build integration

package integration

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-todo-client/internal/model"
	"go-todo-client/internal/moderation"
	"go-todo-client/internal/profile"
	"go-todo-client/internal/session"
	"go-todo-client/pkg/apierror"
)

func TestUserJourney(t *testing.T) {
	server := newServer(t)
	alice := newClient(t, server.URL, credentialPath(t), nil)
	ctx := t.Context()

	credential, err := alice.session.Signup(ctx, model.SignupRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, credential.Role)
	assert.Equal(t, session.StateAuthenticated, alice.session.State())
	assert.Equal(t, session.Decision{Verdict: session.Redirect, Destination: session.DestinationTodos}, alice.session.Guard(model.RoleAdmin))

	created, err := alice.tasks.Create(ctx, model.TaskDraft{Title: "Buy milk", Priority: 2})
	require.NoError(t, err)
	assert.Equal(t, "Todo created", alice.tasks.Notice().Message)

	toggled, err := alice.tasks.ToggleComplete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	require.NoError(t, alice.tasks.Load(ctx))
	require.Len(t, alice.tasks.Tasks(), 1)
	assert.True(t, alice.tasks.Tasks()[0].Completed)

	err = alice.moderation.LoadAll(ctx)
	assert.True(t, apierror.Is(err, apierror.CodeForbidden))

	result, err := alice.profile.ChangePassword(ctx, "wrong-one", "secret2")
	require.NoError(t, err)
	assert.Equal(t, profile.Rejected, result.Outcome)
	assert.Equal(t, session.StateAuthenticated, alice.session.State())

	result, err = alice.profile.ChangePassword(ctx, "secret1", "secret2")
	require.NoError(t, err)
	assert.Equal(t, profile.Changed, result.Outcome)

	alice.session.Logout()
	assert.Eventually(t, func() bool { return len(alice.tasks.Tasks()) == 0 }, time.Second, 10*time.Millisecond)
	_, statErr := os.Stat(alice.credentials.Path())
	assert.True(t, os.IsNotExist(statErr))

	_, err = alice.session.Login(ctx, "alice", "secret1")
	assert.True(t, apierror.Is(err, apierror.CodeAuthRejected))
	_, err = alice.session.Login(ctx, "alice", "secret2")
	require.NoError(t, err)
}

func TestModerationAcrossAccounts(t *testing.T) {
	server := newServer(t)
	ctx := t.Context()

	alice := newClient(t, server.URL, credentialPath(t), nil)
	_, err := alice.session.Signup(ctx, model.SignupRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	spam, err := alice.tasks.Create(ctx, model.TaskDraft{Title: "Cheap pills", Priority: 5})
	require.NoError(t, err)

	admin := newClient(t, server.URL, credentialPath(t), nil)
	credential, err := admin.session.Login(ctx, adminUsername, adminPassword)
	require.NoError(t, err)
	require.True(t, credential.Privileged())
	assert.True(t, admin.session.Guard(model.RoleAdmin).Allowed())

	require.NoError(t, admin.moderation.LoadAll(ctx))
	require.Len(t, admin.moderation.Tasks(), 1)

	err = admin.moderation.DeleteAny(ctx, spam.ID, moderation.ConfirmFunc(func(string) (bool, error) { return false, nil }))
	require.ErrorIs(t, err, model.ErrCancelled)
	require.Len(t, admin.moderation.Tasks(), 1)

	require.NoError(t, admin.moderation.DeleteAny(ctx, spam.ID, moderation.AlwaysConfirm))
	assert.Empty(t, admin.moderation.Tasks())

	require.NoError(t, alice.tasks.Load(ctx))
	assert.Empty(t, alice.tasks.Tasks())

	// The stale copy on alice's side fails and is put back.
	_, err = alice.tasks.Create(ctx, model.TaskDraft{Title: "Second try", Priority: 1})
	require.NoError(t, err)
	require.NoError(t, admin.moderation.LoadAll(ctx))
	victim := admin.moderation.Tasks()[0].ID
	require.NoError(t, admin.moderation.DeleteAny(ctx, victim, moderation.AlwaysConfirm))

	_, err = alice.tasks.ToggleComplete(ctx, victim)
	require.Error(t, err)
	task, ok := alice.tasks.Task(victim)
	require.True(t, ok)
	assert.False(t, task.Completed)
}

func TestExpiredCredentialEndsSession(t *testing.T) {
	server := newServer(t)
	ctx := t.Context()
	path := credentialPath(t)

	fresh := newClient(t, server.URL, path, nil)
	_, err := fresh.session.Signup(ctx, model.SignupRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	_, err = fresh.tasks.Create(ctx, model.TaskDraft{Title: "Buy milk", Priority: 2})
	require.NoError(t, err)

	later := newClient(t, server.URL, path, func() time.Time { return time.Now().Add(time.Hour) })
	events, unsubscribe := later.bus.Subscribe()
	defer unsubscribe()

	require.Equal(t, session.StateAuthenticated, later.session.State())
	err = later.tasks.Load(ctx)
	require.True(t, apierror.Is(err, apierror.CodeUnauthenticated))
	assert.Equal(t, session.StateAnonymous, later.session.State())
	assert.Equal(t, session.Decision{Verdict: session.Redirect, Destination: session.DestinationLogin}, later.session.Guard(model.RoleUser))

	select {
	case e := <-events:
		assert.True(t, e.EndsSession())
	case <-time.After(2 * time.Second):
		t.Fatal("no session event published")
	}
}

func TestCLIAgainstServer(t *testing.T) {
	server := newServer(t)
	path := credentialPath(t)

	out, err := runCLI(t, server.URL, path, "secret1\n", "signup", "alice", "--email", "alice@example.com")
	require.NoError(t, err, out)

	out, err = runCLI(t, server.URL, path, "", "tasks", "add", "Walk dog", "-p", "4", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"urgency": "Very High"`)

	out, err = runCLI(t, server.URL, path, "", "tasks", "list", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "title: Walk dog")

	_, err = runCLI(t, server.URL, path, "", "admin", "tasks")
	require.Error(t, err)

	adminPath := credentialPath(t)
	_, err = runCLI(t, server.URL, adminPath, adminPassword+"\n", "login", adminUsername)
	require.NoError(t, err)
	out, err = runCLI(t, server.URL, adminPath, "", "admin", "tasks", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "Walk dog")
}
