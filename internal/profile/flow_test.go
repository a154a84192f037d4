package profile

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"go-todo-client/internal/apiclient"
	"go-todo-client/internal/model"
	"go-todo-client/internal/storage"
	"go-todo-client/pkg/apierror"
)

// fakeServer knows one account with token "t1" and password "old".
type fakeServer struct {
	tokenValid    atomic.Bool
	down          atomic.Bool
	passwordCalls atomic.Int32
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.down.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if !s.tokenValid.Load() || r.Header.Get("Authorization") != "Bearer t1" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Could not validate user."}`))
		return
	}

	switch r.URL.Path {
	case "/user/":
		_, _ = w.Write([]byte(`{"id":1,"username":"alice","email":"alice@example.com","first_name":"Alice","last_name":"Smith","role":"user","is_active":true}`))
	case "/user/password":
		s.passwordCalls.Add(1)
		var body model.PasswordChangeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		if body.Password != "old" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Error on password change"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFlow(t *testing.T) (*Flow, *fakeServer, *storage.MemoryCredentialStore) {
	t.Helper()

	srv := &fakeServer{}
	srv.tokenValid.Store(true)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	credentials := storage.NewMemoryCredentialStore()
	require.NoError(t, credentials.Set(model.Credential{AccessToken: "t1", Role: model.RoleUser}))

	client, err := apiclient.New(apiclient.Config{BaseURL: ts.URL, Credentials: credentials, Logger: logger})
	require.NoError(t, err)

	return NewFlow(client, logger), srv, credentials
}

func TestFetchSelf(t *testing.T) {
	t.Parallel()

	flow, _, _ := newFlow(t)

	user, err := flow.FetchSelf(t.Context())
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, model.RoleUser, user.Role)
}

func TestFetchSelfWithoutSession(t *testing.T) {
	t.Parallel()

	flow, srv, credentials := newFlow(t)
	require.NoError(t, credentials.Clear())

	_, err := flow.FetchSelf(t.Context())
	require.True(t, apierror.Is(err, apierror.CodeUnauthenticated))
	require.Zero(t, srv.passwordCalls.Load())
}

func TestChangePasswordKeepsCredential(t *testing.T) {
	t.Parallel()

	flow, _, credentials := newFlow(t)
	form := &PasswordForm{Current: "old", New: "brand-new"}

	result, err := form.Submit(t.Context(), flow)
	require.NoError(t, err)
	require.Equal(t, Changed, result.Outcome)
	require.Equal(t, "Password changed successfully", result.Message)
	require.Empty(t, form.Current)
	require.Empty(t, form.New)

	stored, ok := credentials.Get()
	require.True(t, ok)
	require.Equal(t, "t1", stored.AccessToken)
}

func TestChangePasswordWrongCurrentIsRejected(t *testing.T) {
	t.Parallel()

	flow, _, credentials := newFlow(t)
	form := &PasswordForm{Current: "wrong", New: "brand-new"}

	result, err := form.Submit(t.Context(), flow)
	require.NoError(t, err)
	require.Equal(t, Rejected, result.Outcome)
	require.Equal(t, "Password change failed. Please check your current password.", result.Message)
	require.Equal(t, FieldCurrent, result.Field)
	require.Equal(t, "wrong", form.Current)
	require.Equal(t, "brand-new", form.New)

	_, ok := credentials.Get()
	require.True(t, ok)
}

func TestChangePasswordShortNewPasswordRejectedLocally(t *testing.T) {
	t.Parallel()

	flow, srv, _ := newFlow(t)

	result, err := flow.ChangePassword(t.Context(), "old", "12345")
	require.NoError(t, err)
	require.Equal(t, Rejected, result.Outcome)
	require.Zero(t, srv.passwordCalls.Load())

	result, err = flow.ChangePassword(t.Context(), "", "123456")
	require.NoError(t, err)
	require.Equal(t, Rejected, result.Outcome)
	require.Equal(t, FieldCurrent, result.Field)
}

func TestChangePasswordThreeLetterPasswordKeepsForm(t *testing.T) {
	t.Parallel()

	flow, srv, credentials := newFlow(t)
	form := &PasswordForm{Current: "old", New: "new"}

	result, err := form.Submit(t.Context(), flow)
	require.NoError(t, err)
	require.Equal(t, Rejected, result.Outcome)
	require.Equal(t, FieldNew, result.Field)
	require.Equal(t, "New password must be at least 6 characters", result.Message)
	require.Equal(t, "old", form.Current)
	require.Equal(t, "new", form.New)
	require.Zero(t, srv.passwordCalls.Load())

	form.New = "newer-password"
	result, err = form.Submit(t.Context(), flow)
	require.NoError(t, err)
	require.Equal(t, Changed, result.Outcome)
	require.EqualValues(t, 1, srv.passwordCalls.Load())

	_, ok := credentials.Get()
	require.True(t, ok)
}

func TestChangePasswordDeadTokenEndsSession(t *testing.T) {
	t.Parallel()

	flow, srv, credentials := newFlow(t)
	srv.tokenValid.Store(false)

	_, err := flow.ChangePassword(t.Context(), "old", "brand-new")
	require.True(t, apierror.Is(err, apierror.CodeUnauthenticated))

	_, ok := credentials.Get()
	require.False(t, ok)
}

func TestChangePasswordServerDownIsAnError(t *testing.T) {
	t.Parallel()

	flow, srv, _ := newFlow(t)
	srv.down.Store(true)
	form := &PasswordForm{Current: "old", New: "brand-new"}

	_, err := form.Submit(t.Context(), flow)
	require.True(t, apierror.Is(err, apierror.CodeUnavailable))
	require.Equal(t, "old", form.Current)
}

func TestRejectedWithDetail(t *testing.T) {
	t.Parallel()

	require.Equal(t, rejectedMessage, rejectedWith(""))
	require.Equal(t, rejectedMessage+" (new_password: too short)", rejectedWith("new_password: too short"))
}
