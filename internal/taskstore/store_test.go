package taskstore

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-todo-client/internal/apiclient"
	"go-todo-client/internal/event"
	"go-todo-client/internal/inflight"
	"go-todo-client/internal/model"
	"go-todo-client/internal/storage"
	"go-todo-client/pkg/apierror"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) ListTasks(ctx context.Context) ([]model.Task, error) {
	args := m.Called(ctx)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *mockAPI) CreateTask(ctx context.Context, request model.TaskRequest) (model.Task, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *mockAPI) UpdateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	args := m.Called(ctx, task)
	updated, _ := args.Get(0).(*model.Task)
	return updated, args.Error(1)
}

func (m *mockAPI) DeleteTask(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seeded(t *testing.T, api *mockAPI, tasks ...model.Task) *Store {
	t.Helper()

	return seededWith(t, api, storage.NewMemoryCredentialStore(), tasks...)
}

func seededWith(t *testing.T, api *mockAPI, credentials storage.CredentialStore, tasks ...model.Task) *Store {
	t.Helper()

	api.On("ListTasks", mock.Anything).Return(tasks, nil).Once()
	store := New(api, credentials, nil, quietLogger())
	require.NoError(t, store.Load(t.Context()))
	return store
}

var (
	taskA = model.Task{ID: 1, Title: "Write report", Priority: 4}
	taskB = model.Task{ID: 2, Title: "Call plumber", Priority: 3, Completed: true}
	taskC = model.Task{ID: 3, Title: "Water plants", Priority: 1}
)

func TestLoadKeepsServerOrder(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	store := seeded(t, api, taskC, taskA, taskB)

	require.Equal(t, []model.Task{taskC, taskA, taskB}, store.Tasks())
	api.AssertExpectations(t)
}

func TestLoadFailureKeepsState(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	store := seeded(t, api, taskA)
	api.On("ListTasks", mock.Anything).Return(nil, apierror.New(apierror.CodeUnavailable, "service unavailable", "", 503)).Once()

	err := store.Load(t.Context())
	require.True(t, apierror.Is(err, apierror.CodeUnavailable))
	require.Equal(t, []model.Task{taskA}, store.Tasks())
	require.Equal(t, Notice{Message: "Failed to load todos", Error: true}, store.Notice())
}

func TestCreateAppendsServerRecord(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	store := seeded(t, api, taskA)

	draft := model.TaskDraft{Title: "Buy milk", Description: "", Priority: 2}
	created := model.Task{ID: 7, Title: "Buy milk", Priority: 2}
	api.On("CreateTask", mock.Anything, model.TaskRequest{Title: "Buy milk", Priority: 2, Completed: false}).Return(created, nil).Once()

	got, err := store.Create(t.Context(), draft)
	require.NoError(t, err)
	require.Equal(t, created, got)

	tasks := store.Tasks()
	require.Len(t, tasks, 2)
	last := tasks[len(tasks)-1]
	require.Equal(t, int64(7), last.ID)
	require.False(t, last.Completed)
	require.Equal(t, draft.Title, last.Title)
	require.Equal(t, draft.Priority, last.Priority)
	api.AssertExpectations(t)
}

func TestCreateRejectsInvalidDraftWithoutRequest(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	store := seeded(t, api)

	for _, draft := range []model.TaskDraft{
		{Title: "Buy milk", Priority: 0},
		{Title: "Buy milk", Priority: 6},
		{Title: "   ", Priority: 3},
	} {
		_, err := store.Create(t.Context(), draft)
		require.True(t, apierror.Is(err, apierror.CodeValidationRejected), "draft %+v", draft)
		require.ErrorIs(t, err, model.ErrInvalidInput)
	}

	require.Empty(t, store.Tasks())
	require.True(t, store.Notice().Error)
	api.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
}

func TestCreateFailureAddsNothing(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	store := seeded(t, api, taskA)
	api.On("CreateTask", mock.Anything, mock.Anything).
		Return(model.Task{}, apierror.New(apierror.CodeValidationRejected, "request rejected", "title: String should have at least 3 characters", 422)).Once()

	_, err := store.Create(t.Context(), model.TaskDraft{Title: "ab", Priority: 2})
	require.Error(t, err)
	require.Equal(t, []model.Task{taskA}, store.Tasks())
	require.Equal(t, "title: String should have at least 3 characters", store.Notice().Message)
}

func TestToggleSendsFlippedRecord(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	store := seeded(t, api, taskA, taskB)

	flipped := taskA
	flipped.Completed = true
	api.On("UpdateTask", mock.Anything, flipped).Return(nil, nil).Once()

	got, err := store.ToggleComplete(t.Context(), taskA.ID)
	require.NoError(t, err)
	require.True(t, got.Completed)

	current, ok := store.Task(taskA.ID)
	require.True(t, ok)
	require.True(t, current.Completed)
	api.AssertExpectations(t)
}

func TestToggleTakesServerCopy(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	store := seeded(t, api, taskB)

	serverCopy := taskB
	serverCopy.Completed = false
	serverCopy.Description = "edited elsewhere"
	api.On("UpdateTask", mock.Anything, mock.Anything).Return(&serverCopy, nil).Once()

	_, err := store.ToggleComplete(t.Context(), taskB.ID)
	require.NoError(t, err)
	require.Equal(t, []model.Task{serverCopy}, store.Tasks())
}

func TestToggleRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	failures := []error{
		apierror.New(apierror.CodeUnavailable, "service unavailable", "", 500),
		apierror.New(apierror.CodeValidationRejected, "request rejected", "bad", 422),
		apierror.New(apierror.CodeForbidden, "insufficient permissions", "", 403),
	}

	for _, failure := range failures {
		t.Run(apierror.CodeOf(failure), func(t *testing.T) {
			t.Parallel()

			api := new(mockAPI)
			store := seeded(t, api, taskA, taskB, taskC)
			api.On("UpdateTask", mock.Anything, mock.Anything).Return(nil, failure).Once()

			_, err := store.ToggleComplete(t.Context(), taskB.ID)
			require.ErrorIs(t, err, failure)
			require.Equal(t, []model.Task{taskA, taskB, taskC}, store.Tasks())
			require.True(t, store.Notice().Error)
			require.False(t, store.Busy(taskB.ID))
		})
	}
}

func TestDeleteRollsBackToSamePosition(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	store := seeded(t, api, taskA, taskB, taskC)
	api.On("DeleteTask", mock.Anything, taskB.ID).Return(apierror.New(apierror.CodeUnavailable, "service unavailable", "", 502)).Once()

	err := store.Delete(t.Context(), taskB.ID)
	require.True(t, apierror.Is(err, apierror.CodeUnavailable))
	require.Equal(t, []model.Task{taskA, taskB, taskC}, store.Tasks())
	require.Equal(t, "The server could not be reached. Please try again.", store.Notice().Message)
}

func TestDeleteRemoves(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	store := seeded(t, api, taskA, taskB)
	api.On("DeleteTask", mock.Anything, taskA.ID).Return(nil).Once()

	require.NoError(t, store.Delete(t.Context(), taskA.ID))
	require.Equal(t, []model.Task{taskB}, store.Tasks())

	err := store.Delete(t.Context(), taskA.ID)
	require.ErrorIs(t, err, model.ErrTaskNotFound)
	api.AssertExpectations(t)
}

func TestUnauthenticatedClearsCollection(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	store := seeded(t, api, taskA, taskB)
	api.On("DeleteTask", mock.Anything, taskA.ID).Return(apierror.New(apierror.CodeUnauthenticated, "authentication required", "", 401)).Once()

	err := store.Delete(t.Context(), taskA.ID)
	require.True(t, apierror.Is(err, apierror.CodeUnauthenticated))
	require.Empty(t, store.Tasks())
	require.Equal(t, "Your session has ended. Please log in again.", store.Notice().Message)
}

func TestReplacedCredentialKeepsCollection(t *testing.T) {
	t.Parallel()

	credentials := storage.NewMemoryCredentialStore()
	require.NoError(t, credentials.Set(model.Credential{AccessToken: "t2", Role: model.RoleUser}))

	api := new(mockAPI)
	store := seededWith(t, api, credentials, taskA, taskB)
	api.On("DeleteTask", mock.Anything, taskA.ID).Return(apierror.New(apierror.CodeUnauthenticated, "authentication required", "", 401)).Once()

	err := store.Delete(t.Context(), taskA.ID)
	require.True(t, apierror.Is(err, apierror.CodeUnauthenticated))
	require.Equal(t, []model.Task{taskA, taskB}, store.Tasks())
	require.Equal(t, Notice{Message: "The server refused the request. Please try again.", Error: true}, store.Notice())

	_, ok := credentials.Get()
	require.True(t, ok)
}

func TestConcurrentCreateIsRejected(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	store := seeded(t, api)

	entered := make(chan struct{})
	unblock := make(chan struct{})
	api.On("CreateTask", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(entered)
		<-unblock
	}).Return(model.Task{ID: 9, Title: "Buy milk", Priority: 2}, nil).Once()

	draft := model.TaskDraft{Title: "Buy milk", Priority: 2}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := store.Create(context.Background(), draft)
		assert.NoError(t, err)
	}()

	<-entered
	require.True(t, store.Busy(inflight.NewRecord))
	_, err := store.Create(t.Context(), draft)
	require.ErrorIs(t, err, model.ErrInFlight)

	close(unblock)
	wg.Wait()

	require.False(t, store.Busy(inflight.NewRecord))
	require.Len(t, store.Tasks(), 1)
	api.AssertNumberOfCalls(t, "CreateTask", 1)

	api.On("CreateTask", mock.Anything, mock.Anything).Return(model.Task{ID: 10, Title: "Buy milk", Priority: 2}, nil).Once()
	_, err = store.Create(t.Context(), draft)
	require.NoError(t, err)
	require.Len(t, store.Tasks(), 2)
}

func TestConcurrentMutationOnSameRecordIsRejected(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	store := seeded(t, api, taskA)

	entered := make(chan struct{})
	unblock := make(chan struct{})
	api.On("DeleteTask", mock.Anything, taskA.ID).Run(func(mock.Arguments) {
		close(entered)
		<-unblock
	}).Return(nil).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, store.Delete(context.Background(), taskA.ID))
	}()

	<-entered
	require.True(t, store.Busy(taskA.ID))
	_, err := store.ToggleComplete(t.Context(), taskA.ID)
	require.ErrorIs(t, err, model.ErrInFlight)
	require.ErrorIs(t, store.Delete(t.Context(), taskA.ID), model.ErrInFlight)

	close(unblock)
	wg.Wait()

	require.Empty(t, store.Tasks())
	api.AssertNumberOfCalls(t, "DeleteTask", 1)
}

func TestBindResetsOnSessionEnd(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	store := seeded(t, api, taskA)
	bus := event.NewBus()

	stop := store.Bind(bus)
	defer stop()

	bus.Publish(event.New(event.TypeTaskCreated, ScopePersonal, nil))
	bus.Publish(event.New(event.TypeSessionExpired, "", nil))

	require.Eventually(t, func() bool { return len(store.Tasks()) == 0 }, time.Second, 10*time.Millisecond)
}

func TestCreateScenarioOverHTTP(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /todos/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("POST /todos/todo", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["completed"])
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7,"title":"Buy milk","description":"","priority":2,"completed":false,"owner_id":1}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	credentials := storage.NewMemoryCredentialStore()
	require.NoError(t, credentials.Set(model.Credential{AccessToken: "t1", Role: model.RoleUser}))
	client, err := apiclient.New(apiclient.Config{BaseURL: server.URL, Credentials: credentials, Logger: quietLogger()})
	require.NoError(t, err)

	store := New(client, credentials, nil, quietLogger())
	require.NoError(t, store.Load(t.Context()))

	_, err = store.Create(t.Context(), model.TaskDraft{Title: "Buy milk", Priority: 2})
	require.NoError(t, err)

	tasks := store.Tasks()
	require.Len(t, tasks, 1)
	require.Equal(t, int64(7), tasks[0].ID)
	require.False(t, tasks[0].Completed)
}
