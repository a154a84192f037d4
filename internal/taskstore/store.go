// Package taskstore keeps the signed-in user's tasks in memory and applies
// mutations optimistically, restoring the previous state when the server
// refuses them.
package taskstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go-todo-client/internal/event"
	"go-todo-client/internal/inflight"
	"go-todo-client/internal/model"
	"go-todo-client/internal/storage"
	"go-todo-client/internal/util"
	"go-todo-client/pkg/apierror"
)

const ScopePersonal = "personal"

// API is the part of the remote API the personal store uses.
type API interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, request model.TaskRequest) (model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) (*model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

type Store struct {
	api         API
	credentials storage.CredentialStore
	bus         event.Bus
	logger      *slog.Logger
	tasks       *Collection
	inFlight    *inflight.Tracker
	notices     NoticeBoard
}

func New(api API, credentials storage.CredentialStore, bus event.Bus, logger *slog.Logger) *Store {
	if bus == nil {
		bus = event.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		api:         api,
		credentials: credentials,
		bus:         bus,
		logger:      logger.With("scope", ScopePersonal),
		tasks:       NewCollection(),
		inFlight:    inflight.NewTracker(),
	}
}

// Load replaces the collection with the server's list, in server order.
func (s *Store) Load(ctx context.Context) error {
	tasks, err := s.api.ListTasks(ctx)
	if err != nil {
		s.fail(err, "Failed to load todos")
		return err
	}

	s.tasks.Replace(tasks)
	s.notices.Set("", false)
	s.bus.Publish(event.New(event.TypeTasksLoaded, ScopePersonal, map[string]int{"count": len(tasks)}))
	return nil
}

// Create submits draft and appends the server's record. Nothing is added
// locally until the server has assigned an id. Only one create may be
// outstanding at a time.
func (s *Store) Create(ctx context.Context, draft model.TaskDraft) (model.Task, error) {
	if err := ValidateDraft(draft); err != nil {
		s.notices.Set(apierror.UserMessage(err), true)
		return model.Task{}, err
	}

	release, err := s.inFlight.Begin(inflight.NewRecord, "create")
	if err != nil {
		return model.Task{}, err
	}
	defer release()

	created, err := s.api.CreateTask(ctx, draft.Request())
	if err != nil {
		s.fail(err, "")
		return model.Task{}, err
	}

	s.tasks.Append(created)
	s.notices.Set("Todo created", false)
	s.logger.Debug("task created", "task.id", created.ID)
	s.bus.Publish(event.New(event.TypeTaskCreated, ScopePersonal, created))
	return created, nil
}

// ToggleComplete flips the completed flag locally and sends the full record.
// The previous value is restored if the update fails.
func (s *Store) ToggleComplete(ctx context.Context, id int64) (model.Task, error) {
	release, err := s.inFlight.Begin(id, "toggle")
	if err != nil {
		return model.Task{}, err
	}
	defer release()

	before, flipped, ok := s.tasks.Update(id, func(t *model.Task) { t.Completed = !t.Completed })
	if !ok {
		return model.Task{}, fmt.Errorf("toggle task %d: %w", id, model.ErrTaskNotFound)
	}

	updated, err := s.api.UpdateTask(ctx, flipped)
	if err != nil {
		if !s.fail(err, "") {
			s.tasks.Put(before)
			s.rolledBack(before, "toggle", err)
		}
		return before, err
	}

	result := flipped
	if updated != nil {
		result = *updated
		s.tasks.Put(result)
	}

	s.notices.Set("", false)
	s.bus.Publish(event.New(event.TypeTaskUpdated, ScopePersonal, result))
	return result, nil
}

// Delete removes the record locally and asks the server to delete it. The
// record returns to its former position if the request fails.
func (s *Store) Delete(ctx context.Context, id int64) error {
	release, err := s.inFlight.Begin(id, "delete")
	if err != nil {
		return err
	}
	defer release()

	removed, index, ok := s.tasks.Remove(id)
	if !ok {
		return fmt.Errorf("delete task %d: %w", id, model.ErrTaskNotFound)
	}

	if err := s.api.DeleteTask(ctx, id); err != nil {
		if !s.fail(err, "") {
			s.tasks.Restore(index, removed)
			s.rolledBack(removed, "delete", err)
		}
		return err
	}

	s.notices.Set("", false)
	s.bus.Publish(event.New(event.TypeTaskDeleted, ScopePersonal, map[string]int64{"id": id}))
	return nil
}

func (s *Store) Tasks() []model.Task {
	return s.tasks.Snapshot()
}

func (s *Store) Task(id int64) (model.Task, bool) {
	return s.tasks.Get(id)
}

func (s *Store) Notice() Notice {
	return s.notices.Get()
}

// Busy reports whether a mutation for id is outstanding. Pass
// inflight.NewRecord to ask about a pending create.
func (s *Store) Busy(id int64) bool {
	_, busy := s.inFlight.Busy(id)
	return busy
}

// Reset drops every record, as on logout.
func (s *Store) Reset() {
	if s.tasks.Len() == 0 {
		return
	}

	s.tasks.Clear()
	s.bus.Publish(event.New(event.TypeTasksCleared, ScopePersonal, nil))
}

// Bind resets the store whenever bus reports the end of the session. The
// returned func stops listening.
func (s *Store) Bind(bus event.Bus) func() {
	return BindReset(bus, s.Reset)
}

// fail records err as the store's notice. It reports true when err ended the
// session, in which case the collection has already been cleared.
func (s *Store) fail(err error, message string) bool {
	if SessionEnded(s.credentials, err) {
		s.notices.Set(apierror.UserMessage(err), true)
		s.Reset()
		return true
	}

	switch {
	case message != "":
	case apierror.Is(err, apierror.CodeUnauthenticated):
		message = staleCredentialMessage
	default:
		message = apierror.UserMessage(err)
	}
	s.notices.Set(message, true)
	s.logger.Debug("task request failed", "error", err)
	return false
}

func (s *Store) rolledBack(task model.Task, op string, cause error) {
	s.logger.Info("rolled back optimistic change", "op", op, "task.id", task.ID, "error", cause)
	s.bus.Publish(event.New(event.TypeTaskRolledBack, ScopePersonal, map[string]any{"op": op, "task": task}))
}

// ValidateDraft applies the input rules the server enforces, so obviously bad
// drafts are refused without a request.
func ValidateDraft(draft model.TaskDraft) error {
	var problems []string
	if util.CleanText(draft.Title) == "" {
		problems = append(problems, "title is required")
	}
	if !model.ValidPriority(draft.Priority) {
		problems = append(problems, fmt.Sprintf("priority must be between %d and %d", model.MinPriority, model.MaxPriority))
	}

	if len(problems) == 0 {
		return nil
	}

	apiErr := apierror.New(apierror.CodeValidationRejected, "invalid task", strings.Join(problems, "; "), 0)
	apiErr.Err = model.ErrInvalidInput
	return apiErr
}

// BindReset calls reset for every session-ending event on bus until the
// returned func is called.
func BindReset(bus event.Bus, reset func()) func() {
	events, unsubscribe := bus.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for e := range events {
			if e.EndsSession() {
				reset()
			}
		}
	}()

	return func() {
		unsubscribe()
		<-done
	}
}
