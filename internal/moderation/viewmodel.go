// Package moderation is the privileged view over every user's tasks. It can
// list and delete records across owners; it never edits them.
package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"go-todo-client/internal/event"
	"go-todo-client/internal/inflight"
	"go-todo-client/internal/model"
	"go-todo-client/internal/storage"
	"go-todo-client/internal/taskstore"
	"go-todo-client/pkg/apierror"
)

const (
	Scope = "moderation"

	DeletePrompt = "Are you sure you want to delete this todo?"

	loadFailedMessage   = "Unauthorized or failed to load admin data"
	deleteFailedMessage = "Failed to delete todo. Make sure you have admin rights."
)

type API interface {
	ListAllTasks(ctx context.Context) ([]model.Task, error)
	DeleteAnyTask(ctx context.Context, id int64) error
}

// Confirmer asks the person at the controls to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

type ConfirmFunc func(prompt string) (bool, error)

func (f ConfirmFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}

// AlwaysConfirm approves every prompt (the CLI's --yes).
var AlwaysConfirm = ConfirmFunc(func(string) (bool, error) { return true, nil })

type ViewModel struct {
	api         API
	credentials storage.CredentialStore
	bus         event.Bus
	logger      *slog.Logger
	tasks       *taskstore.Collection
	inFlight    *inflight.Tracker
	notices     taskstore.NoticeBoard
}

func New(api API, credentials storage.CredentialStore, bus event.Bus, logger *slog.Logger) *ViewModel {
	if bus == nil {
		bus = event.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ViewModel{
		api:         api,
		credentials: credentials,
		bus:         bus,
		logger:      logger.With("scope", Scope),
		tasks:       taskstore.NewCollection(),
		inFlight:    inflight.NewTracker(),
	}
}

// LoadAll fetches every task across owners. A session without the admin
// role is refused locally and the collection is left as it was.
func (v *ViewModel) LoadAll(ctx context.Context) error {
	if err := v.requirePrivilege(); err != nil {
		v.notices.Set(loadFailedMessage, true)
		return err
	}

	tasks, err := v.api.ListAllTasks(ctx)
	if err != nil {
		v.fail(err, loadFailedMessage)
		return err
	}

	v.tasks.Replace(tasks)
	v.notices.Set("", false)
	v.bus.Publish(event.New(event.TypeTasksLoaded, Scope, map[string]int{"count": len(tasks)}))
	return nil
}

// DeleteAny removes a task regardless of owner after confirm approves it.
// The record is restored at its former position if the server refuses.
func (v *ViewModel) DeleteAny(ctx context.Context, id int64, confirm Confirmer) error {
	if err := v.requirePrivilege(); err != nil {
		v.notices.Set(deleteFailedMessage, true)
		return err
	}

	if _, ok := v.tasks.Get(id); !ok {
		return fmt.Errorf("delete task %d: %w", id, model.ErrTaskNotFound)
	}

	release, err := v.inFlight.Begin(id, "delete")
	if err != nil {
		return err
	}
	defer release()

	if confirm == nil {
		return model.ErrCancelled
	}
	approved, err := confirm.Confirm(DeletePrompt)
	if err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	if !approved {
		return model.ErrCancelled
	}

	removed, index, ok := v.tasks.Remove(id)
	if !ok {
		return fmt.Errorf("delete task %d: %w", id, model.ErrTaskNotFound)
	}

	if err := v.api.DeleteAnyTask(ctx, id); err != nil {
		if !v.fail(err, deleteFailedMessage) {
			v.tasks.Restore(index, removed)
			v.logger.Info("rolled back optimistic change", "op", "delete", "task.id", id, "error", err)
			v.bus.Publish(event.New(event.TypeTaskRolledBack, Scope, map[string]any{"op": "delete", "task": removed}))
		}
		return err
	}

	v.notices.Set("", false)
	v.bus.Publish(event.New(event.TypeTaskDeleted, Scope, map[string]int64{"id": id, "owner_id": removed.OwnerID}))
	return nil
}

func (v *ViewModel) Tasks() []model.Task {
	return v.tasks.Snapshot()
}

func (v *ViewModel) Notice() taskstore.Notice {
	return v.notices.Get()
}

func (v *ViewModel) Reset() {
	v.tasks.Clear()
}

// Bind clears the view whenever bus reports the end of the session.
func (v *ViewModel) Bind(bus event.Bus) func() {
	return taskstore.BindReset(bus, v.Reset)
}

func (v *ViewModel) requirePrivilege() error {
	credential, ok := v.credentials.Get()
	if !ok {
		return apierror.New(apierror.CodeUnauthenticated, "not logged in", "", 0)
	}
	if !credential.Privileged() {
		return apierror.New(apierror.CodeForbidden, "insufficient permissions", "admin role required", 0)
	}
	return nil
}

func (v *ViewModel) fail(err error, message string) bool {
	if taskstore.SessionEnded(v.credentials, err) {
		v.notices.Set(apierror.UserMessage(err), true)
		v.Reset()
		return true
	}

	v.notices.Set(message, true)
	v.logger.Debug("moderation request failed", "error", err)
	return false
}
