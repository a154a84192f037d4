package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go-todo-client/internal/model"
	"go-todo-client/internal/repository"
	"go-todo-client/internal/util"
	"go-todo-client/pkg/apierror"
)

type TodoService struct {
	todos repository.TodoRepository
}

func NewTodoService(todos repository.TodoRepository) *TodoService {
	return &TodoService{todos: todos}
}

func (s *TodoService) List(ctx context.Context, ownerID int64) ([]model.Task, error) {
	return s.todos.ListByOwner(ctx, ownerID)
}

func (s *TodoService) Create(ctx context.Context, ownerID int64, request model.TaskRequest) (model.Task, error) {
	if err := validateTask(request); err != nil {
		return model.Task{}, err
	}

	task := model.Task{
		Title:       util.CleanText(request.Title),
		Description: util.CleanText(request.Description),
		Priority:    request.Priority,
		Completed:   request.Completed,
		OwnerID:     ownerID,
	}
	if err := s.todos.Create(ctx, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Update replaces every field of the caller's task. Tasks of other owners
// look missing.
func (s *TodoService) Update(ctx context.Context, ownerID int64, id int64, request model.TaskRequest) (model.Task, error) {
	if err := validateTask(request); err != nil {
		return model.Task{}, err
	}

	task, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return model.Task{}, err
	}

	task.Title = util.CleanText(request.Title)
	task.Description = util.CleanText(request.Description)
	task.Priority = request.Priority
	task.Completed = request.Completed

	if err := s.todos.Update(ctx, task); err != nil {
		return model.Task{}, notFound(id, err)
	}
	return task, nil
}

func (s *TodoService) Delete(ctx context.Context, ownerID int64, id int64) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	return notFound(id, s.todos.Delete(ctx, id))
}

func (s *TodoService) ListAll(ctx context.Context) ([]model.Task, error) {
	return s.todos.ListAll(ctx)
}

func (s *TodoService) DeleteAny(ctx context.Context, id int64) error {
	return notFound(id, s.todos.Delete(ctx, id))
}

func (s *TodoService) owned(ctx context.Context, ownerID int64, id int64) (model.Task, error) {
	task, err := s.todos.FindByID(ctx, id)
	if err != nil {
		return model.Task{}, notFound(id, err)
	}
	if task.OwnerID != ownerID {
		return model.Task{}, notFound(id, model.ErrTaskNotFound)
	}
	return task, nil
}

func validateTask(request model.TaskRequest) error {
	var v validator
	v.length("title", util.CleanText(request.Title), 3, 100)
	v.length("description", util.CleanText(request.Description), 0, 100)
	v.between("priority", request.Priority, model.MinPriority, model.MaxPriority)
	return v.err()
}

func notFound(id int64, err error) error {
	if errors.Is(err, model.ErrTaskNotFound) {
		return apierror.New("NOT_FOUND", fmt.Sprintf("Todo with id %d not found", id), "", http.StatusNotFound)
	}
	return err
}
