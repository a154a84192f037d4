package repository

import (
	"context"

	"go-todo-client/internal/model"
)

type UserRepository interface {
	// Create stores u and assigns its ID. A taken username yields
	// model.ErrUserAlreadyExists.
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Count(ctx context.Context) (int, error)
}

type TodoRepository interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Task, error)
	ListAll(ctx context.Context) ([]model.Task, error)
	// Create stores t and assigns its ID.
	Create(ctx context.Context, t *model.Task) error
	FindByID(ctx context.Context, id int64) (model.Task, error)
	Update(ctx context.Context, t model.Task) error
	Delete(ctx context.Context, id int64) error
}
