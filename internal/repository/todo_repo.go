package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-todo-client/internal/model"
)

const todoColumns = `id, title, description, priority, completed, owner_id`

type PostgresTodoRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTodoRepository(pool *pgxpool.Pool) *PostgresTodoRepository {
	return &PostgresTodoRepository{pool: pool}
}

func (r *PostgresTodoRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Task, error) {
	return r.list(ctx, `SELECT `+todoColumns+` FROM todos WHERE owner_id = $1 ORDER BY id`, ownerID)
}

func (r *PostgresTodoRepository) ListAll(ctx context.Context) ([]model.Task, error) {
	return r.list(ctx, `SELECT `+todoColumns+` FROM todos ORDER BY id`)
}

func (r *PostgresTodoRepository) list(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	todos, err := pgx.CollectRows(rows, scanTodo)
	if err != nil {
		return nil, fmt.Errorf("scan todos: %w", err)
	}
	if todos == nil {
		todos = []model.Task{}
	}
	return todos, nil
}

func (r *PostgresTodoRepository) Create(ctx context.Context, t *model.Task) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO todos (title, description, priority, completed, owner_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		t.Title, t.Description, t.Priority, t.Completed, t.OwnerID).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

func (r *PostgresTodoRepository) FindByID(ctx context.Context, id int64) (model.Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id)
	if err != nil {
		return model.Task{}, fmt.Errorf("find todo: %w", err)
	}

	t, err := pgx.CollectExactlyOneRow(rows, scanTodo)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, model.ErrTaskNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("find todo: %w", err)
	}
	return t, nil
}

func (r *PostgresTodoRepository) Update(ctx context.Context, t model.Task) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE todos SET title = $2, description = $3, priority = $4, completed = $5 WHERE id = $1`,
		t.ID, t.Title, t.Description, t.Priority, t.Completed)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}

func (r *PostgresTodoRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}

func scanTodo(row pgx.CollectableRow) (model.Task, error) {
	var t model.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Completed, &t.OwnerID)
	return t, err
}
