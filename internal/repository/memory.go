package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go-todo-client/internal/model"
)

// MemoryUserRepository keeps users in process memory. It backs the server
// when no DATABASE_URL is configured, and the tests.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[int64]model.User
	nextID int64
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[int64]model.User{}}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return model.ErrUserAlreadyExists
		}
	}

	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id int64) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	username = strings.TrimSpace(username)
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	r.users[id] = u
	return nil
}

func (r *MemoryUserRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users), nil
}

type MemoryTodoRepository struct {
	mu     sync.RWMutex
	todos  []model.Task
	nextID int64
}

func NewMemoryTodoRepository() *MemoryTodoRepository {
	return &MemoryTodoRepository{}
}

func (r *MemoryTodoRepository) ListByOwner(_ context.Context, ownerID int64) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Task, 0)
	for _, t := range r.todos {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *MemoryTodoRepository) ListAll(_ context.Context) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append(make([]model.Task, 0, len(r.todos)), r.todos...), nil
}

func (r *MemoryTodoRepository) Create(_ context.Context, t *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	t.ID = r.nextID
	r.todos = append(r.todos, *t)
	return nil
}

func (r *MemoryTodoRepository) FindByID(_ context.Context, id int64) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexLocked(id); i >= 0 {
		return r.todos[i], nil
	}
	return model.Task{}, model.ErrTaskNotFound
}

func (r *MemoryTodoRepository) Update(_ context.Context, t model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(t.ID)
	if i < 0 {
		return model.ErrTaskNotFound
	}
	r.todos[i] = t
	return nil
}

func (r *MemoryTodoRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return model.ErrTaskNotFound
	}
	r.todos = slices.Delete(r.todos, i, i+1)
	return nil
}

func (r *MemoryTodoRepository) indexLocked(id int64) int {
	return slices.IndexFunc(r.todos, func(t model.Task) bool { return t.ID == id })
}
