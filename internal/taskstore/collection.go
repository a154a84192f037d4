package taskstore

import (
	"slices"
	"sync"

	"go-todo-client/internal/model"
)

// Collection is an ordered, id-keyed set of tasks safe for concurrent use.
// Order is server fetch order with local appends at the end.
type Collection struct {
	mu    sync.RWMutex
	tasks []model.Task
}

func NewCollection() *Collection {
	return &Collection{}
}

func (c *Collection) Replace(tasks []model.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tasks = slices.Clone(tasks)
}

func (c *Collection) Append(task model.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tasks = append(c.tasks, task)
}

func (c *Collection) Get(id int64) (model.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexLocked(id); i >= 0 {
		return c.tasks[i], true
	}
	return model.Task{}, false
}

// Put overwrites the record with task's id. It reports false when no such
// record exists.
func (c *Collection) Put(task model.Task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(task.ID)
	if i < 0 {
		return false
	}
	c.tasks[i] = task
	return true
}

// Update applies fn to the record with id and returns the record before and
// after the change.
func (c *Collection) Update(id int64, fn func(*model.Task)) (before model.Task, after model.Task, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return model.Task{}, model.Task{}, false
	}

	before = c.tasks[i]
	fn(&c.tasks[i])
	return before, c.tasks[i], true
}

// Remove deletes the record with id and returns it with the index it held.
func (c *Collection) Remove(id int64) (model.Task, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return model.Task{}, -1, false
	}

	removed := c.tasks[i]
	c.tasks = slices.Delete(c.tasks, i, i+1)
	return removed, i, true
}

// Restore puts task back at index, clamped to the current length. A record
// with the same id that reappeared in the meantime is overwritten instead.
func (c *Collection) Restore(index int, task model.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexLocked(task.ID); i >= 0 {
		c.tasks[i] = task
		return
	}

	index = max(0, min(index, len(c.tasks)))
	c.tasks = slices.Insert(c.tasks, index, task)
}

func (c *Collection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tasks = nil
}

// Snapshot returns a copy of the tasks in order.
func (c *Collection) Snapshot() []model.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.tasks)
}

func (c *Collection) indexLocked(id int64) int {
	return slices.IndexFunc(c.tasks, func(t model.Task) bool { return t.ID == id })
}
