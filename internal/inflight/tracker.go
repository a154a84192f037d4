// Package inflight marks records that have a mutating request outstanding so
// a repeated trigger on the same record is refused instead of racing.
package inflight

import (
	"sync"

	"go-todo-client/internal/model"
)

// NewRecord is the key a create holds while the server has not yet assigned
// an id. Server ids start at 1.
const NewRecord int64 = 0

type Tracker struct {
	mu      sync.Mutex
	pending map[int64]string
}

func NewTracker() *Tracker {
	return &Tracker{pending: map[int64]string{}}
}

// Begin marks id as busy with op. It fails with model.ErrInFlight when a
// request for id is already outstanding. The returned func releases the mark.
func (t *Tracker) Begin(id int64, op string) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, busy := t.pending[id]; busy {
		return nil, model.ErrInFlight
	}
	t.pending[id] = op

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.pending, id)
			t.mu.Unlock()
		})
	}, nil
}

// Busy reports the operation outstanding for id, if any.
func (t *Tracker) Busy(id int64) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, busy := t.pending[id]
	return op, busy
}
