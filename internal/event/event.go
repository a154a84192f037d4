package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSessionStarted Type = "session.started"
	TypeSessionEnded   Type = "session.ended"
	TypeSessionExpired Type = "session.expired"

	TypeTasksLoaded    Type = "tasks.loaded"
	TypeTaskCreated    Type = "task.created"
	TypeTaskUpdated    Type = "task.updated"
	TypeTaskDeleted    Type = "task.deleted"
	TypeTaskRolledBack Type = "task.rolled_back"
	TypeTasksCleared   Type = "tasks.cleared"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
	Scope     string      `json:"scope,omitempty"` // Which store emitted it ("personal", "moderation")
}

func New(typ Type, scope string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Scope:     scope,
	}
}

// EndsSession reports whether e means the credential is gone.
func (e Event) EndsSession() bool {
	return e.Type == TypeSessionEnded || e.Type == TypeSessionExpired
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}

// Nop discards everything; used when a component is built without a bus.
type Nop struct{}

func (Nop) Publish(Event) {}

func (Nop) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event)
	close(ch)
	return ch, func() {}
}
