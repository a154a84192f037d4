package model

const (
	MinPriority = 1
	MaxPriority = 5
)

type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Completed   bool   `json:"completed"`
	OwnerID     int64  `json:"owner_id,omitempty"`
}

// TaskDraft holds the user-supplied fields of a task that does not exist yet.
type TaskDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

func ValidPriority(priority int) bool {
	return priority >= MinPriority && priority <= MaxPriority
}

// Urgency is the human label shown next to a priority.
func Urgency(priority int) string {
	switch {
	case priority >= 4:
		return "Very High"
	case priority == 3:
		return "Medium"
	default:
		return "Low"
	}
}
