package domain

// TaskState is the remote-side lifecycle state of a batch task.
type TaskState string

const (
	StateUnknown   TaskState = "UNKNOWN"
	StatePending   TaskState = "PENDING"
	StateRunning   TaskState = "RUNNING"
	StateCompleted TaskState = "COMPLETED"
	StateFailed    TaskState = "FAILED"
	StateCancelled TaskState = "CANCELLED"
)

// Terminal reports whether no further state transition can occur.
func (s TaskState) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

// TaskStatus is a point-in-time snapshot of a remote task. Statuses are
// fetched on demand and never cached beyond a single poll.
type TaskStatus struct {
	ID           string    `json:"id"`
	State        TaskState `json:"state"`
	ErrorMessage string    `json:"error_message,omitempty"`
}
