package types

import (
	"fmt"
	"time"
)

// Task represents a single work item owned by exactly one user.
type Task struct {
	// ID is the unique identifier of the task.
	ID string `json:"id" db:"id"`

	// Title is the short, non-empty summary of the task.
	Title string `json:"title" db:"title"`

	// Description holds optional free-form details. Empty when not provided.
	Description string `json:"description" db:"description"`

	// Priority is one of High, Medium or Low.
	Priority Priority `json:"priority" db:"priority"`

	// Status is Pending or Completed. New tasks always start as Pending.
	Status Status `json:"status" db:"status"`

	// UserID references the owning user. It is set from the caller's
	// identity on creation and never changes afterwards.
	UserID string `json:"userId" db:"user_id"`

	// CreatedAt is the timestamp at which the task was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent change to the task.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Priority ranks a task. Values are compared verbatim.
type Priority string

// Supported priority values.
const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether p is one of the supported priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// ParsePriority converts raw into a Priority, rejecting unknown values.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	if !p.Valid() {
		return "", fmt.Errorf("must be one of High, Medium, Low; got %q", raw)
	}
	return p, nil
}

// Status is the completion state of a task.
type Status string

// Supported status values.
const (
	// StatusPending is the initial state of every task.
	StatusPending Status = "Pending"

	// StatusCompleted is set by the complete operation or by an explicit update.
	StatusCompleted Status = "Completed"
)

// Valid reports whether s is one of the supported statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// ParseStatus converts raw into a Status, rejecting unknown values.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("must be one of Pending, Completed; got %q", raw)
	}
	return s, nil
}

// TaskPatch carries the fields of a partial update. Nil fields are left
// untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
}

// TaskEventType names a task lifecycle change.
type TaskEventType string

// Task lifecycle events published after a successful store write.
const (
	TaskCreated   TaskEventType = "task.created"
	TaskUpdated   TaskEventType = "task.updated"
	TaskCompleted TaskEventType = "task.completed"
	TaskDeleted   TaskEventType = "task.deleted"
)

// TaskEvent is the broker payload describing a task change.
type TaskEvent struct {
	Type       TaskEventType `json:"type"`
	TaskID     string        `json:"taskId"`
	UserID     string        `json:"userId"`
	Status     Status        `json:"status,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}
