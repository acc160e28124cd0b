package domain

import "time"

// Priority classifies how important a task is to its owner.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// DefaultPriority is applied when a create request omits the field.
const DefaultPriority = PriorityMedium

// Weight returns the sort weight of the priority. Lower sorts first and
// unknown values sink below every known priority.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 99
	}
}

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task represents a single scheduled item owned by one user.
type Task struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    Priority  `json:"priority"`
	StartTime   time.Time `json:"startTime"`
	DueTime     time.Time `json:"dueTime"`
	Completed   bool      `json:"completed,omitempty"`
}

// NewTask carries the fields a client supplies when creating a task.
// The store assigns the ID and the owner partition.
type NewTask struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    Priority  `json:"priority,omitempty"`
	StartTime   time.Time `json:"startTime"`
	DueTime     time.Time `json:"dueTime"`
}

// TaskPatch updates a subset of task fields. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	DueTime     *time.Time `json:"dueTime,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
}

// Empty reports whether the patch carries no changes at all.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.StartTime == nil && p.DueTime == nil && p.Completed == nil
}

// Apply returns a copy of t with the patch fields folded in.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.StartTime != nil {
		t.StartTime = *p.StartTime
	}
	if p.DueTime != nil {
		t.DueTime = *p.DueTime
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}
