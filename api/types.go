package api

import (
	"context"
	"time"

	"planner-api/bus"
	"planner-api/domain"
	"planner-api/storage"
)

// Store abstracts task and settings persistence for handlers.
type Store interface {
	CreateTask(ctx context.Context, ownerID string, nt domain.NewTask) (domain.Task, error)
	GetTask(ctx context.Context, ownerID, id string) (domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) error
	ListTasks(ctx context.Context, ownerID string, f storage.ListFilter) ([]domain.Task, error)
	FetchSettings(ctx context.Context, ownerID string) (domain.Settings, error)
	SaveSettings(ctx context.Context, ownerID string, settings domain.Settings) error
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// ReminderScheduler arms and cancels task reminders. Failures here are
// never allowed to fail the task write that triggered them.
type ReminderScheduler interface {
	Arm(ctx context.Context, task domain.Task, dec domain.ReminderDecision, now time.Time) error
	Cancel(ctx context.Context, ownerID, taskID string) error
}

// RefreshBus notifies other views that the persisted collection changed.
type RefreshBus interface {
	Publish(ctx context.Context, ev bus.Event)
}
