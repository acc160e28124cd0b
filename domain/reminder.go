package domain

import "time"

// untitledFallback should never surface given title validation, but the
// reminder content must not be empty if it somehow does.
const untitledFallback = "Untitled Task"

// ReminderDecision is the pure outcome of the notification policy: whether
// a reminder should be armed for a task and, if so, when and with what
// content. It is computed per create or edit and never persisted.
type ReminderDecision struct {
	Schedule bool      `json:"schedule"`
	FireAt   time.Time `json:"fireAt,omitempty"`
	Title    string    `json:"title,omitempty"`
	Body     string    `json:"body,omitempty"`
}

// DecideReminder applies the notification policy to a task. A reminder is
// armed only when the owner has notifications enabled and the task's start
// instant is still ahead of now; a start time already in the past never
// gets a reminder. The fire instant is the start instant itself.
func DecideReminder(task Task, prefs Settings, now time.Time) ReminderDecision {
	if !prefs.NotificationsEnabled {
		return ReminderDecision{}
	}
	if !task.StartTime.After(now) {
		return ReminderDecision{}
	}
	title := task.Title
	if title == "" {
		title = untitledFallback
	}
	return ReminderDecision{
		Schedule: true,
		FireAt:   task.StartTime,
		Title:    "Upcoming Task: " + title,
		Body:     "Starts at " + task.StartTime.Format("15:04"),
	}
}
