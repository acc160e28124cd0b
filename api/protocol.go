package api

import (
	"time"

	"planner-api/domain"
)

const requestBodyMaxSize = 64 * 1024 // 64 KiB

type taskView struct {
	domain.Task
	TimeLeft string `json:"timeLeft"`
}

type tasksResponse struct {
	Tasks []taskView `json:"tasks"`
}

type reminderView struct {
	Scheduled bool       `json:"scheduled"`
	FireAt    *time.Time `json:"fireAt,omitempty"`
}

type taskResponse struct {
	Task     domain.Task  `json:"task"`
	Reminder reminderView `json:"reminder"`
}

func newTaskResponse(task domain.Task, dec domain.ReminderDecision) taskResponse {
	resp := taskResponse{Task: task, Reminder: reminderView{Scheduled: dec.Schedule}}
	if dec.Schedule {
		fireAt := dec.FireAt
		resp.Reminder.FireAt = &fireAt
	}
	return resp
}
