package domain

import (
	"testing"
	"time"
)

func TestDecideReminderDisabledPreference(t *testing.T) {
	now := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	task := Task{Title: "Pay rent", StartTime: now.Add(time.Hour), DueTime: now.Add(2 * time.Hour)}
	dec := DecideReminder(task, Settings{NotificationsEnabled: false}, now)
	if dec.Schedule {
		t.Fatal("expected no reminder when notifications are disabled")
	}
}

func TestDecideReminderStartAlreadyPassed(t *testing.T) {
	now := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	prefs := Settings{NotificationsEnabled: true}
	for _, start := range []time.Time{now, now.Add(-time.Minute)} {
		task := Task{Title: "Pay rent", StartTime: start, DueTime: now.Add(2 * time.Hour)}
		if dec := DecideReminder(task, prefs, now); dec.Schedule {
			t.Fatalf("expected no reminder for start %v", start)
		}
	}
}

func TestDecideReminderArmsAtStart(t *testing.T) {
	now := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	task := Task{
		Title:     "Pay rent",
		Priority:  PriorityHigh,
		StartTime: now.Add(time.Hour),
		DueTime:   now.Add(2 * time.Hour),
	}
	dec := DecideReminder(task, Settings{NotificationsEnabled: true}, now)
	if !dec.Schedule {
		t.Fatal("expected reminder to be scheduled")
	}
	if !dec.FireAt.Equal(task.StartTime) {
		t.Fatalf("expected fire at %v, got %v", task.StartTime, dec.FireAt)
	}
	if dec.Title != "Upcoming Task: Pay rent" {
		t.Fatalf("unexpected title %q", dec.Title)
	}
	if dec.Body != "Starts at 13:00" {
		t.Fatalf("unexpected body %q", dec.Body)
	}
}

func TestDecideReminderUntitledFallback(t *testing.T) {
	now := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	task := Task{StartTime: now.Add(time.Hour), DueTime: now.Add(2 * time.Hour)}
	dec := DecideReminder(task, Settings{NotificationsEnabled: true}, now)
	if dec.Title != "Upcoming Task: Untitled Task" {
		t.Fatalf("unexpected title %q", dec.Title)
	}
}
