package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"planner-api/domain"
)

func TestMemoryCreateAssignsID(t *testing.T) {
	m := NewMemory()
	now := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)

	first, err := m.CreateTask(context.Background(), "u1", domain.NewTask{
		Title: "Pay rent", Priority: domain.PriorityHigh,
		StartTime: now.Add(time.Hour), DueTime: now.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected assigned ID")
	}
	if first.OwnerID != "u1" {
		t.Fatalf("expected owner u1, got %s", first.OwnerID)
	}
	if first.Completed {
		t.Fatal("new task should not be completed")
	}

	second, err := m.CreateTask(context.Background(), "u1", domain.NewTask{
		Title: "Walk dog", Priority: domain.PriorityLow,
		StartTime: now.Add(time.Hour), DueTime: now.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("IDs must be unique per owner")
	}
}

func TestMemoryListFilterByDueDate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2024, time.July, 1, 9, 0, 0, 0, time.UTC)

	for i, due := range []time.Time{base, base.AddDate(0, 0, 2), base.AddDate(0, 0, 2).Add(3 * time.Hour)} {
		_, err := m.CreateTask(ctx, "u1", domain.NewTask{
			Title: "task", Priority: domain.PriorityMedium,
			StartTime: due.Add(-time.Hour), DueTime: due,
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	all, err := m.ListTasks(ctx, "u1", ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(all))
	}

	day := base.AddDate(0, 0, 2)
	filtered, err := m.ListTasks(ctx, "u1", ListFilter{DueOn: &day})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 tasks due on %v, got %d", day, len(filtered))
	}
}

func TestMemoryListIsolatesOwners(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)

	_, err := m.CreateTask(ctx, "u1", domain.NewTask{
		Title: "mine", Priority: domain.PriorityMedium,
		StartTime: now, DueTime: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	other, err := m.ListTasks(ctx, "u2", ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty list for other owner, got %d", len(other))
	}
}

func TestMemoryUpdateAndDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)

	task, err := m.CreateTask(ctx, "u1", domain.NewTask{
		Title: "Pay rent", Priority: domain.PriorityMedium,
		StartTime: now, DueTime: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done := true
	updated, err := m.UpdateTask(ctx, "u1", task.ID, domain.TaskPatch{Completed: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Completed {
		t.Fatal("expected completed after patch")
	}

	got, err := m.GetTask(ctx, "u1", task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Completed {
		t.Fatal("completion not persisted")
	}

	if _, err := m.UpdateTask(ctx, "u1", "missing", domain.TaskPatch{Completed: &done}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := m.DeleteTask(ctx, "u1", task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.DeleteTask(ctx, "u1", task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemorySettingsDefaults(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	settings, err := m.FetchSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !settings.NotificationsEnabled {
		t.Fatal("expected notifications enabled by default")
	}

	if err := m.SaveSettings(ctx, "u1", domain.Settings{NotificationsEnabled: false}); err != nil {
		t.Fatalf("save: %v", err)
	}
	settings, err = m.FetchSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if settings.NotificationsEnabled {
		t.Fatal("expected saved preference to stick")
	}
}
