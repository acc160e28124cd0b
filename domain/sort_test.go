package domain

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, time.July, d, 12, 0, 0, 0, time.UTC)
}

func TestSortByDueDateKeepsTiesInInputOrder(t *testing.T) {
	tasks := []Task{
		{ID: "b", Title: "second", DueTime: day(3)},
		{ID: "a", Title: "first", DueTime: day(1)},
		{ID: "c", Title: "third", DueTime: day(3)},
	}
	got := DefaultSorter().Sort(tasks, SortByDueDate)
	if got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("unexpected order: %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestSortByPriority(t *testing.T) {
	tasks := []Task{
		{ID: "low", Priority: PriorityLow},
		{ID: "odd", Priority: "whenever"},
		{ID: "high", Priority: PriorityHigh},
		{ID: "med", Priority: PriorityMedium},
	}
	got := DefaultSorter().Sort(tasks, SortByPriority)
	want := []string{"high", "med", "low", "odd"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestSortByPriorityIsStable(t *testing.T) {
	tasks := []Task{
		{ID: "m1", Priority: PriorityMedium, DueTime: day(9)},
		{ID: "m2", Priority: PriorityMedium, DueTime: day(1)},
		{ID: "m3", Priority: PriorityMedium, DueTime: day(5)},
	}
	got := DefaultSorter().Sort(tasks, SortByPriority)
	for i, id := range []string{"m1", "m2", "m3"} {
		if got[i].ID != id {
			t.Fatalf("equal-key tasks reordered: position %d got %s", i, got[i].ID)
		}
	}
}

func TestSortByTitle(t *testing.T) {
	tasks := []Task{
		{ID: "c", Title: "wash car"},
		{ID: "a", Title: "buy milk"},
		{ID: "b", Title: "pay rent"},
	}
	got := DefaultSorter().Sort(tasks, SortByTitle)
	for i, id := range []string{"a", "b", "c"} {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestSortCompletedSinkToBottom(t *testing.T) {
	tasks := []Task{
		{ID: "done-early", Completed: true, DueTime: day(1)},
		{ID: "open-late", DueTime: day(9)},
		{ID: "done-late", Completed: true, DueTime: day(9)},
		{ID: "open-early", DueTime: day(1)},
	}
	for _, key := range []SortKey{SortByDueDate, SortByPriority, SortByTitle} {
		got := DefaultSorter().Sort(tasks, key)
		seenCompleted := false
		for _, task := range got {
			if task.Completed {
				seenCompleted = true
			} else if seenCompleted {
				t.Fatalf("key %s: incomplete task %s after a completed one", key, task.ID)
			}
		}
	}
	got := DefaultSorter().Sort(tasks, SortByDueDate)
	want := []string{"open-early", "open-late", "done-early", "done-late"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	tasks := []Task{
		{ID: "z", DueTime: day(9)},
		{ID: "a", DueTime: day(1)},
	}
	_ = DefaultSorter().Sort(tasks, SortByDueDate)
	if tasks[0].ID != "z" || tasks[1].ID != "a" {
		t.Fatalf("input slice reordered: %s %s", tasks[0].ID, tasks[1].ID)
	}
}

func BenchmarkSortByDueDate(b *testing.B) {
	tasks := make([]Task, 500)
	for i := range tasks {
		tasks[i] = Task{ID: string(rune('a' + i%26)), DueTime: day(1 + i%28), Completed: i%3 == 0}
	}
	s := DefaultSorter()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Sort(tasks, SortByDueDate)
	}
}
