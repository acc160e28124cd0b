package domain

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the secondary ordering applied within each completion
// group. Completed tasks always sink below incomplete ones.
type SortKey string

const (
	SortByDueDate  SortKey = "dueDate"
	SortByPriority SortKey = "priority"
	SortByTitle    SortKey = "title"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortByDueDate, SortByPriority, SortByTitle:
		return true
	}
	return false
}

// Sorter orders task collections. Title comparison is locale aware, so
// the collator is injected rather than read from ambient state.
type Sorter struct {
	coll *collate.Collator
}

// NewSorter builds a sorter collating titles for the given locale.
func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{coll: collate.New(tag)}
}

// DefaultSorter collates titles without locale-specific tailoring.
func DefaultSorter() *Sorter {
	return NewSorter(language.Und)
}

// Sort returns a new slice ordered by completion status first and the
// selected key second. The sort is stable: tasks that compare equal keep
// their input order. The input slice is not mutated.
func (s *Sorter) Sort(tasks []Task, key SortKey) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		switch key {
		case SortByPriority:
			return a.Priority.Weight() < b.Priority.Weight()
		case SortByTitle:
			return s.coll.CompareString(a.Title, b.Title) < 0
		default:
			return a.DueTime.Before(b.DueTime)
		}
	})
	return out
}
