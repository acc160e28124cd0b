package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrEmptyTitle rejects tasks whose title is empty or whitespace only.
	ErrEmptyTitle = errors.New("task title must not be empty")
	// ErrDueBeforeStart rejects schedules where the due instant does not
	// come strictly after the start instant.
	ErrDueBeforeStart = errors.New("due time must be after start time")
	// ErrStartInPast rejects schedules whose start instant already passed.
	ErrStartInPast = errors.New("start time must be in the future")
	// ErrInvalidPriority rejects unknown priority values.
	ErrInvalidPriority = errors.New("unknown priority")
)

// MergeDateAndTime combines the calendar date of date with the wall clock
// of clock into a single instant, dropping seconds and anything finer.
// The result carries date's location.
func MergeDateAndTime(date, clock time.Time) time.Time {
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0,
		date.Location(),
	)
}

// ScheduleOptions tunes ValidateSchedule. RejectPastStart is set on the
// create path only; edits may keep an already started task in place.
type ScheduleOptions struct {
	RejectPastStart bool
}

// ValidateSchedule enforces the ordering invariant between a task's start
// and due instants. It is the single gate in front of every store write.
func ValidateSchedule(start, due, now time.Time, opts ScheduleOptions) error {
	if !due.After(start) {
		return ErrDueBeforeStart
	}
	if opts.RejectPastStart && start.Before(now) {
		return ErrStartInPast
	}
	return nil
}

// Validate checks a create payload before it reaches the store. The
// priority default is applied by the caller, so an empty value here is
// an error rather than a fallback.
func (n NewTask) Validate(now time.Time) error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyTitle
	}
	if !n.Priority.Valid() {
		return ErrInvalidPriority
	}
	return ValidateSchedule(n.StartTime, n.DueTime, now, ScheduleOptions{RejectPastStart: true})
}

// Validate checks a patch against the task it applies to. The merged
// schedule has to satisfy the same ordering invariant as a new task, but
// a start instant in the past is allowed on edit.
func (p TaskPatch) Validate(current Task, now time.Time) error {
	if p.Empty() {
		return errors.New("patch has no fields")
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrEmptyTitle
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return ErrInvalidPriority
	}
	merged := p.Apply(current)
	return ValidateSchedule(merged.StartTime, merged.DueTime, now, ScheduleOptions{})
}
