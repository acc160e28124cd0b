package domain

import (
	"strconv"
	"time"
)

// UrgencyUnit is the largest whole time unit left before a task is due.
type UrgencyUnit string

const (
	UnitMinutes UrgencyUnit = "minute"
	UnitHours   UrgencyUnit = "hour"
	UnitDays    UrgencyUnit = "day"
	UnitYears   UrgencyUnit = "year"
)

// Urgency is a bucketed description of the time remaining until a due
// instant. It is recomputed against the current time on every read and
// never stored.
type Urgency struct {
	Overdue bool        `json:"overdue,omitempty"`
	Amount  int         `json:"amount,omitempty"`
	Unit    UrgencyUnit `json:"unit,omitempty"`
}

// TimeRemaining buckets the distance from now to due. Anything at or past
// the due instant is overdue. Otherwise the largest unit with a whole
// count of at least one wins, bottoming out at one minute so a task due
// in thirty seconds still reads "1 minute" rather than zero.
func TimeRemaining(due, now time.Time) Urgency {
	diff := due.Sub(now)
	if diff <= 0 {
		return Urgency{Overdue: true}
	}
	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))
	years := days / 365
	switch {
	case years >= 1:
		return Urgency{Amount: years, Unit: UnitYears}
	case days >= 1:
		return Urgency{Amount: days, Unit: UnitDays}
	case hours >= 1:
		return Urgency{Amount: hours, Unit: UnitHours}
	default:
		if minutes < 1 {
			minutes = 1
		}
		return Urgency{Amount: minutes, Unit: UnitMinutes}
	}
}

// Label renders the urgency the way the task list displays it.
func (u Urgency) Label() string {
	if u.Overdue {
		return "Overdue"
	}
	s := "Due in " + strconv.Itoa(u.Amount) + " " + string(u.Unit)
	if u.Amount != 1 {
		s += "s"
	}
	return s
}
