package domain

import (
	"testing"
	"time"
)

func TestTimeRemaining(t *testing.T) {
	now := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		due  time.Time
		want Urgency
	}{
		{"due now is overdue", now, Urgency{Overdue: true}},
		{"past due is overdue", now.Add(-time.Second), Urgency{Overdue: true}},
		{"thirty seconds rounds up to a minute", now.Add(30 * time.Second), Urgency{Amount: 1, Unit: UnitMinutes}},
		{"ninety minutes reads as one hour", now.Add(90 * time.Minute), Urgency{Amount: 1, Unit: UnitHours}},
		{"five minutes", now.Add(5 * time.Minute), Urgency{Amount: 5, Unit: UnitMinutes}},
		{"two days", now.Add(49 * time.Hour), Urgency{Amount: 2, Unit: UnitDays}},
		{"four hundred days reads as one year", now.Add(400 * 24 * time.Hour), Urgency{Amount: 1, Unit: UnitYears}},
		{"two years", now.Add(800 * 24 * time.Hour), Urgency{Amount: 2, Unit: UnitYears}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TimeRemaining(tc.due, now)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestUrgencyLabel(t *testing.T) {
	cases := []struct {
		u    Urgency
		want string
	}{
		{Urgency{Overdue: true}, "Overdue"},
		{Urgency{Amount: 1, Unit: UnitHours}, "Due in 1 hour"},
		{Urgency{Amount: 3, Unit: UnitHours}, "Due in 3 hours"},
		{Urgency{Amount: 1, Unit: UnitMinutes}, "Due in 1 minute"},
		{Urgency{Amount: 2, Unit: UnitDays}, "Due in 2 days"},
		{Urgency{Amount: 1, Unit: UnitYears}, "Due in 1 year"},
	}
	for _, tc := range cases {
		if got := tc.u.Label(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
