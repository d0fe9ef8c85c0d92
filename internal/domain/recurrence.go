package domain

import (
	"errors"
	"time"
)

// Recurrence kinds supported for recurring events.
const (
	RecurrenceDaily    = "daily"
	RecurrenceWeekly   = "weekly"
	RecurrenceBiweekly = "biweekly"
	RecurrenceMonthly  = "monthly"
)

// MaxSeriesOccurrences caps how many occurrences a single series may hold.
const MaxSeriesOccurrences = 120

var ErrInvalidRecurrence = errors.New("invalid recurrence rule")

// OccurrenceWindow is one start/end pair produced by expanding a recurrence rule.
type OccurrenceWindow struct {
	StartsAt time.Time
	EndsAt   time.Time
}

// ValidRecurrenceKind reports whether kind names a supported recurrence.
func ValidRecurrenceKind(kind string) bool {
	switch kind {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly:
		return true
	}
	return false
}

// ExpandOccurrences generates the occurrence windows for a recurring event.
// The first window is the event's own start/end; subsequent windows repeat at
// the kind's interval while the start is on or before until, capped at
// MaxSeriesOccurrences. The event duration is preserved for every occurrence.
// Monthly recurrence uses AddDate month arithmetic, so a Jan 31 start rolls
// over the way time.AddDate rolls it (into early March).
func ExpandOccurrences(start, end time.Time, kind string, until time.Time) ([]OccurrenceWindow, error) {
	if !ValidRecurrenceKind(kind) {
		return nil, ErrInvalidRecurrence
	}
	if !end.After(start) {
		return nil, ErrInvalidRecurrence
	}
	if until.Before(start) {
		return nil, ErrInvalidRecurrence
	}

	duration := end.Sub(start)
	windows := make([]OccurrenceWindow, 0, 8)
	cur := start
	for !cur.After(until) && len(windows) < MaxSeriesOccurrences {
		windows = append(windows, OccurrenceWindow{StartsAt: cur, EndsAt: cur.Add(duration)})
		switch kind {
		case RecurrenceDaily:
			cur = cur.AddDate(0, 0, 1)
		case RecurrenceWeekly:
			cur = cur.AddDate(0, 0, 7)
		case RecurrenceBiweekly:
			cur = cur.AddDate(0, 0, 14)
		case RecurrenceMonthly:
			cur = cur.AddDate(0, 1, 0)
		}
	}
	return windows, nil
}
