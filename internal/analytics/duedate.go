package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"fintrack/internal/core"
)

// Urgency classifies how close a payment date is to a reference day.
type Urgency int

const (
	Overdue Urgency = iota
	DueToday
	DueSoon
	Upcoming
)

// DueSoonDays is the upper bound, in days from today, of the DueSoon bucket.
const DueSoonDays = 3

// DefaultUpcomingWindowDays is the dashboard's "due this week" horizon.
const DefaultUpcomingWindowDays = 7

func (u Urgency) String() string {
	switch u {
	case Overdue:
		return "overdue"
	case DueToday:
		return "due_today"
	case DueSoon:
		return "due_soon"
	default:
		return "upcoming"
	}
}

// MarshalJSON encodes the urgency as its string name.
func (u Urgency) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.String() + `"`), nil
}

// UnmarshalJSON decodes the string name produced by MarshalJSON.
func (u *Urgency) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "overdue":
		*u = Overdue
	case "due_today":
		*u = DueToday
	case "due_soon":
		*u = DueSoon
	case "upcoming":
		*u = Upcoming
	default:
		return fmt.Errorf("analytics: unknown urgency %q", s)
	}
	return nil
}

// DaysUntil returns the number of whole days from the calendar date of ref
// to target. Negative when target is in the past. Only calendar dates are
// compared, so a bill due later today is 0 days away even at 23:59.
func DaysUntil(target core.Date, ref time.Time) int {
	delta := target.Sub(core.DateOf(ref).Time)
	return int(delta / (24 * time.Hour))
}

// ClassifyUrgency maps a day delta to its urgency bucket. The buckets are
// contiguous and cover every integer exactly once:
//
//	days < 0            Overdue
//	days == 0           DueToday
//	1 <= days <= 3      DueSoon
//	days > 3            Upcoming
func ClassifyUrgency(days int) Urgency {
	switch {
	case days < 0:
		return Overdue
	case days == 0:
		return DueToday
	case days <= DueSoonDays:
		return DueSoon
	default:
		return Upcoming
	}
}

// Scheduled is any record with a next payment date. Bills and
// subscriptions both satisfy it.
type Scheduled interface {
	RecordID() int64
	NextDue() core.Date
	Active() bool
}

// SelectUpcoming returns the active records due between today and
// windowDays from now, inclusive on both ends, soonest first. Ties on the
// day break by record ID so output order is stable.
func SelectUpcoming[T Scheduled](records []T, windowDays int, ref time.Time) []T {
	selected := make([]T, 0)
	for _, r := range records {
		if !r.Active() {
			continue
		}
		days := DaysUntil(r.NextDue(), ref)
		if days >= 0 && days <= windowDays {
			selected = append(selected, r)
		}
	}
	sortByDays(selected, ref)
	return selected
}

// SelectOverdue returns the active records whose payment date has passed,
// most overdue first, ties broken by record ID.
func SelectOverdue[T Scheduled](records []T, ref time.Time) []T {
	selected := make([]T, 0)
	for _, r := range records {
		if !r.Active() {
			continue
		}
		if DaysUntil(r.NextDue(), ref) < 0 {
			selected = append(selected, r)
		}
	}
	sortByDays(selected, ref)
	return selected
}

func sortByDays[T Scheduled](records []T, ref time.Time) {
	sort.SliceStable(records, func(i, j int) bool {
		di := DaysUntil(records[i].NextDue(), ref)
		dj := DaysUntil(records[j].NextDue(), ref)
		if di != dj {
			return di < dj
		}
		return records[i].RecordID() < records[j].RecordID()
	})
}
