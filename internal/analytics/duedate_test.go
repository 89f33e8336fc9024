package analytics

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestDaysUntil(t *testing.T) {
	ref := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target core.Date
		want   int
	}{
		{"two days past", core.NewDate(2024, 3, 13), -2},
		{"yesterday", core.NewDate(2024, 3, 14), -1},
		{"today", core.NewDate(2024, 3, 15), 0},
		{"tomorrow", core.NewDate(2024, 3, 16), 1},
		{"next week", core.NewDate(2024, 3, 22), 7},
		{"across month boundary", core.NewDate(2024, 4, 1), 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntil(tt.target, ref); got != tt.want {
				t.Errorf("DaysUntil(%s) = %d, want %d", tt.target, got, tt.want)
			}
		})
	}
}

func TestDaysUntilIgnoresTimeOfDay(t *testing.T) {
	target := core.NewDate(2024, 3, 15)
	early := time.Date(2024, 3, 15, 0, 0, 1, 0, time.UTC)
	late := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)

	if got := DaysUntil(target, early); got != 0 {
		t.Errorf("early morning: got %d, want 0", got)
	}
	if got := DaysUntil(target, late); got != 0 {
		t.Errorf("late evening: got %d, want 0", got)
	}
}

func TestClassifyUrgency(t *testing.T) {
	tests := []struct {
		days int
		want Urgency
	}{
		{-10, Overdue},
		{-2, Overdue},
		{-1, Overdue},
		{0, DueToday},
		{1, DueSoon},
		{3, DueSoon},
		{4, Upcoming},
		{7, Upcoming},
		{365, Upcoming},
	}

	for _, tt := range tests {
		if got := ClassifyUrgency(tt.days); got != tt.want {
			t.Errorf("ClassifyUrgency(%d) = %s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestClassifyUrgencyPartitions(t *testing.T) {
	// Adjacent day deltas must never skip or repeat a bucket out of order.
	prev := ClassifyUrgency(-30)
	for days := -29; days <= 30; days++ {
		cur := ClassifyUrgency(days)
		if cur < prev {
			t.Fatalf("urgency regressed at %d days: %s after %s", days, cur, prev)
		}
		prev = cur
	}
}

func bill(id int64, due core.Date, active bool) core.Bill {
	return core.Bill{
		ID:        id,
		UserID:    1,
		Name:      "bill",
		Amount:    core.Money{Cents: 1000},
		DueDate:   due,
		Frequency: core.Monthly,
		Category:  "Utilities",
		IsActive:  active,
	}
}

func TestSelectUpcoming(t *testing.T) {
	ref := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	bills := []core.Bill{
		bill(1, core.NewDate(2024, 3, 20), true),  // 5 days
		bill(2, core.NewDate(2024, 3, 15), true),  // today
		bill(3, core.NewDate(2024, 3, 22), true),  // 7 days, window edge
		bill(4, core.NewDate(2024, 3, 23), true),  // 8 days, outside
		bill(5, core.NewDate(2024, 3, 14), true),  // overdue, excluded
		bill(6, core.NewDate(2024, 3, 16), false), // inactive, excluded
	}

	got := SelectUpcoming(bills, DefaultUpcomingWindowDays, ref)
	wantIDs := []int64{2, 1, 3}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d bills, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d: got bill %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestSelectUpcomingTieBreaksByID(t *testing.T) {
	ref := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	due := core.NewDate(2024, 3, 17)
	bills := []core.Bill{
		bill(9, due, true),
		bill(2, due, true),
		bill(5, due, true),
	}

	got := SelectUpcoming(bills, 7, ref)
	wantIDs := []int64{2, 5, 9}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d: got bill %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestSelectOverdue(t *testing.T) {
	ref := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	bills := []core.Bill{
		bill(1, core.NewDate(2024, 3, 14), true),  // 1 day overdue
		bill(2, core.NewDate(2024, 3, 1), true),   // 14 days overdue
		bill(3, core.NewDate(2024, 3, 15), true),  // due today, not overdue
		bill(4, core.NewDate(2024, 3, 10), false), // inactive
	}

	got := SelectOverdue(bills, ref)
	wantIDs := []int64{2, 1}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d bills, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d: got bill %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestSelectUpcomingSubscriptions(t *testing.T) {
	ref := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	subs := []core.Subscription{
		{ID: 1, Name: "a", Amount: core.Money{Cents: 100}, BillingCycle: core.Monthly,
			NextPayment: core.NewDate(2024, 3, 18), Category: "Entertainment", IsActive: true},
		{ID: 2, Name: "b", Amount: core.Money{Cents: 100}, BillingCycle: core.Monthly,
			NextPayment: core.NewDate(2024, 4, 18), Category: "Entertainment", IsActive: true},
	}

	got := SelectUpcoming(subs, 7, ref)
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("want only subscription 1 inside the window, got %v", got)
	}
}
