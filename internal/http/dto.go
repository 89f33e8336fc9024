package http

import (
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

// Wire representations. Amounts travel as integer cents plus a formatted
// display string; dates as YYYY-MM-DD via core.Date's JSON encoding.

type expenseJSON struct {
	ID          int64         `json:"id"`
	Purpose     string        `json:"purpose"`
	AmountCents int64         `json:"amount_cents"`
	Amount      string        `json:"amount"`
	Category    core.Category `json:"category"`
	Date        core.Date     `json:"date"`
	Description string        `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:          e.ID,
		Purpose:     e.Purpose,
		AmountCents: e.Amount.Cents,
		Amount:      e.Amount.String(),
		Category:    e.Category,
		Date:        e.Date,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

func toExpenseList(expenses []core.Expense) []expenseJSON {
	out := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseJSON(e))
	}
	return out
}

type billJSON struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	AmountCents  int64             `json:"amount_cents"`
	Amount       string            `json:"amount"`
	DueDate      core.Date         `json:"due_date"`
	Frequency    core.Frequency    `json:"frequency"`
	Category     core.Category     `json:"category"`
	IsActive     bool              `json:"is_active"`
	LastPaid     core.Date         `json:"last_paid"`
	DaysUntilDue int               `json:"days_until_due"`
	Urgency      analytics.Urgency `json:"urgency"`
	CreatedAt    time.Time         `json:"created_at"`
}

func toBillJSON(b core.Bill, now time.Time) billJSON {
	days := analytics.DaysUntil(b.DueDate, now)
	return billJSON{
		ID:           b.ID,
		Name:         b.Name,
		AmountCents:  b.Amount.Cents,
		Amount:       b.Amount.String(),
		DueDate:      b.DueDate,
		Frequency:    b.Frequency,
		Category:     b.Category,
		IsActive:     b.IsActive,
		LastPaid:     b.LastPaid,
		DaysUntilDue: days,
		Urgency:      analytics.ClassifyUrgency(days),
		CreatedAt:    b.CreatedAt,
	}
}

func toBillList(bills []core.Bill, now time.Time) []billJSON {
	out := make([]billJSON, 0, len(bills))
	for _, b := range bills {
		out = append(out, toBillJSON(b, now))
	}
	return out
}

type subscriptionJSON struct {
	ID                     int64             `json:"id"`
	Name                   string            `json:"name"`
	AmountCents            int64             `json:"amount_cents"`
	Amount                 string            `json:"amount"`
	BillingCycle           core.Frequency    `json:"billing_cycle"`
	NextPayment            core.Date         `json:"next_payment"`
	Category               core.Category     `json:"category"`
	IsActive               bool              `json:"is_active"`
	Description            string            `json:"description,omitempty"`
	Color                  string            `json:"color,omitempty"`
	MonthlyEquivalentCents int64             `json:"monthly_equivalent_cents"`
	DaysUntilPayment       int               `json:"days_until_payment"`
	Urgency                analytics.Urgency `json:"urgency"`
	CreatedAt              time.Time         `json:"created_at"`
}

func toSubscriptionJSON(s core.Subscription, now time.Time) subscriptionJSON {
	days := analytics.DaysUntil(s.NextPayment, now)
	return subscriptionJSON{
		ID:                     s.ID,
		Name:                   s.Name,
		AmountCents:            s.Amount.Cents,
		Amount:                 s.Amount.String(),
		BillingCycle:           s.BillingCycle,
		NextPayment:            s.NextPayment,
		Category:               s.Category,
		IsActive:               s.IsActive,
		Description:            s.Description,
		Color:                  s.Color,
		MonthlyEquivalentCents: analytics.MonthlyEquivalent(s.Amount, s.BillingCycle).Cents,
		DaysUntilPayment:       days,
		Urgency:                analytics.ClassifyUrgency(days),
		CreatedAt:              s.CreatedAt,
	}
}

func toSubscriptionList(subs []core.Subscription, now time.Time) []subscriptionJSON {
	out := make([]subscriptionJSON, 0, len(subs))
	for _, s := range subs {
		out = append(out, toSubscriptionJSON(s, now))
	}
	return out
}
