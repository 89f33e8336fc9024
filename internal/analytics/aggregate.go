// Package analytics computes spending aggregates and due-date
// classifications. Everything here is a pure function over in-memory
// records: no I/O, no clocks except an explicit reference time, so the
// functions are trivially parallel-safe and deterministic under test.
package analytics

import (
	"fintrack/internal/core"
)

// CategoryShare is one row of a category breakdown.
type CategoryShare struct {
	Category core.Category `json:"category"`
	Amount   core.Money    `json:"amount"`
	Percent  int           `json:"percent"`
}

// MonthlyTotal sums expenses dated within the given calendar month.
// Comparison is by calendar date only, so a record on the first or last
// day of the month is always included. Returns zero for no matches.
func MonthlyTotal(expenses []core.Expense, year, month int) core.Money {
	var total int64
	for _, e := range expenses {
		if e.Date.InMonth(year, month) {
			total += e.Amount.Cents
		}
	}
	return core.Money{Cents: total}
}

// CategoryBreakdown groups the month's expenses by category and computes
// each category's integer percent share, rounded half up. Categories appear
// in the order they are first seen in the input. When the month's total is
// zero every percent is zero rather than a division error.
func CategoryBreakdown(expenses []core.Expense, year, month int) []CategoryShare {
	totals := make(map[core.Category]int64)
	var order []core.Category
	var grand int64
	for _, e := range expenses {
		if !e.Date.InMonth(year, month) {
			continue
		}
		if _, seen := totals[e.Category]; !seen {
			order = append(order, e.Category)
		}
		totals[e.Category] += e.Amount.Cents
		grand += e.Amount.Cents
	}

	shares := make([]CategoryShare, 0, len(order))
	for _, cat := range order {
		amount := totals[cat]
		percent := 0
		if grand > 0 {
			percent = int((amount*100 + grand/2) / grand)
		}
		shares = append(shares, CategoryShare{
			Category: cat,
			Amount:   core.Money{Cents: amount},
			Percent:  percent,
		})
	}
	return shares
}

// weeklyPerMonth is the fixed weeks-per-month approximation, scaled by 100
// to stay in integer arithmetic (4.33 weeks).
const weeklyPerMonth = 433

// MonthlyEquivalent normalizes a recurring amount to its monthly cost:
// yearly amounts divide by 12, weekly amounts multiply by 4.33, monthly
// amounts pass through. Results round half up to whole cents.
func MonthlyEquivalent(amount core.Money, cycle core.Frequency) core.Money {
	switch cycle {
	case core.Yearly:
		return core.Money{Cents: (amount.Cents + 6) / 12}
	case core.Weekly:
		return core.Money{Cents: (amount.Cents*weeklyPerMonth + 50) / 100}
	default:
		return amount
	}
}

// PortfolioMonthlyTotal sums the monthly equivalent of every active
// subscription. Inactive subscriptions contribute nothing.
func PortfolioMonthlyTotal(subs []core.Subscription) core.Money {
	var total int64
	for _, s := range subs {
		if !s.IsActive {
			continue
		}
		total += MonthlyEquivalent(s.Amount, s.BillingCycle).Cents
	}
	return core.Money{Cents: total}
}

// PortfolioYearlyTotal is twelve months of the portfolio's monthly total.
// It is defined as monthly x 12 rather than summed independently so the two
// figures can never disagree.
func PortfolioYearlyTotal(subs []core.Subscription) core.Money {
	return core.Money{Cents: PortfolioMonthlyTotal(subs).Cents * 12}
}
