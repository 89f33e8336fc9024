package http

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

const recentExpenseLimit = 5

// dashboardJSON is the current-state view a client renders on login: this
// month's spending, the latest expenses, and what needs paying soon.
type dashboardJSON struct {
	Year                  int                `json:"year"`
	Month                 int                `json:"month"`
	MonthTotalCents       int64              `json:"month_total_cents"`
	MonthTotal            string             `json:"month_total"`
	RecentExpenses        []expenseJSON      `json:"recent_expenses"`
	UpcomingBills         []billJSON         `json:"upcoming_bills"`
	OverdueBills          []billJSON         `json:"overdue_bills"`
	UpcomingSubscriptions []subscriptionJSON `json:"upcoming_subscriptions"`
}

func dashboardCacheKey(userID int64) string {
	return fmt.Sprintf("dashboard:%d", userID)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	key := dashboardCacheKey(userID)
	if cached, ok := s.dashboardCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	now := time.Now()
	year, month := now.Year(), int(now.Month())

	var (
		monthExpenses  []core.Expense
		recentExpenses []core.Expense
		bills          []core.Bill
		subs           []core.Subscription
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		monthExpenses, err = s.store.ListExpensesByMonth(ctx, userID, year, month)
		return err
	})
	g.Go(func() (err error) {
		recentExpenses, err = s.store.ListRecentExpenses(ctx, userID, recentExpenseLimit)
		return err
	})
	g.Go(func() (err error) {
		bills, err = s.store.ListBills(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		subs, err = s.store.ListSubscriptions(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		writeStoreError(w, err)
		return
	}

	total := analytics.MonthlyTotal(monthExpenses, year, month)
	window := analytics.DefaultUpcomingWindowDays

	dash := dashboardJSON{
		Year:                  year,
		Month:                 month,
		MonthTotalCents:       total.Cents,
		MonthTotal:            total.String(),
		RecentExpenses:        toExpenseList(recentExpenses),
		UpcomingBills:         toBillList(analytics.SelectUpcoming(bills, window, now), now),
		OverdueBills:          toBillList(analytics.SelectOverdue(bills, now), now),
		UpcomingSubscriptions: toSubscriptionList(analytics.SelectUpcoming(subs, window, now), now),
	}

	s.dashboardCache.Set(key, dash)
	writeJSON(w, http.StatusOK, dash)
}
