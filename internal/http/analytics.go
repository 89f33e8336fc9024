package http

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

const trendMonths = 6

type monthTotalJSON struct {
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	TotalCents int64  `json:"total_cents"`
	Total      string `json:"total"`
}

// analyticsJSON is the spending analytics view: a six-month trend, the
// current month's category breakdown, and the subscription portfolio cost.
type analyticsJSON struct {
	Trend                 []monthTotalJSON          `json:"trend"`
	CategoryBreakdown     []analytics.CategoryShare `json:"category_breakdown"`
	PortfolioMonthlyCents int64                     `json:"portfolio_monthly_cents"`
	PortfolioMonthly      string                    `json:"portfolio_monthly"`
	PortfolioYearlyCents  int64                     `json:"portfolio_yearly_cents"`
	PortfolioYearly       string                    `json:"portfolio_yearly"`
}

func analyticsCacheKey(userID int64) string {
	return fmt.Sprintf("analytics:%d", userID)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	key := analyticsCacheKey(userID)
	if cached, ok := s.analyticsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	now := time.Now()
	year, month := now.Year(), int(now.Month())

	// One fetch per trend month, concurrently. Each goroutine owns a
	// distinct slice element, so no lock is needed.
	trend := make([]monthTotalJSON, trendMonths)
	var subs []core.Subscription

	g, ctx := errgroup.WithContext(r.Context())
	for i := 0; i < trendMonths; i++ {
		idx := i
		// Walk backwards from the current month; index 0 is the oldest.
		offset := trendMonths - 1 - i
		y, m := shiftMonth(year, month, -offset)
		g.Go(func() error {
			expenses, err := s.store.ListExpensesByMonth(ctx, userID, y, m)
			if err != nil {
				return err
			}
			total := analytics.MonthlyTotal(expenses, y, m)
			trend[idx] = monthTotalJSON{
				Year:       y,
				Month:      m,
				TotalCents: total.Cents,
				Total:      total.String(),
			}
			return nil
		})
	}
	g.Go(func() (err error) {
		subs, err = s.store.ListSubscriptions(ctx, userID)
		return err
	})

	var breakdown []analytics.CategoryShare
	g.Go(func() error {
		expenses, err := s.store.ListExpensesByMonth(ctx, userID, year, month)
		if err != nil {
			return err
		}
		breakdown = analytics.CategoryBreakdown(expenses, year, month)
		return nil
	})

	if err := g.Wait(); err != nil {
		writeStoreError(w, err)
		return
	}

	monthly := analytics.PortfolioMonthlyTotal(subs)
	yearly := analytics.PortfolioYearlyTotal(subs)

	resp := analyticsJSON{
		Trend:                 trend,
		CategoryBreakdown:     breakdown,
		PortfolioMonthlyCents: monthly.Cents,
		PortfolioMonthly:      monthly.String(),
		PortfolioYearlyCents:  yearly.Cents,
		PortfolioYearly:       yearly.String(),
	}

	s.analyticsCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// shiftMonth moves a year/month pair by delta months, normalizing across
// year boundaries.
func shiftMonth(year, month, delta int) (int, int) {
	m := month - 1 + delta
	y := year + m/12
	m %= 12
	if m < 0 {
		m += 12
		y--
	}
	return y, m + 1
}
