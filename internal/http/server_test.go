package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	srv := NewServer(st, logger, Options{
		Addr:            ":0",
		SessionDuration: time.Hour,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, st
}

func createTestUser(t *testing.T, st store.Store, username, password string) core.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u, err := st.CreateUser(context.Background(), username, hash)
	require.NoError(t, err)
	return u
}

// login performs a real login request and returns the session cookie.
func login(t *testing.T, srv *Server, username, password string) *http.Cookie {
	t.Helper()
	rec := doJSON(srv, http.MethodPost, "/api/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("login response carried no session cookie")
	return nil
}

func doJSON(srv *Server, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// Shutdown must return even when Start never ran, since every test here
// tears servers down that way, and a second Shutdown must be harmless.
func TestShutdownWithoutStart(t *testing.T) {
	st := store.NewMemoryStore()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	srv := NewServer(st, logger, Options{Addr: ":0", SessionDuration: time.Hour})

	errc := make(chan error, 2)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		errc <- srv.Shutdown(ctx)
		errc <- srv.Shutdown(ctx)
	}()

	for i := 0; i < 2; i++ {
		select {
		case err := <-errc:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Shutdown blocked when Start was never called")
		}
	}
}

func TestLogin(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "alice", "hunter22")

	t.Run("success sets cookie", func(t *testing.T) {
		cookie := login(t, srv, "alice", "hunter22")
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := doJSON(srv, http.MethodPost, "/api/login", map[string]string{
			"username": "alice", "password": "nope",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown user gets the same response", func(t *testing.T) {
		rec := doJSON(srv, http.MethodPost, "/api/login", map[string]string{
			"username": "mallory", "password": "nope",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid credentials")
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := doJSON(srv, http.MethodPost, "/api/login", map[string]string{}, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(srv, http.MethodGet, "/api/expenses", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(srv, http.MethodGet, "/api/expenses", nil, &http.Cookie{
		Name: sessionCookieName, Value: "forged-token",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "alice", "hunter22")
	cookie := login(t, srv, "alice", "hunter22")

	rec := doJSON(srv, http.MethodPost, "/api/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(srv, http.MethodGet, "/api/expenses", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpenseCRUD(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "alice", "hunter22")
	cookie := login(t, srv, "alice", "hunter22")

	rec := doJSON(srv, http.MethodPost, "/api/expenses", map[string]any{
		"purpose":  "groceries",
		"amount":   "45.50",
		"category": "Food",
		"date":     "2024-03-10",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeBody[expenseJSON](t, rec)
	assert.Equal(t, int64(4550), created.AmountCents)
	assert.Equal(t, "$45.50", created.Amount)
	require.NotZero(t, created.ID)

	rec = doJSON(srv, http.MethodGet, fmt.Sprintf("/api/expenses/%d", created.ID), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(srv, http.MethodPut, fmt.Sprintf("/api/expenses/%d", created.ID), map[string]any{
		"purpose":  "groceries and sundries",
		"amount":   "50.00",
		"category": "Food",
		"date":     "2024-03-10",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[expenseJSON](t, rec)
	assert.Equal(t, int64(5000), updated.AmountCents)

	rec = doJSON(srv, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", created.ID), nil, cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(srv, http.MethodGet, fmt.Sprintf("/api/expenses/%d", created.ID), nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenseValidation(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "alice", "hunter22")
	cookie := login(t, srv, "alice", "hunter22")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"zero amount", map[string]any{"purpose": "x", "amount": "0", "category": "Food", "date": "2024-03-10"}},
		{"negative amount", map[string]any{"purpose": "x", "amount": "-5", "category": "Food", "date": "2024-03-10"}},
		{"bad category", map[string]any{"purpose": "x", "amount": "5.00", "category": "Yachts", "date": "2024-03-10"}},
		{"empty purpose", map[string]any{"purpose": " ", "amount": "5.00", "category": "Food", "date": "2024-03-10"}},
		{"missing date", map[string]any{"purpose": "x", "amount": "5.00", "category": "Food"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(srv, http.MethodPost, "/api/expenses", tc.body, cookie)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		})
	}

	t.Run("unknown field is rejected", func(t *testing.T) {
		rec := doJSON(srv, http.MethodPost, "/api/expenses", map[string]any{
			"purpose": "x", "amount": "5.00", "category": "Food",
			"date": "2024-03-10", "surprise": true,
		}, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExpenseMonthFilter(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "alice", "hunter22")
	cookie := login(t, srv, "alice", "hunter22")

	for _, date := range []string{"2024-03-01", "2024-03-31", "2024-04-01"} {
		rec := doJSON(srv, http.MethodPost, "/api/expenses", map[string]any{
			"purpose": "e", "amount": "10.00", "category": "Food", "date": date,
		}, cookie)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(srv, http.MethodGet, "/api/expenses?year=2024&month=3", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]expenseJSON](t, rec), 2)

	rec = doJSON(srv, http.MethodGet, "/api/expenses?year=2024&month=13", nil, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExpensesAreUserScoped(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "alice", "hunter22")
	createTestUser(t, st, "bob", "hunter22")
	alice := login(t, srv, "alice", "hunter22")
	bob := login(t, srv, "bob", "hunter22")

	rec := doJSON(srv, http.MethodPost, "/api/expenses", map[string]any{
		"purpose": "secret", "amount": "9.99", "category": "Other", "date": "2024-03-10",
	}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[expenseJSON](t, rec).ID

	rec = doJSON(srv, http.MethodGet, fmt.Sprintf("/api/expenses/%d", id), nil, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(srv, http.MethodGet, "/api/expenses", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]expenseJSON](t, rec))
}

func TestPayBillKeepsDueDate(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "alice", "hunter22")
	cookie := login(t, srv, "alice", "hunter22")

	rec := doJSON(srv, http.MethodPost, "/api/bills", map[string]any{
		"name":      "rent",
		"amount":    "1200.00",
		"due_date":  "2030-04-01",
		"frequency": "monthly",
		"category":  "Housing",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bill := decodeBody[billJSON](t, rec)
	assert.True(t, bill.LastPaid.IsZero())

	rec = doJSON(srv, http.MethodPost, fmt.Sprintf("/api/bills/%d/pay", bill.ID), map[string]any{
		"paid_on": "2030-03-28",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	paid := decodeBody[billJSON](t, rec)
	assert.Equal(t, "2030-03-28", paid.LastPaid.String())
	assert.Equal(t, "2030-04-01", paid.DueDate.String(), "paying must never advance the due date")
}

func TestBillUrgencyInResponse(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "alice", "hunter22")
	cookie := login(t, srv, "alice", "hunter22")

	past := core.DateOf(time.Now().AddDate(0, 0, -2))
	rec := doJSON(srv, http.MethodPost, "/api/bills", map[string]any{
		"name":      "water",
		"amount":    "30.00",
		"due_date":  past.String(),
		"frequency": "monthly",
		"category":  "Utilities",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got struct {
		DaysUntilDue int    `json:"days_until_due"`
		Urgency      string `json:"urgency"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, -2, got.DaysUntilDue)
	assert.Equal(t, "overdue", got.Urgency)
}

func TestSubscriptionMonthlyEquivalent(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "alice", "hunter22")
	cookie := login(t, srv, "alice", "hunter22")

	rec := doJSON(srv, http.MethodPost, "/api/subscriptions", map[string]any{
		"name":          "backup service",
		"amount":        "12.00",
		"billing_cycle": "yearly",
		"next_payment":  "2030-01-01",
		"category":      "Productivity",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	sub := decodeBody[subscriptionJSON](t, rec)
	assert.Equal(t, int64(1200), sub.AmountCents)
	assert.Equal(t, int64(100), sub.MonthlyEquivalentCents)
}

func TestDashboard(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "alice", "hunter22")
	cookie := login(t, srv, "alice", "hunter22")

	today := core.DateOf(time.Now())
	rec := doJSON(srv, http.MethodPost, "/api/expenses", map[string]any{
		"purpose": "lunch", "amount": "15.00", "category": "Food", "date": today.String(),
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	soon := core.DateOf(time.Now().AddDate(0, 0, 2))
	rec = doJSON(srv, http.MethodPost, "/api/bills", map[string]any{
		"name": "power", "amount": "80.00", "due_date": soon.String(),
		"frequency": "monthly", "category": "Utilities",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(srv, http.MethodGet, "/api/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dash := decodeBody[dashboardJSON](t, rec)
	assert.Equal(t, int64(1500), dash.MonthTotalCents)
	require.Len(t, dash.RecentExpenses, 1)
	require.Len(t, dash.UpcomingBills, 1)
	assert.Equal(t, "power", dash.UpcomingBills[0].Name)
	assert.Empty(t, dash.OverdueBills)
}

func TestDashboardCacheInvalidatedByMutation(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "alice", "hunter22")
	cookie := login(t, srv, "alice", "hunter22")

	rec := doJSON(srv, http.MethodGet, "/api/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decodeBody[dashboardJSON](t, rec).MonthTotalCents)

	today := core.DateOf(time.Now())
	rec = doJSON(srv, http.MethodPost, "/api/expenses", map[string]any{
		"purpose": "coffee", "amount": "4.00", "category": "Food", "date": today.String(),
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(srv, http.MethodGet, "/api/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(400), decodeBody[dashboardJSON](t, rec).MonthTotalCents)
}

func TestAnalytics(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "alice", "hunter22")
	cookie := login(t, srv, "alice", "hunter22")

	today := core.DateOf(time.Now())
	for _, e := range []map[string]any{
		{"purpose": "groceries", "amount": "50.00", "category": "Food", "date": today.String()},
		{"purpose": "bus pass", "amount": "50.00", "category": "Transport", "date": today.String()},
	} {
		rec := doJSON(srv, http.MethodPost, "/api/expenses", e, cookie)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(srv, http.MethodPost, "/api/subscriptions", map[string]any{
		"name": "stream", "amount": "12.00", "billing_cycle": "yearly",
		"next_payment": "2030-01-01", "category": "Entertainment",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(srv, http.MethodGet, "/api/analytics", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeBody[analyticsJSON](t, rec)
	require.Len(t, got.Trend, trendMonths)
	last := got.Trend[trendMonths-1]
	assert.Equal(t, int64(10000), last.TotalCents)

	require.Len(t, got.CategoryBreakdown, 2)
	for _, share := range got.CategoryBreakdown {
		assert.Equal(t, 50, share.Percent)
	}
	assert.Equal(t, int64(100), got.PortfolioMonthlyCents)
	assert.Equal(t, int64(1200), got.PortfolioYearlyCents)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(srv, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(srv, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(srv, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), "rate_limit_hits_total")
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(srv, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestUnknownIDPath(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "alice", "hunter22")
	cookie := login(t, srv, "alice", "hunter22")

	rec := doJSON(srv, http.MethodGet, "/api/expenses/abc", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(srv, http.MethodGet, "/api/expenses/999", nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
