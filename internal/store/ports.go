// Package store persists the domain records behind a narrow interface so
// callers never depend on a concrete database. Three backends are provided:
// SQLite (default), PostgreSQL, and an in-memory store for tests.
package store

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
)

// ErrNotFound is the only sentinel a backend returns for a missing record.
// All other failures propagate wrapped and unchanged so callers can report
// them instead of silently substituting empty results.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateUsername is returned when creating a user whose username is
// already taken.
var ErrDuplicateUsername = errors.New("username already exists")

// ExpenseStore covers one-off expense records. Every operation except the
// worker-facing ones is scoped by the owning user's ID.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, userID, id int64) (core.Expense, error)
	ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error)
	ListExpensesByMonth(ctx context.Context, userID int64, year, month int) ([]core.Expense, error)
	ListRecentExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, userID, id int64) error
}

// BillStore covers bill reminders. ListActiveBills spans all users and
// exists for the reminder worker.
type BillStore interface {
	CreateBill(ctx context.Context, b core.Bill) (core.Bill, error)
	GetBill(ctx context.Context, userID, id int64) (core.Bill, error)
	ListBills(ctx context.Context, userID int64) ([]core.Bill, error)
	UpdateBill(ctx context.Context, b core.Bill) error
	DeleteBill(ctx context.Context, userID, id int64) error
	// MarkBillPaid records the payment date. It never touches the due date;
	// rolling a bill into its next period is an explicit user edit.
	MarkBillPaid(ctx context.Context, userID, id int64, paidOn core.Date) error
	ListActiveBills(ctx context.Context) ([]core.Bill, error)
}

// SubscriptionStore covers recurring subscriptions. ListActiveSubscriptions
// spans all users and exists for the reminder worker.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
	GetSubscription(ctx context.Context, userID, id int64) (core.Subscription, error)
	ListSubscriptions(ctx context.Context, userID int64) ([]core.Subscription, error)
	UpdateSubscription(ctx context.Context, s core.Subscription) error
	DeleteSubscription(ctx context.Context, userID, id int64) error
	ListActiveSubscriptions(ctx context.Context) ([]core.Subscription, error)
}

// UserStore covers account records. Users are provisioned out of band by
// the adduser command, never through the HTTP surface.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	GetUserByID(ctx context.Context, id int64) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// SessionStore covers server-side login sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s core.Session) error
	GetSession(ctx context.Context, token string) (core.Session, error)
	RenewSession(ctx context.Context, token string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Store is the full persistence surface the service depends on.
type Store interface {
	ExpenseStore
	BillStore
	SubscriptionStore
	UserStore
	SessionStore

	Ping(ctx context.Context) error
	Close() error
}
