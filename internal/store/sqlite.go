package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fintrack/internal/core"
)

// SQLiteStore is the default backend: a single-file embedded database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies
// any pending migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := runSQLiteMigrations(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	// SQLite serializes writers; a single connection avoids busy errors.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *SQLiteStore) Close() error                   { return s.db.Close() }

// Timestamps are stored as RFC 3339 text at second precision. The fixed
// width keeps text comparison chronological, which the expired-session
// sweep relies on.
const timestampLayout = time.RFC3339

func encodeTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func decodeTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode timestamp %q: %w", s, err)
	}
	return t, nil
}

func encodeDate(d core.Date) string { return d.String() }

func decodeDate(s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("decode date %q: %w", s, err)
	}
	return d, nil
}

// monthRange returns the half-open [first, firstOfNext) text bounds for a
// calendar month. Dates are stored as YYYY-MM-DD so text comparison is
// chronological.
func monthRange(year, month int) (string, string) {
	first := core.NewDate(year, month, 1)
	next := core.DateOf(first.AddDate(0, 1, 0))
	return first.String(), next.String()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Expenses

const expenseColumns = "id, user_id, purpose, amount_cents, category, date, description, created_at"

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e         core.Expense
		date      string
		createdAt string
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Purpose, &e.Amount.Cents, &e.Category, &date, &e.Description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	if e.Date, err = decodeDate(date); err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt, err = decodeTimestamp(createdAt); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (s *SQLiteStore) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, purpose, amount_cents, category, date, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Purpose, e.Amount.Cents, e.Category, encodeDate(e.Date), e.Description, encodeTimestamp(e.CreatedAt),
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) GetExpense(ctx context.Context, userID, id int64) (core.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	return scanExpense(row)
}

func (s *SQLiteStore) listExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *SQLiteStore) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	return s.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC", userID)
}

func (s *SQLiteStore) ListExpensesByMonth(ctx context.Context, userID int64, year, month int) ([]core.Expense, error) {
	from, to := monthRange(year, month)
	return s.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND date >= ? AND date < ? ORDER BY date DESC, id DESC",
		userID, from, to)
}

func (s *SQLiteStore) ListRecentExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error) {
	return s.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC LIMIT ?",
		userID, limit)
}

func (s *SQLiteStore) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET purpose = ?, amount_cents = ?, category = ?, date = ?, description = ?
		 WHERE id = ? AND user_id = ?`,
		e.Purpose, e.Amount.Cents, e.Category, encodeDate(e.Date), e.Description, e.ID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// requireRow converts a zero-row mutation into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Bills

const billColumns = "id, user_id, name, amount_cents, due_date, frequency, category, is_active, last_paid, created_at"

func scanBill(row interface{ Scan(...any) error }) (core.Bill, error) {
	var (
		b         core.Bill
		dueDate   string
		lastPaid  sql.NullString
		createdAt string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Amount.Cents, &dueDate, &b.Frequency, &b.Category, &b.IsActive, &lastPaid, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, ErrNotFound
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("scan bill: %w", err)
	}
	if b.DueDate, err = decodeDate(dueDate); err != nil {
		return core.Bill{}, err
	}
	if lastPaid.Valid {
		if b.LastPaid, err = decodeDate(lastPaid.String); err != nil {
			return core.Bill{}, err
		}
	}
	if b.CreatedAt, err = decodeTimestamp(createdAt); err != nil {
		return core.Bill{}, err
	}
	return b, nil
}

func nullableDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return encodeDate(d)
}

func (s *SQLiteStore) CreateBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bills (user_id, name, amount_cents, due_date, frequency, category, is_active, last_paid, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Name, b.Amount.Cents, encodeDate(b.DueDate), b.Frequency, b.Category, b.IsActive, nullableDate(b.LastPaid), encodeTimestamp(b.CreatedAt),
	)
	if err != nil {
		return core.Bill{}, fmt.Errorf("insert bill: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return core.Bill{}, fmt.Errorf("bill id: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) GetBill(ctx context.Context, userID, id int64) (core.Bill, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+billColumns+" FROM bills WHERE id = ? AND user_id = ?", id, userID)
	return scanBill(row)
}

func (s *SQLiteStore) listBills(ctx context.Context, query string, args ...any) ([]core.Bill, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	bills := make([]core.Bill, 0)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

func (s *SQLiteStore) ListBills(ctx context.Context, userID int64) ([]core.Bill, error) {
	return s.listBills(ctx,
		"SELECT "+billColumns+" FROM bills WHERE user_id = ? ORDER BY due_date, id", userID)
}

func (s *SQLiteStore) UpdateBill(ctx context.Context, b core.Bill) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bills SET name = ?, amount_cents = ?, due_date = ?, frequency = ?, category = ?, is_active = ?, last_paid = ?
		 WHERE id = ? AND user_id = ?`,
		b.Name, b.Amount.Cents, encodeDate(b.DueDate), b.Frequency, b.Category, b.IsActive, nullableDate(b.LastPaid), b.ID, b.UserID,
	)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteBill(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM bills WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) MarkBillPaid(ctx context.Context, userID, id int64, paidOn core.Date) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE bills SET last_paid = ? WHERE id = ? AND user_id = ?",
		encodeDate(paidOn), id, userID,
	)
	if err != nil {
		return fmt.Errorf("mark bill paid: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) ListActiveBills(ctx context.Context) ([]core.Bill, error) {
	return s.listBills(ctx,
		"SELECT "+billColumns+" FROM bills WHERE is_active = 1 ORDER BY id")
}

// Subscriptions

const subscriptionColumns = "id, user_id, name, amount_cents, billing_cycle, next_payment, category, is_active, description, color, created_at"

func scanSubscription(row interface{ Scan(...any) error }) (core.Subscription, error) {
	var (
		sub         core.Subscription
		nextPayment string
		createdAt   string
	)
	err := row.Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.Amount.Cents, &sub.BillingCycle, &nextPayment, &sub.Category, &sub.IsActive, &sub.Description, &sub.Color, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("scan subscription: %w", err)
	}
	if sub.NextPayment, err = decodeDate(nextPayment); err != nil {
		return core.Subscription{}, err
	}
	if sub.CreatedAt, err = decodeTimestamp(createdAt); err != nil {
		return core.Subscription{}, err
	}
	return sub, nil
}

func (s *SQLiteStore) CreateSubscription(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, name, amount_cents, billing_cycle, next_payment, category, is_active, description, color, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.UserID, sub.Name, sub.Amount.Cents, sub.BillingCycle, encodeDate(sub.NextPayment), sub.Category, sub.IsActive, sub.Description, sub.Color, encodeTimestamp(sub.CreatedAt),
	)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("insert subscription: %w", err)
	}
	if sub.ID, err = res.LastInsertId(); err != nil {
		return core.Subscription{}, fmt.Errorf("subscription id: %w", err)
	}
	return sub, nil
}

func (s *SQLiteStore) GetSubscription(ctx context.Context, userID, id int64) (core.Subscription, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE id = ? AND user_id = ?", id, userID)
	return scanSubscription(row)
}

func (s *SQLiteStore) listSubscriptions(ctx context.Context, query string, args ...any) ([]core.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]core.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLiteStore) ListSubscriptions(ctx context.Context, userID int64) ([]core.Subscription, error) {
	return s.listSubscriptions(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE user_id = ? ORDER BY next_payment, id", userID)
}

func (s *SQLiteStore) UpdateSubscription(ctx context.Context, sub core.Subscription) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET name = ?, amount_cents = ?, billing_cycle = ?, next_payment = ?, category = ?, is_active = ?, description = ?, color = ?
		 WHERE id = ? AND user_id = ?`,
		sub.Name, sub.Amount.Cents, sub.BillingCycle, encodeDate(sub.NextPayment), sub.Category, sub.IsActive, sub.Description, sub.Color, sub.ID, sub.UserID,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteSubscription(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) ListActiveSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	return s.listSubscriptions(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE is_active = 1 ORDER BY id")
}

// Users and sessions

func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, passwordHash, encodeTimestamp(createdAt),
	)
	if isUniqueViolation(err) {
		return core.User{}, ErrDuplicateUsername
	}
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user id: %w", err)
	}
	return core.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: createdAt}, nil
}

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var (
		u         core.User
		createdAt string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	if u.CreatedAt, err = decodeTimestamp(createdAt); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username)
	return scanUser(row)
}

func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess core.Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		sess.Token, sess.UserID, encodeTimestamp(sess.ExpiresAt), encodeTimestamp(sess.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, token string) (core.Session, error) {
	var (
		sess      core.Session
		expiresAt string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?", token,
	).Scan(&sess.Token, &sess.UserID, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, ErrNotFound
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("scan session: %w", err)
	}
	if sess.ExpiresAt, err = decodeTimestamp(expiresAt); err != nil {
		return core.Session{}, err
	}
	if sess.CreatedAt, err = decodeTimestamp(createdAt); err != nil {
		return core.Session{}, err
	}
	return sess, nil
}

func (s *SQLiteStore) RenewSession(ctx context.Context, token string, expiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET expires_at = ? WHERE token = ?", encodeTimestamp(expiresAt), token)
	if err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= ?", encodeTimestamp(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
