package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"fintrack/internal/core"
)

// PostgresStore backs multi-host deployments. The schema mirrors the SQLite
// one; dates and timestamps stay text-encoded so both backends share the
// same scan helpers.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects with a lib/pq connection string or URL and
// bootstraps the schema idempotently.
func OpenPostgres(url string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.bootstrap(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) bootstrap() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			purpose TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			category TEXT NOT NULL,
			date TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, date)`,
		`CREATE TABLE IF NOT EXISTS bills (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			due_date TEXT NOT NULL,
			frequency TEXT NOT NULL,
			category TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_paid TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bills_user_due ON bills(user_id, due_date)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			billing_cycle TEXT NOT NULL,
			next_payment TEXT NOT NULL,
			category TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			description TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_user_next ON subscriptions(user_id, next_payment)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *PostgresStore) Close() error                   { return s.db.Close() }

// uniqueViolation is the Postgres error code for a duplicate key.
const uniqueViolation = "23505"

func isPQUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// Expenses

func (s *PostgresStore) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO expenses (user_id, purpose, amount_cents, category, date, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		e.UserID, e.Purpose, e.Amount.Cents, e.Category, encodeDate(e.Date), e.Description, encodeTimestamp(e.CreatedAt),
	).Scan(&e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) GetExpense(ctx context.Context, userID, id int64) (core.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = $1 AND user_id = $2", id, userID)
	return scanExpense(row)
}

func (s *PostgresStore) listExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
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

func (s *PostgresStore) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	return s.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = $1 ORDER BY date DESC, id DESC", userID)
}

func (s *PostgresStore) ListExpensesByMonth(ctx context.Context, userID int64, year, month int) ([]core.Expense, error) {
	from, to := monthRange(year, month)
	return s.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = $1 AND date >= $2 AND date < $3 ORDER BY date DESC, id DESC",
		userID, from, to)
}

func (s *PostgresStore) ListRecentExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error) {
	return s.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = $1 ORDER BY date DESC, id DESC LIMIT $2",
		userID, limit)
}

func (s *PostgresStore) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET purpose = $1, amount_cents = $2, category = $3, date = $4, description = $5
		 WHERE id = $6 AND user_id = $7`,
		e.Purpose, e.Amount.Cents, e.Category, encodeDate(e.Date), e.Description, e.ID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// Bills

func (s *PostgresStore) CreateBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO bills (user_id, name, amount_cents, due_date, frequency, category, is_active, last_paid, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		b.UserID, b.Name, b.Amount.Cents, encodeDate(b.DueDate), b.Frequency, b.Category, b.IsActive, nullableDate(b.LastPaid), encodeTimestamp(b.CreatedAt),
	).Scan(&b.ID)
	if err != nil {
		return core.Bill{}, fmt.Errorf("insert bill: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) GetBill(ctx context.Context, userID, id int64) (core.Bill, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+billColumns+" FROM bills WHERE id = $1 AND user_id = $2", id, userID)
	return scanBill(row)
}

func (s *PostgresStore) listBills(ctx context.Context, query string, args ...any) ([]core.Bill, error) {
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

func (s *PostgresStore) ListBills(ctx context.Context, userID int64) ([]core.Bill, error) {
	return s.listBills(ctx,
		"SELECT "+billColumns+" FROM bills WHERE user_id = $1 ORDER BY due_date, id", userID)
}

func (s *PostgresStore) UpdateBill(ctx context.Context, b core.Bill) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bills SET name = $1, amount_cents = $2, due_date = $3, frequency = $4, category = $5, is_active = $6, last_paid = $7
		 WHERE id = $8 AND user_id = $9`,
		b.Name, b.Amount.Cents, encodeDate(b.DueDate), b.Frequency, b.Category, b.IsActive, nullableDate(b.LastPaid), b.ID, b.UserID,
	)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteBill(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM bills WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) MarkBillPaid(ctx context.Context, userID, id int64, paidOn core.Date) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE bills SET last_paid = $1 WHERE id = $2 AND user_id = $3",
		encodeDate(paidOn), id, userID,
	)
	if err != nil {
		return fmt.Errorf("mark bill paid: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ListActiveBills(ctx context.Context) ([]core.Bill, error) {
	return s.listBills(ctx,
		"SELECT "+billColumns+" FROM bills WHERE is_active ORDER BY id")
}

// Subscriptions

func (s *PostgresStore) CreateSubscription(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_id, name, amount_cents, billing_cycle, next_payment, category, is_active, description, color, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		sub.UserID, sub.Name, sub.Amount.Cents, sub.BillingCycle, encodeDate(sub.NextPayment), sub.Category, sub.IsActive, sub.Description, sub.Color, encodeTimestamp(sub.CreatedAt),
	).Scan(&sub.ID)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("insert subscription: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) GetSubscription(ctx context.Context, userID, id int64) (core.Subscription, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE id = $1 AND user_id = $2", id, userID)
	return scanSubscription(row)
}

func (s *PostgresStore) listSubscriptions(ctx context.Context, query string, args ...any) ([]core.Subscription, error) {
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

func (s *PostgresStore) ListSubscriptions(ctx context.Context, userID int64) ([]core.Subscription, error) {
	return s.listSubscriptions(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE user_id = $1 ORDER BY next_payment, id", userID)
}

func (s *PostgresStore) UpdateSubscription(ctx context.Context, sub core.Subscription) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET name = $1, amount_cents = $2, billing_cycle = $3, next_payment = $4, category = $5, is_active = $6, description = $7, color = $8
		 WHERE id = $9 AND user_id = $10`,
		sub.Name, sub.Amount.Cents, sub.BillingCycle, encodeDate(sub.NextPayment), sub.Category, sub.IsActive, sub.Description, sub.Color, sub.ID, sub.UserID,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteSubscription(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ListActiveSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	return s.listSubscriptions(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE is_active ORDER BY id")
}

// Users and sessions

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	u := core.User{Username: username, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES ($1, $2, $3) RETURNING id",
		username, passwordHash, encodeTimestamp(u.CreatedAt),
	).Scan(&u.ID)
	if isPQUniqueViolation(err) {
		return core.User{}, ErrDuplicateUsername
	}
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE id = $1", id)
	return scanUser(row)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = $1", username)
	return scanUser(row)
}

func (s *PostgresStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess core.Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		sess.Token, sess.UserID, encodeTimestamp(sess.ExpiresAt), encodeTimestamp(sess.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, token string) (core.Session, error) {
	var (
		sess      core.Session
		expiresAt string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = $1", token,
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

func (s *PostgresStore) RenewSession(ctx context.Context, token string, expiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET expires_at = $1 WHERE token = $2", encodeTimestamp(expiresAt), token)
	if err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = $1", token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= $1", encodeTimestamp(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
