package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"
)

// MemoryStore keeps everything in process memory. It backs tests and
// zero-dependency trial runs; data is lost on shutdown.
type MemoryStore struct {
	mu sync.RWMutex

	expenses      map[int64]core.Expense
	bills         map[int64]core.Bill
	subscriptions map[int64]core.Subscription
	users         map[int64]core.User
	sessions      map[string]core.Session

	nextExpenseID      int64
	nextBillID         int64
	nextSubscriptionID int64
	nextUserID         int64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		expenses:      make(map[int64]core.Expense),
		bills:         make(map[int64]core.Bill),
		subscriptions: make(map[int64]core.Subscription),
		users:         make(map[int64]core.User),
		sessions:      make(map[string]core.Session),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }
func (m *MemoryStore) Close() error                   { return nil }

// Expenses

func (m *MemoryStore) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextExpenseID++
	e.ID = m.nextExpenseID
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.expenses[e.ID] = e
	return e, nil
}

func (m *MemoryStore) GetExpense(ctx context.Context, userID, id int64) (core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.expenses[id]
	if !ok || e.UserID != userID {
		return core.Expense{}, ErrNotFound
	}
	return e, nil
}

func (m *MemoryStore) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Expense, 0)
	for _, e := range m.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sortExpenses(out)
	return out, nil
}

func (m *MemoryStore) ListExpensesByMonth(ctx context.Context, userID int64, year, month int) ([]core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Expense, 0)
	for _, e := range m.expenses {
		if e.UserID == userID && e.Date.InMonth(year, month) {
			out = append(out, e)
		}
	}
	sortExpenses(out)
	return out, nil
}

func (m *MemoryStore) ListRecentExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error) {
	all, err := m.ListExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryStore) UpdateExpense(ctx context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.expenses[e.ID]
	if !ok || cur.UserID != e.UserID {
		return ErrNotFound
	}
	e.CreatedAt = cur.CreatedAt
	m.expenses[e.ID] = e
	return nil
}

func (m *MemoryStore) DeleteExpense(ctx context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.expenses[id]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

// Newest first, ties by ID descending so recently created records lead.
func sortExpenses(expenses []core.Expense) {
	sort.Slice(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date.Time) {
			return expenses[i].Date.After(expenses[j].Date.Time)
		}
		return expenses[i].ID > expenses[j].ID
	})
}

// Bills

func (m *MemoryStore) CreateBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextBillID++
	b.ID = m.nextBillID
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.bills[b.ID] = b
	return b, nil
}

func (m *MemoryStore) GetBill(ctx context.Context, userID, id int64) (core.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bills[id]
	if !ok || b.UserID != userID {
		return core.Bill{}, ErrNotFound
	}
	return b, nil
}

func (m *MemoryStore) ListBills(ctx context.Context, userID int64) ([]core.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Bill, 0)
	for _, b := range m.bills {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate.Time) {
			return out[i].DueDate.Before(out[j].DueDate.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) UpdateBill(ctx context.Context, b core.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.bills[b.ID]
	if !ok || cur.UserID != b.UserID {
		return ErrNotFound
	}
	b.CreatedAt = cur.CreatedAt
	m.bills[b.ID] = b
	return nil
}

func (m *MemoryStore) DeleteBill(ctx context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bills[id]
	if !ok || b.UserID != userID {
		return ErrNotFound
	}
	delete(m.bills, id)
	return nil
}

func (m *MemoryStore) MarkBillPaid(ctx context.Context, userID, id int64, paidOn core.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bills[id]
	if !ok || b.UserID != userID {
		return ErrNotFound
	}
	b.LastPaid = paidOn
	m.bills[id] = b
	return nil
}

func (m *MemoryStore) ListActiveBills(ctx context.Context) ([]core.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Bill, 0)
	for _, b := range m.bills {
		if b.IsActive {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Subscriptions

func (m *MemoryStore) CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSubscriptionID++
	s.ID = m.nextSubscriptionID
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m.subscriptions[s.ID] = s
	return s, nil
}

func (m *MemoryStore) GetSubscription(ctx context.Context, userID, id int64) (core.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.subscriptions[id]
	if !ok || s.UserID != userID {
		return core.Subscription{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) ListSubscriptions(ctx context.Context, userID int64) ([]core.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Subscription, 0)
	for _, s := range m.subscriptions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextPayment.Equal(out[j].NextPayment.Time) {
			return out[i].NextPayment.Before(out[j].NextPayment.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) UpdateSubscription(ctx context.Context, s core.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.subscriptions[s.ID]
	if !ok || cur.UserID != s.UserID {
		return ErrNotFound
	}
	s.CreatedAt = cur.CreatedAt
	m.subscriptions[s.ID] = s
	return nil
}

func (m *MemoryStore) DeleteSubscription(ctx context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subscriptions[id]
	if !ok || s.UserID != userID {
		return ErrNotFound
	}
	delete(m.subscriptions, id)
	return nil
}

func (m *MemoryStore) ListActiveSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Subscription, 0)
	for _, s := range m.subscriptions {
		if s.IsActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Users and sessions

func (m *MemoryStore) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			return core.User{}, ErrDuplicateUsername
		}
	}
	m.nextUserID++
	u := core.User{
		ID:           m.nextUserID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return core.User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, ErrNotFound
}

func (m *MemoryStore) CountUsers(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

func (m *MemoryStore) CreateSession(ctx context.Context, s core.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = s
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, token string) (core.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	if !ok {
		return core.Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) RenewSession(ctx context.Context, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return ErrNotFound
	}
	s.ExpiresAt = expiresAt
	m.sessions[token] = s
	return nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *MemoryStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for token, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed, nil
}
