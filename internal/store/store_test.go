package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fintrack/internal/core"
)

// StoreTestSuite exercises the full Store surface. It runs once against the
// memory backend and once against SQLite so the two stay behaviorally
// identical.
type StoreTestSuite struct {
	suite.Suite
	open  func(t *testing.T) Store
	store Store
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{
		open: func(t *testing.T) Store { return NewMemoryStore() },
	})
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{
		open: func(t *testing.T) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
			require.NoError(t, err, "failed to open test database")
			return s
		},
	})
}

func (s *StoreTestSuite) SetupTest() {
	s.store = s.open(s.T())
	s.ctx = context.Background()
}

func (s *StoreTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

// mustUser creates a user so foreign keys on the SQLite backend hold.
func (s *StoreTestSuite) mustUser(username string) core.User {
	u, err := s.store.CreateUser(s.ctx, username, "$2a$10$fakehashfortestingonly")
	require.NoError(s.T(), err)
	return u
}

func (s *StoreTestSuite) expense(userID int64, cents int64, category core.Category, date core.Date) core.Expense {
	e, err := s.store.CreateExpense(s.ctx, core.Expense{
		UserID:   userID,
		Purpose:  "test purchase",
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     date,
	})
	require.NoError(s.T(), err)
	return e
}

func (s *StoreTestSuite) TestExpenseRoundTrip() {
	u := s.mustUser("alice")
	created := s.expense(u.ID, 4250, "Food", core.NewDate(2024, 3, 15))
	assert.NotZero(s.T(), created.ID)

	got, err := s.store.GetExpense(s.ctx, u.ID, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created.Purpose, got.Purpose)
	assert.Equal(s.T(), int64(4250), got.Amount.Cents)
	assert.Equal(s.T(), core.Category("Food"), got.Category)
	assert.Equal(s.T(), core.NewDate(2024, 3, 15), got.Date)
	assert.False(s.T(), got.CreatedAt.IsZero())
}

func (s *StoreTestSuite) TestExpenseUserScoping() {
	alice := s.mustUser("alice")
	bob := s.mustUser("bob")
	e := s.expense(alice.ID, 1000, "Food", core.NewDate(2024, 3, 1))

	_, err := s.store.GetExpense(s.ctx, bob.ID, e.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	err = s.store.DeleteExpense(s.ctx, bob.ID, e.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	// Alice still sees it.
	_, err = s.store.GetExpense(s.ctx, alice.ID, e.ID)
	assert.NoError(s.T(), err)
}

func (s *StoreTestSuite) TestListExpensesByMonth() {
	u := s.mustUser("alice")
	s.expense(u.ID, 100, "Food", core.NewDate(2024, 2, 29))
	s.expense(u.ID, 200, "Food", core.NewDate(2024, 3, 1))
	s.expense(u.ID, 300, "Food", core.NewDate(2024, 3, 31))
	s.expense(u.ID, 400, "Food", core.NewDate(2024, 4, 1))

	got, err := s.store.ListExpensesByMonth(s.ctx, u.ID, 2024, 3)
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 2)

	var total int64
	for _, e := range got {
		total += e.Amount.Cents
	}
	assert.Equal(s.T(), int64(500), total)
}

func (s *StoreTestSuite) TestListRecentExpenses() {
	u := s.mustUser("alice")
	for day := 1; day <= 5; day++ {
		s.expense(u.ID, int64(day*100), "Food", core.NewDate(2024, 3, day))
	}

	got, err := s.store.ListRecentExpenses(s.ctx, u.ID, 3)
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 3)
	// Newest first.
	assert.Equal(s.T(), core.NewDate(2024, 3, 5), got[0].Date)
	assert.Equal(s.T(), core.NewDate(2024, 3, 3), got[2].Date)
}

func (s *StoreTestSuite) TestUpdateExpense() {
	u := s.mustUser("alice")
	e := s.expense(u.ID, 1000, "Food", core.NewDate(2024, 3, 1))

	e.Purpose = "updated"
	e.Amount.Cents = 2000
	e.Category = "Transport"
	require.NoError(s.T(), s.store.UpdateExpense(s.ctx, e))

	got, err := s.store.GetExpense(s.ctx, u.ID, e.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "updated", got.Purpose)
	assert.Equal(s.T(), int64(2000), got.Amount.Cents)
	assert.Equal(s.T(), core.Category("Transport"), got.Category)
}

func (s *StoreTestSuite) TestBillRoundTripAndMarkPaid() {
	u := s.mustUser("alice")
	created, err := s.store.CreateBill(s.ctx, core.Bill{
		UserID:    u.ID,
		Name:      "Rent",
		Amount:    core.Money{Cents: 120000},
		DueDate:   core.NewDate(2024, 4, 1),
		Frequency: core.Monthly,
		Category:  "Housing",
		IsActive:  true,
	})
	require.NoError(s.T(), err)

	got, err := s.store.GetBill(s.ctx, u.ID, created.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), got.LastPaid.IsZero(), "new bill should have no payment date")
	assert.True(s.T(), got.IsActive)

	paidOn := core.NewDate(2024, 3, 28)
	require.NoError(s.T(), s.store.MarkBillPaid(s.ctx, u.ID, created.ID, paidOn))

	got, err = s.store.GetBill(s.ctx, u.ID, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), paidOn, got.LastPaid)
	// Paying never moves the due date.
	assert.Equal(s.T(), core.NewDate(2024, 4, 1), got.DueDate)
}

func (s *StoreTestSuite) TestListActiveBillsSpansUsers() {
	alice := s.mustUser("alice")
	bob := s.mustUser("bob")

	mk := func(userID int64, name string, active bool) {
		_, err := s.store.CreateBill(s.ctx, core.Bill{
			UserID:    userID,
			Name:      name,
			Amount:    core.Money{Cents: 1000},
			DueDate:   core.NewDate(2024, 4, 1),
			Frequency: core.Monthly,
			Category:  "Utilities",
			IsActive:  active,
		})
		require.NoError(s.T(), err)
	}
	mk(alice.ID, "a-active", true)
	mk(alice.ID, "a-inactive", false)
	mk(bob.ID, "b-active", true)

	got, err := s.store.ListActiveBills(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 2)
	names := []string{got[0].Name, got[1].Name}
	assert.ElementsMatch(s.T(), []string{"a-active", "b-active"}, names)
}

func (s *StoreTestSuite) TestSubscriptionRoundTrip() {
	u := s.mustUser("alice")
	created, err := s.store.CreateSubscription(s.ctx, core.Subscription{
		UserID:       u.ID,
		Name:         "Streaming",
		Amount:       core.Money{Cents: 1599},
		BillingCycle: core.Monthly,
		NextPayment:  core.NewDate(2024, 4, 10),
		Category:     "Entertainment",
		IsActive:     true,
		Description:  "family plan",
		Color:        "#e50914",
	})
	require.NoError(s.T(), err)

	got, err := s.store.GetSubscription(s.ctx, u.ID, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Streaming", got.Name)
	assert.Equal(s.T(), core.Monthly, got.BillingCycle)
	assert.Equal(s.T(), "#e50914", got.Color)

	got.IsActive = false
	require.NoError(s.T(), s.store.UpdateSubscription(s.ctx, got))

	active, err := s.store.ListActiveSubscriptions(s.ctx)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), active)
}

func (s *StoreTestSuite) TestDeleteMissingRecordsReturnNotFound() {
	u := s.mustUser("alice")
	assert.ErrorIs(s.T(), s.store.DeleteExpense(s.ctx, u.ID, 999), ErrNotFound)
	assert.ErrorIs(s.T(), s.store.DeleteBill(s.ctx, u.ID, 999), ErrNotFound)
	assert.ErrorIs(s.T(), s.store.DeleteSubscription(s.ctx, u.ID, 999), ErrNotFound)
	assert.ErrorIs(s.T(), s.store.MarkBillPaid(s.ctx, u.ID, 999, core.NewDate(2024, 1, 1)), ErrNotFound)
}

func (s *StoreTestSuite) TestUsers() {
	u := s.mustUser("alice")

	byName, err := s.store.GetUserByUsername(s.ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), u.ID, byName.ID)

	_, err = s.store.CreateUser(s.ctx, "alice", "otherhash")
	assert.ErrorIs(s.T(), err, ErrDuplicateUsername)

	count, err := s.store.CountUsers(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, count)

	_, err = s.store.GetUserByUsername(s.ctx, "nobody")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *StoreTestSuite) TestSessions() {
	u := s.mustUser("alice")
	now := time.Now().UTC().Truncate(time.Second)

	sess := core.Session{
		Token:     "tok-abc",
		UserID:    u.ID,
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	require.NoError(s.T(), s.store.CreateSession(s.ctx, sess))

	got, err := s.store.GetSession(s.ctx, "tok-abc")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), u.ID, got.UserID)
	assert.True(s.T(), got.ExpiresAt.Equal(sess.ExpiresAt))

	renewed := now.Add(2 * time.Hour)
	require.NoError(s.T(), s.store.RenewSession(s.ctx, "tok-abc", renewed))
	got, err = s.store.GetSession(s.ctx, "tok-abc")
	require.NoError(s.T(), err)
	assert.True(s.T(), got.ExpiresAt.Equal(renewed))

	require.NoError(s.T(), s.store.DeleteSession(s.ctx, "tok-abc"))
	_, err = s.store.GetSession(s.ctx, "tok-abc")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *StoreTestSuite) TestDeleteExpiredSessions() {
	u := s.mustUser("alice")
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(s.T(), s.store.CreateSession(s.ctx, core.Session{
		Token: "expired", UserID: u.ID, ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(s.T(), s.store.CreateSession(s.ctx, core.Session{
		Token: "live", UserID: u.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))

	removed, err := s.store.DeleteExpiredSessions(s.ctx, now)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), removed)

	_, err = s.store.GetSession(s.ctx, "expired")
	assert.ErrorIs(s.T(), err, ErrNotFound)
	_, err = s.store.GetSession(s.ctx, "live")
	assert.NoError(s.T(), err)
}
