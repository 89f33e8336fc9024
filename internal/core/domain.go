package core

import (
	"errors"
	"strings"
	"time"
)

// Payment frequencies for bills and billing cycles for subscriptions.
const (
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

type (
	// Frequency is how often a bill or subscription recurs.
	Frequency string

	// Category is a spending category. Each record kind accepts its own set,
	// see ExpenseCategories, BillCategories, SubscriptionCategories.
	Category string

	// Expense is a one-off purchase recorded by a user.
	Expense struct {
		ID          int64
		UserID      int64
		Purpose     string
		Amount      Money
		Category    Category
		Date        Date
		Description string // optional note
		CreatedAt   time.Time
	}

	// Bill is a recurring payment obligation with a concrete due date.
	// Marking a bill paid records LastPaid; the due date is never moved
	// automatically, rollover to the next period is a user action.
	Bill struct {
		ID        int64
		UserID    int64
		Name      string
		Amount    Money
		DueDate   Date
		Frequency Frequency
		Category  Category
		IsActive  bool
		LastPaid  Date // zero when never paid
		CreatedAt time.Time
	}

	// Subscription is a recurring service charge billed on a fixed cycle.
	Subscription struct {
		ID           int64
		UserID       int64
		Name         string
		Amount       Money
		BillingCycle Frequency
		NextPayment  Date
		Category     Category
		IsActive     bool
		Description  string // optional note
		Color        string // display hint, e.g. "#e50914"
		CreatedAt    time.Time
	}

	// User is an account that owns records. Every store operation is scoped
	// by user ID.
	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Session is a server-side login session keyed by an opaque token.
	Session struct {
		Token     string
		UserID    int64
		ExpiresAt time.Time
		CreatedAt time.Time
	}
)

// Scheduling accessors. Bills and subscriptions both carry a "next payment
// expected" date; exposing it uniformly lets due-date logic treat them alike.

func (b Bill) RecordID() int64     { return b.ID }
func (b Bill) NextDue() Date       { return b.DueDate }
func (b Bill) Active() bool        { return b.IsActive }
func (b Bill) DisplayName() string { return b.Name }

func (s Subscription) RecordID() int64     { return s.ID }
func (s Subscription) NextDue() Date       { return s.NextPayment }
func (s Subscription) Active() bool        { return s.IsActive }
func (s Subscription) DisplayName() string { return s.Name }

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyPurpose     = errors.New("empty purpose")
)

// Allowed categories per record kind.
var (
	ExpenseCategories = []Category{
		"Food", "Transport", "Entertainment", "Health",
		"Education", "Shopping", "Utilities", "Other",
	}
	BillCategories = []Category{
		"Housing", "Utilities", "Insurance", "Entertainment",
		"Healthcare", "Other",
	}
	SubscriptionCategories = []Category{
		"Entertainment", "Productivity", "Fitness", "Education",
		"Shopping", "Other",
	}
)

func categoryIn(c Category, set []Category) bool {
	for _, allowed := range set {
		if c == allowed {
			return true
		}
	}
	return false
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Purpose)) == 0 {
		return ErrEmptyPurpose
	}
	if len(e.Purpose) > 200 {
		return errors.New("purpose too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !categoryIn(e.Category, ExpenseCategories) {
		return ErrInvalidCategory
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (b Bill) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	if len(b.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if err := b.DueDate.Validate(); err != nil {
		return errors.New("invalid due date: " + err.Error())
	}
	switch b.Frequency {
	case Weekly, Monthly, Quarterly, Yearly:
	default:
		return ErrInvalidFrequency
	}
	if !categoryIn(b.Category, BillCategories) {
		return ErrInvalidCategory
	}
	return nil
}

func (s Subscription) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyName
	}
	if len(s.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	switch s.BillingCycle {
	case Weekly, Monthly, Yearly:
	default:
		return ErrInvalidFrequency
	}
	if err := s.NextPayment.Validate(); err != nil {
		return errors.New("invalid next payment date: " + err.Error())
	}
	if !categoryIn(s.Category, SubscriptionCategories) {
		return ErrInvalidCategory
	}
	return nil
}
