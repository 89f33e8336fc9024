// Package worker scans for bills and subscriptions that need attention and
// publishes payment reminders.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ScheduleSource is the slice of the record store the worker reads.
type ScheduleSource interface {
	ListActiveBills(ctx context.Context) ([]core.Bill, error)
	ListActiveSubscriptions(ctx context.Context) ([]core.Subscription, error)
}

// Publisher delivers a reminder somewhere. The AMQP client implements it;
// LogPublisher stands in when no broker is configured.
type Publisher interface {
	PublishReminder(ctx context.Context, msg *amqp.ReminderMessage) error
}

// LogPublisher writes reminders to the log instead of a broker.
type LogPublisher struct {
	Logger *log.Logger
}

func (p *LogPublisher) PublishReminder(ctx context.Context, msg *amqp.ReminderMessage) error {
	p.Logger.InfoContext(ctx, "payment reminder",
		"record_kind", msg.RecordKind,
		log.FieldUserID, msg.UserID,
		"name", msg.Name,
		log.FieldAmountCents, msg.AmountCents,
		log.FieldDueDate, msg.DueDate,
		log.FieldDaysUntilDue, msg.DaysUntilDue,
		log.FieldUrgency, msg.Urgency)
	return nil
}

// ReminderWorker periodically scans all active bills and subscriptions and
// publishes a reminder for anything overdue, due today, or inside the
// configured window.
type ReminderWorker struct {
	source     ScheduleSource
	publisher  Publisher
	interval   time.Duration
	windowDays int
	logger     *log.Logger
	now        func() time.Time
}

func NewReminderWorker(source ScheduleSource, publisher Publisher, interval time.Duration, windowDays int, logger *log.Logger) *ReminderWorker {
	return &ReminderWorker{
		source:     source,
		publisher:  publisher,
		interval:   interval,
		windowDays: windowDays,
		logger:     logger.WithComponent(log.ComponentWorker),
		now:        time.Now,
	}
}

// Start runs an immediate scan, then one per interval, until ctx ends.
func (w *ReminderWorker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "reminder worker started",
		"interval", w.interval.String(),
		"window_days", w.windowDays)

	if err := w.Scan(ctx); err != nil {
		w.logger.ErrorContext(ctx, "reminder scan failed", log.FieldError, err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "reminder worker stopping", "reason", ctx.Err().Error())
			return ctx.Err()
		case <-ticker.C:
			if err := w.Scan(ctx); err != nil {
				w.logger.ErrorContext(ctx, "reminder scan failed", log.FieldError, err.Error())
			}
		}
	}
}

// Scan fetches bills and subscriptions concurrently, classifies each, and
// publishes reminders. Store errors abort the scan; they are never papered
// over with an empty result.
func (w *ReminderWorker) Scan(ctx context.Context) error {
	var (
		bills []core.Bill
		subs  []core.Subscription
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if bills, err = w.source.ListActiveBills(gctx); err != nil {
			return fmt.Errorf("list active bills: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if subs, err = w.source.ListActiveSubscriptions(gctx); err != nil {
			return fmt.Errorf("list active subscriptions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	now := w.now()
	published := 0

	for _, b := range bills {
		if msg := w.billReminder(b, now); msg != nil {
			if err := w.publisher.PublishReminder(ctx, msg); err != nil {
				return fmt.Errorf("publish bill reminder %d: %w", b.ID, err)
			}
			published++
		}
	}
	for _, sub := range subs {
		if msg := w.subscriptionReminder(sub, now); msg != nil {
			if err := w.publisher.PublishReminder(ctx, msg); err != nil {
				return fmt.Errorf("publish subscription reminder %d: %w", sub.ID, err)
			}
			published++
		}
	}

	w.logger.InfoContext(ctx, "reminder scan complete",
		"bills", len(bills),
		"subscriptions", len(subs),
		"published", published)
	return nil
}

func (w *ReminderWorker) billReminder(b core.Bill, now time.Time) *amqp.ReminderMessage {
	days := analytics.DaysUntil(b.DueDate, now)
	if days > w.windowDays {
		return nil
	}
	return &amqp.ReminderMessage{
		RecordKind:   "bill",
		RecordID:     b.ID,
		UserID:       b.UserID,
		Name:         b.Name,
		AmountCents:  b.Amount.Cents,
		DueDate:      b.DueDate.String(),
		DaysUntilDue: days,
		Urgency:      analytics.ClassifyUrgency(days).String(),
		Timestamp:    now,
	}
}

func (w *ReminderWorker) subscriptionReminder(s core.Subscription, now time.Time) *amqp.ReminderMessage {
	days := analytics.DaysUntil(s.NextPayment, now)
	if days > w.windowDays {
		return nil
	}
	return &amqp.ReminderMessage{
		RecordKind:   "subscription",
		RecordID:     s.ID,
		UserID:       s.UserID,
		Name:         s.Name,
		AmountCents:  s.Amount.Cents,
		DueDate:      s.NextPayment.String(),
		DaysUntilDue: days,
		Urgency:      analytics.ClassifyUrgency(days).String(),
		Timestamp:    now,
	}
}
