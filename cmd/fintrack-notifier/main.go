// Command fintrack-notifier consumes payment reminders from the queue and
// delivers them. Delivery is currently a structured log line; a mail or
// push integration would slot in behind the same handler.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentAMQP)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notifier")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to connect to AMQP", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	handler := func(msg *amqp.ReminderMessage) error {
		logger.Info("payment reminder delivered",
			"record_kind", msg.RecordKind,
			log.FieldUserID, msg.UserID,
			"name", msg.Name,
			log.FieldAmountCents, msg.AmountCents,
			log.FieldDueDate, msg.DueDate,
			log.FieldDaysUntilDue, msg.DaysUntilDue,
			log.FieldUrgency, msg.Urgency)
		return nil
	}

	if err := client.ConsumeReminders(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("reminder consumption failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("notifier stopped")
}
