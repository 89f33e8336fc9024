package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("starting reminder worker")

	st := cli.OpenStore(logger, cfg)
	defer st.Close()

	// Without a broker the worker still runs; reminders go to the log.
	var publisher worker.Publisher = &worker.LogPublisher{Logger: logger}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, falling back to log output", log.FieldError, err.Error())
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP publisher initialized",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP not configured, reminders will be logged")
	}

	w := worker.NewReminderWorker(st, publisher, cfg.ReminderInterval, cfg.ReminderWindowDays, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("reminder worker failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	// Give in-flight publishes a moment to settle before the deferred
	// closes run.
	time.Sleep(200 * time.Millisecond)
	logger.Info("reminder worker stopped")
}
