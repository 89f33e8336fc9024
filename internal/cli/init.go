// Package cli holds the initialization steps shared by the binaries under
// cmd/: logging, .env loading, configuration, and store setup.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// SetupLogger builds the process logger and routes default slog output
// through it, so middleware logging via slog lands in the same stream.
func SetupLogger(component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: component,
		Handler: slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}),
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Missing files are
// fine; production sets real environment variables.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits the process when it
// does not validate. Every problem is reported at once.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens the configured persistence backend or exits the process.
func OpenStore(logger *log.Logger, cfg *config.Config) store.Store {
	st, err := store.Open(store.Config{
		Type:        store.BackendType(cfg.DataBackend),
		SQLitePath:  cfg.SQLiteDBPath,
		PostgresURL: cfg.DatabaseURL,
	})
	if err != nil {
		logger.Error("failed to open store",
			log.FieldBackend, cfg.DataBackend,
			log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("store opened", log.FieldBackend, cfg.DataBackend)
	return st
}
