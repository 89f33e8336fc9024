package store

import "fmt"

// BackendType selects a persistence backend.
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string { return string(bt) }

// IsValid reports whether the backend type is one of the known backends.
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config carries the settings the factory needs for each backend.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLitePath string

	// Postgres specific
	PostgresURL string
}

// Open creates the configured backend. The memory backend needs no
// configuration at all and is mainly useful for tests and trial runs.
func Open(cfg Config) (Store, error) {
	switch cfg.Type {
	case SQLiteBackend:
		return OpenSQLite(cfg.SQLitePath)
	case PostgresBackend:
		return OpenPostgres(cfg.PostgresURL)
	case MemoryBackend:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Type)
	}
}
