package backend

import (
	"fmt"
	"log/slog"
	"time"

	"fatture/internal/storage"
)

// Type selects the repository backend.
type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid reports whether the backend type is supported.
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite:
		return true
	default:
		return false
	}
}

// Config holds what backend creation needs.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Memory specific: simulated per-call latency, mimicking a slow store.
	MemoryLatency time.Duration
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is the created repository plus its optional cleanup.
type Result struct {
	Repository storage.Repository
	Cleanup    CleanupFunc
}

// Open creates a repository for the configured backend type.
func Open(cfg Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	switch cfg.Type {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Repository: repo, Cleanup: repo.Close}, nil

	default:
		repo := storage.NewMemoryRepository(cfg.MemoryLatency)
		logger.Info("Initialized memory backend", "latency", cfg.MemoryLatency)
		return &Result{Repository: repo, Cleanup: repo.Close}, nil
	}
}
