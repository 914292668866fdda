// Package log wraps log/slog with a component attribute so every line says
// which part of the application emitted it.
package log

import (
	"log/slog"
	"os"
)

// Standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
)

// Config holds logger configuration.
type Config struct {
	Level   slog.Level
	Handler slog.Handler
}

// New creates a slog logger with the given configuration. A nil Handler gets
// a text handler on stdout at the configured level.
func New(cfg Config) *slog.Logger {
	handler := cfg.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.Level,
		})
	}
	return slog.New(handler)
}

// ForComponent returns a child logger tagged with the component attribute.
func ForComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

// SetDefault installs the logger process-wide so package-level slog calls
// carry the same handler.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
