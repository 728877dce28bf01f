// Package logging builds the structured logger used across the service and
// the audit sink that writes security events through it.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/you/missionlog/internal/config"
)

// New creates a slog.Logger writing to stdout with the configured format and level
func New(cfg config.LoggingConfig, env string) *slog.Logger {
	return NewWithWriter(os.Stdout, cfg, env)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(w io.Writer, cfg config.LoggingConfig, env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler.WithAttrs([]slog.Attr{
		slog.String("service", "missionlog"),
		slog.String("env", env),
	}))
}

// Discard returns a logger that drops everything, for tests
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// parseLevel converts a string log level to slog.Level, defaulting to info
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
