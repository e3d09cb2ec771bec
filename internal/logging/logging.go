// Package logging centralizes zerolog construction and context plumbing.
// Every component logs through a logger tagged with its component name and
// the request trace ID carried on the context.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name ("debug", "info", ...). Invalid values
	// fall back to info.
	Level string

	// Format is "console" or "json". Console is the default.
	Format string

	// File, when set, receives a copy of all log output in JSON form.
	File string
}

// NewLogger builds the process root logger. It never fails: an unopenable
// log file degrades to console-only output.
func NewLogger(cfg Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	var writers []io.Writer
	if cfg.Format == "json" {
		writers = append(writers, os.Stderr)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	if cfg.File != "" {
		f, fileErr := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if fileErr == nil {
			writers = append(writers, f)
		}
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// ComponentLogger tags a logger with a component name so log lines are
// attributable to the subsystem that wrote them.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// traceIDKey is the context key for request trace IDs.
type traceIDKey struct{}

// ContextWithTraceID stores a trace ID on the context.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext returns the trace ID on the context, or "".
func TraceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey{}).(string); ok {
		return v
	}
	return ""
}

// GetOrGenerateTraceID returns the context's trace ID, minting a new one
// when absent.
func GetOrGenerateTraceID(ctx context.Context) string {
	if id := TraceIDFromContext(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

// FromContext returns the logger attached to the context via
// zerolog's Ctx, falling back to a disabled logger when none is attached.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
