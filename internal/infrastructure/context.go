package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// GenerateTraceID returns a new random trace ID.
func GenerateTraceID() string {
	return uuid.New().String()
}

// ContextWithTraceID returns ctx carrying a freshly generated trace ID.
func ContextWithTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, GenerateTraceID())
}

// EnsureTraceID returns ctx unchanged when it already carries a trace ID
// and attaches a generated one otherwise. Called once at run start so every
// log line of a collection run correlates to the same ID.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return ContextWithTraceID(ctx)
	}
	return ctx
}

// LoggerWithContext returns the global logger with the context's trace ID
// attached. Request handlers use it so their lines correlate with the
// middleware request log.
func LoggerWithContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if traceID := GetTraceID(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}
	return logger
}
