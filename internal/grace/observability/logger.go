// Package observability provides structured logging helpers for grace.
//
// It wraps log/slog with trace ID propagation so every log line emitted
// during a reply cycle carries the conversation's trace context.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/artmatsak/grace/common/trace"
)

// Setup configures the global slog logger according to the provided level
// and format strings (e.g. level="debug", format="json"). Logs go to stderr
// so they never interleave with the console conversation on stdout.
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps "debug", "warn", "error" to slog levels; anything else is
// info.
func ParseLevel(level string) slog.Level {
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

// WithTrace returns a child logger that always includes the trace_id from ctx.
func WithTrace(ctx context.Context) *slog.Logger {
	traceID := trace.FromContext(ctx)
	if traceID == "" {
		return slog.Default()
	}
	return slog.With("trace_id", traceID)
}
