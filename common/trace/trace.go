// Package trace carries a conversation trace ID through context so every log
// line emitted during a reply cycle can be correlated with its session.
package trace

import (
	"context"

	"github.com/google/uuid"
)

type traceKey struct{}

// GenerateID returns a new time-ordered trace ID.
func GenerateID() string {
	return "t_" + uuid.Must(uuid.NewV7()).String()
}

// WithTraceID returns a child context carrying the given trace ID.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// FromContext extracts the trace ID from ctx, returning "" if absent.
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceKey{}).(string); ok {
		return v
	}
	return ""
}

// Ensure returns ctx unchanged when it already carries a trace ID, otherwise
// a child context with id attached.
func Ensure(ctx context.Context, id string) context.Context {
	if FromContext(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, id)
}
