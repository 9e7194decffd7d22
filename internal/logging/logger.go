// Package logging defines the structured-logging interface used across
// Guardian. The only implementation wraps log/slog.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "identity registered", "email", email, "id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)

	// Warn is used for denied requests and other expected-but-notable outcomes.
	Warn(ctx context.Context, msg string, args ...any)

	// Error is used for store and infrastructure failures. The detail logged
	// here never reaches API callers.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
