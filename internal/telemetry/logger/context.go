package logger

import "context"

type contextKey string

const (
	loggerKey   contextKey = "goresp.logger"
	clientIDKey contextKey = "goresp.client_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithClientID records the client instance serving the current operation.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// ClientIDFromContext extracts the client ID from context.
func ClientIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(clientIDKey).(string); ok {
		return id
	}
	return ""
}

// L is FromContext enriched with the client ID, if any.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if id := ClientIDFromContext(ctx); id != "" {
		l = l.With("client_id", id)
	}
	return l
}
