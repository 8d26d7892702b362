package orm

import (
	"context"
	"log/slog"
)

// Logger is the interface for query logging.
type Logger interface {
	Log(ctx context.Context, query string, args ...any)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(ctx context.Context, query string, args ...any)

func (f LoggerFunc) Log(ctx context.Context, query string, args ...any) { f(ctx, query, args...) }

// NewSlogLogger returns a Logger that writes each query at debug level.
func NewSlogLogger(l *slog.Logger) Logger {
	return LoggerFunc(func(ctx context.Context, query string, args ...any) {
		l.DebugContext(ctx, "orm query", slog.String("sql", query), slog.Any("args", args))
	})
}
