package termexp

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with termexp-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithShard adds a shard index field to the logger.
func (l *Logger) WithShard(index int) *Logger {
	return &Logger{Logger: l.Logger.With("shard", index)}
}

// WithScheme adds the weighting scheme name to the logger.
func (l *Logger) WithScheme(name string) *Logger {
	return &Logger{Logger: l.Logger.With("scheme", name)}
}

// LogExpand logs the outcome of one query expansion.
func (l *Logger) LogExpand(ctx context.Context, rsize, candidates, kept int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "expand failed",
			"rsize", rsize,
			"candidates", candidates,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "expand completed",
		"rsize", rsize,
		"candidates", candidates,
		"terms", kept,
		"duration", d,
	)
}

// LogShardOpen logs the opening of one shard.
func (l *Logger) LogShardOpen(ctx context.Context, index int, docCount uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "shard open failed",
			"shard", index,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "shard opened",
		"shard", index,
		"documents", docCount,
	)
}

// LogClose logs closing the database.
func (l *Logger) LogClose(ctx context.Context, shards int, err error) {
	if err != nil {
		l.WarnContext(ctx, "close completed with errors",
			"shards", shards,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "database closed", "shards", shards)
}
