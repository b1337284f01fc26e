package blockselect

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with selector-specific context.
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
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithK adds a k field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithRow adds a row field to the logger.
func (l *Logger) WithRow(row int) *Logger {
	return &Logger{
		Logger: l.Logger.With("row", row),
	}
}

// LogConfig logs the effective selector shape.
func (l *Logger) LogConfig(ctx context.Context, cfg Config) {
	l.DebugContext(ctx, "selector configured",
		"k", cfg.K,
		"direction", cfg.Direction.String(),
		"lanes", cfg.Lanes,
		"num_thread_q", cfg.NumThreadQ,
		"num_warp_q", cfg.NumWarpQ,
		"block_threads", cfg.BlockThreads,
	)
}

// LogSelect logs a single row selection.
func (l *Logger) LogSelect(ctx context.Context, candidates, k int, merges uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "select failed",
			"candidates", candidates,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "select completed",
			"candidates", candidates,
			"k", k,
			"merges", merges,
		)
	}
}

// LogBatch logs a batch selection.
func (l *Logger) LogBatch(ctx context.Context, rows, candidates int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch select failed",
			"rows", rows,
			"candidates", candidates,
			"elapsed", elapsed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "batch select completed",
			"rows", rows,
			"candidates", candidates,
			"elapsed", elapsed,
		)
	}
}
