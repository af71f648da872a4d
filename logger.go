package abruijn

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with abruijn-specific context.
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

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithK adds the k-mer length to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithWorkDir adds the index directory to the logger.
func (l *Logger) WithWorkDir(dir string) *Logger {
	return &Logger{
		Logger: l.Logger.With("workdir", dir),
	}
}

// LogPass logs one pass over the reads of a graph build.
func (l *Logger) LogPass(ctx context.Context, pass string, reads int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "pass failed",
			"pass", pass,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "pass completed",
			"pass", pass,
			"reads", reads,
			"duration", duration,
		)
	}
}

// LogStage logs one stage of an index build.
func (l *Logger) LogStage(ctx context.Context, stage string, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "stage failed",
			"stage", stage,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "stage completed",
			"stage", stage,
			"duration", duration,
		)
	}
}

// LogCondense logs a condensation run.
func (l *Logger) LogCondense(ctx context.Context, merges, vertices int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "condense failed",
			"merges", merges,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "condense completed",
			"merges", merges,
			"vertices", vertices,
		)
	}
}
