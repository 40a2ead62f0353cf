package facekit

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with facekit-specific helpers so operations
// log with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses the default text handler to stderr.
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
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogRecognize logs the outcome of a recognition run.
func (l *Logger) LogRecognize(ctx context.Context, runID string, detected, recognized int, galleryVersion uint64, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recognize failed",
			"run_id", runID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "recognize completed",
			"run_id", runID,
			"detected", detected,
			"recognized", recognized,
			"gallery_version", galleryVersion,
			"duration", duration,
		)
	}
}

// LogFaceDegraded logs a per-face failure that degraded the face to
// unknown instead of failing the run.
func (l *Logger) LogFaceDegraded(ctx context.Context, runID string, faceIndex int, stage string, err error) {
	l.WarnContext(ctx, "face degraded to unknown",
		"run_id", runID,
		"face", faceIndex,
		"stage", stage,
		"error", err,
	)
}

// LogTruncation logs that a run processed fewer faces than were found.
func (l *Logger) LogTruncation(ctx context.Context, runID string, found, kept int) {
	l.WarnContext(ctx, "detected faces truncated",
		"run_id", runID,
		"found", found,
		"kept", kept,
	)
}

// LogEnroll logs an enrollment preparation.
func (l *Logger) LogEnroll(ctx context.Context, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "enrollment failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "enrollment descriptor prepared",
			"duration", duration,
		)
	}
}

// LogPublish logs a gallery publish.
func (l *Logger) LogPublish(ctx context.Context, version uint64, size int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "gallery publish failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "gallery published",
			"version", version,
			"entries", size,
			"duration", duration,
		)
	}
}

// LogHistoryAppend logs a best-effort history append.
func (l *Logger) LogHistoryAppend(ctx context.Context, runID string, err error) {
	if err != nil {
		l.WarnContext(ctx, "history append failed",
			"run_id", runID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "history appended",
			"run_id", runID,
		)
	}
}
