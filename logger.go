package silo

import (
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with silo-specific field helpers so that log
// lines carry consistent field names across the build and query paths.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. If handler is nil, a
// text handler to stderr at info level is used.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithPartition adds a partition id field.
func (l *Logger) WithPartition(id int) *Logger {
	return &Logger{Logger: l.Logger.With("partition", id)}
}

// WithSegment adds a segment name field.
func (l *Logger) WithSegment(name string) *Logger {
	return &Logger{Logger: l.Logger.With("segment", name)}
}

// LogQuery logs one query execution with its timing split.
func (l *Logger) LogQuery(query string, filterTime, actionTime time.Duration, err error) {
	if err != nil {
		l.Error("query failed",
			"query", query,
			"error", err,
		)
		return
	}
	l.Debug("query executed",
		"query", query,
		"filter_us", filterTime.Microseconds(),
		"action_us", actionTime.Microseconds(),
	)
}

// LogBuild logs the completion of a database build.
func (l *Logger) LogBuild(partitions int, sequenceCount uint32, took time.Duration) {
	l.Info("database build completed",
		"partitions", partitions,
		"sequences", sequenceCount,
		"took", took,
	)
}
