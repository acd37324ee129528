// Package log provides structured logging for salecast training and
// prediction flows.
//
// It defines a minimal slog-compatible Logger interface plus the standard
// attribute keys used across the module, so trainer, estimators, and the web
// app emit uniform, analyzable records. The default implementation is a JSON
// slog handler wrapped so cockroachdb/errors stack traces surface as a
// dedicated attribute.
//
// Example:
//
//	logger := log.GetLoggerWithName("automl").With(
//	    log.RunIDKey, runID,
//	)
//	logger.Info("training started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 1000,
//	)
package log

import (
	"context"
)

// Logger is a structured logging interface compatible with log/slog.
// Fields are alternating key/value pairs, as in slog.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs conditions that do not stop the run.
	Warn(msg string, fields ...any)

	// Error logs failures. Pass the error under ErrAttrKey so the handler
	// can extract its stack trace.
	Error(msg string, fields ...any)

	// With returns a logger that includes fields in every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted. Use it to
	// skip expensive attribute construction.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level, value-compatible with slog.Level.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
