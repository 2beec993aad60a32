// Package observability wraps go.uber.org/zap into the small Logger shape
// the engine's components take as a constructor argument — no package-level
// loggers, per spec §9's note on eliminating global mutable state.
package observability

import (
	"go.uber.org/zap"
)

// Logger is a thin structured-logging facade. Components receive one at
// construction and call With to attach request/run-scoped fields.
type Logger struct {
	z *zap.Logger
}

// NewLogger builds a Logger for the given environment. format is "json" or
// "console"; level is any zapcore level name ("debug", "info", "warn",
// "error").
func NewLogger(level, format string) *Logger {
	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	if l, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = l
	}
	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// NewNop returns a Logger that discards everything, for tests.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// With returns a child Logger carrying the given structured fields on every
// subsequent entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...zap.Field) { l.z.Info(msg, fields...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...zap.Field) { l.z.Warn(msg, fields...) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.z.Sync() }
