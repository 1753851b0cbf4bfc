// Package logger is the thin logging facade used across gpuenc.
//
// It forwards to go-belt, so the actual implementation (logrus, zap, …)
// is whatever was put into the context.
package logger

import (
	"context"

	"github.com/facebookincubator/go-belt/pkg/field"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
)

// Logger is just a type-alias for logger.Logger for convenience.
type Logger = logger.Logger

func SetDefault(defaultLogger func() Logger) {
	logger.Default = defaultLogger
}

// WithLogrus returns a context carrying a logrus-backed logger of the
// given level, and makes the same logger the default one.
func WithLogrus(ctx context.Context, level Level) context.Context {
	l := logrus.Default().WithLevel(level)
	SetDefault(func() Logger {
		return l
	})
	return CtxWithLogger(ctx, l)
}

// DebugFields is just a shorthand for LogFields(ctx, logger.LevelDebug, ...)
func DebugFields(ctx context.Context, message string, fields field.AbstractFields) {
	logger.DebugFields(ctx, message, fields)
}

// Debug is just a shorthand for Log(ctx, logger.LevelDebug, ...)
func Debug(ctx context.Context, values ...any) {
	logger.Debug(ctx, values...)
}

// Info is just a shorthand for Log(ctx, logger.LevelInfo, ...)
func Info(ctx context.Context, values ...any) {
	logger.Info(ctx, values...)
}

// Error is just a shorthand for Log(ctx, logger.LevelError, ...)
func Error(ctx context.Context, values ...any) {
	logger.Error(ctx, values...)
}

// Panic is just a shorthand for Log(ctx, logger.LevelPanic, ...)
//
// Be aware: Panic level also triggers a `panic`.
func Panic(ctx context.Context, values ...any) {
	logger.Panic(ctx, values...)
}

// Debugf is just a shorthand for Logf(ctx, logger.LevelDebug, ...)
func Debugf(ctx context.Context, format string, args ...any) {
	logger.Debugf(ctx, format, args...)
}

// Infof is just a shorthand for Logf(ctx, logger.LevelInfo, ...)
func Infof(ctx context.Context, format string, args ...any) {
	logger.Infof(ctx, format, args...)
}

// Warnf is just a shorthand for Logf(ctx, logger.LevelWarn, ...)
func Warnf(ctx context.Context, format string, args ...any) {
	logger.Warnf(ctx, format, args...)
}

// Errorf is just a shorthand for Logf(ctx, logger.LevelError, ...)
func Errorf(ctx context.Context, format string, args ...any) {
	logger.Errorf(ctx, format, args...)
}

// Fatalf is just a shorthand for Logf(ctx, logger.LevelFatal, ...)
//
// Be aware: Fatal level also triggers an `os.Exit`.
func Fatalf(ctx context.Context, format string, args ...any) {
	logger.Fatalf(ctx, format, args...)
}

// Logf logs an unstructured message. All contextual structured
// fields are also logged.
func Logf(ctx context.Context, level Level, format string, args ...any) {
	logger.Logf(ctx, level, format, args...)
}
