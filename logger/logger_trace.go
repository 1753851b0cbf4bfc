//go:build debug_trace
// +build debug_trace

package logger

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Tracef is just a shorthand for Logf(ctx, logger.LevelTrace, ...)
func Tracef(ctx context.Context, format string, args ...any) {
	logger.Tracef(ctx, format, args...)
}

// IsTraceEnabled reports whether the logger of the context emits trace messages.
func IsTraceEnabled(ctx context.Context) bool {
	return IsEnabled(ctx, LevelTrace)
}
