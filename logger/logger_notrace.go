//go:build !debug_trace
// +build !debug_trace

// Trace-level logging is compiled out unless the debug_trace build tag is set:
// it is emitted on every submitted frame.

package logger

import (
	"context"
)

// Tracef is just a shorthand for Logf(ctx, logger.LevelTrace, ...)
func Tracef(ctx context.Context, format string, args ...any) {}

// IsTraceEnabled is false in builds without the debug_trace tag.
func IsTraceEnabled(ctx context.Context) bool {
	return false
}
