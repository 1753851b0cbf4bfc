// Package internal holds helpers shared by gpuenc packages but not exported.
package internal

import (
	"context"

	"github.com/xaionaro-go/gpuenc/logger"
)

// Assert panics (through the logger, so the message is flushed with the
// context fields) if mustBeTrue is false.
func Assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	if mustBeTrue {
		return
	}

	logger.Panic(ctx, "assertion failed", extraArgs)
}
