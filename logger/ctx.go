package logger

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
)

func FromCtx(ctx context.Context) Logger {
	return logger.FromCtx(ctx)
}

func CtxWithLogger(ctx context.Context, l Logger) context.Context {
	return logger.CtxWithLogger(ctx, l)
}

// IsEnabled reports whether messages of the level would be emitted by
// the logger of the context; used to skip building expensive dumps.
func IsEnabled(ctx context.Context, level Level) bool {
	return FromCtx(ctx).Level() >= level
}
