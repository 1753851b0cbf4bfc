package internal

import (
	"context"
	"runtime"

	"github.com/xaionaro-go/gpuenc/logger"
	"github.com/xaionaro-go/gpuenc/types"
)

// SetFinalizerClose arranges for obj to be closed if it is garbage
// collected while still holding resources. Calling ClearFinalizer after
// an explicit close disables it.
func SetFinalizerClose[T types.Closer](
	ctx context.Context,
	obj T,
) {
	runtime.SetFinalizer(obj, func(obj T) {
		logger.Debugf(ctx, "%T was not closed explicitly, closing it in the finalizer", obj)
		if err := obj.Close(ctx); err != nil {
			logger.Errorf(ctx, "unable to close %T in the finalizer: %v", obj, err)
		}
	})
}

func ClearFinalizer[T any](obj T) {
	runtime.SetFinalizer(obj, nil)
}
