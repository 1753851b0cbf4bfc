package gpuenc

import (
	"context"

	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/logger"
	"github.com/xaionaro-go/xcontext"
)

// bindInputBuffer allocates the device buffer the caller renders into
// and registers it with the encode session, so the encoder reads frames
// straight from GPU memory.
func (s *Session) bindInputBuffer(ctx context.Context, closer *astikit.Closer) error {
	width, height := s.config.Resolution.Width, s.config.Resolution.Height

	alloc := driver.Scratch[driver.AllocBufferParams](s.scratch)
	alloc.Version = driver.AllocBufferParamsVersion
	alloc.Width = width
	alloc.Height = height
	alloc.Format = inputBufferFormat
	ptr, err := s.driver.AllocDeviceBuffer(ctx, s.gpu, alloc)
	if err != nil {
		return ConfigurationError{Op: "allocate the input buffer", Err: err}
	}
	pitch, size := alloc.Pitch, alloc.Size
	drv, gpu, releaseCtx := s.driver, s.gpu, xcontext.DetachDone(ctx)
	closer.AddWithError(func() error {
		return drv.FreeDeviceBuffer(releaseCtx, gpu, ptr)
	})
	if pitch == 0 {
		pitch = uint32(inputBufferFormat.MinPitch(width))
	}
	if size == 0 {
		size = uint64(pitch) * uint64(height)
	}
	logger.Debugf(ctx, "allocated the input buffer %s: pitch %d, size %d", ptr, pitch, size)

	reg := driver.Scratch[driver.RegisterResourceParams](s.scratch)
	reg.Version = driver.RegisterResourceParamsVersion
	reg.Width = width
	reg.Height = height
	reg.Pitch = pitch
	reg.Format = inputBufferFormat
	reg.Resource = ptr
	registration, err := s.driver.RegisterResource(ctx, s.handle, reg)
	if err != nil {
		return ConfigurationError{Op: "register the input buffer", Err: err}
	}
	handle := s.handle
	closer.AddWithError(func() error {
		return drv.UnregisterResource(releaseCtx, handle, registration)
	})

	s.buffer = ptr
	s.pitch = pitch
	s.bufferSize = size
	s.registration = registration
	return nil
}
