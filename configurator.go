package gpuenc

import (
	"context"
	"fmt"

	"github.com/asticode/go-astikit"
	"github.com/davecgh/go-spew/spew"
	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/internal"
	"github.com/xaionaro-go/gpuenc/logger"
	"github.com/xaionaro-go/xcontext"
)

// acquire opens the encoder session, binds the input buffer and creates
// the output bitstream. Either everything is acquired and the session is
// Ready, or nothing is held and it is Unconfigured.
func (s *Session) acquire(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "acquire")
	defer func() { logger.Tracef(ctx, "/acquire: %v", _err) }()
	internal.Assert(ctx, s.closer == nil, "resources are already acquired")

	closer := astikit.NewCloser()
	defer func() {
		if _err == nil {
			return
		}
		logger.Debugf(ctx, "got an error, releasing what was acquired: %v", _err)
		if err := closer.Close(); err != nil {
			logger.Errorf(ctx, "unable to release partially acquired resources: %v", err)
		}
		s.forgetHandles()
		s.state = StateUnconfigured
	}()

	if err := s.openEncoder(ctx, closer); err != nil {
		return err
	}
	if err := s.bindInputBuffer(ctx, closer); err != nil {
		return err
	}
	if err := s.createBitstream(ctx, closer); err != nil {
		return err
	}

	s.closer = closer
	s.faultCause = nil
	s.resetCounters()
	s.state = StateReady
	return nil
}

// release destroys all hardware resources of the session.
func (s *Session) release(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "release")
	defer func() { logger.Tracef(ctx, "/release: %v", _err) }()
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	s.forgetHandles()
	s.state = StateUnconfigured
	if err != nil {
		return fmt.Errorf("unable to release the hardware resources: %w", err)
	}
	return nil
}

func (s *Session) forgetHandles() {
	s.handle = 0
	s.buffer = 0
	s.pitch = 0
	s.bufferSize = 0
	s.registration = 0
	s.bitstream = 0
}

func (s *Session) openEncoder(ctx context.Context, closer *astikit.Closer) error {
	open := driver.Scratch[driver.OpenSessionParams](s.scratch)
	open.Version = driver.OpenSessionParamsVersion
	open.APIVersion = driver.APIVersion
	open.DeviceType = driver.DeviceTypeCUDA
	handle, err := s.driver.OpenSession(ctx, s.gpu, open)
	if err != nil {
		return ConfigurationError{Op: "open an encode session", Err: err}
	}
	// release closures must not capture s, otherwise s reaches itself
	// through s.closer and its finalizer never runs
	drv, releaseCtx := s.driver, xcontext.DetachDone(ctx)
	closer.AddWithError(func() error {
		return drv.DestroySession(releaseCtx, handle)
	})
	s.handle = handle

	init := driver.Scratch[driver.InitializeParams](s.scratch)
	s.config.fillInitializeParams(init)
	if logger.IsTraceEnabled(ctx) {
		logger.Tracef(ctx, "initialize params: %s", spew.Sdump(*init))
	}
	if err := s.driver.InitializeEncoder(ctx, handle, init); err != nil {
		return ConfigurationError{Op: "initialize the encoder", Err: err}
	}
	return nil
}

func (s *Session) createBitstream(ctx context.Context, closer *astikit.Closer) error {
	params := driver.Scratch[driver.CreateBitstreamParams](s.scratch)
	params.Version = driver.CreateBitstreamParamsVersion
	params.Size = s.bufferSize
	bitstream, err := s.driver.CreateBitstreamBuffer(ctx, s.handle, params)
	if err != nil {
		return ConfigurationError{Op: "create the output bitstream", Err: err}
	}
	drv, handle, releaseCtx := s.driver, s.handle, xcontext.DetachDone(ctx)
	closer.AddWithError(func() error {
		return drv.DestroyBitstreamBuffer(releaseCtx, handle, bitstream)
	})
	s.bitstream = bitstream
	return nil
}
