package gpuenc

import (
	"context"
	"errors"

	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/logger"
	"github.com/xaionaro-go/gpuenc/types"
)

// Submit encodes the current content of Buffer as the next frame.
//
// The encoder keeps a few frames in flight, so the result says whether
// this call delivered at least one chunk to the sink, not whether the
// frame itself was encoded already. The first frame after (re)opening is
// always an IDR frame, regardless of flag.
//
// A hardware failure puts the session into StateFaulted and is returned
// as EncodeFailure.
func (s *Session) Submit(
	ctx context.Context,
	flag types.FrameFlag,
) (_ret bool, _err error) {
	logger.Tracef(ctx, "Submit(ctx, %s)", flag)
	defer func() { logger.Tracef(ctx, "/Submit(ctx, %s): %t %v", flag, _ret, _err) }()

	if err := s.checkSubmittable(); err != nil {
		return false, err
	}

	frameIndex := s.framesEncoded.Load()
	period := s.config.framePeriod()

	pic := driver.Scratch[driver.PictureParams](s.scratch)
	pic.Version = driver.PictureParamsVersion
	pic.Width = s.config.Resolution.Width
	pic.Height = s.config.Resolution.Height
	pic.Pitch = s.pitch
	pic.Format = inputBufferFormat
	pic.InputBuffer = s.buffer
	pic.InputResource = s.registration
	pic.OutputBitstream = s.bitstream
	pic.InputTimeStamp = frameIndex * period
	pic.InputDuration = period
	if flag == types.FrameFlagIDR || frameIndex == 0 {
		pic.Flags |= driver.EncodeFlagForceIDR | driver.EncodeFlagOutputParameterSets
	}

	if err := s.driver.EncodePicture(ctx, s.handle, pic); err != nil {
		return false, s.fault(ctx, EncodeFailure{Op: "encode a picture", Err: err})
	}
	s.framesEncoded.Inc()
	s.state = StateSubmitting

	return s.drain(ctx)
}

func (s *Session) checkSubmittable() error {
	switch s.state {
	case StateReady, StateSubmitting:
		return nil
	case StateFaulted:
		return ErrFaulted{Cause: s.faultCause}
	case StateClosed:
		return ErrClosed{}
	default:
		return ErrNotConfigured{}
	}
}

// drain hands every payload the encoder has finished to the emitter, in
// the order the encoder produced them.
func (s *Session) drain(ctx context.Context) (_ret bool, _err error) {
	for {
		lock := driver.Scratch[driver.LockBitstreamParams](s.scratch)
		lock.Version = driver.LockBitstreamParamsVersion
		lock.OutputBitstream = s.bitstream
		payload, err := s.driver.LockBitstream(ctx, s.handle, lock)
		switch {
		case err == nil:
		case errors.Is(err, driver.ErrNoOutput):
			return _ret, nil
		default:
			return _ret, s.fault(ctx, EncodeFailure{Op: "lock the output bitstream", Err: err})
		}

		// the sink must not call into the session, so the scratch
		// buffer (and "lock") stays intact while emitting
		s.emit(ctx, payload, lock)
		_ret = true

		if err := s.driver.UnlockBitstream(ctx, s.handle, s.bitstream); err != nil {
			return _ret, s.fault(ctx, EncodeFailure{Op: "unlock the output bitstream", Err: err})
		}
	}
}

// drainToEnd tells the encoder there will be no more frames and drains
// everything it still holds.
func (s *Session) drainToEnd(ctx context.Context) (bool, error) {
	eos := driver.Scratch[driver.PictureParams](s.scratch)
	eos.Version = driver.PictureParamsVersion
	eos.Flags = driver.EncodeFlagEOS
	eos.OutputBitstream = s.bitstream
	if err := s.driver.EncodePicture(ctx, s.handle, eos); err != nil {
		return false, s.fault(ctx, EncodeFailure{Op: "signal the end of the stream", Err: err})
	}
	return s.drain(ctx)
}

func (s *Session) fault(ctx context.Context, err error) error {
	logger.Errorf(ctx, "the session is faulted: %v", err)
	s.state = StateFaulted
	s.faultCause = err
	return err
}
