package gpuenc

import (
	"context"
	"errors"

	"github.com/xaionaro-go/gpuenc/logger"
)

// Flush drains every frame still inside the encoder, delivering the
// chunks to the sink, and then reopens the session from scratch with the
// same configuration: counters and chunk indices restart at zero and the
// next frame is an IDR frame. Buffer changes, so it must be re-read.
//
// Flush recovers a faulted session (its pending output is dropped).
// Flushing a session with no frames submitted does nothing.
//
// The result says whether any chunk was delivered.
func (s *Session) Flush(ctx context.Context) (_ret bool, _err error) {
	ctx = s.ctxWithFields(ctx)
	logger.Debugf(ctx, "Flush")
	defer func() { logger.Debugf(ctx, "/Flush: %t %v", _ret, _err) }()

	var drainErr error
	switch s.state {
	case StateClosed:
		return false, ErrClosed{}
	case StateReady:
		return false, nil
	case StateSubmitting:
		_ret, drainErr = s.drainToEnd(ctx)
	case StateFaulted:
		logger.Warnf(ctx, "flushing a faulted session, the pending output is dropped: %v", s.faultCause)
	}

	releaseErr := s.release(ctx)
	if releaseErr != nil {
		logger.Errorf(ctx, "%v", releaseErr)
	}
	s.resetCounters()

	if err := s.acquire(ctx); err != nil {
		return _ret, errors.Join(drainErr, releaseErr, err)
	}
	return _ret, errors.Join(drainErr, releaseErr)
}
