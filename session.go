package gpuenc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asticode/go-astikit"
	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/google/uuid"
	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/internal"
	"github.com/xaionaro-go/gpuenc/logger"
	"github.com/xaionaro-go/gpuenc/types"
	"github.com/xaionaro-go/xcontext"
)

// Session is one open hardware encode context together with its input
// buffer and output bitstream. It must be closed with Close.
type Session struct {
	noCopy noCopy

	id      uuid.UUID
	config  Config
	driver  driver.Driver
	gpu     driver.GPUContext
	sink    Sink
	scratch *driver.ScratchBuffer

	state      State
	faultCause error

	// closer releases everything listed below, in reverse order of acquisition.
	closer       *astikit.Closer
	handle       driver.SessionHandle
	buffer       driver.DevicePointer
	pitch        uint32
	bufferSize   uint64
	registration driver.RegistrationHandle
	bitstream    driver.BitstreamHandle

	counters
}

// Open configures the hardware encoder and returns a session in the
// Ready state. gpu must outlive the session. sink may be nil.
//
// On failure no resources stay allocated and the error is a ConfigurationError.
func Open(
	ctx context.Context,
	cfg Config,
	drv driver.Driver,
	gpu driver.GPUContext,
	sink Sink,
) (_ret *Session, _err error) {
	if err := cfg.Validate(); err != nil {
		return nil, ConfigurationError{Op: "validate the configuration", Err: err}
	}
	if drv == nil {
		return nil, ConfigurationError{Op: "validate the configuration", Err: errors.New("driver is not set")}
	}

	s := &Session{
		id:      uuid.New(),
		config:  cfg,
		driver:  drv,
		gpu:     gpu,
		sink:    sink,
		scratch: driver.NewScratchBuffer(),
	}
	ctx = s.ctxWithFields(ctx)
	logger.Debugf(ctx, "Open(ctx, %s, %s, %v)", cfg, drv, gpu)
	defer func() { logger.Debugf(ctx, "/Open(ctx, %s, %s, %v): %v", cfg, drv, gpu, _err) }()

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	internal.SetFinalizerClose(xcontext.DetachDone(ctx), s)
	return s, nil
}

func (s *Session) ctxWithFields(ctx context.Context) context.Context {
	ctx = belt.WithField(ctx, "session_id", s.id.String())
	ctx = belt.WithField(ctx, "codec", s.config.Codec.String())
	ctx = belt.WithField(ctx, "resolution", s.config.Resolution.String())
	return ctx
}

// Close drains the frames still inside the encoder (delivering them to
// the sink) and releases all hardware resources. The session cannot be
// used afterwards. Closing a closed session is a no-op.
func (s *Session) Close(ctx context.Context) (_err error) {
	if s.state == StateClosed {
		return nil
	}
	ctx = s.ctxWithFields(ctx)
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	internal.ClearFinalizer(s)

	var drainErr error
	if s.state == StateSubmitting {
		_, drainErr = s.drainToEnd(ctx)
	}
	releaseErr := s.release(ctx)
	s.state = StateClosed
	return errors.Join(drainErr, releaseErr)
}

// SetSink replaces the sink starting from the next chunk. It must not
// be called from inside a sink.
func (s *Session) SetSink(sink Sink) {
	s.sink = sink
}

// Buffer is the device address the caller renders RGBA pixels into
// before every Submit. Rows are Pitch bytes apart. The buffer is
// re-created by Flush, so the address must be re-read after it.
func (s *Session) Buffer() driver.DevicePointer {
	return s.buffer
}

// Pitch is the distance in bytes between the starts of two rows of Buffer.
func (s *Session) Pitch() uint32 {
	return s.pitch
}

func (s *Session) BufferSize() uint64 {
	return s.bufferSize
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Config() Config {
	return s.config
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Width() uint32 {
	return s.config.Resolution.Width
}

func (s *Session) Height() uint32 {
	return s.config.Resolution.Height
}

func (s *Session) Codec() types.Codec {
	return s.config.Codec
}

// FPS is only an estimate for display purposes, see FPSExact.
func (s *Session) FPS() float64 {
	return s.config.FrameRate.Float64()
}

func (s *Session) FPSExact() types.Rational {
	return s.config.FrameRate
}

// TotalBytes is the amount of bitstream emitted since the last (re)open.
func (s *Session) TotalBytes() uint64 {
	return s.bytesEncoded.Load()
}

// TotalFrames is the amount of frames submitted since the last (re)open.
func (s *Session) TotalFrames() uint64 {
	return s.framesEncoded.Load()
}

// Time is the stream time of the submitted frames.
func (s *Session) Time() time.Duration {
	return s.config.FrameRate.DurationOf(s.TotalFrames())
}

// Seconds is TotalFrames divided by FPS.
func (s *Session) Seconds() float64 {
	return float64(s.TotalFrames()) / s.FPS()
}

func (s *Session) String() string {
	return fmt.Sprintf(
		"Session(%s, %s, %s, frames:%d, %s)",
		s.id, s.config, s.state, s.TotalFrames(), humanize.Bytes(s.TotalBytes()),
	)
}
