// Package simulated is a software stand-in for a hardware video encoder.
//
// It behaves like one from the point of view of a session: buffers live
// in a GPUContext, the encoder holds a configurable amount of frames
// before emitting them, IDR frames follow the GOP settings or explicit
// requests, and the output is a well-formed Annex-B stream of H.264 or
// HEVC NAL units (with synthetic slice data). Any call can be made to
// fail, to exercise error paths.
package simulated

import (
	"context"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/logger"
	"github.com/xaionaro-go/xsync"
)

const defaultPitchAlignment = 64

type Driver struct {
	locker   xsync.Mutex
	options  Options
	faults   faultState
	sessions map[driver.SessionHandle]*encodeSession
	next     uintptr
}

var _ driver.Driver = (*Driver)(nil)

func New(opts ...Option) *Driver {
	return &Driver{
		options:  opts,
		sessions: map[driver.SessionHandle]*encodeSession{},
		next:     1,
	}
}

func (d *Driver) String() string {
	return "simulated"
}

func (d *Driver) ctx() context.Context {
	return xsync.WithNoLogging(context.Background(), true)
}

func (d *Driver) newHandle() uintptr {
	h := d.next
	d.next++
	return h
}

func (d *Driver) pitchAlignment() uint32 {
	if v, ok := OptionLatest[OptionPitchAlignment](d.options); ok && v.Alignment > 0 {
		return v.Alignment
	}
	return defaultPitchAlignment
}

func gpuContext(gpu driver.GPUContext) (*Context, error) {
	c, ok := gpu.(*Context)
	if !ok || c == nil {
		return nil, driver.ErrWrongContext{Context: gpu}
	}
	return c, nil
}

func (d *Driver) AllocDeviceBuffer(
	ctx context.Context,
	gpu driver.GPUContext,
	params *driver.AllocBufferParams,
) (driver.DevicePointer, error) {
	c, err := gpuContext(gpu)
	if err != nil {
		return 0, err
	}
	bpp := params.Format.BytesPerPixel()
	if bpp == 0 {
		return 0, driver.ErrInvalidParam{Param: "format", Err: fmt.Errorf("unsupported buffer format %s", params.Format)}
	}
	if params.Width == 0 || params.Height == 0 {
		return 0, driver.ErrInvalidParam{Param: "dimensions", Err: fmt.Errorf("%dx%d", params.Width, params.Height)}
	}
	if err := xsync.DoR1(ctx, &d.locker, func() error {
		return d.faults.check(FaultPointAllocDeviceBuffer)
	}); err != nil {
		return 0, err
	}

	align := uint64(d.pitchAlignment())
	pitch := (params.Format.MinPitch(params.Width) + align - 1) / align * align
	if pitch > math.MaxUint32 {
		return 0, driver.ErrInvalidParam{Param: "dimensions", Err: fmt.Errorf("a row of %d pixels does not fit a 32-bit pitch", params.Width)}
	}
	size := pitch * uint64(params.Height)
	ptr, err := c.alloc(size)
	if err != nil {
		return 0, err
	}
	params.Pitch = uint32(pitch)
	params.Size = size
	logger.Tracef(ctx, "allocated %d bytes at %s", size, ptr)
	return ptr, nil
}

func (d *Driver) FreeDeviceBuffer(
	ctx context.Context,
	gpu driver.GPUContext,
	ptr driver.DevicePointer,
) error {
	c, err := gpuContext(gpu)
	if err != nil {
		return err
	}
	return c.free(ptr)
}

func (d *Driver) OpenSession(
	ctx context.Context,
	gpu driver.GPUContext,
	params *driver.OpenSessionParams,
) (driver.SessionHandle, error) {
	c, err := gpuContext(gpu)
	if err != nil {
		return 0, err
	}
	if params.APIVersion != driver.APIVersion {
		return 0, driver.ErrUnsupported{Err: fmt.Errorf("API version 0x%X", params.APIVersion)}
	}
	if params.DeviceType != driver.DeviceTypeCUDA {
		return 0, driver.ErrUnsupported{Err: fmt.Errorf("device type %d", params.DeviceType)}
	}
	return xsync.DoR2(ctx, &d.locker, func() (driver.SessionHandle, error) {
		if err := d.faults.check(FaultPointOpenSession); err != nil {
			return 0, err
		}
		h := driver.SessionHandle(d.newHandle())
		d.sessions[h] = newEncodeSession(c)
		return h, nil
	})
}

func (d *Driver) session(h driver.SessionHandle) (*encodeSession, error) {
	s, ok := d.sessions[h]
	if !ok {
		return nil, driver.ErrInvalidHandle{Kind: "session", Handle: uintptr(h)}
	}
	return s, nil
}

// withSession runs fn under the driver lock after checking the fault point.
func (d *Driver) withSession(
	ctx context.Context,
	h driver.SessionHandle,
	point FaultPoint,
	fn func(s *encodeSession) error,
) error {
	return xsync.DoR1(ctx, &d.locker, func() error {
		s, err := d.session(h)
		if err != nil {
			return err
		}
		if point != "" {
			if err := d.faults.check(point); err != nil {
				return err
			}
		}
		return fn(s)
	})
}

func (d *Driver) InitializeEncoder(
	ctx context.Context,
	h driver.SessionHandle,
	params *driver.InitializeParams,
) error {
	return d.withSession(ctx, h, FaultPointInitializeEncoder, func(s *encodeSession) error {
		depth := params.BufferingDepth
		if v, ok := OptionLatest[OptionPipelineDepth](d.options); ok {
			depth = v.Depth
		}
		return s.initialize(params, depth)
	})
}

func (d *Driver) DestroySession(
	ctx context.Context,
	h driver.SessionHandle,
) error {
	return xsync.DoR1(ctx, &d.locker, func() error {
		s, err := d.session(h)
		if err != nil {
			return err
		}
		delete(d.sessions, h)
		if err := d.faults.check(FaultPointDestroySession); err != nil {
			return err
		}
		if len(s.registrations) != 0 || len(s.bitstreams) != 0 {
			return driver.ErrInvalidState{Reason: fmt.Sprintf(
				"destroying a session with %d registered resources and %d bitstream buffers",
				len(s.registrations), len(s.bitstreams),
			)}
		}
		return nil
	})
}

func (d *Driver) RegisterResource(
	ctx context.Context,
	h driver.SessionHandle,
	params *driver.RegisterResourceParams,
) (driver.RegistrationHandle, error) {
	var reg driver.RegistrationHandle
	err := d.withSession(ctx, h, FaultPointRegisterResource, func(s *encodeSession) error {
		if s.gpu.Memory(params.Resource) == nil {
			return driver.ErrInvalidHandle{Kind: "device pointer", Handle: uintptr(params.Resource)}
		}
		if uint64(params.Pitch) < params.Format.MinPitch(params.Width) {
			return driver.ErrInvalidParam{Param: "pitch", Err: fmt.Errorf("%d is less than a row", params.Pitch)}
		}
		reg = driver.RegistrationHandle(d.newHandle())
		s.registrations[reg] = registration{
			ptr:    params.Resource,
			pitch:  params.Pitch,
			width:  params.Width,
			height: params.Height,
		}
		return nil
	})
	return reg, err
}

func (d *Driver) UnregisterResource(
	ctx context.Context,
	h driver.SessionHandle,
	reg driver.RegistrationHandle,
) error {
	return d.withSession(ctx, h, "", func(s *encodeSession) error {
		if _, ok := s.registrations[reg]; !ok {
			return driver.ErrInvalidHandle{Kind: "registration", Handle: uintptr(reg)}
		}
		delete(s.registrations, reg)
		return nil
	})
}

func (d *Driver) CreateBitstreamBuffer(
	ctx context.Context,
	h driver.SessionHandle,
	params *driver.CreateBitstreamParams,
) (driver.BitstreamHandle, error) {
	var b driver.BitstreamHandle
	err := d.withSession(ctx, h, FaultPointCreateBitstreamBuffer, func(s *encodeSession) error {
		b = driver.BitstreamHandle(d.newHandle())
		s.bitstreams[b] = &bitstreamBuffer{}
		return nil
	})
	return b, err
}

func (d *Driver) DestroyBitstreamBuffer(
	ctx context.Context,
	h driver.SessionHandle,
	b driver.BitstreamHandle,
) error {
	return d.withSession(ctx, h, "", func(s *encodeSession) error {
		if _, ok := s.bitstreams[b]; !ok {
			return driver.ErrInvalidHandle{Kind: "bitstream", Handle: uintptr(b)}
		}
		delete(s.bitstreams, b)
		return nil
	})
}

func (d *Driver) EncodePicture(
	ctx context.Context,
	h driver.SessionHandle,
	params *driver.PictureParams,
) error {
	return d.withSession(ctx, h, FaultPointEncodePicture, func(s *encodeSession) error {
		return s.encode(ctx, params)
	})
}

func (d *Driver) LockBitstream(
	ctx context.Context,
	h driver.SessionHandle,
	params *driver.LockBitstreamParams,
) ([]byte, error) {
	var payload []byte
	err := d.withSession(ctx, h, FaultPointLockBitstream, func(s *encodeSession) error {
		var err error
		payload, err = s.lock(params)
		return err
	})
	return payload, err
}

func (d *Driver) UnlockBitstream(
	ctx context.Context,
	h driver.SessionHandle,
	b driver.BitstreamHandle,
) error {
	return d.withSession(ctx, h, FaultPointUnlockBitstream, func(s *encodeSession) error {
		return s.unlock(b)
	})
}

// Resources counts what is still held by open sessions of the driver.
type Resources struct {
	Sessions      int
	Registrations int
	Bitstreams    int
}

func (d *Driver) Resources() Resources {
	return xsync.DoR1(d.ctx(), &d.locker, func() Resources {
		r := Resources{Sessions: len(d.sessions)}
		for _, s := range d.sessions {
			r.Registrations += len(s.registrations)
			r.Bitstreams += len(s.bitstreams)
		}
		return r
	})
}

func checksum(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}
