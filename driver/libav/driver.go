// Package libav implements driver.Driver on top of the NVENC encoders
// of libavcodec (h264_nvenc, hevc_nvenc) fed with CUDA frames.
package libav

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/logger"
	"github.com/xaionaro-go/gpuenc/types"
	"github.com/xaionaro-go/xsync"
)

type Driver struct {
	locker   xsync.Mutex
	sessions map[driver.SessionHandle]*encodeSession
	next     uintptr
}

var _ driver.Driver = (*Driver)(nil)

func New() *Driver {
	return &Driver{
		sessions: map[driver.SessionHandle]*encodeSession{},
		next:     1,
	}
}

func (d *Driver) String() string {
	return "libav"
}

func (d *Driver) newHandle() uintptr {
	return xsync.DoR1(context.Background(), &d.locker, func() uintptr {
		h := d.next
		d.next++
		return h
	})
}

func gpuContext(gpu driver.GPUContext) (*Context, error) {
	c, ok := gpu.(*Context)
	if !ok || c == nil {
		return nil, driver.ErrWrongContext{Context: gpu}
	}
	return c, nil
}

func (d *Driver) session(ctx context.Context, h driver.SessionHandle) (*encodeSession, error) {
	s := xsync.DoR1(ctx, &d.locker, func() *encodeSession {
		return d.sessions[h]
	})
	if s == nil {
		return nil, driver.ErrInvalidHandle{Kind: "session", Handle: uintptr(h)}
	}
	return s, nil
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
	ptr, f, err := c.alloc(ctx, types.Resolution{Width: params.Width, Height: params.Height}, params.Format)
	if err != nil {
		return 0, err
	}
	params.Pitch = pitchOf(f)
	params.Size = uint64(params.Pitch) * uint64(params.Height)
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
	return c.free(ctx, ptr)
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
	h := driver.SessionHandle(d.newHandle())
	s := &encodeSession{
		gpu:           c,
		closer:        astikit.NewCloser(),
		registrations: map[driver.RegistrationHandle]*astiav.Frame{},
		bitstreams:    map[driver.BitstreamHandle]*bitstreamBuffer{},
	}
	d.locker.Do(ctx, func() {
		d.sessions[h] = s
	})
	return h, nil
}

func encoderName(codec driver.CodecID) (string, error) {
	switch codec {
	case driver.CodecIDH264:
		return "h264_nvenc", nil
	case driver.CodecIDHEVC:
		return "hevc_nvenc", nil
	}
	return "", driver.ErrUnsupported{Err: fmt.Errorf("codec %d", codec)}
}

func profileName(p driver.Profile) string {
	switch p {
	case driver.ProfileH264Baseline:
		return "baseline"
	case driver.ProfileH264Main, driver.ProfileHEVCMain:
		return "main"
	case driver.ProfileH264High:
		return "high"
	case driver.ProfileHEVCMain10:
		return "main10"
	}
	return ""
}

func rateControlName(rc driver.RateControlMode) string {
	switch rc {
	case driver.RateControlConstQP:
		return "constqp"
	case driver.RateControlCBR:
		return "cbr"
	}
	return "vbr"
}

func (d *Driver) InitializeEncoder(
	ctx context.Context,
	h driver.SessionHandle,
	params *driver.InitializeParams,
) (_err error) {
	s, err := d.session(ctx, h)
	if err != nil {
		return err
	}
	if s.codecContext != nil {
		return driver.ErrInvalidState{Reason: "the encoder is already initialized"}
	}
	name, err := encoderName(params.Codec)
	if err != nil {
		return err
	}
	codec := astiav.FindEncoderByName(name)
	if codec == nil {
		return driver.ErrUnsupported{Err: fmt.Errorf("encoder '%s' is not available in this build of libavcodec", name)}
	}
	framesContext, err := s.gpu.FramesContext(ctx, types.Resolution{Width: params.Width, Height: params.Height}, driver.BufferFormatABGR)
	if err != nil {
		return err
	}

	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return driver.ErrOutOfMemory{}
	}
	defer func() {
		if _err != nil {
			cc.Free()
		}
	}()
	cc.SetWidth(int(params.Width))
	cc.SetHeight(int(params.Height))
	cc.SetPixelFormat(astiav.PixelFormatCuda)
	cc.SetHardwareFramesContext(framesContext)
	cc.SetFramerate(astiav.NewRational(int(params.FrameRateNum), int(params.FrameRateDen)))
	cc.SetTimeBase(astiav.NewRational(1, int(params.FrameRateNum)))
	if params.GOPLength != driver.InfiniteGOP {
		cc.SetGopSize(int(params.GOPLength))
	}
	cc.SetMaxBFrames(int(params.BFrames))
	if params.RateControl != driver.RateControlConstQP {
		cc.SetBitRate(int64(params.AverageBitrate))
		cc.SetRateControlMaxRate(int64(params.MaxBitrate))
		cc.SetRateControlBufferSize(int(params.VBVBufferSize))
	}

	options := astiav.NewDictionary()
	defer options.Free()
	set := func(key, value string) {
		if err := options.Set(key, value, 0); err != nil {
			logger.Errorf(ctx, "unable to set option '%s' to '%s': %v", key, value, err)
		}
	}
	set("forced-idr", "1")
	set("rc", rateControlName(params.RateControl))
	set("delay", strconv.FormatUint(uint64(params.BufferingDepth), 10))
	if p := profileName(params.Profile); p != "" {
		set("profile", p)
	}
	if params.RateControl == driver.RateControlConstQP {
		set("qp", strconv.FormatUint(uint64(params.ConstQP), 10))
	}
	if params.Flags&driver.InitFlagLowLatency != 0 {
		set("tune", "ll")
		set("zerolatency", "1")
	}
	if err := cc.Open(codec, options); err != nil {
		return driver.ErrInvalidParam{Param: "encoder configuration", Err: fmt.Errorf("unable to open '%s': %w", name, err)}
	}
	logger.Debugf(ctx, "opened %s %dx%d", name, params.Width, params.Height)

	s.codecContext = cc
	s.closer.Add(cc.Free)
	return nil
}

func (d *Driver) DestroySession(
	ctx context.Context,
	h driver.SessionHandle,
) error {
	s, err := d.session(ctx, h)
	if err != nil {
		return err
	}
	d.locker.Do(ctx, func() {
		delete(d.sessions, h)
	})
	var result []error
	if len(s.registrations) != 0 || len(s.bitstreams) != 0 {
		result = append(result, driver.ErrInvalidState{Reason: fmt.Sprintf(
			"destroying a session with %d registered resources and %d bitstream buffers",
			len(s.registrations), len(s.bitstreams),
		)})
	}
	for _, b := range s.bitstreams {
		b.packet.Free()
	}
	for _, pkt := range s.backlog {
		pkt.Free()
	}
	if err := s.closer.Close(); err != nil {
		result = append(result, err)
	}
	return errors.Join(result...)
}

func (d *Driver) RegisterResource(
	ctx context.Context,
	h driver.SessionHandle,
	params *driver.RegisterResourceParams,
) (driver.RegistrationHandle, error) {
	s, err := d.session(ctx, h)
	if err != nil {
		return 0, err
	}
	f := s.gpu.frame(ctx, params.Resource)
	if f == nil {
		return 0, driver.ErrInvalidHandle{Kind: "device pointer", Handle: uintptr(params.Resource)}
	}
	if params.Pitch != pitchOf(f) {
		return 0, driver.ErrInvalidParam{Param: "pitch", Err: fmt.Errorf("%d != %d", params.Pitch, pitchOf(f))}
	}
	reg := driver.RegistrationHandle(d.newHandle())
	s.registrations[reg] = f
	return reg, nil
}

func (d *Driver) UnregisterResource(
	ctx context.Context,
	h driver.SessionHandle,
	reg driver.RegistrationHandle,
) error {
	s, err := d.session(ctx, h)
	if err != nil {
		return err
	}
	if _, ok := s.registrations[reg]; !ok {
		return driver.ErrInvalidHandle{Kind: "registration", Handle: uintptr(reg)}
	}
	delete(s.registrations, reg)
	return nil
}

func (d *Driver) CreateBitstreamBuffer(
	ctx context.Context,
	h driver.SessionHandle,
	params *driver.CreateBitstreamParams,
) (driver.BitstreamHandle, error) {
	s, err := d.session(ctx, h)
	if err != nil {
		return 0, err
	}
	pkt := astiav.AllocPacket()
	if pkt == nil {
		return 0, driver.ErrOutOfMemory{Size: params.Size}
	}
	b := driver.BitstreamHandle(d.newHandle())
	s.bitstreams[b] = &bitstreamBuffer{packet: pkt}
	return b, nil
}

func (d *Driver) DestroyBitstreamBuffer(
	ctx context.Context,
	h driver.SessionHandle,
	b driver.BitstreamHandle,
) error {
	s, err := d.session(ctx, h)
	if err != nil {
		return err
	}
	buf, ok := s.bitstreams[b]
	if !ok {
		return driver.ErrInvalidHandle{Kind: "bitstream", Handle: uintptr(b)}
	}
	delete(s.bitstreams, b)
	buf.packet.Free()
	return nil
}

func (d *Driver) EncodePicture(
	ctx context.Context,
	h driver.SessionHandle,
	params *driver.PictureParams,
) error {
	s, err := d.session(ctx, h)
	if err != nil {
		return err
	}
	return s.encode(ctx, params)
}

func (d *Driver) LockBitstream(
	ctx context.Context,
	h driver.SessionHandle,
	params *driver.LockBitstreamParams,
) ([]byte, error) {
	s, err := d.session(ctx, h)
	if err != nil {
		return nil, err
	}
	return s.lock(ctx, params)
}

func (d *Driver) UnlockBitstream(
	ctx context.Context,
	h driver.SessionHandle,
	b driver.BitstreamHandle,
) error {
	s, err := d.session(ctx, h)
	if err != nil {
		return err
	}
	return s.unlock(b)
}
