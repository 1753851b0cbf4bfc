package simulated

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/logger"
)

type registration struct {
	ptr    driver.DevicePointer
	pitch  uint32
	width  uint32
	height uint32
}

type bitstreamBuffer struct {
	locked bool
}

type encodedFrame struct {
	payload     []byte
	timestamp   uint64
	duration    uint64
	frameIndex  uint64
	pictureType driver.PictureType
}

type encodeSession struct {
	gpu           *Context
	params        *driver.InitializeParams
	depth         uint32
	registrations map[driver.RegistrationHandle]registration
	bitstreams    map[driver.BitstreamHandle]*bitstreamBuffer
	pending       []encodedFrame
	ready         []encodedFrame
	frameCount    uint64
	sinceIDR      uint64
	eos           bool
}

func newEncodeSession(gpu *Context) *encodeSession {
	return &encodeSession{
		gpu:           gpu,
		registrations: map[driver.RegistrationHandle]registration{},
		bitstreams:    map[driver.BitstreamHandle]*bitstreamBuffer{},
	}
}

func (s *encodeSession) initialize(
	params *driver.InitializeParams,
	depth uint32,
) error {
	if s.params != nil {
		return driver.ErrInvalidState{Reason: "the encoder is already initialized"}
	}
	switch params.Codec {
	case driver.CodecIDH264, driver.CodecIDHEVC:
	default:
		return driver.ErrUnsupported{Err: fmt.Errorf("codec %d", params.Codec)}
	}
	if params.Width == 0 || params.Height == 0 {
		return driver.ErrInvalidParam{Param: "dimensions", Err: fmt.Errorf("%dx%d", params.Width, params.Height)}
	}
	if params.FrameRateNum == 0 || params.FrameRateDen == 0 {
		return driver.ErrInvalidParam{Param: "frame rate", Err: fmt.Errorf("%d/%d", params.FrameRateNum, params.FrameRateDen)}
	}
	if params.BFrames != 0 {
		return driver.ErrUnsupported{Err: fmt.Errorf("B-frames are not supported")}
	}
	p := *params
	s.params = &p
	s.depth = depth
	return nil
}

func (s *encodeSession) encode(
	ctx context.Context,
	params *driver.PictureParams,
) error {
	if s.params == nil {
		return driver.ErrInvalidState{Reason: "the encoder is not initialized"}
	}
	if s.eos {
		return driver.ErrInvalidState{Reason: "the end of stream was already signalled"}
	}
	if params.Flags&driver.EncodeFlagEOS != 0 {
		s.eos = true
		s.ready = append(s.ready, s.pending...)
		s.pending = nil
		return nil
	}

	reg, ok := s.registrations[params.InputResource]
	if !ok {
		return driver.ErrInvalidHandle{Kind: "registration", Handle: uintptr(params.InputResource)}
	}
	if reg.ptr != params.InputBuffer {
		return driver.ErrInvalidParam{Param: "input buffer", Err: fmt.Errorf("%s is not the registered resource %s", params.InputBuffer, reg.ptr)}
	}
	if _, ok := s.bitstreams[params.OutputBitstream]; !ok {
		return driver.ErrInvalidHandle{Kind: "bitstream", Handle: uintptr(params.OutputBitstream)}
	}
	if params.Width != s.params.Width || params.Height != s.params.Height {
		return driver.ErrInvalidParam{Param: "dimensions", Err: fmt.Errorf("%dx%d != %dx%d", params.Width, params.Height, s.params.Width, s.params.Height)}
	}
	mem := s.gpu.Memory(reg.ptr)
	if uint64(len(mem)) < uint64(params.Pitch)*uint64(params.Height) {
		return driver.ErrInvalidParam{Param: "pitch", Err: fmt.Errorf("%d rows of %d bytes do not fit %d bytes", params.Height, params.Pitch, len(mem))}
	}

	var sum uint32
	rowSize := params.Format.MinPitch(params.Width)
	for y := uint32(0); y < params.Height; y++ {
		row := mem[uint64(y)*uint64(params.Pitch):][:rowSize]
		sum = checksum(append(binary.LittleEndian.AppendUint32(nil, sum), row...))
	}

	isIDR := s.frameCount == 0 ||
		params.Flags&driver.EncodeFlagForceIDR != 0 ||
		(s.params.GOPLength != driver.InfiniteGOP && s.params.GOPLength > 0 && s.sinceIDR >= uint64(s.params.GOPLength))
	withParameterSets := isIDR && (s.frameCount == 0 ||
		params.Flags&driver.EncodeFlagOutputParameterSets != 0 ||
		s.params.Flags&driver.InitFlagRepeatParameterSets != 0)

	frame := encodedFrame{
		timestamp:   params.InputTimeStamp,
		duration:    params.InputDuration,
		frameIndex:  s.frameCount,
		pictureType: driver.PictureTypeP,
	}
	if isIDR {
		frame.pictureType = driver.PictureTypeIDR
		s.sinceIDR = 0
	}
	frame.payload = s.accessUnit(isIDR, withParameterSets, frame.frameIndex, sum)
	s.frameCount++
	s.sinceIDR++
	logger.Tracef(ctx, "frame #%d: %s, %d bytes, checksum 0x%08X", frame.frameIndex, frame.pictureType, len(frame.payload), sum)

	s.pending = append(s.pending, frame)
	for uint32(len(s.pending)) > s.depth {
		s.ready = append(s.ready, s.pending[0])
		s.pending = s.pending[1:]
	}
	return nil
}

func (s *encodeSession) lock(params *driver.LockBitstreamParams) ([]byte, error) {
	b, ok := s.bitstreams[params.OutputBitstream]
	if !ok {
		return nil, driver.ErrInvalidHandle{Kind: "bitstream", Handle: uintptr(params.OutputBitstream)}
	}
	if b.locked {
		return nil, driver.ErrInvalidState{Reason: "the bitstream buffer is already locked"}
	}
	if len(s.ready) == 0 {
		return nil, driver.ErrNoOutput
	}
	frame := s.ready[0]
	s.ready = s.ready[1:]
	b.locked = true

	params.OutputTimeStamp = frame.timestamp
	params.OutputDuration = frame.duration
	params.FrameIndex = frame.frameIndex
	params.BitstreamSize = uint32(len(frame.payload))
	params.PictureType = frame.pictureType
	return frame.payload, nil
}

func (s *encodeSession) unlock(h driver.BitstreamHandle) error {
	b, ok := s.bitstreams[h]
	if !ok {
		return driver.ErrInvalidHandle{Kind: "bitstream", Handle: uintptr(h)}
	}
	if !b.locked {
		return driver.ErrInvalidState{Reason: "the bitstream buffer is not locked"}
	}
	b.locked = false
	return nil
}
