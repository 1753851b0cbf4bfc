package libav

import (
	"context"
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/logger"
)

// maxSendAttempts bounds how many packets are moved to the backlog when
// the encoder refuses a frame because its output queue is full.
const maxSendAttempts = 16

type bitstreamBuffer struct {
	packet *astiav.Packet
	locked bool
}

type encodeSession struct {
	gpu           *Context
	closer        *astikit.Closer
	codecContext  *astiav.CodecContext
	registrations map[driver.RegistrationHandle]*astiav.Frame
	bitstreams    map[driver.BitstreamHandle]*bitstreamBuffer

	// backlog keeps packets received while making room for a frame.
	backlog     []*astiav.Packet
	durations   map[int64]uint64
	outputCount uint64
	eos         bool
}

func (s *encodeSession) encode(
	ctx context.Context,
	params *driver.PictureParams,
) error {
	if s.codecContext == nil {
		return driver.ErrInvalidState{Reason: "the encoder is not initialized"}
	}
	if s.eos {
		return driver.ErrInvalidState{Reason: "the end of stream was already signalled"}
	}
	if params.Flags&driver.EncodeFlagEOS != 0 {
		s.eos = true
		return s.send(ctx, nil)
	}

	f, ok := s.registrations[params.InputResource]
	if !ok {
		return driver.ErrInvalidHandle{Kind: "registration", Handle: uintptr(params.InputResource)}
	}
	if devicePointerOf(f) != params.InputBuffer {
		return driver.ErrInvalidParam{Param: "input buffer", Err: fmt.Errorf("%s is not the registered resource", params.InputBuffer)}
	}

	f.SetPts(int64(params.InputTimeStamp))
	if params.Flags&driver.EncodeFlagForceIDR != 0 {
		f.SetPictureType(astiav.PictureTypeI)
	} else {
		f.SetPictureType(astiav.PictureTypeNone)
	}
	if s.durations == nil {
		s.durations = map[int64]uint64{}
	}
	s.durations[int64(params.InputTimeStamp)] = params.InputDuration
	return s.send(ctx, f)
}

func (s *encodeSession) send(ctx context.Context, f *astiav.Frame) error {
	for attempt := 0; attempt < maxSendAttempts; attempt++ {
		err := s.codecContext.SendFrame(f)
		if !errors.Is(err, astiav.ErrEagain) {
			if err != nil {
				return fmt.Errorf("unable to send the frame to the encoder: %w", err)
			}
			return nil
		}

		logger.Debugf(ctx, "the encoder is full, moving a packet to the backlog")
		pkt := astiav.AllocPacket()
		if err := s.codecContext.ReceivePacket(pkt); err != nil {
			pkt.Free()
			return fmt.Errorf("the encoder refuses both input and output: %w", err)
		}
		s.backlog = append(s.backlog, pkt)
	}
	return driver.ErrInvalidState{Reason: "the encoder does not accept frames"}
}

func (s *encodeSession) lock(
	ctx context.Context,
	params *driver.LockBitstreamParams,
) ([]byte, error) {
	b, ok := s.bitstreams[params.OutputBitstream]
	if !ok {
		return nil, driver.ErrInvalidHandle{Kind: "bitstream", Handle: uintptr(params.OutputBitstream)}
	}
	if b.locked {
		return nil, driver.ErrInvalidState{Reason: "the bitstream buffer is already locked"}
	}
	if s.codecContext == nil {
		return nil, driver.ErrInvalidState{Reason: "the encoder is not initialized"}
	}

	if len(s.backlog) > 0 {
		b.packet.Free()
		b.packet = s.backlog[0]
		s.backlog = s.backlog[1:]
	} else {
		err := s.codecContext.ReceivePacket(b.packet)
		switch {
		case err == nil:
		case errors.Is(err, astiav.ErrEagain), errors.Is(err, astiav.ErrEof):
			return nil, driver.ErrNoOutput
		default:
			return nil, fmt.Errorf("unable to receive a packet: %w", err)
		}
	}
	b.locked = true

	pkt := b.packet
	pts := pkt.Pts()
	duration, ok := s.durations[pts]
	if ok {
		delete(s.durations, pts)
	} else {
		duration = uint64(pkt.Duration())
	}
	params.OutputTimeStamp = uint64(pts)
	params.OutputDuration = duration
	params.FrameIndex = s.outputCount
	params.PictureType = driver.PictureTypeP
	if pkt.Flags().Has(astiav.PacketFlagKey) {
		params.PictureType = driver.PictureTypeIDR
	}
	data := pkt.Data()
	params.BitstreamSize = uint32(len(data))
	s.outputCount++
	logger.Tracef(ctx, "received a packet: pts %d, %d bytes, %s", pts, len(data), params.PictureType)
	return data, nil
}

func (s *encodeSession) unlock(h driver.BitstreamHandle) error {
	b, ok := s.bitstreams[h]
	if !ok {
		return driver.ErrInvalidHandle{Kind: "bitstream", Handle: uintptr(h)}
	}
	if !b.locked {
		return driver.ErrInvalidState{Reason: "the bitstream buffer is not locked"}
	}
	b.packet.Unref()
	b.locked = false
	return nil
}
