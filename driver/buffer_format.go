package driver

import (
	"fmt"
)

type BufferFormat uint32

const (
	BufferFormatUndefined = BufferFormat(iota)

	// BufferFormatABGR is 8 bits per channel RGBA laid out in memory
	// as R, G, B, A (so a little-endian 32-bit word reads as ABGR).
	BufferFormatABGR

	// BufferFormatARGB is laid out in memory as B, G, R, A.
	BufferFormatARGB
)

func (f BufferFormat) String() string {
	switch f {
	case BufferFormatUndefined:
		return "undefined"
	case BufferFormatABGR:
		return "abgr"
	case BufferFormatARGB:
		return "argb"
	}
	return fmt.Sprintf("unknown_%d", uint32(f))
}

func (f BufferFormat) BytesPerPixel() uint32 {
	switch f {
	case BufferFormatABGR, BufferFormatARGB:
		return 4
	}
	return 0
}

// MinPitch is the smallest row stride able to hold "width" pixels.
func (f BufferFormat) MinPitch(width uint32) uint64 {
	return uint64(width) * uint64(f.BytesPerPixel())
}
