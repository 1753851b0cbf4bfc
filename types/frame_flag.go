package types

import (
	"fmt"
)

// FrameFlag is a per-submission request to the encoder.
type FrameFlag int

const (
	FrameFlagNone = FrameFlag(iota)

	// FrameFlagIDR asks the encoder to make this frame an IDR picture
	// (and to repeat the parameter sets in front of it).
	FrameFlagIDR
)

func (f FrameFlag) String() string {
	switch f {
	case FrameFlagNone:
		return "none"
	case FrameFlagIDR:
		return "idr"
	}
	return fmt.Sprintf("unknown_%d", int(f))
}
