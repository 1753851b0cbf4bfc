package gpuenc

import (
	"context"
	"time"

	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/types"
)

// Chunk is a piece of the elementary stream, normally one access unit.
type Chunk struct {
	// Payload is Annex-B data owned by the encoder; it is valid only
	// until the Sink returns.
	Payload []byte

	// Index counts chunks since the session was (re)opened, starting at 0.
	Index uint32

	// Timestamp and Duration are expressed in TimeBase units.
	Timestamp uint64
	Duration  uint64
	TimeBase  types.Rational

	PictureType driver.PictureType
}

func (c *Chunk) IsKeyFrame() bool {
	return c.PictureType.IsKey()
}

func (c *Chunk) PTS() time.Duration {
	return c.TimeBase.Reverse().DurationOf(c.Timestamp)
}

func (c *Chunk) DurationTime() time.Duration {
	return c.TimeBase.Reverse().DurationOf(c.Duration)
}

// Sink receives chunks synchronously, in stream order. It must copy
// the payload if it needs it after returning, and it must not call
// methods of the session that invoked it.
type Sink func(ctx context.Context, chunk Chunk)
