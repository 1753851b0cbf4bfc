package gpuenc

import (
	"time"

	"go.uber.org/atomic"
)

// counters may be read from other goroutines (for monitoring); they are
// written only by the goroutine that drives the session.
type counters struct {
	framesEncoded atomic.Uint64
	bytesEncoded  atomic.Uint64
	chunkIndex    atomic.Uint32
}

func (c *counters) resetCounters() {
	c.framesEncoded.Store(0)
	c.bytesEncoded.Store(0)
	c.chunkIndex.Store(0)
}

type Statistics struct {
	Frames uint64        `json:"frames"`
	Chunks uint64        `json:"chunks"`
	Bytes  uint64        `json:"bytes"`
	Time   time.Duration `json:"time"`
}

// Stats is safe to call concurrently with the goroutine driving the session.
func (s *Session) Stats() Statistics {
	frames := s.framesEncoded.Load()
	return Statistics{
		Frames: frames,
		Chunks: uint64(s.chunkIndex.Load()),
		Bytes:  s.bytesEncoded.Load(),
		Time:   s.config.FrameRate.DurationOf(frames),
	}
}
