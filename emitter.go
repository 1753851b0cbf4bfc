package gpuenc

import (
	"context"

	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/logger"
)

func (s *Session) emit(
	ctx context.Context,
	payload []byte,
	lock *driver.LockBitstreamParams,
) {
	chunk := Chunk{
		Payload:     payload,
		Index:       s.chunkIndex.Load(),
		Timestamp:   lock.OutputTimeStamp,
		Duration:    s.config.framePeriod(),
		TimeBase:    s.config.TimeBase(),
		PictureType: lock.PictureType,
	}
	logger.Tracef(ctx, "chunk #%d: %d bytes, ts %d, %s", chunk.Index, len(payload), chunk.Timestamp, chunk.PictureType)

	if sink := s.sink; sink != nil {
		sink(ctx, chunk)
	}

	s.chunkIndex.Inc()
	s.bytesEncoded.Add(uint64(len(payload)))
}
