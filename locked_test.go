package gpuenc_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/gpuenc"
	"github.com/xaionaro-go/gpuenc/driver/simulated"
	"github.com/xaionaro-go/gpuenc/types"
)

func TestSessionLocked(t *testing.T) {
	ctx := testCtx(t)
	env := newTestEnv(t, simulated.OptionPipelineDepth{Depth: 2})
	s, err := gpuenc.Open(ctx, testConfig(types.CodecAVC), env.drv, env.gpu, nil)
	require.NoError(t, err)
	l := gpuenc.NewLocked(s)

	var (
		mu      sync.Mutex
		indices []uint32
	)
	l.SetSink(ctx, func(ctx context.Context, chunk gpuenc.Chunk) {
		mu.Lock()
		defer mu.Unlock()
		indices = append(indices, chunk.Index)
	})

	const (
		workers   = 4
		perWorker = 25
	)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := l.Submit(ctx, types.FrameFlagNone)
				assert.NoError(t, err)
				_ = l.Stats()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, uint64(workers*perWorker), l.Stats().Frames)
	require.NotZero(t, l.Buffer(ctx))
	l.WithSession(ctx, func(s *gpuenc.Session) {
		require.Equal(t, gpuenc.StateSubmitting, s.State())
	})

	require.NoError(t, l.Close(ctx))
	require.Equal(t, sequence(workers*perWorker), indices)
}
