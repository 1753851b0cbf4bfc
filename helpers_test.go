package gpuenc_test

import (
	"context"
	"testing"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/pkg/runtime"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/gpuenc"
	"github.com/xaionaro-go/gpuenc/driver/simulated"
	"github.com/xaionaro-go/gpuenc/logger"
	"github.com/xaionaro-go/gpuenc/types"
	"github.com/xaionaro-go/observability"
)

func testCtx(t *testing.T) context.Context {
	runtime.DefaultCallerPCFilter = observability.CallerPCFilter(runtime.DefaultCallerPCFilter)
	ctx := logger.WithLogrus(context.Background(), logger.LevelTrace)
	t.Cleanup(func() { belt.Flush(ctx) })
	return ctx
}

func testConfig(codec types.Codec) gpuenc.Config {
	return gpuenc.Config{
		Resolution: types.Resolution{Width: 64, Height: 32},
		FrameRate:  types.Rational{Num: 30, Den: 1},
		Codec:      codec,
	}
}

// recorder is a Sink that keeps copies of everything it receives.
type recorder struct {
	chunks []gpuenc.Chunk
}

func (r *recorder) sink(ctx context.Context, chunk gpuenc.Chunk) {
	chunk.Payload = append([]byte{}, chunk.Payload...)
	r.chunks = append(r.chunks, chunk)
}

func (r *recorder) indices() []uint32 {
	result := make([]uint32, 0, len(r.chunks))
	for _, c := range r.chunks {
		result = append(result, c.Index)
	}
	return result
}

type testEnv struct {
	drv *simulated.Driver
	gpu *simulated.Context
	rec *recorder
}

func newTestEnv(t *testing.T, opts ...simulated.Option) *testEnv {
	env := &testEnv{
		drv: simulated.New(opts...),
		gpu: simulated.NewContext(t.Name(), opts...),
		rec: &recorder{},
	}
	t.Cleanup(func() {
		require.Equal(t, simulated.Resources{}, env.drv.Resources(), "leaked driver resources")
		require.Zero(t, env.gpu.Allocations(), "leaked device memory")
	})
	return env
}

func (env *testEnv) open(t *testing.T, ctx context.Context, cfg gpuenc.Config) *gpuenc.Session {
	s, err := gpuenc.Open(ctx, cfg, env.drv, env.gpu, env.rec.sink)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close(ctx))
	})
	return s
}

func sequence(n int) []uint32 {
	result := make([]uint32, n)
	for i := range result {
		result[i] = uint32(i)
	}
	return result
}
