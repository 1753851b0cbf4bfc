package gpuenc_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/gpuenc"
	"github.com/xaionaro-go/gpuenc/driver/simulated"
	"github.com/xaionaro-go/gpuenc/types"
)

func TestFlushDrainsAndReopens(t *testing.T) {
	ctx := testCtx(t)
	env := newTestEnv(t, simulated.OptionPipelineDepth{Depth: 4})
	s := env.open(t, ctx, testConfig(types.CodecAVC))

	for i := 0; i < 3; i++ {
		_, err := s.Submit(ctx, types.FrameFlagNone)
		require.NoError(t, err)
	}
	require.Empty(t, env.rec.chunks)

	delivered, err := s.Flush(ctx)
	require.NoError(t, err)
	require.True(t, delivered)
	require.Equal(t, sequence(3), env.rec.indices())
	require.Equal(t, gpuenc.StateReady, s.State())
	require.Zero(t, s.TotalFrames())
	require.Zero(t, s.TotalBytes())
	require.Zero(t, s.Time())
	require.Equal(t, 1, env.drv.Resources().Sessions)

	// behaves like a freshly opened session
	env.rec.chunks = nil
	for i := 0; i < 5; i++ {
		_, err := s.Submit(ctx, types.FrameFlagNone)
		require.NoError(t, err)
	}
	require.Len(t, env.rec.chunks, 1)
	require.Zero(t, env.rec.chunks[0].Index)
	require.Zero(t, env.rec.chunks[0].Timestamp)
	require.True(t, env.rec.chunks[0].IsKeyFrame())
}

func TestFlushIsIdempotent(t *testing.T) {
	ctx := testCtx(t)
	env := newTestEnv(t)
	s := env.open(t, ctx, testConfig(types.CodecHEVC))

	// nothing submitted yet
	delivered, err := s.Flush(ctx)
	require.NoError(t, err)
	require.False(t, delivered)
	require.Empty(t, env.rec.chunks)
	require.Equal(t, gpuenc.StateReady, s.State())

	_, err = s.Submit(ctx, types.FrameFlagNone)
	require.NoError(t, err)
	require.Equal(t, uint64(1), s.TotalFrames())
	delivered, err = s.Flush(ctx)
	require.NoError(t, err)
	require.True(t, delivered)
	require.Len(t, env.rec.chunks, 1)
	require.Zero(t, env.rec.chunks[0].Index)
	opens := env.drv.Calls(simulated.FaultPointOpenSession)

	delivered, err = s.Flush(ctx)
	require.NoError(t, err)
	require.False(t, delivered)
	require.Len(t, env.rec.chunks, 1)
	require.Zero(t, s.TotalFrames())
	require.Zero(t, s.TotalBytes())
	require.Equal(t, opens, env.drv.Calls(simulated.FaultPointOpenSession))
}

func TestEncodeFailureFaultsTheSession(t *testing.T) {
	ctx := testCtx(t)
	for _, point := range []simulated.FaultPoint{
		simulated.FaultPointEncodePicture,
		simulated.FaultPointLockBitstream,
		simulated.FaultPointUnlockBitstream,
	} {
		t.Run(string(point), func(t *testing.T) {
			env := newTestEnv(t, simulated.OptionPipelineDepth{Depth: 0})
			s := env.open(t, ctx, testConfig(types.CodecAVC))

			_, err := s.Submit(ctx, types.FrameFlagNone)
			require.NoError(t, err)

			env.drv.FailAt(point, 1)
			_, err = s.Submit(ctx, types.FrameFlagNone)
			require.ErrorAs(t, err, &gpuenc.EncodeFailure{})
			require.ErrorAs(t, err, &simulated.ErrInjected{})
			require.Equal(t, gpuenc.StateFaulted, s.State())

			_, err = s.Submit(ctx, types.FrameFlagNone)
			require.ErrorAs(t, err, &gpuenc.ErrFaulted{})

			_, err = s.Flush(ctx)
			require.NoError(t, err)
			require.Equal(t, gpuenc.StateReady, s.State())
			require.Zero(t, s.TotalFrames())

			env.rec.chunks = nil
			delivered, err := s.Submit(ctx, types.FrameFlagNone)
			require.NoError(t, err)
			require.True(t, delivered)
			require.Zero(t, env.rec.chunks[0].Index)
			require.True(t, env.rec.chunks[0].IsKeyFrame())
		})
	}
}

func TestFlushReopenFailure(t *testing.T) {
	ctx := testCtx(t)
	env := newTestEnv(t)
	s := env.open(t, ctx, testConfig(types.CodecAVC))

	_, err := s.Submit(ctx, types.FrameFlagNone)
	require.NoError(t, err)

	env.drv.FailAt(simulated.FaultPointInitializeEncoder, 1)
	delivered, err := s.Flush(ctx)
	require.True(t, delivered)
	require.ErrorAs(t, err, &gpuenc.ConfigurationError{})
	require.Equal(t, gpuenc.StateUnconfigured, s.State())
	require.Zero(t, s.Buffer())
	require.Equal(t, simulated.Resources{}, env.drv.Resources())

	_, err = s.Submit(ctx, types.FrameFlagNone)
	require.ErrorAs(t, err, &gpuenc.ErrNotConfigured{})

	delivered, err = s.Flush(ctx)
	require.NoError(t, err)
	require.False(t, delivered)
	require.Equal(t, gpuenc.StateReady, s.State())
	require.NotZero(t, s.Buffer())
}

func TestFlushDrainFailure(t *testing.T) {
	ctx := testCtx(t)
	for _, point := range []simulated.FaultPoint{
		simulated.FaultPointEncodePicture,
		simulated.FaultPointLockBitstream,
	} {
		t.Run(string(point), func(t *testing.T) {
			env := newTestEnv(t, simulated.OptionPipelineDepth{Depth: 4})
			s := env.open(t, ctx, testConfig(types.CodecAVC))

			for i := 0; i < 2; i++ {
				_, err := s.Submit(ctx, types.FrameFlagNone)
				require.NoError(t, err)
			}
			require.Equal(t, gpuenc.StateSubmitting, s.State())

			env.drv.FailAt(point, 1)
			delivered, err := s.Flush(ctx)
			require.False(t, delivered)
			require.ErrorAs(t, err, &gpuenc.EncodeFailure{})
			require.ErrorAs(t, err, &simulated.ErrInjected{})
			require.Empty(t, env.rec.chunks)

			require.Equal(t, gpuenc.StateReady, s.State())
			require.Zero(t, s.TotalFrames())
			require.Equal(t, simulated.Resources{Sessions: 1, Registrations: 1, Bitstreams: 1}, env.drv.Resources())
			require.Equal(t, 1, env.gpu.Allocations())

			delivered, err = s.Submit(ctx, types.FrameFlagIDR)
			require.NoError(t, err)
			require.False(t, delivered)
			require.Equal(t, uint64(1), s.TotalFrames())
		})
	}
}
