package gpuenc

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/types"
)

func TestConfigDerivedSettings(t *testing.T) {
	for _, tc := range []struct {
		fps     types.Rational
		res     types.Resolution
		gop     uint32
		bitrate uint32
	}{
		{fps: types.Rational{Num: 30, Den: 1}, res: types.Resolution{Width: 1280, Height: 720}, gop: 60, bitrate: 2_764_800},
		{fps: types.Rational{Num: 30000, Den: 1001}, res: types.Resolution{Width: 1920, Height: 1080}, gop: 60, bitrate: 6_214_585},
		{fps: types.Rational{Num: 1, Den: 2}, res: types.Resolution{Width: 64, Height: 64}, gop: 2, bitrate: minAverageBitrate},
	} {
		t.Run(tc.fps.String(), func(t *testing.T) {
			cfg := Config{Resolution: tc.res, FrameRate: tc.fps, Codec: types.CodecAVC}
			require.NoError(t, cfg.Validate())
			require.Equal(t, tc.gop, cfg.gopLength())
			require.Equal(t, tc.bitrate, cfg.averageBitrate())
			require.Equal(t, uint64(tc.fps.Den), cfg.framePeriod())
			require.Equal(t, types.Rational{Num: 1, Den: tc.fps.Num}, cfg.TimeBase())
		})
	}
}

func TestConfigFillInitializeParams(t *testing.T) {
	scratch := driver.NewScratchBuffer()
	for codec, expected := range map[types.Codec]struct {
		id      driver.CodecID
		profile driver.Profile
	}{
		types.CodecAVC:  {driver.CodecIDH264, driver.ProfileH264High},
		types.CodecHEVC: {driver.CodecIDHEVC, driver.ProfileHEVCMain},
	} {
		cfg := Config{
			Resolution: types.Resolution{Width: 1280, Height: 720},
			FrameRate:  types.Rational{Num: 60, Den: 1},
			Codec:      codec,
		}
		// dirty the scratch buffer to make sure stale data does not leak
		dirty := driver.Scratch[driver.PictureParams](scratch)
		dirty.Reserved[0] = 0xdead

		p := driver.Scratch[driver.InitializeParams](scratch)
		cfg.fillInitializeParams(p)
		require.Equal(t, driver.InitializeParamsVersion, p.Version)
		require.Equal(t, expected.id, p.Codec)
		require.Equal(t, expected.profile, p.Profile)
		require.Equal(t, uint32(1280), p.Width)
		require.Equal(t, uint32(720), p.Height)
		require.Equal(t, uint32(60), p.FrameRateNum)
		require.Equal(t, uint32(1), p.FrameRateDen)
		require.Equal(t, uint32(120), p.GOPLength)
		require.Zero(t, p.BFrames)
		require.Equal(t, uint32(defaultBufferingDepth), p.BufferingDepth)
		require.Equal(t, driver.RateControlVBR, p.RateControl)
		require.Equal(t, 2*p.AverageBitrate, p.MaxBitrate)
		require.NotZero(t, p.Flags&driver.InitFlagAnnexB)
		require.Equal(t, [32]uint32{}, p.Reserved)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{
		Resolution: types.Resolution{Width: 16, Height: 16},
		FrameRate:  types.Rational{Num: 25, Den: 1},
		Codec:      types.CodecHEVC,
	}
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.FrameRate.Den = 0
	require.ErrorAs(t, bad.Validate(), &ErrInvalidConfiguration{})

	bad = cfg
	bad.Codec = types.CodecUndefined
	require.ErrorAs(t, bad.Validate(), &ErrInvalidConfiguration{})
}
