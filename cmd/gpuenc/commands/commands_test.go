package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/gpuenc/bitstream"
	"github.com/xaionaro-go/gpuenc/types"
)

func TestEncodeSimulated(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.h265")
	snapshot := filepath.Join(dir, "first.png")

	rootCmd.SetArgs([]string{
		"encode",
		"--driver", "simulated",
		"--log-level", "error",
		"--codec", "hevc",
		"--resolution", "64x32",
		"--fps", "30000/1001",
		"--frames", "20",
		"--idr-every", "7",
		"--progress-interval", "0",
		"--snapshot", snapshot,
		"--output", output,
	})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var keyFrames int
	for nalu, err := range bitstream.Iter(types.CodecHEVC, data) {
		require.NoError(t, err)
		if bitstream.H265NalUnitType(nalu.Type).IsIRAP() {
			keyFrames++
		}
	}
	// frame 0 plus the forced ones at 7 and 14
	require.Equal(t, 3, keyFrames)

	_, err = os.Stat(snapshot)
	require.NoError(t, err)
}

func TestProbeSimulated(t *testing.T) {
	rootCmd.SetArgs([]string{
		"probe",
		"--driver", "simulated",
		"--log-level", "error",
		"--resolution", "640x480",
	})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
}

func TestEncodeConfig(t *testing.T) {
	rootCmd.SetArgs([]string{
		"encode",
		"--driver", "simulated",
		"--log-level", "error",
		"--resolution", "0x0",
		"--progress-interval", "0",
		"--output", filepath.Join(t.TempDir(), "out.h264"),
	})
	require.Error(t, rootCmd.ExecuteContext(context.Background()))
}
