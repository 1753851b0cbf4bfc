package commands

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xaionaro-go/gpuenc"
	"github.com/xaionaro-go/gpuenc/types"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check which codecs the encoder backend can open",
	Long: `Open (and immediately close) an encoder session for every supported codec
and report the input buffer layout the backend picked.`,
	Example: `  gpuenc probe
  gpuenc probe --resolution 3840x2160 --fps 60`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	addStreamFlags(probeCmd.Flags(), "probe", gpuenc.Config{
		Resolution: types.Resolution{Width: 1920, Height: 1080},
		FrameRate:  types.Rational{Num: 30, Den: 1},
	})
}

func runProbe(cmd *cobra.Command, args []string) (_err error) {
	ctx := cmd.Context()

	probeCfg, err := streamConfig("probe")
	if err != nil {
		return err
	}
	res, fps := probeCfg.Resolution, probeCfg.FrameRate

	b, err := newBackend(ctx, viper.GetString("driver"), types.HardwareDeviceName(viper.GetString("device")))
	if err != nil {
		return err
	}
	defer func() { _err = errors.Join(_err, b.Close(ctx)) }()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "CODEC\tRESOLUTION\tFPS\tPITCH\tBUFFER\tRESULT\n")
	var failed int
	for _, codec := range types.Codecs() {
		cfg := gpuenc.Config{Resolution: res, FrameRate: fps, Codec: codec}
		s, err := gpuenc.Open(ctx, cfg, b.Driver, b.GPU, nil)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s\t%s\t%s\t-\t-\t%v\n", codec, res, fps, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\tok\n", codec, res, fps, s.Pitch(), humanize.IBytes(s.BufferSize()))
		if err := s.Close(ctx); err != nil {
			return fmt.Errorf("unable to close the %s session: %w", codec, err)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed == len(types.Codecs()) {
		return fmt.Errorf("%s (%s) supports none of the codecs", b.Driver, b.GPU)
	}
	return nil
}
