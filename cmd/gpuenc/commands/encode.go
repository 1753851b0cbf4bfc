package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xaionaro-go/gpuenc"
	"github.com/xaionaro-go/gpuenc/internal/pattern"
	"github.com/xaionaro-go/gpuenc/logger"
	"github.com/xaionaro-go/gpuenc/types"
	"github.com/xaionaro-go/observability"
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a generated test pattern into a raw elementary stream",
	Long: `Render a moving test pattern into the device input buffer of an encoder
session, submit it frame by frame and write the chunks to a file.`,
	Example: `  # 10 seconds of 720p30 H.264
  gpuenc encode --frames 300 --output out.h264

  # HEVC at NTSC frame rate, with a key frame every 60 frames
  gpuenc encode --codec hevc --fps 30000/1001 --idr-every 60

  # without a GPU
  gpuenc encode --driver simulated`,
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)

	addStreamFlags(encodeCmd.Flags(), "encode", gpuenc.Config{
		Resolution: types.Resolution{Width: 1280, Height: 720},
		FrameRate:  types.Rational{Num: 30, Den: 1},
		Codec:      types.CodecAVC,
	})
	encodeCmd.Flags().Uint64("frames", 300, "amount of frames to encode")
	encodeCmd.Flags().Uint64("idr-every", 0, "force an IDR frame every N frames (0 leaves it to the encoder)")
	encodeCmd.Flags().Float64("blur", 0, "gaussian blur radius applied to the pattern")
	encodeCmd.Flags().StringP("output", "o", "", "output file (default is out.<codec extension>)")
	encodeCmd.Flags().String("snapshot", "", "also save the first rendered frame as a PNG file")
	encodeCmd.Flags().Duration("progress-interval", time.Second, "how often to report the progress (0 disables it)")

	for _, name := range []string{"frames", "idr-every", "blur", "output", "snapshot", "progress-interval"} {
		viper.BindPFlag("encode."+name, encodeCmd.Flags().Lookup(name))
	}
}

func encodeConfig() (gpuenc.Config, error) {
	cfg, err := streamConfig("encode")
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func runEncode(cmd *cobra.Command, args []string) (_err error) {
	ctx := cmd.Context()

	cfg, err := encodeConfig()
	if err != nil {
		return err
	}
	frames := viper.GetUint64("encode.frames")
	idrEvery := viper.GetUint64("encode.idr-every")
	outputPath := viper.GetString("encode.output")
	if outputPath == "" {
		outputPath = "out" + cfg.Codec.FileExtension()
	}

	b, err := newBackend(ctx, viper.GetString("driver"), types.HardwareDeviceName(viper.GetString("device")))
	if err != nil {
		return err
	}
	defer func() { _err = errors.Join(_err, b.Close(ctx)) }()
	uploader, err := b.Uploader()
	if err != nil {
		return err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("unable to create '%s': %w", outputPath, err)
	}
	defer func() { _err = errors.Join(_err, f.Close()) }()
	w := bufio.NewWriter(f)
	var writeErr error
	sink := func(ctx context.Context, chunk gpuenc.Chunk) {
		if writeErr != nil {
			return
		}
		if _, err := w.Write(chunk.Payload); err != nil {
			writeErr = fmt.Errorf("unable to write to '%s': %w", outputPath, err)
		}
	}

	session, err := gpuenc.Open(ctx, cfg, b.Driver, b.GPU, sink)
	if err != nil {
		return err
	}
	locked := gpuenc.NewLocked(session)
	defer func() { _err = errors.Join(_err, locked.Close(ctx)) }()
	logger.Infof(ctx, "encoding %d frames with %s into '%s'", frames, locked, outputPath)

	gen := pattern.NewGenerator(cfg.Resolution)
	gen.BlurRadius.Store(viper.GetFloat64("encode.blur"))
	if path := viper.GetString("encode.snapshot"); path != "" {
		if err := imgio.Save(path, gen.Frame(0), imgio.PNGEncoder()); err != nil {
			return fmt.Errorf("unable to save the snapshot: %w", err)
		}
	}

	progressCtx, stopProgress := context.WithCancel(ctx)
	defer stopProgress()
	if interval := viper.GetDuration("encode.progress-interval"); interval > 0 {
		observability.Go(progressCtx, func(ctx context.Context) {
			reportProgress(ctx, locked, frames, interval)
		})
	}

	startedAt := time.Now()
	for n := uint64(0); n < frames; n++ {
		if ctx.Err() != nil {
			logger.Warnf(ctx, "interrupted after %d frames", n)
			break
		}
		flag := types.FrameFlagNone
		if idrEvery > 0 && n > 0 && n%idrEvery == 0 {
			flag = types.FrameFlagIDR
		}

		img := gen.Frame(n)
		var submitErr error
		locked.WithSession(ctx, func(s *gpuenc.Session) {
			if err := uploader.Upload(ctx, s.Buffer(), s.Pitch(), img); err != nil {
				submitErr = fmt.Errorf("unable to upload frame #%d: %w", n, err)
				return
			}
			_, submitErr = s.Submit(ctx, flag)
		})
		if submitErr != nil {
			return submitErr
		}
		if writeErr != nil {
			return writeErr
		}
	}

	// closing drains the frames still held by the encoder
	if err := locked.Close(ctx); err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("unable to write to '%s': %w", outputPath, err)
	}
	stopProgress()

	stats := locked.Stats()
	elapsed := time.Since(startedAt)
	summary, err := json.Marshal(struct {
		gpuenc.Statistics
		Output  string  `json:"output"`
		Elapsed string  `json:"elapsed"`
		Speed   float64 `json:"speed"`
	}{
		Statistics: stats,
		Output:     outputPath,
		Elapsed:    elapsed.String(),
		Speed:      stats.Time.Seconds() / elapsed.Seconds(),
	})
	if err != nil {
		return err
	}
	fmt.Println(string(summary))
	fmt.Printf("wrote %s (%d chunks) to '%s'\n", humanize.Bytes(stats.Bytes), stats.Chunks, outputPath)
	return nil
}

func reportProgress(
	ctx context.Context,
	locked *gpuenc.SessionLocked,
	frames uint64,
	interval time.Duration,
) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			stats := locked.Stats()
			logger.Infof(ctx, "%d/%d frames, %s, %s of video",
				stats.Frames, frames, humanize.Bytes(stats.Bytes), stats.Time)
			fmt.Fprintf(os.Stderr, "\r%d/%d frames, %s", stats.Frames, frames, humanize.Bytes(stats.Bytes))
		}
	}
}
