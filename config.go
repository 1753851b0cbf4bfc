package gpuenc

import (
	"fmt"
	"math"

	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/types"
)

const (
	inputBufferFormat = driver.BufferFormatABGR

	// maxDimension is the largest frame side hardware encoders accept.
	maxDimension = 8192

	defaultBufferingDepth = 4
	minAverageBitrate     = 100_000
)

// Config is everything a session needs to know about the stream.
// Encoder tuning (profile, rate control, GOP) is derived from it.
type Config struct {
	Resolution types.Resolution `yaml:"resolution" json:"resolution"`
	FrameRate  types.Rational   `yaml:"frame_rate" json:"frame_rate"`
	Codec      types.Codec      `yaml:"codec"      json:"codec"`
}

func (cfg Config) String() string {
	return fmt.Sprintf("%s %s@%s", cfg.Codec, cfg.Resolution, cfg.FrameRate)
}

func (cfg Config) Validate() error {
	switch {
	case cfg.Resolution.Width == 0 || cfg.Resolution.Height == 0:
		return ErrInvalidConfiguration{Reason: fmt.Sprintf("resolution %s is not positive", cfg.Resolution)}
	case cfg.Resolution.Width > maxDimension || cfg.Resolution.Height > maxDimension:
		return ErrInvalidConfiguration{Reason: fmt.Sprintf("resolution %s exceeds %dx%d", cfg.Resolution, maxDimension, maxDimension)}
	case cfg.FrameRate.Den == 0:
		return ErrInvalidConfiguration{Reason: "frame rate denominator is zero"}
	case !cfg.FrameRate.IsPositive():
		return ErrInvalidConfiguration{Reason: fmt.Sprintf("frame rate %s is not positive", cfg.FrameRate)}
	case uint64(cfg.FrameRate.Num) > math.MaxUint32 || uint64(cfg.FrameRate.Den) > math.MaxUint32:
		return ErrInvalidConfiguration{Reason: fmt.Sprintf("frame rate %s does not fit 32 bits", cfg.FrameRate)}
	case !cfg.Codec.IsValid():
		return ErrInvalidConfiguration{Reason: fmt.Sprintf("codec %s is not supported", cfg.Codec)}
	}
	return nil
}

// TimeBase is the unit of Chunk timestamps: one tick is 1/fps_num seconds,
// so a frame lasts exactly fps_den ticks.
func (cfg Config) TimeBase() types.Rational {
	return types.Rational{Num: 1, Den: cfg.FrameRate.Num}
}

func (cfg Config) framePeriod() uint64 {
	return uint64(cfg.FrameRate.Den)
}

// gopLength is two seconds worth of frames, rounded up.
func (cfg Config) gopLength() uint32 {
	num, den := uint64(cfg.FrameRate.Num), uint64(cfg.FrameRate.Den)
	fps := (num + den - 1) / den
	return uint32(min(fps*2, math.MaxUint32))
}

// averageBitrate gives about 0.1 bit per pixel.
func (cfg Config) averageBitrate() uint32 {
	bps := cfg.Resolution.Pixels() * uint64(cfg.FrameRate.Num) / (uint64(cfg.FrameRate.Den) * 10)
	return uint32(min(max(bps, minAverageBitrate), math.MaxUint32))
}

func (cfg Config) codecID() driver.CodecID {
	switch cfg.Codec {
	case types.CodecAVC:
		return driver.CodecIDH264
	case types.CodecHEVC:
		return driver.CodecIDHEVC
	}
	return driver.CodecIDUndefined
}

func (cfg Config) profile() driver.Profile {
	switch cfg.Codec {
	case types.CodecAVC:
		return driver.ProfileH264High
	case types.CodecHEVC:
		return driver.ProfileHEVCMain
	}
	return driver.ProfileAuto
}

func (cfg Config) fillInitializeParams(p *driver.InitializeParams) {
	bitrate := cfg.averageBitrate()
	gop := cfg.gopLength()

	p.Version = driver.InitializeParamsVersion
	p.Codec = cfg.codecID()
	p.Profile = cfg.profile()
	p.Width = cfg.Resolution.Width
	p.Height = cfg.Resolution.Height
	p.FrameRateNum = uint32(cfg.FrameRate.Num)
	p.FrameRateDen = uint32(cfg.FrameRate.Den)
	p.GOPLength = gop
	p.IDRPeriod = gop
	p.BFrames = 0
	p.BufferingDepth = defaultBufferingDepth
	p.RateControl = driver.RateControlVBR
	p.AverageBitrate = bitrate
	p.MaxBitrate = uint32(min(uint64(bitrate)*2, math.MaxUint32))
	p.VBVBufferSize = bitrate
	p.Flags = driver.InitFlagAnnexB | driver.InitFlagRepeatParameterSets | driver.InitFlagLowLatency
	p.MaxEncodedBytes = cfg.Resolution.Pixels() * uint64(inputBufferFormat.BytesPerPixel())
}
