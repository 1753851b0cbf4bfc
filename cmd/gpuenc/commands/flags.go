package commands

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xaionaro-go/gpuenc"
	"github.com/xaionaro-go/gpuenc/types"
)

var (
	_ pflag.Value = (*types.Resolution)(nil)
	_ pflag.Value = (*types.Rational)(nil)
	_ pflag.Value = (*types.Codec)(nil)
	_ pflag.Value = (*types.HardwareDeviceName)(nil)
)

// addStreamFlags defines the flags of a gpuenc.Config and binds them
// to viper as "<section>.resolution", "<section>.fps" and "<section>.codec",
// so they can come from the config file as well.
func addStreamFlags(fs *pflag.FlagSet, section string, defaults gpuenc.Config) {
	res, fps, codec := defaults.Resolution, defaults.FrameRate, defaults.Codec
	fs.Var(&res, "resolution", "frame size, WIDTHxHEIGHT")
	fs.Var(&fps, "fps", "frame rate, an integer, a decimal, ~decimal (NTSC rounding) or NUM/DEN")
	if codec != types.CodecUndefined {
		fs.Var(&codec, "codec", "h264 or hevc")
	}
	for _, name := range []string{"resolution", "fps", "codec"} {
		if f := fs.Lookup(name); f != nil {
			viper.BindPFlag(section+"."+name, f)
		}
	}
}

// streamConfig reads back what addStreamFlags bound.
func streamConfig(section string) (gpuenc.Config, error) {
	var cfg gpuenc.Config
	if err := cfg.Resolution.Set(viper.GetString(section + ".resolution")); err != nil {
		return cfg, err
	}
	if err := cfg.FrameRate.Set(viper.GetString(section + ".fps")); err != nil {
		return cfg, err
	}
	if s := viper.GetString(section + ".codec"); s != "" {
		if err := cfg.Codec.Set(s); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}
