package commands

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/pkg/runtime"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xaionaro-go/gpuenc/logger"
	"github.com/xaionaro-go/observability"
)

var (
	cfgFile    string
	stopSignal context.CancelFunc = func() {}
	rootCmd = &cobra.Command{
		Use:   "gpuenc",
		Short: "gpuenc - hardware H.264/HEVC encoding of GPU-resident frames",
		Long: `gpuenc drives a hardware video encoder session: frames are rendered into
a device buffer, submitted one by one, and the encoder output is written
as a raw Annex-B elementary stream.`,
		SilenceUsage:       true,
		PersistentPreRunE:  setupLogging,
		PersistentPostRunE: flushLogs,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().String("log-level", "warning", "log level (trace, debug, info, warning, error, fatal)")
	rootCmd.PersistentFlags().String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	rootCmd.PersistentFlags().String("driver", "libav", "encoder backend: libav (CUDA + NVENC) or simulated")
	rootCmd.PersistentFlags().String("device", "", "CUDA device to use (backend-specific, empty is the default one)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("net_pprof_listen_addr", rootCmd.PersistentFlags().Lookup("net-pprof-listen-addr"))
	viper.BindPFlag("driver", rootCmd.PersistentFlags().Lookup("driver"))
	viper.BindPFlag("device", rootCmd.PersistentFlags().Lookup("device"))
	viper.SetEnvPrefix("GPUENC")
	viper.AutomaticEnv()
}

func initConfig() {
	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: unable to read the config file '%s': %v\n", cfgFile, err)
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	var level logger.Level
	if err := level.Set(viper.GetString("log_level")); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", viper.GetString("log_level"), err)
	}

	runtime.DefaultCallerPCFilter = observability.CallerPCFilter(runtime.DefaultCallerPCFilter)
	ctx := logger.WithLogrus(cmd.Context(), level)
	ctx, stopSignal = signal.NotifyContext(ctx, os.Interrupt)
	cmd.SetContext(ctx)

	if addr := viper.GetString("net_pprof_listen_addr"); addr != "" {
		observability.Go(ctx, func(ctx context.Context) {
			logger.Error(ctx, http.ListenAndServe(addr, nil))
		})
	}
	return nil
}

func flushLogs(cmd *cobra.Command, args []string) error {
	stopSignal()
	belt.Flush(cmd.Context())
	return nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
