// meshexport converts STL meshes with physical group definitions into
// interchange formats, optionally split into one file per group.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pranavRajmane/Ayrton/internal/config"
	"github.com/pranavRajmane/Ayrton/internal/logger"
	"github.com/pranavRajmane/Ayrton/internal/metrics"
)

// app holds state shared by subcommands once the root pre-run has loaded
// configuration.
type app struct {
	cfg       *config.Config
	registry  *prometheus.Registry
	collector *metrics.Collector
}

var (
	flags *config.Flags
	state app
)

var rootCmd = &cobra.Command{
	Use:           "meshexport",
	Short:         "Export meshes and physical groups to STL, glTF, OBJ, OFF, PLY and CAD formats",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flags)
		if err != nil {
			return err
		}
		if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		state.cfg = cfg
		if cfg.Metrics.Enabled {
			state.registry = prometheus.NewRegistry()
			state.collector = metrics.NewCollector(cfg.Metrics.Namespace, state.registry)
		}
		logger.Debug("configuration loaded",
			zap.String("command", cmd.Name()),
			zap.String("output_dir", cfg.Export.OutputDir),
			zap.Bool("metrics", cfg.Metrics.Enabled))
		return nil
	},
}

func init() {
	flags = config.BindFlags(rootCmd.PersistentFlags())
}

// flushMetrics runs after failed commands too, so error counters reach the
// textfile.
func flushMetrics() error {
	if state.registry == nil || state.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(state.cfg.Metrics.Textfile, state.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

func main() {
	logger.InitNop()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if ferr := flushMetrics(); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		logger.Error("command failed", zap.Error(err))
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Sync()
}
