package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Flags holds command-line overrides bound to a FlagSet. Only flags the user
// actually set override file values.
type Flags struct {
	fs *pflag.FlagSet

	config     string
	debug      bool
	logLevel   string
	logFile    string
	kernelURL  string
	timeout    time.Duration
	outputDir  string
	rotation   string
	metricsOut string
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.config, "config", "", "Path to config file")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFile, "log-file", "", "Write logs to this file as well")
	fs.StringVar(&f.kernelURL, "kernel-url", "", "Geometry kernel service URL")
	fs.DurationVar(&f.timeout, "kernel-timeout", 0, "Geometry kernel request timeout")
	fs.StringVarP(&f.outputDir, "output-dir", "d", "", "Directory for exported files")
	fs.StringVar(&f.rotation, "rotate", "", `Rotate output geometry, e.g. "x+90"`)
	fs.StringVar(&f.metricsOut, "metrics-textfile", "", "Write Prometheus metrics to this file")
	return f
}

// ConfigPath returns the explicit config path if provided via --config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.config
}

func (f *Flags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if f.changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if f.changed("log-file") {
		cfg.Logging.LogFile = f.logFile
	}
	if f.changed("kernel-url") {
		cfg.Kernel.URL = f.kernelURL
	}
	if f.changed("kernel-timeout") {
		cfg.Kernel.Timeout = f.timeout
	}
	if f.changed("output-dir") {
		cfg.Export.OutputDir = f.outputDir
	}
	if f.changed("rotate") {
		cfg.Export.Rotation = f.rotation
	}
	if f.changed("metrics-textfile") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Textfile = f.metricsOut
	}
}
