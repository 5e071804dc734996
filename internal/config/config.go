// Package config handles meshexport configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/pranavRajmane/Ayrton/internal/logger"
	"github.com/pranavRajmane/Ayrton/pkg/formats"
	"github.com/pranavRajmane/Ayrton/pkg/kernel"
	"github.com/pranavRajmane/Ayrton/pkg/math"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
)

// Config holds all meshexport settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Kernel  KernelConfig  `yaml:"kernel"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	DefaultFormat    string `yaml:"default_format"`    // "text" or "binary"
	DefaultExtension string `yaml:"default_extension"` // e.g. "glb"
	Rotation         string `yaml:"rotation"`          // e.g. "x+90"
	IncludeRemainder bool   `yaml:"include_remainder"`
	RemainderName    string `yaml:"remainder_name"`
	OutputDir        string `yaml:"output_dir"`
	STLHeader        string `yaml:"stl_header"`
}

// KernelConfig holds the geometry-kernel service settings.
type KernelConfig struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// MetricsConfig holds Prometheus settings. Textfile, when set, receives
// the metrics in text exposition format after each run.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Textfile  string `yaml:"textfile"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			DefaultFormat:    "binary",
			DefaultExtension: "glb",
			Rotation:         "none",
			IncludeRemainder: true,
			RemainderName:    scene.DefaultRemainderName,
			OutputDir:        ".",
		},
		Kernel: KernelConfig{
			Timeout:    2 * time.Minute,
			MaxRetries: 3,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "meshexport",
		},
	}
}

// Validate checks values that would only fail later, mid-export.
func (c *Config) Validate() error {
	if _, err := formats.ParseFileFormat(c.Export.DefaultFormat); err != nil {
		return fmt.Errorf("export.default_format: %w", err)
	}
	if c.Export.DefaultExtension == "" {
		return fmt.Errorf("export.default_extension: empty")
	}
	if _, err := math.ParseRotation(c.Export.Rotation); err != nil {
		return fmt.Errorf("export.rotation: %w", err)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Kernel.MaxRetries < 0 {
		return fmt.Errorf("kernel.max_retries: %d is negative", c.Kernel.MaxRetries)
	}
	return nil
}

// ClientConfig converts the kernel section for kernel.NewClient.
func (k KernelConfig) ClientConfig() kernel.Config {
	cfg := kernel.DefaultConfig()
	cfg.URL = k.URL
	if k.Timeout > 0 {
		cfg.Timeout = k.Timeout
	}
	cfg.MaxRetries = k.MaxRetries
	return cfg
}
