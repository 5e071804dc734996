package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pranavRajmane/Ayrton/internal/config"
	"github.com/pranavRajmane/Ayrton/internal/logger"
)

var errConfigExists = errors.New("config file already exists")

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the meshexport configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the effective configuration to a file",
	Long: "Write the effective configuration (defaults, config file and flags) as YAML.\n" +
		"Without a path the user configuration file is written.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		written, err := writeConfig(state.cfg, path, configForce)
		if err != nil {
			return err
		}
		fmt.Println(written)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// writeConfig saves cfg to path, or to the user config file when path is
// empty, and returns where it went. Existing files are kept unless force.
func writeConfig(cfg *config.Config, path string, force bool) (string, error) {
	target := path
	if target == "" {
		target = config.DefaultPath()
	}
	if _, err := os.Stat(target); err == nil {
		if !force {
			return "", fmt.Errorf("%w: %s (use --force)", errConfigExists, target)
		}
		logger.Warn("overwriting config file", zap.String("path", target))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	if path == "" {
		return target, cfg.Save()
	}
	return target, cfg.SaveTo(path)
}
