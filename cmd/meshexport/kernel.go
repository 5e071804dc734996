package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pranavRajmane/Ayrton/internal/logger"
	"github.com/pranavRajmane/Ayrton/pkg/export"
	"github.com/pranavRajmane/Ayrton/pkg/formats"
	"github.com/pranavRajmane/Ayrton/pkg/kernel"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
)

var kernelOpts struct {
	ext    string
	groups string
	unit   string
	output string
}

var kernelCmd = &cobra.Command{
	Use:   "kernel <in.stl>",
	Short: "Convert a mesh to IGES or STEP through the geometry kernel service",
	Example: `  meshexport kernel part.stl --ext step --kernel-url http://localhost:8000/api
  meshexport kernel part.stl --ext iges --groups groups.yaml -o part.igs`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := state.cfg
		if cfg.Kernel.URL == "" {
			return fmt.Errorf("%w: set kernel.url or --kernel-url", kernel.ErrNoServiceURL)
		}
		m, err := loadModel(args[0], kernelOpts.groups, kernelOpts.unit)
		if err != nil {
			return err
		}

		var encoders []formats.Encoder
		for _, e := range kernel.NewEncoders(newKernelClient()) {
			encoders = append(encoders, e)
		}
		registry := export.NewRegistry(encoders...)
		ext := formats.NormalizeExt(kernelOpts.ext)
		if !registry.Supports(formats.FormatBinary, ext) {
			return fmt.Errorf("%w: %q (want iges, igs, step or stp)", formats.ErrUnsupportedFormat, ext)
		}

		transform, err := configuredRotation()
		if err != nil {
			return err
		}
		settings := export.Settings{Transform: transform}
		if m.GroupCount() > 0 {
			settings.GroupMode = scene.GroupModeAll
			settings.IncludeRemainder = cfg.Export.IncludeRemainder
		}

		arts, err := newExporter(registry).Export(cmd.Context(), m, settings, formats.FormatBinary, ext)
		if err != nil {
			var se *kernel.ServiceError
			if errors.As(err, &se) && se.RequestID != "" {
				logger.Error("kernel rejected request", zap.String("request_id", se.RequestID), zap.Int("status", se.StatusCode))
			}
			return err
		}
		res, err := export.Package(m.Name(), arts)
		if err != nil {
			return err
		}
		path, err := writeResult(res, kernelOpts.output, cfg.Export.OutputDir)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%d artifacts, %d bytes)\n", path, res.Artifacts, len(res.Data))
		return nil
	},
}

func init() {
	f := kernelCmd.Flags()
	f.StringVar(&kernelOpts.ext, "ext", "step", "Target extension: iges, igs, step, stp")
	f.StringVarP(&kernelOpts.groups, "groups", "g", "", "Physical groups YAML file")
	f.StringVar(&kernelOpts.unit, "unit", "", "Model unit: mm, cm, m, in, ft")
	f.StringVarP(&kernelOpts.output, "output", "o", "", "Output file (default <output-dir>/<name>)")
	rootCmd.AddCommand(kernelCmd)
}
