package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pranavRajmane/Ayrton/internal/logger"
	"github.com/pranavRajmane/Ayrton/pkg/export"
	"github.com/pranavRajmane/Ayrton/pkg/formats"
	"github.com/pranavRajmane/Ayrton/pkg/kernel"
	"github.com/pranavRajmane/Ayrton/pkg/math"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
)

type exportOptions struct {
	format    string
	encoding  string
	groups    string
	mode      string
	selected  []int
	remainder bool
	unit      string
	output    string
}

var exportOpts exportOptions

var exportCmd = &cobra.Command{
	Use:   "export <in.stl>",
	Short: "Export a mesh, optionally split by physical group",
	Example: `  meshexport export part.stl --format glb
  meshexport export part.stl --format stl --groups groups.yaml --mode all --remainder
  meshexport export part.stl --format off --groups groups.yaml --mode selected --select 0,2 -o parts.zip`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, args[0], exportOpts)
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportOpts.format, "format", "f", "", "Output extension: stl, gltf, glb, obj, off, ply, iges, step (default from config)")
	f.StringVar(&exportOpts.encoding, "encoding", "", "text or binary (default from config, or the only one the format supports)")
	f.StringVarP(&exportOpts.groups, "groups", "g", "", "Physical groups YAML file")
	f.StringVarP(&exportOpts.mode, "mode", "m", "", "Group mode: none, all, selected, remainder (default all when --groups is set)")
	f.IntSliceVar(&exportOpts.selected, "select", nil, "Group indices for --mode selected")
	f.BoolVar(&exportOpts.remainder, "remainder", false, "Add the faces no group claims as an extra part (default from config)")
	f.StringVar(&exportOpts.unit, "unit", "", "Model unit: mm, cm, m, in, ft")
	f.StringVarP(&exportOpts.output, "output", "o", "", "Output file (default <output-dir>/<name>)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, input string, opts exportOptions) error {
	cfg := state.cfg
	m, err := loadModel(input, opts.groups, opts.unit)
	if err != nil {
		return err
	}

	ext := opts.format
	if ext == "" {
		ext = cfg.Export.DefaultExtension
	}
	ext = formats.NormalizeExt(ext)

	var conv kernel.Converter
	if cfg.Kernel.URL != "" {
		conv = newKernelClient()
	}
	registry := export.DefaultRegistry(export.RegistryOptions{
		STLHeader: cfg.Export.STLHeader,
		Kernel:    conv,
	})

	format, err := pickEncoding(registry, opts.encoding, cfg.Export.DefaultFormat, ext)
	if err != nil {
		return err
	}

	settings, err := exportSettings(cmd, m, opts)
	if err != nil {
		return err
	}

	exporter := newExporter(registry)
	arts, err := exporter.Start(cmd.Context(), m, settings, format, ext).Wait()
	if err != nil {
		return err
	}
	res, err := export.Package(m.Name(), arts)
	if err != nil {
		return err
	}
	path, err := writeResult(res, opts.output, cfg.Export.OutputDir)
	if err != nil {
		return err
	}
	logger.Info("export written", zap.String("path", path), zap.Int("artifacts", res.Artifacts))
	fmt.Printf("%s (%d artifacts, %d bytes)\n", path, res.Artifacts, len(res.Data))
	return nil
}

// pickEncoding resolves text or binary. An explicit choice must be
// supported; otherwise the configured default is used when the extension
// supports it, falling back to whichever encoding it does support.
func pickEncoding(r *export.Registry, explicit, fallback, ext string) (formats.FileFormat, error) {
	if explicit != "" {
		format, err := formats.ParseFileFormat(explicit)
		if err != nil {
			return format, err
		}
		if _, err := r.Find(format, ext); err != nil {
			return format, err
		}
		return format, nil
	}
	preferred, err := formats.ParseFileFormat(fallback)
	if err != nil {
		return preferred, err
	}
	for _, f := range []formats.FileFormat{preferred, formats.FormatText, formats.FormatBinary} {
		if r.Supports(f, ext) {
			return f, nil
		}
	}
	_, err = r.Find(preferred, ext)
	return preferred, err
}

func exportSettings(cmd *cobra.Command, m *scene.Model, opts exportOptions) (export.Settings, error) {
	cfg := state.cfg
	transform, err := configuredRotation()
	if err != nil {
		return export.Settings{}, err
	}
	mode := scene.GroupModeNone
	switch {
	case opts.mode != "":
		if mode, err = scene.ParseGroupMode(opts.mode); err != nil {
			return export.Settings{}, err
		}
	case len(opts.selected) > 0:
		mode = scene.GroupModeSelected
	case m.GroupCount() > 0:
		mode = scene.GroupModeAll
	}
	remainder := cfg.Export.IncludeRemainder
	if cmd.Flags().Changed("remainder") {
		remainder = opts.remainder
	}
	return export.Settings{
		Transform:        transform,
		GroupMode:        mode,
		Selected:         opts.selected,
		IncludeRemainder: remainder,
	}, nil
}

func newExporter(registry *export.Registry) *export.Exporter {
	e := &export.Exporter{
		Registry:      registry,
		Logger:        logger.Named("export"),
		RemainderName: state.cfg.Export.RemainderName,
	}
	if state.collector != nil {
		e.Recorder = state.collector
	}
	return e
}

func newKernelClient() *kernel.Client {
	client := kernel.NewClient(state.cfg.Kernel.ClientConfig(), logger.Named("kernel"))
	if state.collector != nil {
		client.SetObserver(state.collector)
	}
	return client
}

func configuredRotation() (math.Mat4, error) {
	return math.ParseRotation(state.cfg.Export.Rotation)
}
