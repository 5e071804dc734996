package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pranavRajmane/Ayrton/internal/logger"
	"github.com/pranavRajmane/Ayrton/pkg/export"
	"github.com/pranavRajmane/Ayrton/pkg/formats"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
)

var units = map[string]scene.Unit{
	"":   scene.UnitUnknown,
	"mm": scene.UnitMillimeter,
	"cm": scene.UnitCentimeter,
	"m":  scene.UnitMeter,
	"in": scene.UnitInch,
	"ft": scene.UnitFoot,
}

func parseUnit(s string) (scene.Unit, error) {
	u, ok := units[strings.ToLower(s)]
	if !ok {
		return scene.UnitUnknown, fmt.Errorf("unknown unit %q (want mm, cm, m, in or ft)", s)
	}
	return u, nil
}

// loadModel reads an STL file into a model named after the file stem and
// applies the optional groups file.
func loadModel(path, groupsPath, unit string) (*scene.Model, error) {
	u, err := parseUnit(unit)
	if err != nil {
		return nil, err
	}
	stl, err := formats.ParseSTLFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m := stl.ToModel(name)
	m.SetUnit(u)

	if groupsPath != "" {
		gf, err := loadGroupsFile(groupsPath)
		if err != nil {
			return nil, err
		}
		if err := gf.apply(m); err != nil {
			return nil, fmt.Errorf("applying %s: %w", groupsPath, err)
		}
	}
	logger.Debug("model loaded",
		zap.String("path", path),
		zap.Int("triangles", m.TriangleCount()),
		zap.Int("groups", m.GroupCount()))
	return m, nil
}

// writeResult saves a packaged export. An explicit output path wins over
// the configured output directory.
func writeResult(res export.Result, output, dir string) (string, error) {
	path := output
	if path == "" {
		path = filepath.Join(dir, res.Name)
	}
	if d := filepath.Dir(path); d != "." {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
