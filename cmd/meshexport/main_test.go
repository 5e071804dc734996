package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranavRajmane/Ayrton/internal/config"
	"github.com/pranavRajmane/Ayrton/internal/logger"
	"github.com/pranavRajmane/Ayrton/pkg/export"
	"github.com/pranavRajmane/Ayrton/pkg/formats"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
)

// quadSTL is a unit square split into two triangles.
const quadSTL = `solid quad
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 1 1 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 1 0
      vertex 0 1 0
    endloop
  endfacet
endsolid quad
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadModel_AppliesGroups(t *testing.T) {
	logger.InitNop()
	dir := t.TempDir()
	stl := writeFile(t, dir, "plate.stl", quadSTL)
	groups := writeFile(t, dir, "groups.yaml", `
- name: lower
  color: "#ff0000"
  members:
    - node: plate
      slot: 0
      faces: [0]
- name: everything
  members:
    - node: plate
`)

	m, err := loadModel(stl, groups, "mm")
	require.NoError(t, err)
	assert.Equal(t, "plate", m.Name())
	assert.Equal(t, scene.UnitMillimeter, m.Unit())
	require.Equal(t, 2, m.GroupCount())

	lower, ok := m.GroupByName("lower")
	require.True(t, ok)
	assert.Equal(t, 1, lower.TriangleCount())
	c, ok := lower.Color()
	require.True(t, ok)
	assert.Equal(t, "#ff0000", c.String())

	all, ok := m.GroupByName("everything")
	require.True(t, ok)
	assert.Equal(t, 2, all.TriangleCount())
}

func TestLoadModel_NodeByID(t *testing.T) {
	logger.InitNop()
	dir := t.TempDir()
	stl := writeFile(t, dir, "plate.stl", quadSTL)
	groups := writeFile(t, dir, "groups.yaml", `
- name: upper
  members:
    - node: "#1"
      faces: [1]
`)
	m, err := loadModel(stl, groups, "")
	require.NoError(t, err)
	g, ok := m.GroupByName("upper")
	require.True(t, ok)
	assert.Equal(t, 1, g.TriangleCount())
}

func TestLoadModel_Errors(t *testing.T) {
	logger.InitNop()
	dir := t.TempDir()
	stl := writeFile(t, dir, "plate.stl", quadSTL)

	tests := []struct {
		name   string
		groups string
		target error
	}{
		{"unknown node", "- name: a\n  members:\n    - node: missing\n", scene.ErrUnknownNode},
		{"bad face", "- name: a\n  members:\n    - node: plate\n      faces: [7]\n", scene.ErrInvalidFaceIndex},
		{"bad slot", "- name: a\n  members:\n    - node: plate\n      slot: 3\n", scene.ErrUnknownInstance},
		{"duplicate group", "- name: a\n- name: a\n", scene.ErrDuplicateGroupName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := writeFile(t, t.TempDir(), "groups.yaml", tt.groups)
			_, err := loadModel(stl, groups, "")
			assert.ErrorIs(t, err, tt.target)
		})
	}

	_, err := loadModel(stl, "", "furlong")
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "- name: [\n")
	_, err = loadModel(stl, bad, "")
	assert.Error(t, err)
}

func TestPickEncoding(t *testing.T) {
	r := export.DefaultRegistry(export.RegistryOptions{})

	tests := []struct {
		explicit, fallback, ext string
		want                    formats.FileFormat
		wantErr                 bool
	}{
		{"", "binary", "glb", formats.FormatBinary, false},
		{"", "binary", "gltf", formats.FormatText, false},
		{"", "binary", "obj", formats.FormatText, false},
		{"", "text", "stl", formats.FormatText, false},
		{"binary", "text", "stl", formats.FormatBinary, false},
		{"binary", "text", "obj", formats.FormatBinary, true},
		{"", "binary", "step", formats.FormatBinary, true},
		{"hex", "binary", "stl", formats.FormatText, true},
	}
	for _, tt := range tests {
		got, err := pickEncoding(r, tt.explicit, tt.fallback, tt.ext)
		if tt.wantErr {
			assert.Error(t, err, "%s/%s", tt.explicit, tt.ext)
			continue
		}
		require.NoError(t, err, "%s/%s", tt.explicit, tt.ext)
		assert.Equal(t, tt.want, got, "%s/%s", tt.explicit, tt.ext)
	}
}

func TestWriteResult(t *testing.T) {
	dir := t.TempDir()
	res := export.Result{Name: "part.stl", Data: []byte("solid part\nendsolid part\n"), Artifacts: 1}

	path, err := writeResult(res, "", filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "part.stl"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, res.Data, data)

	explicit := filepath.Join(dir, "custom.stl")
	path, err = writeResult(res, explicit, "ignored")
	require.NoError(t, err)
	assert.Equal(t, explicit, path)
}

func TestWriteConfig(t *testing.T) {
	logger.InitNop()
	path := filepath.Join(t.TempDir(), "nested", "meshexport.yaml")
	cfg := config.Default()
	cfg.Export.RemainderName = "Leftovers"

	written, err := writeConfig(cfg, path, false)
	require.NoError(t, err)
	assert.Equal(t, path, written)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "remainder_name: Leftovers")

	_, err = writeConfig(config.Default(), path, false)
	require.ErrorIs(t, err, errConfigExists)

	_, err = writeConfig(config.Default(), path, true)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Leftovers")
}
