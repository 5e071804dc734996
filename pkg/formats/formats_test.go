package formats

import (
	"context"
	"errors"
	"testing"

	"github.com/pranavRajmane/Ayrton/pkg/math"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
	"github.com/pranavRajmane/Ayrton/pkg/view"
)

func TestParseFileFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    FileFormat
		wantErr bool
	}{
		{"text", FormatText, false},
		{"ASCII", FormatText, false},
		{"binary", FormatBinary, false},
		{"bin", FormatBinary, false},
		{"", FormatText, true},
		{"utf8", FormatText, true},
	}
	for _, tt := range tests {
		got, err := ParseFileFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFileFormat(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFileFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if FormatBinary.String() != "binary" || FileFormat(7).String() != "Unknown(7)" {
		t.Error("unexpected String output")
	}
}

func TestNormalizeExt(t *testing.T) {
	for in, want := range map[string]string{
		"stl":   "stl",
		".GLB":  "glb",
		"..obj": ".obj",
		"":      "",
	} {
		if got := NormalizeExt(in); got != want {
			t.Errorf("NormalizeExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEncoders_ArtifactNamesAreSanitized(t *testing.T) {
	m, _ := triangleModel()
	v := view.New(m, view.Options{Name: "../Front Panel"})
	arts, err := (&STLEncoder{Binary: true}).ExportContent(context.Background(), v)
	if err != nil {
		t.Fatal(err)
	}
	if arts[0].Name != "Front_Panel.stl" {
		t.Errorf("name = %q", arts[0].Name)
	}
}

func TestEncoders_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := cubeView(t)
	encoders := []Encoder{
		&STLEncoder{}, &STLEncoder{Binary: true},
		&GLTFEncoder{}, &GLTFEncoder{Binary: true},
		OBJEncoder{}, OFFEncoder{}, &PLYEncoder{}, &PLYEncoder{Binary: true},
	}
	for _, enc := range encoders {
		arts, err := enc.ExportContent(ctx, v)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("%T: error = %v, want context.Canceled", enc, err)
		}
		if arts != nil {
			t.Errorf("%T: returned artifacts after cancellation", enc)
		}
	}
}

func triangleModel() (*scene.Model, scene.MeshInstanceKey) {
	m := scene.NewModel("tri")
	mesh := scene.NewMesh("tri")
	mesh.AddVertex(math.Vec3{})
	mesh.AddVertex(math.Vec3{X: 1})
	mesh.AddVertex(math.Vec3{Y: 1})
	mesh.AddTriangle(scene.NewTriangle(0, 1, 2))
	idx := m.AddMesh(mesh)
	key, _ := m.Root().AddMesh(idx)
	return m, key
}
