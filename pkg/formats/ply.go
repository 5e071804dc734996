package formats

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/pranavRajmane/Ayrton/pkg/encoding"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
	"github.com/pranavRajmane/Ayrton/pkg/view"
)

// PLYEncoder writes the Stanford polygon format in ASCII or binary
// little-endian encoding.
type PLYEncoder struct {
	Binary bool
}

// CanExport implements Encoder.
func (e *PLYEncoder) CanExport(format FileFormat, ext string) bool {
	return NormalizeExt(ext) == "ply" && (format == FormatBinary) == e.Binary
}

// ExportContent implements Encoder.
func (e *PLYEncoder) ExportContent(ctx context.Context, v *view.View) ([]Artifact, error) {
	m, err := Flatten(ctx, v, MaxInt32Index)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.WriteString("ply\n")
	if e.Binary {
		b.WriteString("format binary_little_endian 1.0\n")
	} else {
		b.WriteString("format ascii 1.0\n")
	}
	fmt.Fprintf(&b, "comment %s\n", gltfGenerator)
	if unit := v.Unit(); unit != scene.UnitUnknown {
		fmt.Fprintf(&b, "comment unit %s\n", unit)
	}
	fmt.Fprintf(&b, "element vertex %d\n", len(m.Positions))
	b.WriteString("property float x\nproperty float y\nproperty float z\n")
	if m.Colors != nil {
		b.WriteString("property uchar red\nproperty uchar green\nproperty uchar blue\n")
	}
	fmt.Fprintf(&b, "element face %d\n", len(m.Faces))
	b.WriteString("property list uchar int vertex_indices\n")
	b.WriteString("end_header\n")

	if e.Binary {
		out := b.Bytes()
		for i, p := range m.Positions {
			out = appendVec3(out, p)
			if m.Colors != nil {
				c := m.Colors[i]
				out = append(out, c.R, c.G, c.B)
			}
		}
		for _, f := range m.Faces {
			out = append(out, 3)
			for _, idx := range f {
				out = binary.LittleEndian.AppendUint32(out, idx)
			}
		}
		return []Artifact{{Name: baseName(v) + ".ply", Data: out}}, nil
	}

	for i, p := range m.Positions {
		fmt.Fprintf(&b, "%s %s %s", encoding.FormatFloat32(p.X), encoding.FormatFloat32(p.Y), encoding.FormatFloat32(p.Z))
		if m.Colors != nil {
			c := m.Colors[i]
			fmt.Fprintf(&b, " %d %d %d", c.R, c.G, c.B)
		}
		b.WriteByte('\n')
	}
	for _, f := range m.Faces {
		fmt.Fprintf(&b, "3 %d %d %d\n", f[0], f[1], f[2])
	}
	return []Artifact{{Name: baseName(v) + ".ply", Data: b.Bytes(), Text: true}}, nil
}
