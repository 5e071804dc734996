package formats

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/pranavRajmane/Ayrton/pkg/encoding"
	"github.com/pranavRajmane/Ayrton/pkg/view"
)

// OFFEncoder writes the Object File Format: shared world-space vertices
// and triangle faces, with per-vertex colors when every instance has them.
type OFFEncoder struct{}

// CanExport implements Encoder.
func (OFFEncoder) CanExport(format FileFormat, ext string) bool {
	return format == FormatText && NormalizeExt(ext) == "off"
}

// ExportContent implements Encoder.
func (OFFEncoder) ExportContent(ctx context.Context, v *view.View) ([]Artifact, error) {
	m, err := Flatten(ctx, v, MaxInt32Index)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	if m.Colors != nil {
		b.WriteString("COFF\n")
	} else {
		b.WriteString("OFF\n")
	}
	fmt.Fprintf(&b, "%d %d 0\n", len(m.Positions), len(m.Faces))
	for i, p := range m.Positions {
		b.WriteString(encoding.FormatFloat32(p.X))
		b.WriteByte(' ')
		b.WriteString(encoding.FormatFloat32(p.Y))
		b.WriteByte(' ')
		b.WriteString(encoding.FormatFloat32(p.Z))
		if m.Colors != nil {
			c := m.Colors[i]
			fmt.Fprintf(&b, " %d %d %d 255", c.R, c.G, c.B)
		}
		b.WriteByte('\n')
	}
	for _, f := range m.Faces {
		b.WriteString("3 ")
		b.WriteString(strconv.FormatUint(uint64(f[0]), 10))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatUint(uint64(f[1]), 10))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatUint(uint64(f[2]), 10))
		b.WriteByte('\n')
	}
	return []Artifact{{Name: baseName(v) + ".off", Data: b.Bytes(), Text: true}}, nil
}
