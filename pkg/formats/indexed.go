package formats

import (
	"context"
	"fmt"
	gomath "math"

	"github.com/pranavRajmane/Ayrton/pkg/math"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
	"github.com/pranavRajmane/Ayrton/pkg/view"
)

// IndexedMesh is the whole view flattened into world space with shared
// vertices per instance. Face order matches the view's triangle ordinals.
type IndexedMesh struct {
	Positions []math.Vec3
	Colors    []scene.Color // nil unless every instance carries colors
	Faces     [][3]uint32
}

// Flatten builds the indexed mesh of v, failing with
// ErrSerializationOverflow when the vertex count exceeds maxIndex.
func Flatten(ctx context.Context, v *view.View, maxIndex uint64) (*IndexedMesh, error) {
	if uint64(v.VertexCount()) > maxIndex {
		return nil, fmt.Errorf("%d vertices: %w", v.VertexCount(), ErrSerializationOverflow)
	}

	withColors := v.MeshInstanceCount() > 0
	for _, inst := range v.Instances() {
		withColors = withColors && inst.Mesh.Colors != nil
	}

	out := &IndexedMesh{Faces: make([][3]uint32, 0, v.TriangleCount())}
	written := 0
	for _, inst := range v.Instances() {
		base := uint32(len(out.Positions))
		out.Positions = append(out.Positions, inst.WorldPositions()...)
		if withColors {
			out.Colors = append(out.Colors, inst.Mesh.Colors...)
		}
		mirrored := inst.Mirrored()
		for _, c := range inst.Mesh.Corners {
			if err := checkCancel(ctx, written); err != nil {
				return nil, err
			}
			written++
			f := [3]uint32{base + c[0], base + c[1], base + c[2]}
			if mirrored {
				f[1], f[2] = f[2], f[1]
			}
			out.Faces = append(out.Faces, f)
		}
	}
	return out, nil
}

// MaxInt32Index bounds formats storing indices as signed 32-bit integers.
const MaxInt32Index = gomath.MaxInt32
