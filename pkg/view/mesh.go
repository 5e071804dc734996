package view

import (
	"github.com/pranavRajmane/Ayrton/pkg/math"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
)

// Primitive is the triangles of an output mesh that share one material.
type Primitive struct {
	Material int      // dense output material index
	Indices  []uint32 // three per triangle, into the mesh's vertex arrays
}

// Mesh is an output mesh: a source mesh restricted to the view's triangles,
// with per-corner attributes unified into one vertex list. Normals, UVs and
// Colors are nil when the source mesh lacks them, otherwise parallel to
// Positions.
type Mesh struct {
	Index     int
	Source    int // source mesh index, for diagnostics only
	Name      string
	Positions []math.Vec3
	Normals   []math.Vec3
	UVs       []math.Vec2
	Colors    []scene.Color

	Primitives []Primitive

	// Faces lists the source triangle indices in output order. Corners
	// holds the three unified vertex indices of each, in the same order.
	Faces   []int
	Corners [][3]uint32
	// Materials holds the dense material index of each face.
	Materials []int
}

// TriangleCount returns the number of output triangles.
func (m *Mesh) TriangleCount() int { return len(m.Faces) }

// Bounds returns the local-space box of the output vertices.
func (m *Mesh) Bounds() scene.Bounds {
	b := scene.EmptyBounds()
	for _, p := range m.Positions {
		b.Extend(p)
	}
	return b
}

type cornerKey struct {
	v, n, uv, c int
}

// buildMesh unifies the corners of the given source triangles. Materials are
// registered in first-encountered order.
func buildMesh(index, source int, src *scene.Mesh, faces []int, mats *materialTable) *Mesh {
	out := &Mesh{
		Index:  index,
		Source: source,
		Name:   src.Name,
		Faces:  faces,
	}
	hasN, hasUV, hasC := src.HasNormals(), src.HasUVs(), src.HasColors()

	lookup := make(map[cornerKey]uint32)
	prims := make(map[int]int) // material -> primitive slot
	for _, fi := range faces {
		t := src.Triangles[fi]
		mat := mats.index(t.Material)

		var corners [3]uint32
		for c := 0; c < 3; c++ {
			key := cornerKey{v: t.V[c], n: -1, uv: -1, c: -1}
			if hasN {
				key.n = t.N[c]
			}
			if hasUV {
				key.uv = t.UV[c]
			}
			if hasC {
				key.c = t.C[c]
			}
			idx, ok := lookup[key]
			if !ok {
				idx = uint32(len(out.Positions))
				lookup[key] = idx
				out.Positions = append(out.Positions, src.Vertices[key.v])
				if hasN {
					out.Normals = append(out.Normals, src.Normals[key.n])
				}
				if hasUV {
					out.UVs = append(out.UVs, src.UVs[key.uv])
				}
				if hasC {
					out.Colors = append(out.Colors, src.Colors[key.c])
				}
			}
			corners[c] = idx
		}
		out.Corners = append(out.Corners, corners)
		out.Materials = append(out.Materials, mat)

		slot, ok := prims[mat]
		if !ok {
			slot = len(out.Primitives)
			prims[mat] = slot
			out.Primitives = append(out.Primitives, Primitive{Material: mat})
		}
		p := &out.Primitives[slot]
		p.Indices = append(p.Indices, corners[0], corners[1], corners[2])
	}
	return out
}

// materialTable remaps source material indices to dense output indices.
type materialTable struct {
	model *scene.Model
	dense map[int]int
	list  []*scene.Material
}

func newMaterialTable(m *scene.Model) *materialTable {
	return &materialTable{model: m, dense: make(map[int]int)}
}

func (t *materialTable) index(source int) int {
	if i, ok := t.dense[source]; ok {
		return i
	}
	mat := t.model.Material(source)
	if source == scene.NoMaterial || mat == nil {
		source = scene.NoMaterial
		if i, ok := t.dense[source]; ok {
			return i
		}
		mat = scene.DefaultMaterial()
	}
	i := len(t.list)
	t.dense[source] = i
	t.list = append(t.list, mat)
	return i
}
