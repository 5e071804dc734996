package scene

import "github.com/pranavRajmane/Ayrton/pkg/math"

const (
	// NoMaterial selects the implicit default material.
	NoMaterial = -1
	// NoCurve marks a triangle without a source-face tag.
	NoCurve = -1
)

// Triangle references per-corner attributes of its mesh by index.
// Normal, UV and color indices are only meaningful when the mesh carries the
// matching attribute sequence.
type Triangle struct {
	V        [3]int // vertex indices
	N        [3]int // normal indices
	UV       [3]int // texture coordinate indices
	C        [3]int // vertex color indices
	Material int    // index into the model's material list, or NoMaterial
	Curve    int    // source-face tag, or NoCurve
}

// NewTriangle returns a triangle over three vertices with no material and
// no curve tag. Normal, UV and color indices default to the vertex indices.
func NewTriangle(v0, v1, v2 int) Triangle {
	v := [3]int{v0, v1, v2}
	return Triangle{V: v, N: v, UV: v, C: v, Material: NoMaterial, Curve: NoCurve}
}

// WithNormals returns a copy with the given normal indices.
func (t Triangle) WithNormals(n0, n1, n2 int) Triangle {
	t.N = [3]int{n0, n1, n2}
	return t
}

// WithUVs returns a copy with the given texture coordinate indices.
func (t Triangle) WithUVs(u0, u1, u2 int) Triangle {
	t.UV = [3]int{u0, u1, u2}
	return t
}

// WithMaterial returns a copy using the given material index.
func (t Triangle) WithMaterial(material int) Triangle {
	t.Material = material
	return t
}

// Mesh is shared geometry: vertex attributes plus indexed triangles. Meshes
// are referenced by nodes and must not be mutated while an export runs.
type Mesh struct {
	Name      string
	Vertices  []math.Vec3
	Normals   []math.Vec3
	Colors    []Color
	UVs       []math.Vec2
	Triangles []Triangle
}

// NewMesh creates an empty named mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// AddVertex appends a vertex position and returns its index.
func (m *Mesh) AddVertex(v math.Vec3) int {
	m.Vertices = append(m.Vertices, v)
	return len(m.Vertices) - 1
}

// AddNormal appends a normal and returns its index.
func (m *Mesh) AddNormal(n math.Vec3) int {
	m.Normals = append(m.Normals, n)
	return len(m.Normals) - 1
}

// AddColor appends a vertex color and returns its index.
func (m *Mesh) AddColor(c Color) int {
	m.Colors = append(m.Colors, c)
	return len(m.Colors) - 1
}

// AddUV appends a texture coordinate and returns its index.
func (m *Mesh) AddUV(uv math.Vec2) int {
	m.UVs = append(m.UVs, uv)
	return len(m.UVs) - 1
}

// AddTriangle appends a triangle and returns its index.
func (m *Mesh) AddTriangle(t Triangle) int {
	m.Triangles = append(m.Triangles, t)
	return len(m.Triangles) - 1
}

// HasNormals reports whether triangles carry normal indices.
func (m *Mesh) HasNormals() bool { return len(m.Normals) > 0 }

// HasUVs reports whether triangles carry texture coordinate indices.
func (m *Mesh) HasUVs() bool { return len(m.UVs) > 0 }

// HasColors reports whether triangles carry vertex color indices.
func (m *Mesh) HasColors() bool { return len(m.Colors) > 0 }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Triangles) }

// Corners returns the local positions of triangle i.
func (m *Mesh) Corners(i int) [3]math.Vec3 {
	t := m.Triangles[i]
	return [3]math.Vec3{m.Vertices[t.V[0]], m.Vertices[t.V[1]], m.Vertices[t.V[2]]}
}
