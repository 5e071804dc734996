// Package scenetest builds small scenes for tests.
package scenetest

import (
	"github.com/pranavRajmane/Ayrton/pkg/math"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
)

// CubeMesh returns a unit cube with 8 vertices, 6 face normals and 12
// outward-facing triangles. Triangle pairs follow the face order
// -Z, +Z, -Y, +Y, -X, +X.
func CubeMesh() *scene.Mesh {
	m := scene.NewMesh("Cube")
	for _, v := range []math.Vec3{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	} {
		m.AddVertex(v)
	}
	normals := []math.Vec3{
		{X: 0, Y: 0, Z: -1}, {X: 0, Y: 0, Z: 1},
		{X: 0, Y: -1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: -1, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0},
	}
	for _, n := range normals {
		m.AddNormal(n)
	}
	faces := [][4]int{
		{0, 3, 2, 1}, // -Z
		{4, 5, 6, 7}, // +Z
		{0, 1, 5, 4}, // -Y
		{3, 7, 6, 2}, // +Y
		{0, 4, 7, 3}, // -X
		{1, 2, 6, 5}, // +X
	}
	for fi, f := range faces {
		m.AddTriangle(scene.NewTriangle(f[0], f[1], f[2]).WithNormals(fi, fi, fi))
		m.AddTriangle(scene.NewTriangle(f[0], f[2], f[3]).WithNormals(fi, fi, fi))
	}
	return m
}

// QuadMesh returns a unit square in the XY plane with texture coordinates.
func QuadMesh() *scene.Mesh {
	m := scene.NewMesh("Quad")
	m.AddVertex(math.Vec3{X: 0, Y: 0, Z: 0})
	m.AddVertex(math.Vec3{X: 1, Y: 0, Z: 0})
	m.AddVertex(math.Vec3{X: 1, Y: 1, Z: 0})
	m.AddVertex(math.Vec3{X: 0, Y: 1, Z: 0})
	m.AddUV(math.Vec2{X: 0, Y: 0})
	m.AddUV(math.Vec2{X: 1, Y: 0})
	m.AddUV(math.Vec2{X: 1, Y: 1})
	m.AddUV(math.Vec2{X: 0, Y: 1})
	m.AddTriangle(scene.NewTriangle(0, 1, 2))
	m.AddTriangle(scene.NewTriangle(0, 2, 3))
	return m
}

// CubeModel returns a model with one node "Cube" under the root placing
// CubeMesh with a red material. The returned key addresses that instance.
func CubeModel() (*scene.Model, scene.MeshInstanceKey) {
	m := scene.NewModel("cube")
	m.SetUnit(scene.UnitMillimeter)
	mat := m.AddMaterial(scene.NewMaterial("Red", scene.Color{R: 255}))
	mesh := CubeMesh()
	for i := range mesh.Triangles {
		mesh.Triangles[i].Material = mat
	}
	idx := m.AddMesh(mesh)
	n, _ := m.AddNode(scene.RootID, "Cube")
	key, _ := n.AddMesh(idx)
	return m, key
}

// InstancedModel returns a model placing one cube mesh twice: once under
// "A" translated by +2 on X, and once under "Group/B" translated by -2 on X.
// An empty container node "Empty" hangs off the root.
func InstancedModel() (m *scene.Model, a, b scene.MeshInstanceKey) {
	m = scene.NewModel("instanced")
	idx := m.AddMesh(CubeMesh())

	na, _ := m.AddNode(scene.RootID, "A")
	_ = na.SetTransform(math.Translate(2, 0, 0))
	a, _ = na.AddMesh(idx)

	group, _ := m.AddNode(scene.RootID, "Group")
	nb, _ := m.AddNode(group.ID(), "B")
	_ = nb.SetTransform(math.Translate(-2, 0, 0))
	b, _ = nb.AddMesh(idx)

	_, _ = m.AddNode(scene.RootID, "Empty")
	return m, a, b
}
