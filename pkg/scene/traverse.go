package scene

import "github.com/pranavRajmane/Ayrton/pkg/math"

// MeshInstance is a mesh placed by a node, with the node's world transform
// (root-to-node composition of local transforms).
type MeshInstance struct {
	Key       MeshInstanceKey
	Node      *Node
	MeshIndex int
	Mesh      *Mesh
	World     math.Mat4
}

// WorldTriangle is one triangle of a mesh instance in world space.
type WorldTriangle struct {
	Key       MeshInstanceKey
	Index     int // triangle index local to the instance's mesh
	Triangle  Triangle
	Positions [3]math.Vec3
	Normal    math.Vec3 // geometric face normal from the world positions
}

// Triangle returns triangle i of the instance in world space.
func (inst MeshInstance) Triangle(i int) WorldTriangle {
	t := inst.Mesh.Triangles[i]
	c := inst.Mesh.Corners(i)
	p := [3]math.Vec3{
		inst.World.TransformVec3(c[0]),
		inst.World.TransformVec3(c[1]),
		inst.World.TransformVec3(c[2]),
	}
	return WorldTriangle{
		Key:       inst.Key,
		Index:     i,
		Triangle:  t,
		Positions: p,
		Normal:    math.FaceNormal(p[0], p[1], p[2]),
	}
}

// EnumerateNodes walks the tree depth-first in child order, passing each node
// with its world transform. Returning false from fn stops the walk.
func (m *Model) EnumerateNodes(fn func(n *Node, world math.Mat4) bool) {
	m.walk(m.Root(), math.Identity(), fn)
}

func (m *Model) walk(n *Node, parent math.Mat4, fn func(*Node, math.Mat4) bool) bool {
	world := parent.Mul(n.transform)
	if !fn(n, world) {
		return false
	}
	for _, id := range n.children {
		child, ok := m.nodes[id]
		if !ok {
			continue
		}
		if !m.walk(child, world, fn) {
			return false
		}
	}
	return true
}

// EnumerateMeshInstances visits every (node, slot) pair reachable from the
// root in deterministic order. Returning false from fn stops the walk.
func (m *Model) EnumerateMeshInstances(fn func(MeshInstance) bool) {
	m.EnumerateNodes(func(n *Node, world math.Mat4) bool {
		for slot, idx := range n.meshes {
			mesh := m.Mesh(idx)
			if mesh == nil {
				continue
			}
			inst := MeshInstance{
				Key:       MeshInstanceKey{Node: n.id, Slot: slot},
				Node:      n,
				MeshIndex: idx,
				Mesh:      mesh,
				World:     world,
			}
			if !fn(inst) {
				return false
			}
		}
		return true
	})
}

// EnumerateTriangles visits every triangle of every mesh instance in world
// space. Returning false from fn stops the walk.
func (m *Model) EnumerateTriangles(fn func(WorldTriangle) bool) {
	m.EnumerateMeshInstances(func(inst MeshInstance) bool {
		for i := range inst.Mesh.Triangles {
			if !fn(inst.Triangle(i)) {
				return false
			}
		}
		return true
	})
}

// Counts holds attribute totals over all mesh instances.
type Counts struct {
	Instances int
	Vertices  int
	Normals   int
	UVs       int
	Triangles int
}

// Counts computes totals by traversal, so they never go stale after edits.
func (m *Model) Counts() Counts {
	var c Counts
	m.EnumerateMeshInstances(func(inst MeshInstance) bool {
		c.Instances++
		c.Vertices += len(inst.Mesh.Vertices)
		c.Normals += len(inst.Mesh.Normals)
		c.UVs += len(inst.Mesh.UVs)
		c.Triangles += len(inst.Mesh.Triangles)
		return true
	})
	return c
}

// MeshInstanceCount returns the number of reachable (node, slot) pairs.
func (m *Model) MeshInstanceCount() int { return m.Counts().Instances }

// VertexCount returns the vertex total over all instances.
func (m *Model) VertexCount() int { return m.Counts().Vertices }

// NormalCount returns the normal total over all instances.
func (m *Model) NormalCount() int { return m.Counts().Normals }

// UVCount returns the texture coordinate total over all instances.
func (m *Model) UVCount() int { return m.Counts().UVs }

// TriangleCount returns the triangle total over all instances.
func (m *Model) TriangleCount() int { return m.Counts().Triangles }

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Extend grows the box to include p.
func (b *Bounds) Extend(p math.Vec3) {
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Size returns the extent along each axis.
func (b Bounds) Size() math.Vec3 { return b.Max.Sub(b.Min) }

// EmptyBounds returns an inverted box that any Extend call replaces.
func EmptyBounds() Bounds {
	return Bounds{
		Min: math.Vec3{X: 1e30, Y: 1e30, Z: 1e30},
		Max: math.Vec3{X: -1e30, Y: -1e30, Z: -1e30},
	}
}

// Bounds returns the world-space box of all instanced vertices; ok is false
// when the model has no geometry.
func (m *Model) Bounds() (b Bounds, ok bool) {
	b = EmptyBounds()
	m.EnumerateMeshInstances(func(inst MeshInstance) bool {
		for _, v := range inst.Mesh.Vertices {
			b.Extend(inst.World.TransformVec3(v))
			ok = true
		}
		return true
	})
	return b, ok
}
