// Package view builds read-only export projections of a scene model.
//
// A View restricts the model to visible mesh instances and, optionally, to a
// face set (one physical group or the remainder). It renumbers nodes, meshes
// and materials densely in first-encountered traversal order, so encoders
// never see source indices.
package view

import (
	"slices"

	"github.com/RoaringBitmap/roaring"

	"github.com/pranavRajmane/Ayrton/pkg/encoding"
	"github.com/pranavRajmane/Ayrton/pkg/math"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
)

// Options configures a View.
type Options struct {
	// Visible filters mesh instances. Nil means every instance is visible.
	Visible func(scene.MeshInstanceKey) bool
	// Transform is applied to all output geometry. The zero value means
	// identity.
	Transform math.Mat4
	// Faces restricts the view to the listed triangles. Nil means all.
	Faces scene.FaceSet
	// Name overrides the model name.
	Name string
	// Partition annotates the view with group membership for encoders that
	// carry groups natively.
	Partition *scene.Partition
	// Files is the set companion files (textures, material libraries) are
	// named from. Views of one multi-part export share it so their files
	// never collide. Nil means a fresh set.
	Files *encoding.UniqueNames
}

// Node is an output node. Top-level nodes have Parent -1 and carry the view
// transform in Local.
type Node struct {
	Index    int
	Name     string
	Local    math.Mat4
	Parent   int
	Children []int
	Meshes   []int // output mesh indices, one per visible slot
}

// Instance is a visible mesh placement in the output.
type Instance struct {
	Key   scene.MeshInstanceKey
	Node  int // output node index
	Mesh  *Mesh
	World math.Mat4 // includes the view transform
}

// Mirrored reports whether the world transform flips orientation.
func (inst *Instance) Mirrored() bool { return inst.World.Determinant3() < 0 }

// WorldPositions returns the mesh positions in world space.
func (inst *Instance) WorldPositions() []math.Vec3 {
	out := make([]math.Vec3, len(inst.Mesh.Positions))
	for i, p := range inst.Mesh.Positions {
		out[i] = inst.World.TransformVec3(p)
	}
	return out
}

// WorldNormals returns the mesh normals rotated into world space. Source
// normals are only trusted under a pure rotation; for any other transform,
// or when the mesh has no normals, it returns nil and callers fall back to
// face normals.
func (inst *Instance) WorldNormals() []math.Vec3 {
	if inst.Mesh.Normals == nil || !inst.World.IsRotation(1e-4) {
		return nil
	}
	out := make([]math.Vec3, len(inst.Mesh.Normals))
	for i, n := range inst.Mesh.Normals {
		out[i] = inst.World.TransformDirection(n).Normalize()
	}
	return out
}

// Triangle is one output triangle in world space.
type Triangle struct {
	Key       scene.MeshInstanceKey
	Source    int // triangle index local to the source mesh
	Ordinal   int // position in the view's triangle order
	Material  int // dense output material index
	Positions [3]math.Vec3
	Normal    math.Vec3
}

// View is a read-only projection of a model for one export.
type View struct {
	model     *scene.Model
	revision  uint64
	name      string
	transform math.Mat4
	files     *encoding.UniqueNames

	nodes     []*Node
	roots     []int
	meshes    []*Mesh
	materials []*scene.Material
	instances []*Instance
	triangles int
	groups    []Group
}

type candidate struct {
	inst  scene.MeshInstance
	faces []int // nil: every triangle
}

// New builds a view of m. The model must not be mutated while the view is
// in use; Stale reports whether it was.
func New(m *scene.Model, opts Options) *View {
	v := &View{
		model:     m,
		revision:  m.Revision(),
		name:      opts.Name,
		transform: opts.Transform,
		files:     opts.Files,
	}
	if v.files == nil {
		v.files = encoding.NewUniqueNames()
	}
	if v.name == "" {
		v.name = m.Name()
	}
	if v.transform == (math.Mat4{}) {
		v.transform = math.Identity()
	}

	// Visible instances and the triangles each contributes.
	var cands []candidate
	used := make(map[scene.NodeID]bool)
	m.EnumerateMeshInstances(func(inst scene.MeshInstance) bool {
		if opts.Visible != nil && !opts.Visible(inst.Key) {
			return true
		}
		total := len(inst.Mesh.Triangles)
		if total == 0 {
			return true
		}
		var faces []int
		if opts.Faces != nil {
			b, ok := opts.Faces[inst.Key]
			if !ok || b.IsEmpty() {
				return true
			}
			if int(b.GetCardinality()) != total || int(b.Maximum()) != total-1 {
				faces = bitmapFaces(b, total)
				if len(faces) == 0 {
					return true
				}
			}
		}
		cands = append(cands, candidate{inst: inst, faces: faces})
		used[inst.Key.Node] = true
		return true
	})

	// Keep every node that places a visible instance, plus its ancestors.
	keep := make(map[scene.NodeID]bool, len(used))
	for id := range used {
		for cur := id; ; {
			if keep[cur] {
				break
			}
			keep[cur] = true
			n, _ := m.Node(cur)
			parent, ok := n.Parent()
			if !ok {
				break
			}
			cur = parent
		}
	}

	dense := make(map[scene.NodeID]int, len(keep))
	m.EnumerateNodes(func(n *scene.Node, _ math.Mat4) bool {
		if !keep[n.ID()] {
			return true
		}
		if n.ID() == scene.RootID {
			// The root only becomes a node when it places meshes itself.
			if used[scene.RootID] {
				dense[scene.RootID] = v.addNode(v.name, v.transform, -1)
			}
			return true
		}
		parentID, _ := n.Parent()
		parent, ok := dense[parentID]
		if !ok || parentID == scene.RootID {
			dense[n.ID()] = v.addNode(n.Name(), v.transform.Mul(n.Transform()), -1)
		} else {
			dense[n.ID()] = v.addNode(n.Name(), n.Transform(), parent)
		}
		return true
	})

	mats := newMaterialTable(m)
	shared := make(map[int]*Mesh)
	for _, c := range cands {
		var out *Mesh
		if c.faces == nil {
			out = shared[c.inst.MeshIndex]
		}
		if out == nil {
			faces := c.faces
			if faces == nil {
				faces = allFaces(len(c.inst.Mesh.Triangles))
			}
			out = buildMesh(len(v.meshes), c.inst.MeshIndex, c.inst.Mesh, faces, mats)
			v.meshes = append(v.meshes, out)
			if c.faces == nil {
				shared[c.inst.MeshIndex] = out
			}
		}
		node := dense[c.inst.Key.Node]
		v.nodes[node].Meshes = append(v.nodes[node].Meshes, out.Index)
		v.instances = append(v.instances, &Instance{
			Key:   c.inst.Key,
			Node:  node,
			Mesh:  out,
			World: v.transform.Mul(c.inst.World),
		})
		v.triangles += out.TriangleCount()
	}
	v.materials = mats.list

	if opts.Partition != nil {
		v.groups = v.projectGroups(opts.Partition)
	}
	return v
}

func (v *View) addNode(name string, local math.Mat4, parent int) int {
	n := &Node{Index: len(v.nodes), Name: name, Local: local, Parent: parent}
	v.nodes = append(v.nodes, n)
	if parent < 0 {
		v.roots = append(v.roots, n.Index)
	} else {
		v.nodes[parent].Children = append(v.nodes[parent].Children, n.Index)
	}
	return n.Index
}

func allFaces(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func bitmapFaces(b *roaring.Bitmap, limit int) []int {
	out := make([]int, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		f := int(it.Next())
		if f >= limit {
			break
		}
		out = append(out, f)
	}
	return out
}

// Name returns the output name.
func (v *View) Name() string { return v.name }

// Files returns the name set companion files are allocated from.
func (v *View) Files() *encoding.UniqueNames { return v.files }

// Unit returns the model unit.
func (v *View) Unit() scene.Unit { return v.model.Unit() }

// Transform returns the view transform.
func (v *View) Transform() math.Mat4 { return v.transform }

// Stale reports whether the model changed after the view was built.
func (v *View) Stale() bool { return v.model.Revision() != v.revision }

// Empty reports whether the view has no triangles.
func (v *View) Empty() bool { return v.triangles == 0 }

// Nodes returns the output nodes in dense order. Parents precede children.
func (v *View) Nodes() []*Node { return v.nodes }

// Roots returns the indices of top-level output nodes.
func (v *View) Roots() []int { return slices.Clone(v.roots) }

// Meshes returns the output meshes in dense order. Instances of a source
// mesh that keep all of its triangles share one output mesh.
func (v *View) Meshes() []*Mesh { return v.meshes }

// Materials returns the materials referenced by output triangles, in dense
// order. NoMaterial maps to a synthesized default material.
func (v *View) Materials() []*scene.Material { return v.materials }

// Instances returns the visible mesh placements in traversal order.
func (v *View) Instances() []*Instance { return v.instances }

// EnumerateMeshInstances visits visible placements. Returning false stops.
func (v *View) EnumerateMeshInstances(fn func(*Instance) bool) {
	for _, inst := range v.instances {
		if !fn(inst) {
			return
		}
	}
}

// EnumerateTriangles visits output triangles in world space, in view order.
// Triangles of mirrored instances have their winding reversed so face
// normals keep pointing outward. Returning false stops.
func (v *View) EnumerateTriangles(fn func(Triangle) bool) {
	ordinal := 0
	for _, inst := range v.instances {
		mesh := inst.Mesh
		mirrored := inst.Mirrored()
		for i, fi := range mesh.Faces {
			c := mesh.Corners[i]
			p := [3]math.Vec3{
				inst.World.TransformVec3(mesh.Positions[c[0]]),
				inst.World.TransformVec3(mesh.Positions[c[1]]),
				inst.World.TransformVec3(mesh.Positions[c[2]]),
			}
			if mirrored {
				p[1], p[2] = p[2], p[1]
			}
			t := Triangle{
				Key:       inst.Key,
				Source:    fi,
				Ordinal:   ordinal,
				Material:  mesh.Materials[i],
				Positions: p,
				Normal:    math.FaceNormal(p[0], p[1], p[2]),
			}
			ordinal++
			if !fn(t) {
				return
			}
		}
	}
}

// MeshInstanceCount returns the number of visible placements.
func (v *View) MeshInstanceCount() int { return len(v.instances) }

// TriangleCount returns the number of output triangles.
func (v *View) TriangleCount() int { return v.triangles }

// VertexCount returns the unified vertex total over all placements.
func (v *View) VertexCount() int {
	n := 0
	for _, inst := range v.instances {
		n += len(inst.Mesh.Positions)
	}
	return n
}

// NormalCount returns the normal total over all placements.
func (v *View) NormalCount() int {
	n := 0
	for _, inst := range v.instances {
		n += len(inst.Mesh.Normals)
	}
	return n
}

// UVCount returns the texture coordinate total over all placements.
func (v *View) UVCount() int {
	n := 0
	for _, inst := range v.instances {
		n += len(inst.Mesh.UVs)
	}
	return n
}

// Bounds returns the world-space box of the output; ok is false when empty.
func (v *View) Bounds() (b scene.Bounds, ok bool) {
	b = scene.EmptyBounds()
	for _, inst := range v.instances {
		for _, p := range inst.Mesh.Positions {
			b.Extend(inst.World.TransformVec3(p))
			ok = true
		}
	}
	return b, ok
}
