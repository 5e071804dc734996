// Package scene holds the scene data model: a tree of nodes placing shared
// meshes, the materials they use, and named physical groups selecting faces
// of placed meshes.
//
// A placed mesh is addressed by a MeshInstanceKey (node identity plus slot
// index). Keys are stable: nodes are never renumbered, and removing a node
// only invalidates that node's own keys.
//
// The model is not safe for concurrent use. Exports read it in a single
// pass; callers must not mutate it until the pass completes. Revision lets a
// reader detect a violation of that rule.
package scene

import (
	"fmt"
	"slices"

	"github.com/pranavRajmane/Ayrton/pkg/math"
)

// Unit is the linear unit of model coordinates.
type Unit int

const (
	UnitUnknown Unit = iota
	UnitMillimeter
	UnitCentimeter
	UnitMeter
	UnitInch
	UnitFoot
)

// String returns a human-readable unit name.
func (u Unit) String() string {
	switch u {
	case UnitMillimeter:
		return "mm"
	case UnitCentimeter:
		return "cm"
	case UnitMeter:
		return "m"
	case UnitInch:
		return "in"
	case UnitFoot:
		return "ft"
	default:
		return "unknown"
	}
}

// Model owns the node tree, meshes, materials and physical groups.
type Model struct {
	name      string
	unit      Unit
	nodes     map[NodeID]*Node
	nextID    NodeID
	meshes    []*Mesh
	materials []*Material
	groups    []*PhysicalGroup
	revision  uint64
}

// NewModel creates an empty model with a root node.
func NewModel(name string) *Model {
	m := &Model{
		name:  name,
		nodes: make(map[NodeID]*Node),
	}
	m.nodes[RootID] = &Node{id: RootID, name: "", transform: math.Identity(), model: m}
	m.nextID = RootID + 1
	return m
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// SetName renames the model.
func (m *Model) SetName(name string) {
	m.name = name
	m.touch()
}

// Unit returns the linear unit.
func (m *Model) Unit() Unit { return m.unit }

// SetUnit sets the linear unit.
func (m *Model) SetUnit(u Unit) {
	m.unit = u
	m.touch()
}

// Revision returns a counter incremented by every mutation.
func (m *Model) Revision() uint64 { return m.revision }

func (m *Model) touch() { m.revision++ }

// Root returns the root node.
func (m *Model) Root() *Node { return m.nodes[RootID] }

// Node looks up a node by identity.
func (m *Model) Node(id NodeID) (*Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// NodeCount returns the number of nodes including the root.
func (m *Model) NodeCount() int { return len(m.nodes) }

// AddNode creates a child of parent with an identity transform.
func (m *Model) AddNode(parent NodeID, name string) (*Node, error) {
	p, ok := m.nodes[parent]
	if !ok {
		return nil, fmt.Errorf("add node %q: %w: %d", name, ErrUnknownNode, parent)
	}
	n := &Node{id: m.nextID, name: name, transform: math.Identity(), parent: parent, model: m}
	m.nextID++
	m.nodes[n.id] = n
	p.children = append(p.children, n.id)
	m.touch()
	return n, nil
}

// RemoveNode removes a node and its subtree. Group membership of the removed
// instances is dropped; every other key is untouched.
func (m *Model) RemoveNode(id NodeID) error {
	if id == RootID {
		return fmt.Errorf("remove node: %w", ErrRootNode)
	}
	n, ok := m.nodes[id]
	if !ok {
		return fmt.Errorf("remove node: %w: %d", ErrUnknownNode, id)
	}
	if p, ok := m.nodes[n.parent]; ok {
		p.children = slices.DeleteFunc(p.children, func(c NodeID) bool { return c == id })
	}

	var removed []NodeID
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node, ok := m.nodes[cur]; ok {
			stack = append(stack, node.children...)
			removed = append(removed, cur)
			delete(m.nodes, cur)
		}
	}
	for _, g := range m.groups {
		g.dropNodes(removed)
	}
	m.touch()
	return nil
}

// AddMesh appends a mesh to the mesh list and returns its index.
func (m *Model) AddMesh(mesh *Mesh) int {
	m.meshes = append(m.meshes, mesh)
	m.touch()
	return len(m.meshes) - 1
}

// Mesh returns the mesh at index i, or nil.
func (m *Model) Mesh(i int) *Mesh {
	if i < 0 || i >= len(m.meshes) {
		return nil
	}
	return m.meshes[i]
}

// MeshCount returns the length of the mesh list.
func (m *Model) MeshCount() int { return len(m.meshes) }

// AddMaterial appends a material and returns its index.
func (m *Model) AddMaterial(mat *Material) int {
	m.materials = append(m.materials, mat)
	m.touch()
	return len(m.materials) - 1
}

// Material returns the material at index i, or nil.
func (m *Model) Material(i int) *Material {
	if i < 0 || i >= len(m.materials) {
		return nil
	}
	return m.materials[i]
}

// MaterialCount returns the length of the material list.
func (m *Model) MaterialCount() int { return len(m.materials) }

// instanceMesh resolves a key to its mesh.
func (m *Model) instanceMesh(key MeshInstanceKey) (*Mesh, error) {
	n, ok := m.nodes[key.Node]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnknownInstance, key, ErrUnknownNode)
	}
	idx, ok := n.MeshIndex(key.Slot)
	if !ok {
		return nil, fmt.Errorf("%w: %s: slot out of range", ErrUnknownInstance, key)
	}
	mesh := m.Mesh(idx)
	if mesh == nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnknownInstance, key, ErrInvalidMeshIndex)
	}
	return mesh, nil
}

// InstanceMesh returns the mesh placed by key.
func (m *Model) InstanceMesh(key MeshInstanceKey) (*Mesh, error) {
	return m.instanceMesh(key)
}
