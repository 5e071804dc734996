package scene

import (
	"fmt"
	"slices"

	"github.com/pranavRajmane/Ayrton/pkg/math"
)

// NodeID identifies a node for the lifetime of its model. IDs are never
// reused, so keys derived from a removed node cannot alias a new one.
type NodeID uint32

// RootID is the identity of every model's root node.
const RootID NodeID = 0

// Node is an element of the scene tree. It owns its children and references
// meshes of the model by index.
type Node struct {
	id        NodeID
	name      string
	transform math.Mat4
	parent    NodeID
	children  []NodeID
	meshes    []int
	model     *Model
}

// ID returns the node identity.
func (n *Node) ID() NodeID { return n.id }

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// SetName renames the node. Keys are unaffected.
func (n *Node) SetName(name string) {
	n.name = name
	n.model.touch()
}

// Transform returns the local transform.
func (n *Node) Transform() math.Mat4 { return n.transform }

// SetTransform replaces the local transform. The root keeps identity.
func (n *Node) SetTransform(m math.Mat4) error {
	if n.id == RootID {
		return fmt.Errorf("set transform: %w", ErrRootNode)
	}
	n.transform = m
	n.model.touch()
	return nil
}

// Parent returns the parent id; ok is false for the root.
func (n *Node) Parent() (id NodeID, ok bool) {
	if n.id == RootID {
		return 0, false
	}
	return n.parent, true
}

// Children returns the child ids in order.
func (n *Node) Children() []NodeID { return slices.Clone(n.children) }

// MeshIndices returns the mesh slot list.
func (n *Node) MeshIndices() []int { return slices.Clone(n.meshes) }

// MeshCount returns the number of mesh slots.
func (n *Node) MeshCount() int { return len(n.meshes) }

// MeshIndex returns the mesh referenced by slot.
func (n *Node) MeshIndex(slot int) (int, bool) {
	if slot < 0 || slot >= len(n.meshes) {
		return 0, false
	}
	return n.meshes[slot], true
}

// AddMesh places mesh meshIndex on this node and returns the new instance key.
func (n *Node) AddMesh(meshIndex int) (MeshInstanceKey, error) {
	if meshIndex < 0 || meshIndex >= len(n.model.meshes) {
		return MeshInstanceKey{}, fmt.Errorf("node %d: %w: %d", n.id, ErrInvalidMeshIndex, meshIndex)
	}
	n.meshes = append(n.meshes, meshIndex)
	n.model.touch()
	return MeshInstanceKey{Node: n.id, Slot: len(n.meshes) - 1}, nil
}

// IsEmpty reports whether the node has neither children nor meshes.
func (n *Node) IsEmpty() bool {
	return len(n.children) == 0 && len(n.meshes) == 0
}
