package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// MeshInstanceKey addresses one placed occurrence of a mesh: the node that
// places it and the slot index inside that node's mesh list. Keys stay valid
// for the lifetime of the node.
type MeshInstanceKey struct {
	Node NodeID
	Slot int
}

// String returns the key as "node:slot".
func (k MeshInstanceKey) String() string {
	return fmt.Sprintf("%d:%d", k.Node, k.Slot)
}

// Less orders keys by node, then slot.
func (k MeshInstanceKey) Less(other MeshInstanceKey) bool {
	if k.Node != other.Node {
		return k.Node < other.Node
	}
	return k.Slot < other.Slot
}

// ParseMeshInstanceKey parses the "node:slot" form produced by String.
func ParseMeshInstanceKey(s string) (MeshInstanceKey, error) {
	nodeStr, slotStr, ok := strings.Cut(s, ":")
	if !ok {
		return MeshInstanceKey{}, fmt.Errorf("invalid mesh instance key %q", s)
	}
	node, err := strconv.ParseUint(nodeStr, 10, 32)
	if err != nil {
		return MeshInstanceKey{}, fmt.Errorf("invalid node in key %q: %w", s, err)
	}
	slot, err := strconv.Atoi(slotStr)
	if err != nil || slot < 0 {
		return MeshInstanceKey{}, fmt.Errorf("invalid slot in key %q", s)
	}
	return MeshInstanceKey{Node: NodeID(node), Slot: slot}, nil
}
