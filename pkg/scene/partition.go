package scene

import (
	"fmt"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring"
)

// DefaultRemainderName names the part holding triangles claimed by no group.
const DefaultRemainderName = "Unassigned_Faces"

// RemainderIndex is the GroupIndex of the remainder part.
const RemainderIndex = -1

// GroupMode selects which physical groups an export is split into.
type GroupMode int

const (
	// GroupModeNone exports the model as a whole.
	GroupModeNone GroupMode = iota
	// GroupModeAll exports one part per group.
	GroupModeAll
	// GroupModeSelected exports one part per selected group.
	GroupModeSelected
	// GroupModeRemainderOnly exports only triangles claimed by no group.
	GroupModeRemainderOnly
)

// String returns the mode name accepted by ParseGroupMode.
func (m GroupMode) String() string {
	switch m {
	case GroupModeNone:
		return "none"
	case GroupModeAll:
		return "all"
	case GroupModeSelected:
		return "selected"
	case GroupModeRemainderOnly:
		return "remainder"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseGroupMode parses a mode name.
func ParseGroupMode(s string) (GroupMode, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return GroupModeNone, nil
	case "all":
		return GroupModeAll, nil
	case "selected":
		return GroupModeSelected, nil
	case "remainder", "remainder-only":
		return GroupModeRemainderOnly, nil
	}
	return GroupModeNone, fmt.Errorf("unknown group mode %q", s)
}

// GroupScope configures Partition.
type GroupScope struct {
	Mode             GroupMode
	Selected         []int // group indices for GroupModeSelected
	IncludeRemainder bool  // meaningful for GroupModeAll and GroupModeSelected
	RemainderName    string
}

// FaceSet maps instances to sets of local triangle indices.
type FaceSet map[MeshInstanceKey]*roaring.Bitmap

// TriangleCount returns the number of (instance, triangle) pairs.
func (fs FaceSet) TriangleCount() int {
	n := 0
	for _, b := range fs {
		n += int(b.GetCardinality())
	}
	return n
}

// Contains reports whether triangle index of instance key is in the set.
func (fs FaceSet) Contains(key MeshInstanceKey, index int) bool {
	b, ok := fs[key]
	return ok && b.Contains(uint32(index))
}

// Keys returns the instances in key order.
func (fs FaceSet) Keys() []MeshInstanceKey {
	keys := make([]MeshInstanceKey, 0, len(fs))
	for k := range fs {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b MeshInstanceKey) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return keys
}

// union merges other into fs in place.
func (fs FaceSet) union(other FaceSet) {
	for k, b := range other {
		if cur, ok := fs[k]; ok {
			cur.Or(b)
		} else {
			fs[k] = b.Clone()
		}
	}
}

// PartitionPart is one exported subset: a group, or the remainder.
type PartitionPart struct {
	GroupIndex int // RemainderIndex for the remainder
	Name       string
	Faces      FaceSet
}

// IsRemainder reports whether the part is the remainder set.
func (p PartitionPart) IsRemainder() bool { return p.GroupIndex == RemainderIndex }

// Partition is the result of splitting the model's triangles by group.
// Group parts may overlap each other; the remainder never overlaps any group
// in scope.
type Partition struct {
	Parts []PartitionPart
	Total int // triangles in the whole model
}

// TriangleCount returns the triangles over all parts, counting overlaps once
// per part.
func (p *Partition) TriangleCount() int {
	n := 0
	for _, part := range p.Parts {
		n += part.Faces.TriangleCount()
	}
	return n
}

// Partition splits the model's triangles according to scope. Empty parts are
// dropped. GroupModeNone yields no parts.
//
// The remainder is the model minus the union of every group for
// GroupModeAll and GroupModeRemainderOnly, and minus the union of the
// selected groups for GroupModeSelected, so that with IncludeRemainder every
// triangle lands in at least one part.
func (m *Model) Partition(scope GroupScope) (*Partition, error) {
	inScope, err := m.scopeGroups(scope)
	if err != nil {
		return nil, err
	}

	all := make(FaceSet)
	total := 0
	m.EnumerateMeshInstances(func(inst MeshInstance) bool {
		n := len(inst.Mesh.Triangles)
		total += n
		if n > 0 {
			b := roaring.New()
			b.AddRange(0, uint64(n))
			all[inst.Key] = b
		}
		return true
	})

	result := &Partition{Total: total}
	if scope.Mode == GroupModeNone {
		return result, nil
	}

	claimed := make(FaceSet)
	for _, i := range inScope {
		fs := reachable(m.groups[i].FaceSet(), all)
		claimed.union(fs)
		if scope.Mode == GroupModeRemainderOnly {
			continue
		}
		if len(fs) > 0 {
			result.Parts = append(result.Parts, PartitionPart{GroupIndex: i, Name: m.groups[i].name, Faces: fs})
		}
	}

	if scope.Mode == GroupModeRemainderOnly || scope.IncludeRemainder {
		rest := make(FaceSet)
		for key, b := range all {
			r := b.Clone()
			if c, ok := claimed[key]; ok {
				r.AndNot(c)
			}
			if !r.IsEmpty() {
				rest[key] = r
			}
		}
		if len(rest) > 0 {
			name := scope.RemainderName
			if name == "" {
				name = DefaultRemainderName
			}
			result.Parts = append(result.Parts, PartitionPart{GroupIndex: RemainderIndex, Name: name, Faces: rest})
		}
	}
	return result, nil
}

// scopeGroups returns the group indices whose union defines the remainder.
func (m *Model) scopeGroups(scope GroupScope) ([]int, error) {
	switch scope.Mode {
	case GroupModeNone:
		return nil, nil
	case GroupModeAll, GroupModeRemainderOnly:
		out := make([]int, len(m.groups))
		for i := range out {
			out[i] = i
		}
		return out, nil
	case GroupModeSelected:
		var out []int
		for _, i := range scope.Selected {
			if i < 0 || i >= len(m.groups) {
				return nil, fmt.Errorf("partition: %w: %d (have %d)", ErrInvalidGroupIndex, i, len(m.groups))
			}
			if !slices.Contains(out, i) {
				out = append(out, i)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("partition: unknown group mode %d", int(scope.Mode))
}

// reachable drops instances that are not placed in the tree.
func reachable(fs, all FaceSet) FaceSet {
	for key, b := range fs {
		a, ok := all[key]
		if !ok {
			delete(fs, key)
			continue
		}
		b.And(a)
		if b.IsEmpty() {
			delete(fs, key)
		}
	}
	return fs
}
