package scene

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring"
)

// MembershipKind tags how a group touches a mesh instance.
type MembershipKind int

const (
	// WholeInstance means every triangle of the instance belongs to the group.
	WholeInstance MembershipKind = iota
	// FaceSubset means only the listed triangles belong to the group.
	FaceSubset
)

// String returns a human-readable kind name.
func (k MembershipKind) String() string {
	switch k {
	case WholeInstance:
		return "whole"
	case FaceSubset:
		return "faces"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Membership is the tagged union stored per touched instance. Faces is nil
// for WholeInstance and a sorted, deduplicated set for FaceSubset.
type Membership struct {
	Kind  MembershipKind
	Faces *roaring.Bitmap
}

// FaceIndices returns the explicit face list, or nil for WholeInstance.
func (ms Membership) FaceIndices() []int {
	if ms.Kind != FaceSubset || ms.Faces == nil {
		return nil
	}
	out := make([]int, 0, ms.Faces.GetCardinality())
	it := ms.Faces.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Resolve returns the member triangles of an instance with triangleCount
// triangles as a new set.
func (ms Membership) Resolve(triangleCount int) *roaring.Bitmap {
	if ms.Kind == WholeInstance {
		b := roaring.New()
		b.AddRange(0, uint64(triangleCount))
		return b
	}
	return ms.Faces.Clone()
}

// PhysicalGroup is a named, possibly partial-face subset of the scene.
// Groups may overlap; a triangle can belong to several groups.
type PhysicalGroup struct {
	name    string
	color   *Color
	members map[MeshInstanceKey]*Membership
	order   []MeshInstanceKey
	model   *Model
}

// Name returns the group name.
func (g *PhysicalGroup) Name() string { return g.name }

// Color returns the group color if one is set.
func (g *PhysicalGroup) Color() (Color, bool) {
	if g.color == nil {
		return Color{}, false
	}
	return *g.color, true
}

// SetColor sets the display color.
func (g *PhysicalGroup) SetColor(c Color) {
	g.color = &c
	g.model.touch()
}

// AddWholeInstance adds every triangle of the instance. A previous face
// subset for the same key is widened.
func (g *PhysicalGroup) AddWholeInstance(key MeshInstanceKey) error {
	if _, err := g.model.instanceMesh(key); err != nil {
		return fmt.Errorf("group %q: %w", g.name, err)
	}
	if ms, ok := g.members[key]; ok {
		ms.Kind = WholeInstance
		ms.Faces = nil
	} else {
		g.members[key] = &Membership{Kind: WholeInstance}
		g.order = append(g.order, key)
	}
	g.model.touch()
	return nil
}

// AddInstanceFaces adds explicit triangles of an instance. Inserting a face
// that is already present is a no-op, as is adding faces to an instance that
// is already a whole member. The call is rejected as a whole if any index is
// out of range.
func (g *PhysicalGroup) AddInstanceFaces(key MeshInstanceKey, faces ...int) error {
	mesh, err := g.model.instanceMesh(key)
	if err != nil {
		return fmt.Errorf("group %q: %w", g.name, err)
	}
	for _, f := range faces {
		if f < 0 || f >= len(mesh.Triangles) {
			return fmt.Errorf("group %q instance %s: %w: %d", g.name, key, ErrInvalidFaceIndex, f)
		}
	}
	if len(faces) == 0 {
		return nil
	}

	ms, ok := g.members[key]
	if !ok {
		ms = &Membership{Kind: FaceSubset, Faces: roaring.New()}
		g.members[key] = ms
		g.order = append(g.order, key)
	}
	if ms.Kind == WholeInstance {
		return nil
	}
	for _, f := range faces {
		ms.Faces.Add(uint32(f))
	}
	g.model.touch()
	return nil
}

// RemoveInstance drops an instance from the group.
func (g *PhysicalGroup) RemoveInstance(key MeshInstanceKey) bool {
	if _, ok := g.members[key]; !ok {
		return false
	}
	delete(g.members, key)
	g.order = slices.DeleteFunc(g.order, func(k MeshInstanceKey) bool { return k == key })
	g.model.touch()
	return true
}

// ContainsInstance reports whether the group touches the instance.
func (g *PhysicalGroup) ContainsInstance(key MeshInstanceKey) bool {
	_, ok := g.members[key]
	return ok
}

// FacesForInstance returns a copy of the membership for key.
func (g *PhysicalGroup) FacesForInstance(key MeshInstanceKey) (Membership, bool) {
	ms, ok := g.members[key]
	if !ok {
		return Membership{}, false
	}
	out := Membership{Kind: ms.Kind}
	if ms.Faces != nil {
		out.Faces = ms.Faces.Clone()
	}
	return out, true
}

// Keys returns the touched instances in insertion order.
func (g *PhysicalGroup) Keys() []MeshInstanceKey {
	return slices.Clone(g.order)
}

// InstanceCount returns the number of touched instances.
func (g *PhysicalGroup) InstanceCount() int { return len(g.order) }

// IsEmpty reports whether the group touches nothing.
func (g *PhysicalGroup) IsEmpty() bool { return len(g.order) == 0 }

// TriangleCount returns the number of member triangles.
func (g *PhysicalGroup) TriangleCount() int {
	total := 0
	for _, key := range g.order {
		ms := g.members[key]
		if ms.Kind == FaceSubset {
			total += int(ms.Faces.GetCardinality())
			continue
		}
		if mesh, err := g.model.instanceMesh(key); err == nil {
			total += len(mesh.Triangles)
		}
	}
	return total
}

// FaceSet resolves the group to explicit triangle sets per instance.
// Empty face subsets are omitted.
func (g *PhysicalGroup) FaceSet() FaceSet {
	fs := make(FaceSet, len(g.order))
	for _, key := range g.order {
		mesh, err := g.model.instanceMesh(key)
		if err != nil {
			continue
		}
		faces := g.members[key].Resolve(len(mesh.Triangles))
		if !faces.IsEmpty() {
			fs[key] = faces
		}
	}
	return fs
}

func (g *PhysicalGroup) dropNodes(ids []NodeID) {
	g.order = slices.DeleteFunc(g.order, func(k MeshInstanceKey) bool {
		if slices.Contains(ids, k.Node) {
			delete(g.members, k)
			return true
		}
		return false
	})
}

// CreateGroup adds an empty group. Names are unique and case-sensitive.
func (m *Model) CreateGroup(name string) (*PhysicalGroup, error) {
	if name == "" {
		return nil, fmt.Errorf("create group: %w: empty name", ErrInvalidGroupName)
	}
	if _, ok := m.GroupIndex(name); ok {
		return nil, fmt.Errorf("create group: %w: %q", ErrDuplicateGroupName, name)
	}
	g := &PhysicalGroup{
		name:    name,
		members: make(map[MeshInstanceKey]*Membership),
		model:   m,
	}
	m.groups = append(m.groups, g)
	m.touch()
	return g, nil
}

// GroupCount returns the number of groups.
func (m *Model) GroupCount() int { return len(m.groups) }

// Group returns the group at index i.
func (m *Model) Group(i int) (*PhysicalGroup, error) {
	if i < 0 || i >= len(m.groups) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrInvalidGroupIndex, i, len(m.groups))
	}
	return m.groups[i], nil
}

// GroupIndex returns the index of the named group.
func (m *Model) GroupIndex(name string) (int, bool) {
	for i, g := range m.groups {
		if g.name == name {
			return i, true
		}
	}
	return -1, false
}

// GroupByName returns the named group.
func (m *Model) GroupByName(name string) (*PhysicalGroup, bool) {
	i, ok := m.GroupIndex(name)
	if !ok {
		return nil, false
	}
	return m.groups[i], true
}

// RenameGroup renames group i, rejecting names already used by another group.
func (m *Model) RenameGroup(i int, name string) error {
	g, err := m.Group(i)
	if err != nil {
		return fmt.Errorf("rename group: %w", err)
	}
	if name == "" {
		return fmt.Errorf("rename group: %w: empty name", ErrInvalidGroupName)
	}
	if j, ok := m.GroupIndex(name); ok && j != i {
		return fmt.Errorf("rename group: %w: %q", ErrDuplicateGroupName, name)
	}
	g.name = name
	m.touch()
	return nil
}

// RemoveGroup deletes group i. Later groups shift down by one.
func (m *Model) RemoveGroup(i int) error {
	if _, err := m.Group(i); err != nil {
		return fmt.Errorf("remove group: %w", err)
	}
	m.groups = slices.Delete(m.groups, i, i+1)
	m.touch()
	return nil
}

// RemoveGroupByName deletes the named group.
func (m *Model) RemoveGroupByName(name string) error {
	i, ok := m.GroupIndex(name)
	if !ok {
		return fmt.Errorf("remove group: %w: %q", ErrGroupNotFound, name)
	}
	return m.RemoveGroup(i)
}

// EnumerateGroups visits groups in index order. Returning false stops.
func (m *Model) EnumerateGroups(fn func(i int, g *PhysicalGroup) bool) {
	for i, g := range m.groups {
		if !fn(i, g) {
			return
		}
	}
}
