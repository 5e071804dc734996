package scene

import (
	"go.uber.org/multierr"
)

// Validate checks the referential invariants of the model and returns every
// violation found, combined with multierr. Each violation matches
// ErrStructuralInvariant. Violations are reported, never repaired.
func (m *Model) Validate() error {
	var errs error

	// Tree: every node reachable from the root exactly once.
	seen := make(map[NodeID]bool, len(m.nodes))
	stack := []NodeID{RootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			errs = multierr.Append(errs, violation("node reached twice (cycle or shared child)", "node %d", id))
			continue
		}
		seen[id] = true
		n, ok := m.nodes[id]
		if !ok {
			errs = multierr.Append(errs, violation("dangling child reference", "node %d", id))
			continue
		}
		stack = append(stack, n.children...)
	}
	for id := range m.nodes {
		if !seen[id] {
			errs = multierr.Append(errs, violation("node not reachable from root", "node %d", id))
		}
	}

	for id, n := range m.nodes {
		for slot, idx := range n.meshes {
			if idx < 0 || idx >= len(m.meshes) || m.meshes[idx] == nil {
				errs = multierr.Append(errs, violation("dangling mesh reference", "node %d slot %d", id, slot))
			}
		}
	}

	for mi, mesh := range m.meshes {
		if mesh == nil {
			continue
		}
		errs = multierr.Append(errs, m.validateMesh(mi, mesh))
	}

	for gi, g := range m.groups {
		for _, key := range g.order {
			mesh, err := m.instanceMesh(key)
			if err != nil {
				errs = multierr.Append(errs, violation("group references missing instance", "group %d (%q) key %s", gi, g.name, key))
				continue
			}
			ms := g.members[key]
			if ms.Kind == FaceSubset && !ms.Faces.IsEmpty() && int(ms.Faces.Maximum()) >= len(mesh.Triangles) {
				errs = multierr.Append(errs, violation("face index out of range", "group %d (%q) key %s", gi, g.name, key))
			}
		}
	}
	return errs
}

func (m *Model) validateMesh(mi int, mesh *Mesh) error {
	var errs error
	check := func(ti int, what string, idx [3]int, n int) {
		for _, i := range idx {
			if i < 0 || i >= n {
				errs = multierr.Append(errs, violation(what+" index out of range", "mesh %d triangle %d", mi, ti))
				return
			}
		}
	}
	for ti, t := range mesh.Triangles {
		check(ti, "vertex", t.V, len(mesh.Vertices))
		if mesh.HasNormals() {
			check(ti, "normal", t.N, len(mesh.Normals))
		}
		if mesh.HasUVs() {
			check(ti, "uv", t.UV, len(mesh.UVs))
		}
		if mesh.HasColors() {
			check(ti, "color", t.C, len(mesh.Colors))
		}
		if t.Material != NoMaterial && (t.Material < 0 || t.Material >= len(m.materials)) {
			errs = multierr.Append(errs, violation("dangling material reference", "mesh %d triangle %d", mi, ti))
		}
	}
	return errs
}
