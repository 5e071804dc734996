package view

import "github.com/pranavRajmane/Ayrton/pkg/scene"

// Group is one partition part projected onto the view's triangle ordinals.
type Group struct {
	Index     int // source group index, or scene.RemainderIndex
	Name      string
	Keys      []scene.MeshInstanceKey // touched instances, in view order
	Triangles []uint32                // ordinals into the view's triangle order
}

// IsRemainder reports whether the group is the remainder set.
func (g Group) IsRemainder() bool { return g.Index == scene.RemainderIndex }

// Groups returns the partition the view was annotated with, restricted to
// visible triangles. Parts with no visible triangle are omitted.
func (v *View) Groups() []Group { return v.groups }

func (v *View) projectGroups(p *scene.Partition) []Group {
	groups := make([]Group, len(p.Parts))
	lastKey := make([]*scene.MeshInstanceKey, len(p.Parts))
	for i, part := range p.Parts {
		groups[i] = Group{Index: part.GroupIndex, Name: part.Name}
	}

	v.EnumerateTriangles(func(t Triangle) bool {
		for i, part := range p.Parts {
			if !part.Faces.Contains(t.Key, t.Source) {
				continue
			}
			g := &groups[i]
			if lastKey[i] == nil || *lastKey[i] != t.Key {
				g.Keys = append(g.Keys, t.Key)
				key := t.Key
				lastKey[i] = &key
			}
			g.Triangles = append(g.Triangles, uint32(t.Ordinal))
		}
		return true
	})

	out := groups[:0]
	for _, g := range groups {
		if len(g.Triangles) > 0 {
			out = append(out, g)
		}
	}
	return out
}
