// Package kernel talks to an external geometry-kernel service that converts
// triangle soups into CAD interchange formats such as IGES and STEP.
//
// The service is opaque: it receives a flattened mesh plus physical group
// membership and returns the converted file as bytes.
package kernel

import (
	"context"
	"fmt"
	"strings"

	"github.com/pranavRajmane/Ayrton/pkg/formats"
	"github.com/pranavRajmane/Ayrton/pkg/view"
)

// GroupRecord is one physical group as sent to the service. Triangles are
// indices into Request.Triangles (one per triangle, not per corner).
type GroupRecord struct {
	Name      string   `json:"name"`
	MeshIDs   []string `json:"meshIds"`
	Triangles []uint32 `json:"triangles"`
}

// Request is the conversion payload.
type Request struct {
	Format         string        `json:"format"`
	Vertices       []float32     `json:"vertices"`  // x, y, z per vertex
	Triangles      []uint32      `json:"triangles"` // three vertex indices per triangle
	PhysicalGroups []GroupRecord `json:"physicalGroups"`
	SelectedGroups []int         `json:"selectedGroups"` // model group indices carried by the request
}

// TriangleCount returns the number of triangles in the payload.
func (r *Request) TriangleCount() int { return len(r.Triangles) / 3 }

// BuildRequest flattens v into a request. Group membership comes from the
// partition the view was annotated with, so every record lists exactly the
// triangles its group recorded.
func BuildRequest(ctx context.Context, v *view.View, format string) (*Request, error) {
	m, err := formats.Flatten(ctx, v, formats.MaxInt32Index)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Format:         strings.ToLower(format),
		Vertices:       make([]float32, 0, 3*len(m.Positions)),
		Triangles:      make([]uint32, 0, 3*len(m.Faces)),
		PhysicalGroups: []GroupRecord{},
		SelectedGroups: []int{},
	}
	for _, p := range m.Positions {
		req.Vertices = append(req.Vertices, p.X, p.Y, p.Z)
	}
	for _, f := range m.Faces {
		req.Triangles = append(req.Triangles, f[0], f[1], f[2])
	}

	for _, g := range v.Groups() {
		ids := make([]string, len(g.Keys))
		for i, k := range g.Keys {
			ids[i] = k.String()
		}
		for _, t := range g.Triangles {
			if int(t) >= len(m.Faces) {
				return nil, fmt.Errorf("group %q references triangle %d of %d", g.Name, t, len(m.Faces))
			}
		}
		req.PhysicalGroups = append(req.PhysicalGroups, GroupRecord{
			Name:      g.Name,
			MeshIDs:   ids,
			Triangles: g.Triangles,
		})
		if !g.IsRemainder() {
			req.SelectedGroups = append(req.SelectedGroups, g.Index)
		}
	}
	return req, nil
}
