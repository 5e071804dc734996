package formats

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pranavRajmane/Ayrton/pkg/encoding"
	"github.com/pranavRajmane/Ayrton/pkg/math"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
	"github.com/pranavRajmane/Ayrton/pkg/view"
)

// OBJEncoder writes Wavefront OBJ with a companion MTL material library and
// the diffuse texture files it references. Geometry is written in world
// space, one object per visible instance.
type OBJEncoder struct{}

// CanExport implements Encoder.
func (OBJEncoder) CanExport(format FileFormat, ext string) bool {
	return format == FormatText && NormalizeExt(ext) == "obj"
}

// ExportContent implements Encoder.
func (OBJEncoder) ExportContent(ctx context.Context, v *view.View) ([]Artifact, error) {
	base := baseName(v)
	names := v.Files()
	names.Reserve(base + ".obj")

	mats := v.Materials()
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n", gltfGenerator)
	if len(mats) > 0 {
		names.Reserve(base + ".mtl")
		fmt.Fprintf(&b, "mtllib %s.mtl\n", base)
	}
	mtl, matNames, textures := objMaterials(mats, names)

	nodes := v.Nodes()
	var vOff, vtOff, vnOff int
	written := 0
	for _, inst := range v.Instances() {
		mesh := inst.Mesh
		fmt.Fprintf(&b, "o %s\n", encoding.SanitizeName(nodes[inst.Node].Name))

		for _, p := range inst.WorldPositions() {
			writeOBJVec(&b, "v", p)
		}
		for _, uv := range mesh.UVs {
			fmt.Fprintf(&b, "vt %s %s\n", encoding.FormatFloat32(uv.X), encoding.FormatFloat32(uv.Y))
		}
		normals := inst.WorldNormals()
		for _, n := range normals {
			writeOBJVec(&b, "vn", n)
		}

		mirrored := inst.Mirrored()
		current := -1
		for i, c := range mesh.Corners {
			if err := checkCancel(ctx, written); err != nil {
				return nil, err
			}
			written++
			if mat := mesh.Materials[i]; mat != current {
				fmt.Fprintf(&b, "usemtl %s\n", matNames[mat])
				current = mat
			}
			if mirrored {
				c[1], c[2] = c[2], c[1]
			}
			b.WriteString("f")
			for _, idx := range c {
				k := int(idx) + 1
				switch {
				case mesh.UVs != nil && normals != nil:
					fmt.Fprintf(&b, " %d/%d/%d", vOff+k, vtOff+k, vnOff+k)
				case mesh.UVs != nil:
					fmt.Fprintf(&b, " %d/%d", vOff+k, vtOff+k)
				case normals != nil:
					fmt.Fprintf(&b, " %d//%d", vOff+k, vnOff+k)
				default:
					fmt.Fprintf(&b, " %d", vOff+k)
				}
			}
			b.WriteByte('\n')
		}
		vOff += len(mesh.Positions)
		vtOff += len(mesh.UVs)
		vnOff += len(normals)
	}

	out := []Artifact{{Name: base + ".obj", Data: b.Bytes(), Text: true}}
	if len(mats) == 0 {
		return out, nil
	}
	out = append(out, Artifact{Name: base + ".mtl", Data: mtl, Text: true})
	return append(out, textures...), nil
}

func writeOBJVec(b *bytes.Buffer, prefix string, v math.Vec3) {
	fmt.Fprintf(b, "%s %s %s %s\n", prefix,
		encoding.FormatFloat32(v.X), encoding.FormatFloat32(v.Y), encoding.FormatFloat32(v.Z))
}

// objMaterials writes the MTL library and returns the material names by
// dense index plus the texture files to ship alongside.
func objMaterials(mats []*scene.Material, files *encoding.UniqueNames) ([]byte, []string, []Artifact) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n", gltfGenerator)

	matNames := encoding.NewUniqueNames()
	names := make([]string, len(mats))
	texFiles := make(map[*scene.Texture]string)
	var textures []Artifact

	for i, mat := range mats {
		names[i] = matNames.Unique(mat.Name)
		c := mat.Color.Float()
		fmt.Fprintf(&b, "\nnewmtl %s\n", names[i])
		fmt.Fprintf(&b, "Kd %s %s %s\n",
			encoding.FormatFloat32(c[0]), encoding.FormatFloat32(c[1]), encoding.FormatFloat32(c[2]))
		fmt.Fprintf(&b, "d %s\n", encoding.FormatFloat32(mat.Opacity))
		if mat.PBR {
			fmt.Fprintf(&b, "Pm %s\nPr %s\n", encoding.FormatFloat32(mat.Metalness), encoding.FormatFloat32(mat.Roughness))
		}
		if tex := mat.DiffuseMap; tex.IsValid() {
			file, ok := texFiles[tex]
			if !ok {
				file = files.File(tex, tex.Name)
				texFiles[tex] = file
				textures = append(textures, Artifact{Name: file, Data: tex.Data})
			}
			if tex.HasTransform() {
				fmt.Fprintf(&b, "map_Kd -o %s %s -s %s %s %s\n",
					encoding.FormatFloat32(tex.Offset.X), encoding.FormatFloat32(tex.Offset.Y),
					encoding.FormatFloat32(tex.Scale.X), encoding.FormatFloat32(tex.Scale.Y), file)
			} else {
				fmt.Fprintf(&b, "map_Kd %s\n", file)
			}
		}
	}
	return b.Bytes(), names, textures
}
