package formats

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	gomath "math"
	"os"
	"slices"

	"github.com/qmuntal/gltf"

	"github.com/pranavRajmane/Ayrton/pkg/encoding"
	"github.com/pranavRajmane/Ayrton/pkg/math"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
	"github.com/pranavRajmane/Ayrton/pkg/view"
)

// GLB format errors.
var (
	ErrInvalidGLBMagic       = errors.New("invalid GLB magic: expected 'glTF'")
	ErrUnsupportedGLBVersion = errors.New("unsupported GLB version")
	ErrTruncatedGLBData      = errors.New("truncated GLB data")
	ErrInvalidGLBChunk       = errors.New("invalid GLB chunk")
)

// GLB container layout.
const (
	glbMagic        = 0x46546C67 // "glTF"
	glbVersion      = 2
	glbHeaderSize   = 12
	glbChunkHeader  = 8
	glbChunkJSON    = 0x4E4F534A // "JSON"
	glbChunkBIN     = 0x004E4942 // "BIN\x00"
	textureTransExt = "KHR_texture_transform"
	gltfGenerator   = "Ayrton meshexport"

	// Node transforms that decompose within this tolerance are written as
	// TRS; the rest keep a matrix.
	trsEpsilon = 1e-5
)

// GLTFEncoder writes glTF 2.0 scenes: a self-contained GLB container in
// binary mode, or a .gltf document with a sibling .bin buffer and texture
// files in text mode.
type GLTFEncoder struct {
	Binary bool
}

// CanExport implements Encoder.
func (e *GLTFEncoder) CanExport(format FileFormat, ext string) bool {
	ext = NormalizeExt(ext)
	if e.Binary {
		return format == FormatBinary && ext == "glb"
	}
	return format == FormatText && ext == "gltf"
}

// ExportContent implements Encoder.
func (e *GLTFEncoder) ExportContent(ctx context.Context, v *view.View) ([]Artifact, error) {
	base := baseName(v)
	b := newGLTFBuilder(v, e.Binary)
	if err := b.build(ctx); err != nil {
		return nil, err
	}
	if uint64(b.bin.Len()) > gomath.MaxUint32-glbHeaderSize-2*glbChunkHeader-3 {
		return nil, fmt.Errorf("glTF buffer of %d bytes: %w", b.bin.Len(), ErrSerializationOverflow)
	}

	if b.bin.Len() > 0 {
		buf := &gltf.Buffer{ByteLength: b.bin.Len()}
		if !e.Binary {
			buf.URI = base + ".bin"
		}
		b.doc.Buffers = []*gltf.Buffer{buf}
	}

	if e.Binary {
		jsonData, err := json.Marshal(b.doc)
		if err != nil {
			return nil, fmt.Errorf("encoding glTF document: %w", err)
		}
		glb, err := writeGLB(jsonData, b.bin.Bytes())
		if err != nil {
			return nil, err
		}
		return []Artifact{{Name: base + ".glb", Data: glb}}, nil
	}

	jsonData, err := json.MarshalIndent(b.doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding glTF document: %w", err)
	}
	out := []Artifact{{Name: base + ".gltf", Data: jsonData, Text: true}}
	if b.bin.Len() > 0 {
		out = append(out, Artifact{Name: base + ".bin", Data: b.bin.Bytes()})
	}
	return append(out, b.files...), nil
}

type textureTransform struct {
	Offset   [2]float32 `json:"offset"`
	Rotation float32    `json:"rotation,omitempty"`
	Scale    [2]float32 `json:"scale"`
}

type gltfBuilder struct {
	view   *view.View
	embed  bool
	doc    *gltf.Document
	bin    bytes.Buffer
	images map[*scene.Texture]int
	names  *encoding.UniqueNames
	files  []Artifact
}

func newGLTFBuilder(v *view.View, embed bool) *gltfBuilder {
	return &gltfBuilder{
		view:   v,
		embed:  embed,
		doc:    &gltf.Document{Asset: gltf.Asset{Version: "2.0", Generator: gltfGenerator}},
		images: make(map[*scene.Texture]int),
		names:  v.Files(),
	}
}

func (b *gltfBuilder) build(ctx context.Context) error {
	v := b.view
	b.names.Reserve(baseName(v) + ".gltf")
	b.names.Reserve(baseName(v) + ".bin")

	for _, mat := range v.Materials() {
		b.doc.Materials = append(b.doc.Materials, b.material(mat))
	}

	for _, mesh := range v.Meshes() {
		if err := ctx.Err(); err != nil {
			return err
		}
		gm, err := b.mesh(ctx, mesh)
		if err != nil {
			return err
		}
		b.doc.Meshes = append(b.doc.Meshes, gm)
	}

	// View nodes keep their dense indices; extra mesh slots become child
	// nodes appended after them.
	nodes := v.Nodes()
	b.doc.Nodes = make([]*gltf.Node, len(nodes))
	for i, n := range nodes {
		gn := &gltf.Node{
			Name:     n.Name,
			Children: slices.Clone(n.Children),
		}
		if t, r, s, ok := math.Decompose(n.Local, trsEpsilon); ok {
			gn.Translation = [3]float64{float64(t.X), float64(t.Y), float64(t.Z)}
			gn.Rotation = r.Float64s()
			gn.Scale = [3]float64{float64(s.X), float64(s.Y), float64(s.Z)}
		} else {
			gn.Matrix = n.Local.Float64s()
		}
		b.doc.Nodes[i] = gn
	}
	for i, n := range nodes {
		for slot, mi := range n.Meshes {
			if slot == 0 {
				b.doc.Nodes[i].Mesh = gltf.Index(mi)
				continue
			}
			child := len(b.doc.Nodes)
			b.doc.Nodes = append(b.doc.Nodes, &gltf.Node{
				Name: fmt.Sprintf("%s_%d", n.Name, slot),
				Mesh: gltf.Index(mi),
			})
			b.doc.Nodes[i].Children = append(b.doc.Nodes[i].Children, child)
		}
	}

	b.doc.Scenes = []*gltf.Scene{{
		Name:   v.Name(),
		Nodes:  v.Roots(),
		Extras: map[string]string{"unit": v.Unit().String()},
	}}
	b.doc.Scene = gltf.Index(0)
	return nil
}

func (b *gltfBuilder) material(mat *scene.Material) *gltf.Material {
	c := mat.Color.Linear()
	metal, rough := float64(0), float64(1)
	if mat.PBR {
		metal, rough = float64(mat.Metalness), float64(mat.Roughness)
	}
	gm := &gltf.Material{
		Name: mat.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{float64(c[0]), float64(c[1]), float64(c[2]), float64(mat.Opacity)},
			MetallicFactor:  &metal,
			RoughnessFactor: &rough,
		},
	}
	if mat.IsTransparent() {
		gm.AlphaMode = gltf.AlphaBlend
	}
	if tex := mat.DiffuseMap; tex.IsValid() {
		info := &gltf.TextureInfo{Index: b.texture(tex)}
		if tex.HasTransform() {
			// UVs are written with V negated, so the V offset and the
			// rotation change sign too.
			info.Extensions = gltf.Extensions{textureTransExt: textureTransform{
				Offset:   [2]float32{tex.Offset.X, -tex.Offset.Y},
				Rotation: -tex.Rotation,
				Scale:    [2]float32{tex.Scale.X, tex.Scale.Y},
			}}
			if !slices.Contains(b.doc.ExtensionsUsed, textureTransExt) {
				b.doc.ExtensionsUsed = append(b.doc.ExtensionsUsed, textureTransExt)
			}
		}
		gm.PBRMetallicRoughness.BaseColorTexture = info
	}
	return gm
}

func (b *gltfBuilder) texture(tex *scene.Texture) int {
	if i, ok := b.images[tex]; ok {
		return i
	}
	if len(b.doc.Samplers) == 0 {
		b.doc.Samplers = []*gltf.Sampler{{
			MagFilter: gltf.MagLinear,
			MinFilter: gltf.MinLinearMipMapLinear,
			WrapS:     gltf.WrapRepeat,
			WrapT:     gltf.WrapRepeat,
		}}
	}

	src := gltfTexture(tex)
	img := &gltf.Image{Name: tex.Name, MimeType: src.MimeType}
	if b.embed {
		img.BufferView = gltf.Index(b.addView(src.Data, gltf.TargetNone))
	} else {
		name := b.names.File(tex, src.Name)
		img.URI = name
		img.MimeType = ""
		b.files = append(b.files, Artifact{Name: name, Data: src.Data})
	}
	b.doc.Images = append(b.doc.Images, img)
	b.doc.Textures = append(b.doc.Textures, &gltf.Texture{
		Sampler: gltf.Index(0),
		Source:  gltf.Index(len(b.doc.Images) - 1),
	})
	i := len(b.doc.Textures) - 1
	b.images[tex] = i
	return i
}

func (b *gltfBuilder) mesh(ctx context.Context, mesh *view.Mesh) (*gltf.Mesh, error) {
	attrs := map[string]int{}

	bounds := mesh.Bounds()
	pos := make([]byte, 0, 12*len(mesh.Positions))
	for _, p := range mesh.Positions {
		pos = appendVec3(pos, p)
	}
	attrs["POSITION"] = b.addAccessor(b.addView(pos, gltf.TargetArrayBuffer),
		gltf.ComponentFloat, gltf.AccessorVec3, len(mesh.Positions),
		[]float64{float64(bounds.Min.X), float64(bounds.Min.Y), float64(bounds.Min.Z)},
		[]float64{float64(bounds.Max.X), float64(bounds.Max.Y), float64(bounds.Max.Z)})

	if mesh.Normals != nil {
		data := make([]byte, 0, 12*len(mesh.Normals))
		for _, n := range mesh.Normals {
			data = appendVec3(data, n.Normalize())
		}
		attrs["NORMAL"] = b.addAccessor(b.addView(data, gltf.TargetArrayBuffer),
			gltf.ComponentFloat, gltf.AccessorVec3, len(mesh.Normals), nil, nil)
	}
	if mesh.UVs != nil {
		data := make([]byte, 0, 8*len(mesh.UVs))
		for _, uv := range mesh.UVs {
			uv = uv.FlipV()
			data = appendFloat32(data, uv.X, uv.Y)
		}
		attrs["TEXCOORD_0"] = b.addAccessor(b.addView(data, gltf.TargetArrayBuffer),
			gltf.ComponentFloat, gltf.AccessorVec2, len(mesh.UVs), nil, nil)
	}
	if mesh.Colors != nil {
		data := make([]byte, 0, 12*len(mesh.Colors))
		for _, c := range mesh.Colors {
			lin := c.Linear()
			data = appendFloat32(data, lin[0], lin[1], lin[2])
		}
		attrs["COLOR_0"] = b.addAccessor(b.addView(data, gltf.TargetArrayBuffer),
			gltf.ComponentFloat, gltf.AccessorVec3, len(mesh.Colors), nil, nil)
	}

	gm := &gltf.Mesh{Name: mesh.Name}
	written := 0
	for _, prim := range mesh.Primitives {
		data := make([]byte, 0, 4*len(prim.Indices))
		for i, idx := range prim.Indices {
			if i%3 == 0 {
				if err := checkCancel(ctx, written); err != nil {
					return nil, err
				}
				written++
			}
			data = binary.LittleEndian.AppendUint32(data, idx)
		}
		indices := b.addAccessor(b.addView(data, gltf.TargetElementArrayBuffer),
			gltf.ComponentUint, gltf.AccessorScalar, len(prim.Indices), nil, nil)
		gm.Primitives = append(gm.Primitives, &gltf.Primitive{
			Attributes: attrs,
			Indices:    gltf.Index(indices),
			Material:   gltf.Index(prim.Material),
		})
	}
	return gm, nil
}

// addView appends data at a 4-byte aligned offset and records a buffer view.
func (b *gltfBuilder) addView(data []byte, target gltf.Target) int {
	for b.bin.Len()%4 != 0 {
		b.bin.WriteByte(0)
	}
	b.doc.BufferViews = append(b.doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: b.bin.Len(),
		ByteLength: len(data),
		Target:     target,
	})
	b.bin.Write(data)
	return len(b.doc.BufferViews) - 1
}

func (b *gltfBuilder) addAccessor(bufferView int, ct gltf.ComponentType, typ gltf.AccessorType, count int, min, max []float64) int {
	b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(bufferView),
		ComponentType: ct,
		Type:          typ,
		Count:         count,
		Min:           min,
		Max:           max,
	})
	return len(b.doc.Accessors) - 1
}

func appendFloat32(dst []byte, vals ...float32) []byte {
	for _, f := range vals {
		dst = binary.LittleEndian.AppendUint32(dst, gomath.Float32bits(f))
	}
	return dst
}

func appendVec3(dst []byte, v math.Vec3) []byte {
	return appendFloat32(dst, v.X, v.Y, v.Z)
}

// writeGLB assembles the binary container. The JSON chunk is padded with
// spaces and the BIN chunk with zeros to 4-byte boundaries. An empty buffer
// omits the BIN chunk.
func writeGLB(jsonData, bin []byte) ([]byte, error) {
	jsonLen := align4(len(jsonData))
	total := uint64(glbHeaderSize + glbChunkHeader + jsonLen)
	binLen := 0
	if len(bin) > 0 {
		binLen = align4(len(bin))
		total += uint64(glbChunkHeader + binLen)
	}
	if total > gomath.MaxUint32 {
		return nil, fmt.Errorf("GLB of %d bytes: %w", total, ErrSerializationOverflow)
	}

	out := make([]byte, 0, total)
	out = binary.LittleEndian.AppendUint32(out, glbMagic)
	out = binary.LittleEndian.AppendUint32(out, glbVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(total))

	out = binary.LittleEndian.AppendUint32(out, uint32(jsonLen))
	out = binary.LittleEndian.AppendUint32(out, glbChunkJSON)
	out = append(out, jsonData...)
	for len(out)%4 != 0 {
		out = append(out, ' ')
	}

	if binLen > 0 {
		out = binary.LittleEndian.AppendUint32(out, uint32(binLen))
		out = binary.LittleEndian.AppendUint32(out, glbChunkBIN)
		out = append(out, bin...)
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
	}
	return out, nil
}

func align4(n int) int { return (n + 3) &^ 3 }

// GLB is a parsed binary glTF container.
type GLB struct {
	Version  uint32
	Length   uint32
	JSON     []byte // chunk payload including padding
	BIN      []byte // nil when the container has no BIN chunk
	Document *gltf.Document
}

// ParseGLBFile parses a GLB file from disk.
func ParseGLBFile(path string) (*GLB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GLB file: %w", err)
	}
	return ParseGLB(data)
}

// ParseGLB validates the container layout (magic, version, declared
// lengths, chunk alignment) and decodes the JSON document.
func ParseGLB(data []byte) (*GLB, error) {
	if len(data) < glbHeaderSize {
		return nil, ErrTruncatedGLBData
	}
	if binary.LittleEndian.Uint32(data) != glbMagic {
		return nil, ErrInvalidGLBMagic
	}
	glb := &GLB{
		Version: binary.LittleEndian.Uint32(data[4:]),
		Length:  binary.LittleEndian.Uint32(data[8:]),
	}
	if glb.Version != glbVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedGLBVersion, glb.Version)
	}
	if uint64(glb.Length) != uint64(len(data)) {
		return nil, fmt.Errorf("%w: header declares %d bytes, have %d", ErrTruncatedGLBData, glb.Length, len(data))
	}
	if glb.Length%4 != 0 {
		return nil, fmt.Errorf("%w: total length %d not 4-byte aligned", ErrInvalidGLBChunk, glb.Length)
	}

	off := glbHeaderSize
	for i := 0; off < len(data); i++ {
		if len(data)-off < glbChunkHeader {
			return nil, fmt.Errorf("chunk %d header: %w", i, ErrTruncatedGLBData)
		}
		length := int(binary.LittleEndian.Uint32(data[off:]))
		typ := binary.LittleEndian.Uint32(data[off+4:])
		off += glbChunkHeader
		if length%4 != 0 {
			return nil, fmt.Errorf("%w: chunk %d length %d not 4-byte aligned", ErrInvalidGLBChunk, i, length)
		}
		if length > len(data)-off {
			return nil, fmt.Errorf("chunk %d payload: %w", i, ErrTruncatedGLBData)
		}
		payload := data[off : off+length]
		off += length

		switch {
		case i == 0 && typ != glbChunkJSON:
			return nil, fmt.Errorf("%w: first chunk is not JSON", ErrInvalidGLBChunk)
		case i == 0:
			glb.JSON = payload
		case i == 1 && typ == glbChunkBIN:
			glb.BIN = payload
		case typ == glbChunkJSON || typ == glbChunkBIN:
			return nil, fmt.Errorf("%w: unexpected chunk type %#x at %d", ErrInvalidGLBChunk, typ, i)
		}
		// Unknown chunk types are skipped.
	}
	if glb.JSON == nil {
		return nil, fmt.Errorf("%w: missing JSON chunk", ErrInvalidGLBChunk)
	}

	doc := new(gltf.Document)
	if err := json.Unmarshal(bytes.TrimRight(glb.JSON, " "), doc); err != nil {
		return nil, fmt.Errorf("decoding glTF document: %w", err)
	}
	glb.Document = doc
	return glb, nil
}

// Accessor returns the raw bytes of accessor i from the BIN chunk.
func (g *GLB) Accessor(i int) ([]byte, error) {
	doc := g.Document
	if i < 0 || i >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", i)
	}
	acc := doc.Accessors[i]
	if acc.BufferView == nil || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor %d: missing buffer view", i)
	}
	bv := doc.BufferViews[*acc.BufferView]
	end := bv.ByteOffset + bv.ByteLength
	if end > len(g.BIN) {
		return nil, fmt.Errorf("accessor %d: %w", i, ErrTruncatedGLBData)
	}
	return g.BIN[bv.ByteOffset+acc.ByteOffset : end], nil
}
