package scene

import (
	"mime"
	"path/filepath"

	"github.com/pranavRajmane/Ayrton/pkg/math"
)

// Texture is an image referenced by a material.
type Texture struct {
	Name     string // file name, also used as the exported image name
	MimeType string
	Data     []byte
	Offset   math.Vec2
	Scale    math.Vec2
	Rotation float32 // radians
}

// NewTexture creates a texture with an identity transform. The MIME type is
// derived from the name's extension.
func NewTexture(name string, data []byte) *Texture {
	return &Texture{
		Name:     name,
		MimeType: mime.TypeByExtension(filepath.Ext(name)),
		Data:     data,
		Scale:    math.Vec2{X: 1, Y: 1},
	}
}

// IsValid reports whether the texture can be exported.
func (t *Texture) IsValid() bool {
	return t != nil && t.Name != "" && len(t.Data) > 0
}

// HasTransform reports whether offset, scale or rotation differ from identity.
func (t *Texture) HasTransform() bool {
	return t.Offset != (math.Vec2{}) || t.Scale != (math.Vec2{X: 1, Y: 1}) || t.Rotation != 0
}

// Material describes surface appearance. Materials are owned by the model
// and referenced by index from triangles.
type Material struct {
	Name        string
	Color       Color
	Opacity     float32 // 1 is fully opaque
	Transparent bool

	// Physically based fields, used when PBR is set.
	PBR       bool
	Metalness float32
	Roughness float32

	DiffuseMap *Texture
}

// NewMaterial creates an opaque material with the given color.
func NewMaterial(name string, color Color) *Material {
	return &Material{Name: name, Color: color, Opacity: 1, Roughness: 1}
}

// DefaultMaterial is the material used by triangles with NoMaterial.
func DefaultMaterial() *Material {
	return NewMaterial("Default", Color{R: 200, G: 200, B: 200})
}

// IsTransparent reports whether the material needs alpha blending.
func (m *Material) IsTransparent() bool {
	return m.Transparent || m.Opacity < 1
}
