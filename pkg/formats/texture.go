package formats

import (
	"bytes"
	"image"
	"image/png"
	"path/filepath"
	"strings"

	_ "image/jpeg"

	_ "golang.org/x/image/bmp" // BMP decoder registration
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pranavRajmane/Ayrton/pkg/scene"
)

// textureImage is a texture as it is written into a glTF scene.
type textureImage struct {
	Name     string
	MimeType string
	Data     []byte
}

// gltfTexture returns the texture in a format glTF viewers must accept.
// PNG and JPEG pass through. BMP, TIFF and WebP are decoded and re-encoded as
// PNG with the extension swapped. Data that decodes as none of these is
// passed through unchanged under its declared MIME type.
func gltfTexture(tex *scene.Texture) textureImage {
	out := textureImage{Name: tex.Name, MimeType: tex.MimeType, Data: tex.Data}
	if out.MimeType == "" {
		out.MimeType = "image/png"
	}

	_, kind, err := image.DecodeConfig(bytes.NewReader(tex.Data))
	if err != nil {
		return out
	}
	switch kind {
	case "png":
		out.MimeType = "image/png"
		return out
	case "jpeg":
		out.MimeType = "image/jpeg"
		return out
	}

	img, _, err := image.Decode(bytes.NewReader(tex.Data))
	if err != nil {
		return out
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return out
	}
	return textureImage{
		Name:     strings.TrimSuffix(tex.Name, filepath.Ext(tex.Name)) + ".png",
		MimeType: "image/png",
		Data:     buf.Bytes(),
	}
}
