package formats

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/qmuntal/gltf"
	"golang.org/x/image/bmp"

	"github.com/pranavRajmane/Ayrton/pkg/scene"
	"github.com/pranavRajmane/Ayrton/pkg/view"
)

func bmpTexture(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatalf("bmp.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestGLTFTexture(t *testing.T) {
	var pngData bytes.Buffer
	if err := png.Encode(&pngData, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		tex      *scene.Texture
		wantName string
		wantMime string
		same     bool
	}{
		{"png passes through", scene.NewTexture("a.png", pngData.Bytes()), "a.png", "image/png", true},
		{"mislabelled png", &scene.Texture{Name: "a.img", MimeType: "image/x-foo", Data: pngData.Bytes()}, "a.img", "image/png", true},
		{"bmp is transcoded", scene.NewTexture("brick.bmp", bmpTexture(t)), "brick.png", "image/png", false},
		{"opaque bytes", &scene.Texture{Name: "raw", Data: []byte{1, 2, 3}}, "raw", "image/png", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gltfTexture(tt.tex)
			if got.Name != tt.wantName || got.MimeType != tt.wantMime {
				t.Errorf("got %s (%s), want %s (%s)", got.Name, got.MimeType, tt.wantName, tt.wantMime)
			}
			if same := bytes.Equal(got.Data, tt.tex.Data); same != tt.same {
				t.Errorf("data unchanged = %v, want %v", same, tt.same)
			}
		})
	}
}

func TestGLTF_BMPTextureBecomesPNG(t *testing.T) {
	m := texturedQuadModel(nil)
	m.Material(0).DiffuseMap = scene.NewTexture("wood.bmp", bmpTexture(t))

	arts, err := (&GLTFEncoder{}).ExportContent(context.Background(), view.New(m, view.Options{}))
	if err != nil {
		t.Fatalf("ExportContent: %v", err)
	}
	if len(arts) != 3 || arts[2].Name != "wood.png" {
		t.Fatalf("artifacts = %v", artifactNames(arts))
	}
	img, err := png.Decode(bytes.NewReader(arts[2].Data))
	if err != nil {
		t.Fatalf("texture is not PNG: %v", err)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r != 0xffff {
		t.Errorf("pixel (0,0) red = %#x, want 0xffff", r)
	}

	var doc gltf.Document
	if err := json.Unmarshal(arts[0].Data, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Images[0].URI != "wood.png" {
		t.Errorf("image uri = %q", doc.Images[0].URI)
	}
}

func artifactNames(arts []Artifact) []string {
	names := make([]string, len(arts))
	for i, a := range arts {
		names[i] = a.Name
	}
	return names
}
