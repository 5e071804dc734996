package scene

import (
	"fmt"
	gomath "math"
	"strconv"
)

// Color is a display-encoded (sRGB) 8-bit RGB color.
type Color struct {
	R, G, B uint8
}

// String returns the color as #rrggbb.
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Float returns the display-encoded components in [0, 1].
func (c Color) Float() [3]float32 {
	return [3]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}

// Linear returns the components converted to linear encoding.
func (c Color) Linear() [3]float32 {
	f := c.Float()
	return [3]float32{SRGBToLinear(f[0]), SRGBToLinear(f[1]), SRGBToLinear(f[2])}
}

// ParseColor parses #rrggbb or rrggbb.
func ParseColor(s string) (Color, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// SRGBToLinear converts one display-encoded component to linear encoding.
func SRGBToLinear(c float32) float32 {
	if c < 0.04045 {
		return c * 0.0773993808
	}
	return float32(gomath.Pow(float64(c)*0.9478672986+0.0521327014, 2.4))
}
