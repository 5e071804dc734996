package math

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseRotation parses axis rotations in degrees such as "x+90", "y-90",
// "z180" or "x22.5". Several rotations separated by commas are applied left
// to right. The empty string and "none" yield the identity. Multiples of 90
// degrees produce exact matrices.
func ParseRotation(s string) (Mat4, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "none" {
		return Identity(), nil
	}

	m := Identity()
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if len(part) < 2 {
			return Identity(), fmt.Errorf("invalid rotation %q", part)
		}
		var axis Vec3
		switch part[0] {
		case 'x':
			axis = Vec3{X: 1}
		case 'y':
			axis = Vec3{Y: 1}
		case 'z':
			axis = Vec3{Z: 1}
		default:
			return Identity(), fmt.Errorf("invalid rotation axis in %q", part)
		}
		deg, err := strconv.ParseFloat(strings.TrimPrefix(part[1:], "+"), 64)
		if err != nil || math.IsInf(deg, 0) || math.IsNaN(deg) {
			return Identity(), fmt.Errorf("invalid rotation angle in %q", part)
		}

		var r Mat4
		if turns := deg / 90; turns == math.Trunc(turns) {
			r = QuarterTurn(part[0], int(math.Mod(turns, 4)))
		} else {
			r = QuatFromAxisAngle(axis, float32(deg*math.Pi/180)).ToMat4()
		}
		m = r.Mul(m)
	}
	return m, nil
}
