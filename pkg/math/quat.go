package math

import "math"

// Quat is a rotation quaternion with W as the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the no-op rotation.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle returns the rotation by angle radians about a unit axis.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	sin, cos := math.Sincos(float64(angle) / 2)
	v := axis.Scale(float32(sin))
	return Quat{X: v.X, Y: v.Y, Z: v.Z, W: float32(cos)}
}

// QuatFromRotation extracts the rotation from the upper-left 3x3 block of m,
// which must be orthonormal.
func QuatFromRotation(m Mat4) Quat {
	// r(row, col) = m[col*4+row]
	r00, r11, r22 := float64(m[0]), float64(m[5]), float64(m[10])
	r10, r01 := float64(m[1]), float64(m[4])
	r20, r02 := float64(m[2]), float64(m[8])
	r21, r12 := float64(m[6]), float64(m[9])

	var x, y, z, w float64
	switch trace := r00 + r11 + r22; {
	case trace > 0:
		s := 2 * math.Sqrt(trace+1)
		w = s / 4
		x = (r21 - r12) / s
		y = (r02 - r20) / s
		z = (r10 - r01) / s
	case r00 > r11 && r00 > r22:
		s := 2 * math.Sqrt(1+r00-r11-r22)
		w = (r21 - r12) / s
		x = s / 4
		y = (r01 + r10) / s
		z = (r02 + r20) / s
	case r11 > r22:
		s := 2 * math.Sqrt(1+r11-r00-r22)
		w = (r02 - r20) / s
		x = (r01 + r10) / s
		y = s / 4
		z = (r12 + r21) / s
	default:
		s := 2 * math.Sqrt(1+r22-r00-r11)
		w = (r10 - r01) / s
		x = (r02 + r20) / s
		y = (r12 + r21) / s
		z = s / 4
	}
	q := Quat{X: float32(x), Y: float32(y), Z: float32(z), W: float32(w)}
	if q.W < 0 {
		q = Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
	}
	return q.Normalize()
}

func (q Quat) norm() float32 {
	return float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
}

// Normalize scales q to unit length. Degenerate input yields the identity.
func (q Quat) Normalize() Quat {
	n := q.norm()
	if n < 1e-6 {
		return QuatIdentity()
	}
	return Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}

// ToMat4 returns the equivalent rotation matrix.
func (q Quat) ToMat4() Mat4 {
	q = q.Normalize()
	x2, y2, z2 := q.X+q.X, q.Y+q.Y, q.Z+q.Z
	xx, yy, zz := q.X*x2, q.Y*y2, q.Z*z2
	xy, xz, yz := q.X*y2, q.X*z2, q.Y*z2
	wx, wy, wz := q.W*x2, q.W*y2, q.W*z2

	return Mat4{
		1 - yy - zz, xy + wz, xz - wy, 0,
		xy - wz, 1 - xx - zz, yz + wx, 0,
		xz + wy, yz - wx, 1 - xx - yy, 0,
		0, 0, 0, 1,
	}
}

// Float64s returns the components in glTF order (x, y, z, w).
func (q Quat) Float64s() [4]float64 {
	return [4]float64{float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)}
}

// Decompose splits an affine transform into translation * rotation * scale.
// ok is false when m mirrors, shears or is projective; such transforms only
// survive as a full matrix.
func Decompose(m Mat4, eps float32) (translation Vec3, rotation Quat, scale Vec3, ok bool) {
	if abs32(m[3]) > eps || abs32(m[7]) > eps || abs32(m[11]) > eps || abs32(m[15]-1) > eps {
		return Vec3{}, Quat{}, Vec3{}, false
	}
	if m.Determinant3() <= 0 {
		return Vec3{}, Quat{}, Vec3{}, false
	}
	cols := [3]Vec3{
		{m[0], m[1], m[2]},
		{m[4], m[5], m[6]},
		{m[8], m[9], m[10]},
	}
	scale = Vec3{X: cols[0].Length(), Y: cols[1].Length(), Z: cols[2].Length()}
	if scale.X < eps || scale.Y < eps || scale.Z < eps {
		return Vec3{}, Quat{}, Vec3{}, false
	}

	r := Identity()
	for i, s := range scale.Array() {
		c := cols[i].Scale(1 / s)
		r[i*4], r[i*4+1], r[i*4+2] = c.X, c.Y, c.Z
	}
	if !r.IsRotation(eps) {
		return Vec3{}, Quat{}, Vec3{}, false
	}
	return Vec3{X: m[12], Y: m[13], Z: m[14]}, QuatFromRotation(r), scale, true
}
