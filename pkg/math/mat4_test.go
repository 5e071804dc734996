package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	result := m.TransformPoint([3]float32{1, 2, 3})

	expected := [3]float32{11, 22, 33}
	if result != expected {
		t.Errorf("TransformPoint: got %v, want %v", result, expected)
	}
}

func TestTransformPointScale(t *testing.T) {
	m := Scale(2, 2, 2)
	result := m.TransformPoint([3]float32{1, 2, 3})

	expected := [3]float32{2, 4, 6}
	if result != expected {
		t.Errorf("TransformPoint with scale: got %v, want %v", result, expected)
	}
}

func TestAxisAngleY90(t *testing.T) {
	m := QuatFromAxisAngle(Vec3{Y: 1}, math.Pi/2).ToMat4()
	result := m.TransformPoint([3]float32{1, 0, 0})

	// After a 90 degree Y rotation, (1,0,0) should become approximately (0,0,-1)
	if abs(result[0]) > 0.001 || abs(result[1]) > 0.001 || abs(result[2]+1) > 0.001 {
		t.Errorf("Y 90: got %v, want (0, 0, -1)", result)
	}
}

func TestQuarterTurnMatchesAxisAngle(t *testing.T) {
	x, y, z := Vec3{X: 1}, Vec3{Y: 1}, Vec3{Z: 1}
	tests := []struct {
		axis  byte
		turns int
		ref   Mat4
	}{
		{'x', 1, QuatFromAxisAngle(x, math.Pi/2).ToMat4()},
		{'x', -1, QuatFromAxisAngle(x, -math.Pi/2).ToMat4()},
		{'y', 1, QuatFromAxisAngle(y, math.Pi/2).ToMat4()},
		{'z', 2, QuatFromAxisAngle(z, math.Pi).ToMat4()},
		{'z', 3, QuatFromAxisAngle(z, 3*math.Pi/2).ToMat4()},
	}
	for _, tt := range tests {
		got := QuarterTurn(tt.axis, tt.turns)
		for i := range got {
			if abs(got[i]-tt.ref[i]) > 1e-6 {
				t.Fatalf("QuarterTurn(%c, %d)[%d] = %v, want ~%v", tt.axis, tt.turns, i, got[i], tt.ref[i])
			}
		}
	}
}

func TestQuarterTurnIsExact(t *testing.T) {
	m := QuarterTurn('x', 1)
	p := m.TransformVec3(Vec3{0, 1, 0})
	if p != (Vec3{0, 0, 1}) {
		t.Errorf("exact quarter turn around X: got %v, want (0,0,1)", p)
	}
	if QuarterTurn('q', 1) != Identity() {
		t.Error("unknown axis should return identity")
	}
}

func TestIsRotation(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		want bool
	}{
		{"identity", Identity(), true},
		{"rotation with translation", Translate(4, 5, 6).Mul(QuatFromAxisAngle(Vec3{Z: 1}, 0.7).ToMat4()), true},
		{"uniform scale", Scale(2, 2, 2), false},
		{"mirror", Scale(-1, 1, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.IsRotation(1e-5); got != tt.want {
				t.Errorf("IsRotation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeterminant3(t *testing.T) {
	if d := Scale(2, 3, 4).Determinant3(); d != 24 {
		t.Errorf("Determinant3 of scale = %v, want 24", d)
	}
	if d := Scale(-1, 1, 1).Determinant3(); d != -1 {
		t.Errorf("Determinant3 of mirror = %v, want -1", d)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
