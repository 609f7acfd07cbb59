package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSituationComposition(t *testing.T) {
	a := Situation{X: 1, Z: 2, Yaw: math.Pi / 2}
	b := Situation{X: 0, Z: 1, Yaw: math.Pi / 4}

	// b's +Z offset rotated by a quarter turn points along +X
	got := a.Mul(b)
	want := Situation{X: 2, Z: 2, Yaw: 3 * math.Pi / 4}
	if !got.ApproxEqual(want, epsilon) {
		t.Errorf("a·b = %+v, want %+v", got, want)
	}

	if id := a.Mul(a.Inverse()); !id.ApproxEqual(IdentitySituation(), epsilon) {
		t.Errorf("a·a⁻¹ = %+v", id)
	}
	if back := a.Mul(a.Between(b)); !back.ApproxEqual(b, epsilon) {
		t.Errorf("a·between(a, b) = %+v, want b", back)
	}
}

func TestSituationMatchesQuat(t *testing.T) {
	s := Situation{X: 3, Z: -1, Yaw: 0.7}
	v := mgl64.Vec3{0.3, 2, -1.2}
	if got, want := s.TransformVector(v), s.Quat().Rotate(v); !got.ApproxEqualThreshold(want, epsilon) {
		t.Errorf("TransformVector = %v, Quat rotate = %v", got, want)
	}
	p := s.TransformPoint(v)
	want := s.Quat().Rotate(v).Add(mgl64.Vec3{3, 0, -1})
	if !p.ApproxEqualThreshold(want, epsilon) {
		t.Errorf("TransformPoint = %v, want %v", p, want)
	}
}

func TestSituationFromTransform(t *testing.T) {
	rot := mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{0, 1, 0})
	s := SituationFromTransform(mgl64.Vec3{1, 5, 2}, rot)
	if !s.ApproxEqual(Situation{X: 1, Z: 2, Yaw: -math.Pi / 2}, epsilon) {
		t.Errorf("situation = %+v", s)
	}

	up := mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{1, 0, 0})
	if s := SituationFromTransform(mgl64.Vec3{}, up); s.Yaw != 0 {
		t.Errorf("degenerate forward yaw = %v", s.Yaw)
	}
}

func TestSituationLerpWrapsYaw(t *testing.T) {
	a := Situation{Yaw: math.Pi - 0.1}
	b := Situation{X: 2, Yaw: -math.Pi + 0.1}
	mid := a.Lerp(b, 0.5)
	if math.Abs(mid.X-1) > epsilon || math.Abs(math.Abs(mid.Yaw)-math.Pi) > epsilon {
		t.Errorf("mid = %+v, want yaw through pi", mid)
	}
}
