package environment

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestEmptyEnvironmentHasNoObstacles(t *testing.T) {
	e := NewEnvironment()
	if d := e.DistanceToNearestObject(mgl64.Vec3{0, 0, 0}); !math.IsInf(d, 1) {
		t.Errorf("distance = %v, want +Inf", d)
	}
	if e.Obstacles() != 0 {
		t.Errorf("obstacles = %d", e.Obstacles())
	}
}

func TestDistanceToCircle(t *testing.T) {
	e := NewEnvironment()
	e.AddCircle(mgl64.Vec2{0, 0}, 1, 1)

	cases := []struct {
		name string
		p    mgl64.Vec3
		want float64
	}{
		{"beside", mgl64.Vec3{3, 0.5, 0}, 2},
		{"beside along z", mgl64.Vec3{0, 0, -2}, 1},
		{"inside", mgl64.Vec3{0.5, 0, 0}, 0},
		{"above and beside", mgl64.Vec3{3, 3, 0}, 2 * math.Sqrt2},
	}
	for _, c := range cases {
		if d := e.DistanceToNearestObject(c.p); math.Abs(d-c.want) > 1e-9 {
			t.Errorf("%s: distance = %v, want %v", c.name, d, c.want)
		}
	}
}

func TestNearestOfSeveralObstacles(t *testing.T) {
	e := NewEnvironment()
	e.AddCircle(mgl64.Vec2{0, 0}, 1, 1)
	e.AddBox(mgl64.Vec2{2, -1}, mgl64.Vec2{4, 1}, 2)
	if e.Obstacles() != 2 {
		t.Fatalf("obstacles = %d", e.Obstacles())
	}
	if d := e.DistanceToNearestObject(mgl64.Vec3{5, 0, 0}); math.Abs(d-1) > 1e-9 {
		t.Errorf("distance = %v, want 1 to the box", d)
	}
}

func TestMaxQueryDistance(t *testing.T) {
	e := NewEnvironment(WithMaxQueryDistance(1))
	e.AddCircle(mgl64.Vec2{0, 0}, 1, 1)
	if d := e.DistanceToNearestObject(mgl64.Vec3{5, 0, 0}); !math.IsInf(d, 1) {
		t.Errorf("distance = %v, want +Inf beyond the query range", d)
	}
}

func TestDistanceToGround(t *testing.T) {
	e := NewEnvironment(WithGroundHeight(0.5))
	if d := e.DistanceToGround(mgl64.Vec3{7, 2, 7}); d != 1.5 {
		t.Errorf("ground distance = %v, want 1.5", d)
	}
	e.SetGroundHeight(2)
	if d := e.DistanceToGround(mgl64.Vec3{0, 2, 0}); d != 0 {
		t.Errorf("ground distance = %v, want 0", d)
	}
}
