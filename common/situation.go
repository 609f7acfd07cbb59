package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// upAxis is the world up direction. Situations live in the plane orthogonal to it.
var upAxis = mgl64.Vec3{0, 1, 0}

// Situation is a reduced ground-plane placement: a position on the XZ plane and a yaw
// about the world Y axis. It is used to align a character's facing and location
// independently of the full 3D root pose.
type Situation struct {
	// X and Z are the ground-plane coordinates.
	X, Z float64

	// Yaw is the heading in radians about +Y. Yaw 0 faces +Z.
	Yaw float64
}

// IdentitySituation returns the situation at the origin facing +Z.
//
// Returns:
//   - Situation: the identity placement
func IdentitySituation() Situation {
	return Situation{}
}

// SituationFromTransform projects a 3D placement onto the ground plane. The yaw is taken
// from the rotated forward axis (+Z); a forward axis pointing straight up or down yields
// yaw 0.
//
// Parameters:
//   - pos: world position
//   - rot: world orientation
//
// Returns:
//   - Situation: the projected placement
func SituationFromTransform(pos mgl64.Vec3, rot mgl64.Quat) Situation {
	f := rot.Rotate(mgl64.Vec3{0, 0, 1})
	yaw := 0.0
	if math.Abs(f.X())+math.Abs(f.Z()) > Epsilon {
		yaw = math.Atan2(f.X(), f.Z())
	}
	return Situation{X: pos.X(), Z: pos.Z(), Yaw: yaw}
}

// rotate applies the yaw rotation to a ground-plane offset.
func (s Situation) rotate(x, z float64) (float64, float64) {
	c, sn := math.Cos(s.Yaw), math.Sin(s.Yaw)
	return x*c + z*sn, -x*sn + z*c
}

// Mul composes two situations: the result places o in the frame described by s.
//
// Parameters:
//   - o: the situation expressed relative to s
//
// Returns:
//   - Situation: o expressed in the parent frame of s
func (s Situation) Mul(o Situation) Situation {
	x, z := s.rotate(o.X, o.Z)
	return Situation{X: s.X + x, Z: s.Z + z, Yaw: wrapAngle(s.Yaw + o.Yaw)}
}

// Inverse returns the situation that undoes s, so s.Mul(s.Inverse()) is the identity.
//
// Returns:
//   - Situation: the inverse placement
func (s Situation) Inverse() Situation {
	inv := Situation{Yaw: -s.Yaw}
	x, z := inv.rotate(-s.X, -s.Z)
	inv.X, inv.Z = x, z
	return inv
}

// Between returns the transform that carries s onto o, expressed in s's frame:
// s.Mul(s.Between(o)) == o.
//
// Parameters:
//   - o: the destination situation
//
// Returns:
//   - Situation: the relative placement
func (s Situation) Between(o Situation) Situation {
	return s.Inverse().Mul(o)
}

// TransformPoint maps a 3D point from the situation's local frame to the parent frame.
// The height component is left untouched.
//
// Parameters:
//   - p: the point in local space
//
// Returns:
//   - mgl64.Vec3: the point in parent space
func (s Situation) TransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	x, z := s.rotate(p.X(), p.Z())
	return mgl64.Vec3{s.X + x, p.Y(), s.Z + z}
}

// TransformVector rotates a 3D direction by the situation's yaw.
//
// Parameters:
//   - v: the direction in local space
//
// Returns:
//   - mgl64.Vec3: the direction in parent space
func (s Situation) TransformVector(v mgl64.Vec3) mgl64.Vec3 {
	x, z := s.rotate(v.X(), v.Z())
	return mgl64.Vec3{x, v.Y(), z}
}

// Quat returns the yaw as a rotation about +Y.
//
// Returns:
//   - mgl64.Quat: the heading rotation
func (s Situation) Quat() mgl64.Quat {
	return mgl64.QuatRotate(s.Yaw, upAxis)
}

// Lerp interpolates position linearly and yaw along the shortest arc.
//
// Parameters:
//   - o: the end situation
//   - t: interpolation factor, 0 returns s and 1 returns o
//
// Returns:
//   - Situation: the interpolated placement
func (s Situation) Lerp(o Situation, t float64) Situation {
	d := wrapAngle(o.Yaw - s.Yaw)
	return Situation{
		X:   s.X + (o.X-s.X)*t,
		Z:   s.Z + (o.Z-s.Z)*t,
		Yaw: wrapAngle(s.Yaw + d*t),
	}
}

// ApproxEqual reports whether two situations match within tol.
//
// Parameters:
//   - o: the situation to compare against
//   - tol: the tolerance for position and yaw
//
// Returns:
//   - bool: true if both placements match
func (s Situation) ApproxEqual(o Situation, tol float64) bool {
	return math.Abs(s.X-o.X) <= tol &&
		math.Abs(s.Z-o.Z) <= tol &&
		math.Abs(wrapAngle(s.Yaw-o.Yaw)) <= tol
}

// wrapAngle maps an angle into (-pi, pi].
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
