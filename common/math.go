package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the tolerance used by the degenerate-input guards across the engine
// (zero-length bone segments, near-parallel axes, empty blend windows).
const Epsilon = 1e-9

// Clamp limits v to the closed range [lo, hi].
//
// Parameters:
//   - v: the value to clamp
//   - lo: the lower bound
//   - hi: the upper bound
//
// Returns:
//   - float64: v limited to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TransitionWeight evaluates the cross-blend weight of the outgoing animation at
// normalized window position t: w(t) = 2t³ - 3t² + 1.
// w(0) = 1, w(1) = 0 and the derivative vanishes at both ends.
//
// Parameters:
//   - t: normalized position inside the transition window, clamped to [0, 1]
//
// Returns:
//   - float64: the weight of the outgoing animation
func TransitionWeight(t float64) float64 {
	t = Clamp(t, 0, 1)
	return 2*t*t*t - 3*t*t + 1
}

// WrapTime wraps t into [0, length). A non-positive length returns 0.
//
// Parameters:
//   - t: the time to wrap
//   - length: the period
//
// Returns:
//   - float64: the wrapped time
func WrapTime(t, length float64) float64 {
	if length <= 0 {
		return 0
	}
	t = math.Mod(t, length)
	if t < 0 {
		t += length
	}
	return t
}

// SafeNormalize returns v normalized, or false when v is too short to carry a direction.
//
// Parameters:
//   - v: the vector to normalize
//
// Returns:
//   - mgl64.Vec3: the unit vector (zero when not ok)
//   - bool: false when |v| is below Epsilon
func SafeNormalize(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l < Epsilon {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / l), true
}

// TRS builds the column-major local transform matrix T * R * S.
//
// Parameters:
//   - pos: translation
//   - rot: orientation
//   - scale: per-axis scale
//
// Returns:
//   - mgl64.Mat4: the composed transform
func TRS(pos mgl64.Vec3, rot mgl64.Quat, scale mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(pos.X(), pos.Y(), pos.Z()).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(scale.X(), scale.Y(), scale.Z()))
}

// SliceToBytes converts any slice to a byte slice, typically for handing pose
// palettes to a renderer without a copy.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Slerp interpolates between two orientations along the shortest arc.
//
// Parameters:
//   - a: the start orientation (returned for t = 0)
//   - b: the end orientation (returned for t = 1)
//   - t: the interpolation factor
//
// Returns:
//   - mgl64.Quat: the interpolated orientation
func Slerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, t)
}

// LerpVec3 interpolates two vectors linearly.
//
// Parameters:
//   - a: the start vector (returned for t = 0)
//   - b: the end vector (returned for t = 1)
//   - t: the interpolation factor
//
// Returns:
//   - mgl64.Vec3: the interpolated vector
func LerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
