package clip

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// Sample evaluates the channel at time t. Missing paths keep the fallback value, times
// outside the key range clamp to the first or last key.
//
// Parameters:
//   - t: the clip time
//   - fallback: values for paths that have no keys, usually the bind pose
//
// Returns:
//   - LocalPose: the sampled pose
func (ch *Channel) Sample(t float64, fallback LocalPose) LocalPose {
	out := fallback
	if len(ch.PositionKeys) > 0 {
		out.Position = sampleVector(ch.PositionKeys, t)
	}
	if len(ch.RotationKeys) > 0 {
		out.Orientation = sampleQuaternion(ch.RotationKeys, t)
	}
	if len(ch.ScaleKeys) > 0 {
		out.Scale = sampleVector(ch.ScaleKeys, t)
	}
	return out
}

// bracket returns the key indices around t and the interpolation factor between them.
func bracket(n int, timeAt func(int) float64, t float64) (int, int, float64) {
	if t <= timeAt(0) {
		return 0, 0, 0
	}
	if t >= timeAt(n-1) {
		return n - 1, n - 1, 0
	}
	hi := sort.Search(n, func(i int) bool { return timeAt(i) > t })
	lo := hi - 1
	span := timeAt(hi) - timeAt(lo)
	if span <= 0 {
		return hi, hi, 0
	}
	return lo, hi, (t - timeAt(lo)) / span
}

func sampleVector(keys []VectorKeyframe, t float64) mgl64.Vec3 {
	lo, hi, f := bracket(len(keys), func(i int) float64 { return keys[i].Time }, t)
	if lo == hi {
		return keys[lo].Value
	}
	return common.LerpVec3(keys[lo].Value, keys[hi].Value, f)
}

func sampleQuaternion(keys []QuaternionKeyframe, t float64) mgl64.Quat {
	lo, hi, f := bracket(len(keys), func(i int) float64 { return keys[i].Time }, t)
	if lo == hi {
		return keys[lo].Value.Normalize()
	}
	return common.Slerp(keys[lo].Value, keys[hi].Value, f).Normalize()
}
