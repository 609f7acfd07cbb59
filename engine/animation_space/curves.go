package animation_space

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// TimewarpCurve is a piecewise-linear curve through K-dimensional control points, one
// dimension per base clip. Curve time u runs over [0, Segments()]; the value at u is the
// play time of each base clip at that point of the blend cycle.
type TimewarpCurve struct {
	points [][]float64
}

// NewTimewarpCurve creates a curve from control points. At least two points are needed.
//
// Parameters:
//   - points: the control points, each holding one time per base clip
//
// Returns:
//   - *TimewarpCurve: the curve
func NewTimewarpCurve(points [][]float64) *TimewarpCurve {
	if len(points) < 2 {
		panic("animation_space: timewarp curve needs at least two control points")
	}
	for i := range points {
		if len(points[i]) != len(points[0]) {
			panic(fmt.Sprintf("animation_space: timewarp point %d has %d values, want %d", i, len(points[i]), len(points[0])))
		}
	}
	return &TimewarpCurve{points: points}
}

// Dim returns the number of base clips the curve covers.
func (c *TimewarpCurve) Dim() int {
	return len(c.points[0])
}

// Segments returns the number of linear segments.
func (c *TimewarpCurve) Segments() int {
	return len(c.points) - 1
}

// WrapU maps any curve time into [0, Segments()).
func (c *TimewarpCurve) WrapU(u float64) float64 {
	return common.WrapTime(u, float64(c.Segments()))
}

func segmentAt(u float64, segments int) (int, float64) {
	u = common.Clamp(u, 0, float64(segments))
	i := int(math.Floor(u))
	if i >= segments {
		return segments - 1, 1
	}
	return i, u - float64(i)
}

// Sample returns the per-base play times at curve time u, clamped to the curve range.
//
// Parameters:
//   - u: the curve time
//
// Returns:
//   - []float64: one time per base clip
func (c *TimewarpCurve) Sample(u float64) []float64 {
	i, f := segmentAt(u, c.Segments())
	out := make([]float64, c.Dim())
	copy(out, c.points[i])
	floats.Scale(1-f, out)
	floats.AddScaled(out, f, c.points[i+1])
	return out
}

// AlignmentCurve holds per-base ground-plane offsets at the same control points as a
// timewarp curve. Offsets between control points are interpolated linearly.
type AlignmentCurve struct {
	points [][]common.Situation
}

// NewAlignmentCurve creates an alignment curve.
//
// Parameters:
//   - points: the control points, each holding one offset per base clip
//
// Returns:
//   - *AlignmentCurve: the curve
func NewAlignmentCurve(points [][]common.Situation) *AlignmentCurve {
	if len(points) < 2 {
		panic("animation_space: alignment curve needs at least two control points")
	}
	for i := range points {
		if len(points[i]) != len(points[0]) {
			panic(fmt.Sprintf("animation_space: alignment point %d has %d offsets, want %d", i, len(points[i]), len(points[0])))
		}
	}
	return &AlignmentCurve{points: points}
}

// Dim returns the number of base clips the curve covers.
func (c *AlignmentCurve) Dim() int {
	return len(c.points[0])
}

// Segments returns the number of linear segments.
func (c *AlignmentCurve) Segments() int {
	return len(c.points) - 1
}

// Sample returns the offset of one base clip at curve time u.
//
// Parameters:
//   - u: the curve time
//   - base: the base index
//
// Returns:
//   - common.Situation: the offset relative to the blend node's origin
func (c *AlignmentCurve) Sample(u float64, base int) common.Situation {
	i, f := segmentAt(u, c.Segments())
	return c.points[i][base].Lerp(c.points[i+1][base], f)
}
