package retarget

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// EnvironmentContext answers the world queries used to weight retargeting goals. It is
// passed explicitly to every Adapt call.
type EnvironmentContext interface {
	// DistanceToNearestObject returns the distance from p to the closest obstacle, or
	// +Inf when nothing is in range.
	//
	// Parameters:
	//   - p: a world position
	//
	// Returns:
	//   - float64: the distance
	DistanceToNearestObject(p mgl64.Vec3) float64

	// DistanceToGround returns the height of p above the ground.
	//
	// Parameters:
	//   - p: a world position
	//
	// Returns:
	//   - float64: the distance, zero or negative on or below the ground
	DistanceToGround(p mgl64.Vec3) float64
}

// FlatGround is an EnvironmentContext with an empty world and the ground plane at Height.
type FlatGround struct {
	Height float64
}

var _ EnvironmentContext = FlatGround{}

func (g FlatGround) DistanceToNearestObject(mgl64.Vec3) float64 {
	return math.Inf(1)
}

func (g FlatGround) DistanceToGround(p mgl64.Vec3) float64 {
	return p.Y() - g.Height
}
