package environment

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"

	"github.com/Carmen-Shannon/oxy-anim/engine/retarget"
)

// obstacle is stored as shape user data.
type obstacle struct {
	height float64
}

// environment is the implementation of the Environment interface.
type environment struct {
	mu *sync.Mutex

	space        *cp.Space
	groundHeight float64
	maxDistance  float64
	count        int
}

// Environment is the static world characters are adapted against. Obstacles are extruded
// footprints on the ground plane (X, Z) held in a chipmunk space; Y is up.
type Environment interface {
	retarget.EnvironmentContext

	// AddCircle adds a cylindrical obstacle.
	//
	// Parameters:
	//   - center: the footprint center as (X, Z)
	//   - radius: the footprint radius
	//   - height: the obstacle top above the ground
	AddCircle(center mgl64.Vec2, radius, height float64)

	// AddBox adds a box obstacle.
	//
	// Parameters:
	//   - min: the footprint corner with the smallest X and Z
	//   - max: the footprint corner with the largest X and Z
	//   - height: the obstacle top above the ground
	AddBox(min, max mgl64.Vec2, height float64)

	// Obstacles returns the number of obstacles.
	Obstacles() int

	// GroundHeight returns the ground plane height.
	GroundHeight() float64
	SetGroundHeight(h float64)

	// MaxQueryDistance returns the distance beyond which obstacles are not reported.
	MaxQueryDistance() float64
}

var _ Environment = &environment{}

// NewEnvironment creates an empty environment.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - Environment: the environment
func NewEnvironment(options ...EnvironmentBuilderOption) Environment {
	e := &environment{
		mu:          &sync.Mutex{},
		space:       cp.NewSpace(),
		maxDistance: DefaultMaxQueryDistance,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *environment) AddCircle(center mgl64.Vec2, radius, height float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	shape := cp.NewCircle(e.space.StaticBody, radius, cp.Vector{X: center.X(), Y: center.Y()})
	e.add(shape, height)
}

func (e *environment) AddBox(min, max mgl64.Vec2, height float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	bb := cp.BB{L: min.X(), B: min.Y(), R: max.X(), T: max.Y()}
	e.add(cp.NewBox2(e.space.StaticBody, bb, 0), height)
}

func (e *environment) add(shape *cp.Shape, height float64) {
	shape.UserData = &obstacle{height: height}
	e.space.AddShape(shape)
	e.count++
}

func (e *environment) Obstacles() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

func (e *environment) GroundHeight() float64 {
	return e.groundHeight
}

func (e *environment) SetGroundHeight(h float64) {
	e.groundHeight = h
}

func (e *environment) MaxQueryDistance() float64 {
	return e.maxDistance
}

func (e *environment) DistanceToGround(p mgl64.Vec3) float64 {
	return p.Y() - e.groundHeight
}

func (e *environment) DistanceToNearestObject(p mgl64.Vec3) float64 {
	e.mu.Lock()
	info := e.space.PointQueryNearest(cp.Vector{X: p.X(), Y: p.Z()}, e.maxDistance, cp.SHAPE_FILTER_ALL)
	e.mu.Unlock()

	if info == nil || info.Shape == nil {
		return math.Inf(1)
	}
	planar := math.Max(info.Distance, 0)
	above := 0.0
	if o, ok := info.Shape.UserData.(*obstacle); ok {
		above = math.Max(p.Y()-(e.groundHeight+o.height), 0)
	}
	return math.Hypot(planar, above)
}
