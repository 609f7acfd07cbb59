package environment

// DefaultMaxQueryDistance bounds obstacle lookups.
const DefaultMaxQueryDistance = 5.0

// EnvironmentBuilderOption is a function that configures an environment.
type EnvironmentBuilderOption func(e *environment)

// WithGroundHeight sets the height of the ground plane.
//
// Parameters:
//   - h: the ground height
//
// Returns:
//   - EnvironmentBuilderOption: a function that applies the height to an environment
func WithGroundHeight(h float64) EnvironmentBuilderOption {
	return func(e *environment) {
		e.groundHeight = h
	}
}

// WithMaxQueryDistance sets how far obstacle lookups search. Obstacles farther away are
// reported at infinite distance.
//
// Parameters:
//   - d: the search distance
//
// Returns:
//   - EnvironmentBuilderOption: a function that applies the distance to an environment
func WithMaxQueryDistance(d float64) EnvironmentBuilderOption {
	return func(e *environment) {
		e.maxDistance = d
	}
}
