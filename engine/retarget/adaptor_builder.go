package retarget

import "github.com/tanema/gween/ease"

const (
	// DefaultEnvironmentRange is the obstacle distance at which goal weight reaches zero.
	DefaultEnvironmentRange = 0.5

	// DefaultGroundRange is the ground distance at which goal weight reaches zero.
	DefaultGroundRange = 0.25

	// DefaultPredictionFactor scales the last frame's distance change.
	DefaultPredictionFactor = 1.0
)

// AdaptorBuilderOption is a function that configures an adaptor.
type AdaptorBuilderOption func(a *adaptor)

// WithEnvironmentRange sets the obstacle distance beyond which effectors get no goal weight.
//
// Parameters:
//   - r: the range in world units
//
// Returns:
//   - AdaptorBuilderOption: a function that applies the range to an adaptor
func WithEnvironmentRange(r float64) AdaptorBuilderOption {
	return func(a *adaptor) {
		a.envRange = r
	}
}

// WithGroundRange sets the height above ground beyond which effectors get no goal weight.
//
// Parameters:
//   - r: the range in world units
//
// Returns:
//   - AdaptorBuilderOption: a function that applies the range to an adaptor
func WithGroundRange(r float64) AdaptorBuilderOption {
	return func(a *adaptor) {
		a.groundRange = r
	}
}

// WithPredictionFactor sets how far distances are extrapolated from their last change.
// Zero disables prediction.
func WithPredictionFactor(f float64) AdaptorBuilderOption {
	return func(a *adaptor) {
		a.predictionFactor = f
	}
}

// WithFalloff replaces the cubic falloff. The curve is evaluated as fn(x, 1, -1, 1) for a
// normalized distance x in [0, 1].
func WithFalloff(fn ease.TweenFunc) AdaptorBuilderOption {
	return func(a *adaptor) {
		if fn != nil {
			a.falloff = fn
		}
	}
}
