package animation_space

// SpaceBuilderOption is a functional option for configuring a Space.
// Use the With* functions to create options.
type SpaceBuilderOption func(s *space)

// WithParametrization attaches a parameter-to-weight mapping.
//
// Parameters:
//   - p: the parametrization
//
// Returns:
//   - SpaceBuilderOption: option function to apply
func WithParametrization(p *Parametrization) SpaceBuilderOption {
	return func(s *space) {
		s.parametrization = p
	}
}

// WithTimewarp attaches a timewarp curve.
//
// Parameters:
//   - c: the curve
//
// Returns:
//   - SpaceBuilderOption: option function to apply
func WithTimewarp(c *TimewarpCurve) SpaceBuilderOption {
	return func(s *space) {
		s.timewarp = c
	}
}

// WithAlignment attaches an alignment curve. It is only sampled when a timewarp curve is
// also present, since both share the curve time.
//
// Parameters:
//   - c: the curve
//
// Returns:
//   - SpaceBuilderOption: option function to apply
func WithAlignment(c *AlignmentCurve) SpaceBuilderOption {
	return func(s *space) {
		s.alignment = c
	}
}
