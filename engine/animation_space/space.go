package animation_space

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/engine/clip"
)

// space is the implementation of the Space interface.
type space struct {
	name            string
	bases           []*clip.Clip
	parametrization *Parametrization
	timewarp        *TimewarpCurve
	alignment       *AlignmentCurve
}

// Space describes K base clips that a blend node mixes, plus the optional mappings that
// drive the mix: a parameter-to-weight parametrization, a timewarp curve that authors the
// per-base timing of the blend, and an alignment curve of per-base ground offsets.
type Space interface {
	// Name returns the space name.
	Name() string

	// Len returns the number of base clips K.
	//
	// Returns:
	//   - int: the base count
	Len() int

	// Base returns the base clip at index i. Panics when i is out of range.
	//
	// Parameters:
	//   - i: the base index
	//
	// Returns:
	//   - *clip.Clip: the clip
	Base(i int) *clip.Clip

	// BaseIndex looks up a base clip by name.
	//
	// Parameters:
	//   - name: the clip name
	//
	// Returns:
	//   - int: the index, or -1
	//   - bool: false if no base has that name
	BaseIndex(name string) (int, bool)

	// Parametrization returns the parameter mapping, or nil.
	Parametrization() *Parametrization

	// Timewarp returns the timewarp curve, or nil.
	Timewarp() *TimewarpCurve

	// Alignment returns the alignment curve, or nil.
	Alignment() *AlignmentCurve
}

var _ Space = &space{}

// NewSpace creates a space over the given base clips. Curves and parametrization must
// have one dimension per base clip.
//
// Parameters:
//   - name: the space name
//   - bases: the base clips, at least one
//   - options: variadic list of SpaceBuilderOption functions
//
// Returns:
//   - Space: the new space
func NewSpace(name string, bases []*clip.Clip, options ...SpaceBuilderOption) Space {
	if len(bases) == 0 {
		panic("animation_space: a space needs at least one base clip")
	}
	for i, b := range bases {
		if b == nil {
			panic(fmt.Sprintf("animation_space: base %d of %q is nil", i, name))
		}
	}
	s := &space{name: name, bases: bases}
	for _, opt := range options {
		opt(s)
	}
	k := len(bases)
	if s.parametrization != nil && s.parametrization.Bases() != k {
		panic(fmt.Sprintf("animation_space: parametrization of %q maps to %d weights, space has %d bases", name, s.parametrization.Bases(), k))
	}
	if s.timewarp != nil && s.timewarp.Dim() != k {
		panic(fmt.Sprintf("animation_space: timewarp of %q has %d dimensions, space has %d bases", name, s.timewarp.Dim(), k))
	}
	if s.alignment != nil && s.alignment.Dim() != k {
		panic(fmt.Sprintf("animation_space: alignment of %q has %d dimensions, space has %d bases", name, s.alignment.Dim(), k))
	}
	return s
}

func (s *space) Name() string {
	return s.name
}

func (s *space) Len() int {
	return len(s.bases)
}

func (s *space) Base(i int) *clip.Clip {
	if i < 0 || i >= len(s.bases) {
		panic(fmt.Sprintf("animation_space: base index %d out of range [0, %d)", i, len(s.bases)))
	}
	return s.bases[i]
}

func (s *space) BaseIndex(name string) (int, bool) {
	for i, b := range s.bases {
		if b.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (s *space) Parametrization() *Parametrization {
	return s.parametrization
}

func (s *space) Timewarp() *TimewarpCurve {
	return s.timewarp
}

func (s *space) Alignment() *AlignmentCurve {
	return s.alignment
}
