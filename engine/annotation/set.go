package annotation

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"
)

// Set holds the four annotation containers of a clip or a blend node.
// Each container is ordered by authoring order; ordinals matter for blending.
type Set struct {
	Transitions      []*Transition      `yaml:"transitions"`
	ParamTransitions []*ParamTransition `yaml:"param_transitions"`
	PlantConstraints []*PlantConstraint `yaml:"plant_constraints"`
	SimEvents        []*SimEvent        `yaml:"sim_events"`
}

// Add appends an annotation to the container matching its kind.
//
// Parameters:
//   - a: the annotation to add
func (s *Set) Add(a Annotation) {
	switch v := a.(type) {
	case *Transition:
		s.Transitions = append(s.Transitions, v)
	case *ParamTransition:
		s.ParamTransitions = append(s.ParamTransitions, v)
	case *PlantConstraint:
		s.PlantConstraints = append(s.PlantConstraints, v)
	case *SimEvent:
		s.SimEvents = append(s.SimEvents, v)
	default:
		panic(fmt.Sprintf("annotation: unsupported annotation type %T", a))
	}
}

// Of returns the container for a kind as a slice of the common interface.
//
// Parameters:
//   - kind: the container to read
//
// Returns:
//   - []Annotation: the annotations in authoring order
func (s *Set) Of(kind Kind) []Annotation {
	var out []Annotation
	switch kind {
	case KindTransition:
		out = make([]Annotation, len(s.Transitions))
		for i, a := range s.Transitions {
			out[i] = a
		}
	case KindParamTransition:
		out = make([]Annotation, len(s.ParamTransitions))
		for i, a := range s.ParamTransitions {
			out[i] = a
		}
	case KindPlantConstraint:
		out = make([]Annotation, len(s.PlantConstraints))
		for i, a := range s.PlantConstraints {
			out[i] = a
		}
	case KindSimEvent:
		out = make([]Annotation, len(s.SimEvents))
		for i, a := range s.SimEvents {
			out[i] = a
		}
	}
	return out
}

// Len returns the number of annotations of a kind.
func (s *Set) Len(kind Kind) int {
	switch kind {
	case KindTransition:
		return len(s.Transitions)
	case KindParamTransition:
		return len(s.ParamTransitions)
	case KindPlantConstraint:
		return len(s.PlantConstraints)
	case KindSimEvent:
		return len(s.SimEvents)
	}
	return 0
}

// ClearKind empties a single container.
func (s *Set) ClearKind(kind Kind) {
	switch kind {
	case KindTransition:
		s.Transitions = nil
	case KindParamTransition:
		s.ParamTransitions = nil
	case KindPlantConstraint:
		s.PlantConstraints = nil
	case KindSimEvent:
		s.SimEvents = nil
	}
}

// Clear empties every container.
func (s *Set) Clear() {
	for _, k := range Kinds {
		s.ClearKind(k)
	}
}

// Empty reports whether every container is empty.
func (s *Set) Empty() bool {
	for _, k := range Kinds {
		if s.Len(k) > 0 {
			return false
		}
	}
	return true
}

// FindTransition returns the first transition annotation targeting the named node.
//
// Parameters:
//   - target: the target node name
//
// Returns:
//   - *Transition: the annotation, or nil
//   - bool: false if none targets the node
func (s *Set) FindTransition(target string) (*Transition, bool) {
	for _, a := range s.Transitions {
		if a.Target == target {
			return a, true
		}
	}
	return nil, false
}

// FindParamTransition returns the first parametric transition targeting the named node.
//
// Parameters:
//   - target: the target node name
//
// Returns:
//   - *ParamTransition: the annotation, or nil
//   - bool: false if none targets the node
func (s *Set) FindParamTransition(target string) (*ParamTransition, bool) {
	for _, a := range s.ParamTransitions {
		if a.Target == target {
			return a, true
		}
	}
	return nil, false
}

// Clone returns a deep copy sharing no annotation with s.
//
// Returns:
//   - *Set: the copy
func (s *Set) Clone() *Set {
	out := &Set{}
	if s == nil {
		return out
	}
	if err := deepcopy.Copy(out, s); err != nil {
		panic(fmt.Sprintf("annotation: clone set: %v", err))
	}
	return out
}
