package annotation

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// Strategy is the per-kind behavior used to blend annotations across base clips.
type Strategy interface {
	// Match reports whether two annotations describe the same semantic event.
	//
	// Parameters:
	//   - a: the first annotation
	//   - b: the second annotation
	//
	// Returns:
	//   - bool: true if a and b can be blended together
	Match(a, b Annotation) bool

	// New allocates an empty annotation of the strategy's kind.
	//
	// Returns:
	//   - Annotation: a zeroed annotation
	New() Annotation

	// Reset zeroes the numeric fields of dst.
	//
	// Parameters:
	//   - dst: the annotation to reset
	Reset(dst Annotation)

	// Blend overwrites dst with the weighted sum of sources. Numeric fields are summed
	// linearly; orientations are slerped in a chain.
	//
	// Parameters:
	//   - dst: the annotation receiving the result
	//   - sources: one matched annotation per base clip
	//   - weights: one weight per source
	Blend(dst Annotation, sources []Annotation, weights []float64)
}

// StrategyFor returns the blending strategy of a kind.
//
// Parameters:
//   - kind: the annotation kind
//
// Returns:
//   - Strategy: the strategy
func StrategyFor(kind Kind) Strategy {
	return strategies[kind]
}

var strategies = [kindCount]Strategy{
	transitionStrategy{},
	paramTransitionStrategy{},
	plantConstraintStrategy{},
	simEventStrategy{},
}

func sameKey(a, b Annotation) bool {
	return a.Kind() == b.Kind() && a.Key() == b.Key()
}

// weightedSum returns Σ weights[i] * field(sources[i]).
func weightedSum(sources []Annotation, weights []float64, field func(Annotation) float64) float64 {
	vals := make([]float64, len(sources))
	for i, s := range sources {
		vals[i] = field(s)
	}
	return floats.Dot(weights, vals)
}

func weightedBounds(sources []Annotation, weights []float64) (float64, float64) {
	start := weightedSum(sources, weights, func(a Annotation) float64 { s, _ := a.Bounds(); return s })
	end := weightedSum(sources, weights, func(a Annotation) float64 { _, e := a.Bounds(); return e })
	return start, end
}

// weightedVector sums equally sized vectors; shorter inputs contribute to their own length.
func weightedVector(vectors [][]float64, weights []float64) []float64 {
	n := 0
	for _, v := range vectors {
		n = max(n, len(v))
	}
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	for i, v := range vectors {
		if len(v) == n {
			floats.AddScaled(out, weights[i], v)
			continue
		}
		for j := range v {
			out[j] += weights[i] * v[j]
		}
	}
	return out
}

type transitionStrategy struct{}

func (transitionStrategy) Match(a, b Annotation) bool { return sameKey(a, b) }
func (transitionStrategy) New() Annotation            { return &Transition{} }

func (transitionStrategy) Reset(dst Annotation) {
	d := dst.(*Transition)
	d.Start, d.End, d.TargetTime = 0, 0, 0
}

func (transitionStrategy) Blend(dst Annotation, sources []Annotation, weights []float64) {
	d := dst.(*Transition)
	d.Start, d.End = weightedBounds(sources, weights)
	d.Target = sources[0].(*Transition).Target
	d.TargetTime = weightedSum(sources, weights, func(a Annotation) float64 { return a.(*Transition).TargetTime })
}

type paramTransitionStrategy struct{}

func (paramTransitionStrategy) Match(a, b Annotation) bool { return sameKey(a, b) }
func (paramTransitionStrategy) New() Annotation            { return &ParamTransition{} }

func (paramTransitionStrategy) Reset(dst Annotation) {
	d := dst.(*ParamTransition)
	d.Start, d.End, d.TargetTime = 0, 0, 0
	d.Params, d.ParamMin, d.ParamMax = nil, nil, nil
}

func (paramTransitionStrategy) Blend(dst Annotation, sources []Annotation, weights []float64) {
	d := dst.(*ParamTransition)
	d.Start, d.End = weightedBounds(sources, weights)
	d.Target = sources[0].(*ParamTransition).Target
	d.TargetTime = weightedSum(sources, weights, func(a Annotation) float64 { return a.(*ParamTransition).TargetTime })

	params := make([][]float64, len(sources))
	mins := make([][]float64, len(sources))
	maxs := make([][]float64, len(sources))
	for i, s := range sources {
		p := s.(*ParamTransition)
		params[i], mins[i], maxs[i] = p.Params, p.ParamMin, p.ParamMax
	}
	d.Params = weightedVector(params, weights)
	d.ParamMin = weightedVector(mins, weights)
	d.ParamMax = weightedVector(maxs, weights)
}

type plantConstraintStrategy struct{}

func (plantConstraintStrategy) Match(a, b Annotation) bool { return sameKey(a, b) }
func (plantConstraintStrategy) New() Annotation            { return &PlantConstraint{Orientation: mgl64.QuatIdent()} }

func (plantConstraintStrategy) Reset(dst Annotation) {
	d := dst.(*PlantConstraint)
	d.Start, d.End = 0, 0
	d.Position = mgl64.Vec3{}
	d.Orientation = mgl64.QuatIdent()
}

func (plantConstraintStrategy) Blend(dst Annotation, sources []Annotation, weights []float64) {
	d := dst.(*PlantConstraint)
	d.Start, d.End = weightedBounds(sources, weights)
	d.BoneID = sources[0].(*PlantConstraint).BoneID

	var pos mgl64.Vec3
	var rot mgl64.Quat
	total := 0.0
	for i, s := range sources {
		p := s.(*PlantConstraint)
		pos = pos.Add(p.Position.Mul(weights[i]))
		if weights[i] == 0 {
			continue
		}
		if total == 0 {
			rot = p.Orientation
		} else {
			rot = common.Slerp(rot, p.Orientation, weights[i]/(total+weights[i]))
		}
		total += weights[i]
	}
	if total == 0 {
		rot = mgl64.QuatIdent()
	}
	d.Position = pos
	d.Orientation = rot.Normalize()
}

type simEventStrategy struct{}

func (simEventStrategy) Match(a, b Annotation) bool { return sameKey(a, b) }
func (simEventStrategy) New() Annotation            { return &SimEvent{} }

func (simEventStrategy) Reset(dst Annotation) {
	d := dst.(*SimEvent)
	d.Start, d.End, d.Magnitude = 0, 0, 0
}

func (simEventStrategy) Blend(dst Annotation, sources []Annotation, weights []float64) {
	d := dst.(*SimEvent)
	d.Start, d.End = weightedBounds(sources, weights)
	d.EventID = sources[0].(*SimEvent).EventID
	d.Magnitude = weightedSum(sources, weights, func(a Annotation) float64 { return a.(*SimEvent).Magnitude })
}
