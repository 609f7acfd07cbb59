package animation_space

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Parametrization maps a control parameter vector to a base weight vector by inverse
// distance weighting over authored sample points. Each sample pairs a point in parameter
// space with the weight vector that reproduces it.
type Parametrization struct {
	points  [][]float64
	weights [][]float64
	power   float64
}

// NewParametrization creates a parametrization from sample points and their weights.
// All points share one dimension and all weight vectors one length.
//
// Parameters:
//   - points: sample positions in parameter space
//   - weights: the weight vector at each sample
//   - power: the distance exponent, 2 when non-positive
//
// Returns:
//   - *Parametrization: the mapping
func NewParametrization(points, weights [][]float64, power float64) *Parametrization {
	if len(points) == 0 || len(points) != len(weights) {
		panic(fmt.Sprintf("animation_space: parametrization needs matching points and weights, got %d and %d", len(points), len(weights)))
	}
	dim, k := len(points[0]), len(weights[0])
	for i := range points {
		if len(points[i]) != dim || len(weights[i]) != k {
			panic(fmt.Sprintf("animation_space: parametrization sample %d has mismatched size", i))
		}
	}
	if power <= 0 {
		power = 2
	}
	return &Parametrization{points: points, weights: weights, power: power}
}

// NewBasisParametrization places base i at points[i] with the unit weight vector e_i.
//
// Parameters:
//   - points: one parameter position per base clip
//
// Returns:
//   - *Parametrization: the mapping
func NewBasisParametrization(points [][]float64) *Parametrization {
	weights := make([][]float64, len(points))
	for i := range points {
		weights[i] = make([]float64, len(points))
		weights[i][i] = 1
	}
	return NewParametrization(points, weights, 2)
}

// Dim returns the parameter dimension.
func (p *Parametrization) Dim() int {
	return len(p.points[0])
}

// Bases returns the weight vector length.
func (p *Parametrization) Bases() int {
	return len(p.weights[0])
}

// Sample returns the normalized weight vector for params.
//
// Parameters:
//   - params: the control parameters, Dim() values
//
// Returns:
//   - []float64: Bases() weights summing to 1
func (p *Parametrization) Sample(params []float64) []float64 {
	if len(params) != p.Dim() {
		panic(fmt.Sprintf("animation_space: expected %d parameters, got %d", p.Dim(), len(params)))
	}
	out := make([]float64, p.Bases())
	phi := make([]float64, len(p.points))
	for i, pt := range p.points {
		d := floats.Distance(params, pt, 2)
		if d < 1e-12 {
			copy(out, p.weights[i])
			return normalize(out)
		}
		phi[i] = 1 / math.Pow(d, p.power)
	}
	floats.Scale(1/floats.Sum(phi), phi)
	for i, w := range p.weights {
		floats.AddScaled(out, phi[i], w)
	}
	return normalize(out)
}

func normalize(w []float64) []float64 {
	if sum := floats.Sum(w); sum != 0 {
		floats.Scale(1/sum, w)
	}
	return w
}
