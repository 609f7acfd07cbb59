package annotation

import (
	"fmt"
)

// Blender synthesizes one annotation set from K base sets. The matching structure is
// computed once by NewBlender; Blend then only recomputes numeric fields, so it can be
// called every time the weight vector changes.
//
// A kind is blendable only when every base has the same number of annotations of that
// kind and the annotations at each ordinal match across all bases. Otherwise the whole
// kind is left empty in the result.
type Blender struct {
	bases  []*Set
	result *Set

	// sources[kind][ordinal] holds the matched annotation of each base.
	sources [kindCount][][]Annotation
	targets [kindCount][]Annotation
}

// NewBlender builds the matching structure over bases.
//
// Parameters:
//   - bases: one annotation set per base clip, nil entries are treated as empty
//
// Returns:
//   - *Blender: the blender, with an empty result until Blend is called
func NewBlender(bases []*Set) *Blender {
	b := &Blender{bases: bases, result: &Set{}}
	if len(bases) == 0 {
		return b
	}
	for _, kind := range Kinds {
		b.buildKind(kind)
	}
	return b
}

func (b *Blender) buildKind(kind Kind) {
	lists := make([][]Annotation, len(b.bases))
	for i, s := range b.bases {
		if s == nil {
			s = &Set{}
		}
		lists[i] = s.Of(kind)
	}
	n := len(lists[0])
	for _, l := range lists[1:] {
		if len(l) != n {
			return
		}
	}
	strategy := StrategyFor(kind)
	rows := make([][]Annotation, n)
	for ord := 0; ord < n; ord++ {
		row := make([]Annotation, len(lists))
		row[0] = lists[0][ord]
		for i := 1; i < len(lists); i++ {
			if !strategy.Match(lists[0][ord], lists[i][ord]) {
				return
			}
			row[i] = lists[i][ord]
		}
		rows[ord] = row
	}

	b.sources[kind] = rows
	b.targets[kind] = make([]Annotation, n)
	for ord := range rows {
		dst := strategy.New()
		b.targets[kind][ord] = dst
		b.result.Add(dst)
	}
}

// Blendable reports whether a kind survived matching.
//
// Parameters:
//   - kind: the annotation kind
//
// Returns:
//   - bool: true if the kind appears in the result
func (b *Blender) Blendable(kind Kind) bool {
	return b.targets[kind] != nil
}

// Blend recomputes every synthesized annotation from the given weights.
//
// Parameters:
//   - weights: one weight per base set
func (b *Blender) Blend(weights []float64) {
	if len(weights) != len(b.bases) {
		panic(fmt.Sprintf("annotation: blend expects %d weights, got %d", len(b.bases), len(weights)))
	}
	for _, kind := range Kinds {
		strategy := StrategyFor(kind)
		for ord, dst := range b.targets[kind] {
			strategy.Reset(dst)
			strategy.Blend(dst, b.sources[kind][ord], weights)
		}
	}
}

// Result returns the synthesized set. The set is owned by the blender and updated in
// place by Blend.
//
// Returns:
//   - *Set: the blended annotations
func (b *Blender) Result() *Set {
	return b.result
}
