package animation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation_space"
	"github.com/Carmen-Shannon/oxy-anim/engine/annotation"
)

// blendNode is the implementation of the BlendNode interface.
type blendNode struct {
	node

	space animation_space.Space

	// byBase[i] is the child playing base clip i.
	byBase  []Node
	weights []float64

	parametric bool
	params     []float64

	useTimewarp  bool
	useAlignment bool

	// phase is the normalized play time in [0, 1); curveTime is the matching timewarp
	// curve position when the curve is in use.
	phase     float64
	curveTime float64

	blender *annotation.Blender
}

// BlendNode mixes the K base clips of an animation space with a weight vector W.
// Its play length is the W-weighted average of the base lengths, and its annotations are
// synthesized from the bases' annotations and re-blended whenever W changes.
type BlendNode interface {
	Node

	// BindSpace binds an animation space. Existing sample children whose clip is a base
	// of the space are reused; missing bases get new sample children. The weight vector
	// resets to the first base and annotations are rebuilt.
	//
	// Parameters:
	//   - space: the animation space
	BindSpace(space animation_space.Space)

	// Space returns the bound space, or nil.
	Space() animation_space.Space

	// BaseIndex returns the base index a child plays.
	//
	// Parameters:
	//   - child: the child node
	//
	// Returns:
	//   - int: the base index
	//   - bool: false if the child is not mapped to a base
	BaseIndex(child Node) (int, bool)

	// Weights returns a copy of the weight vector.
	Weights() []float64

	// SetWeights replaces the whole weight vector. The length must equal the base count.
	//
	// Parameters:
	//   - w: the weights
	SetWeights(w []float64)

	// SetWeight sets the weight of the base played by the named child.
	//
	// Parameters:
	//   - child: the child node name
	//   - w: the weight
	SetWeight(child string, w float64)

	// Parametric reports whether SetParams drives the weights through the space's
	// parametrization.
	Parametric() bool
	SetParametric(parametric bool)

	// TimewarpEnabled reports whether the space's timewarp curve drives child timing.
	TimewarpEnabled() bool
	SetTimewarpEnabled(enabled bool)

	// AlignmentEnabled reports whether child origins follow the alignment curve.
	AlignmentEnabled() bool
	SetAlignmentEnabled(enabled bool)

	// CurveTime returns the timewarp curve position.
	CurveTime() float64
}

var _ BlendNode = &blendNode{}

func newBlendNode(t *tree, id int, name string) *blendNode {
	n := &blendNode{}
	n.init(n, t, id, name, KindBlend)
	return n
}

func (n *blendNode) BindSpace(space animation_space.Space) {
	if space == nil {
		panic(fmt.Sprintf("animation: BindSpace on %q requires a space", n.name))
	}
	k := space.Len()
	n.space = space
	n.byBase = make([]Node, k)

	for _, c := range n.children {
		sn, ok := c.(*sampleNode)
		if !ok || sn.clip == nil {
			continue
		}
		if i, ok := space.BaseIndex(sn.clip.Name); ok && n.byBase[i] == nil {
			n.byBase[i] = c
		}
	}
	for i := range n.byBase {
		if n.byBase[i] != nil {
			continue
		}
		base := space.Base(i)
		child := n.tree.CreateNode(KindSample, n.name+"/"+base.Name).(*sampleNode)
		child.SetClip(base)
		n.AddChild(child)
		if n.playing {
			child.Play()
		}
		n.byBase[i] = child
	}

	n.weights = make([]float64, k)
	n.weights[0] = 1
	n.useTimewarp = space.Timewarp() != nil
	n.useAlignment = n.useTimewarp && space.Alignment() != nil
	n.phase, n.curveTime = 0, 0
	n.rebuildAnnotations()
	n.syncChildren()
	n.SetOrigin(n.origin)
}

func (n *blendNode) rebuildAnnotations() {
	sets := make([]*annotation.Set, n.space.Len())
	for i := range sets {
		sets[i] = n.space.Base(i).Annotations
	}
	n.blender = annotation.NewBlender(sets)
	n.annotations = n.blender.Result()
	n.blendAnnotations()
}

func (n *blendNode) blendAnnotations() {
	if n.blender != nil {
		n.blender.Blend(n.weights)
	}
}

func (n *blendNode) Space() animation_space.Space {
	return n.space
}

func (n *blendNode) BaseIndex(child Node) (int, bool) {
	for i, c := range n.byBase {
		if c == child {
			return i, true
		}
	}
	return -1, false
}

func (n *blendNode) Weights() []float64 {
	return copyValue(n.weights)
}

func (n *blendNode) SetWeights(w []float64) {
	if len(w) != len(n.weights) {
		panic(fmt.Sprintf("animation: %q expects %d weights, got %d", n.name, len(n.weights), len(w)))
	}
	copy(n.weights, w)
	n.blendAnnotations()
}

func (n *blendNode) SetWeight(child string, w float64) {
	for i, c := range n.byBase {
		if c.Name() == child {
			n.weights[i] = w
			n.blendAnnotations()
			return
		}
	}
	panic(fmt.Sprintf("animation: %q has no base child named %q", n.name, child))
}

func (n *blendNode) Parametric() bool {
	return n.parametric
}

func (n *blendNode) SetParametric(parametric bool) {
	n.parametric = parametric
}

func (n *blendNode) Params() []float64 {
	return n.params
}

func (n *blendNode) SetParams(params []float64) {
	n.params = copyValue(params)
	if !n.parametric || n.space == nil || n.space.Parametrization() == nil {
		return
	}
	n.SetWeights(n.space.Parametrization().Sample(params))
}

func (n *blendNode) TimewarpEnabled() bool {
	return n.useTimewarp
}

func (n *blendNode) SetTimewarpEnabled(enabled bool) {
	n.useTimewarp = enabled && n.space != nil && n.space.Timewarp() != nil
	if !n.useTimewarp {
		n.useAlignment = false
	}
	n.syncChildren()
}

func (n *blendNode) AlignmentEnabled() bool {
	return n.useAlignment
}

func (n *blendNode) SetAlignmentEnabled(enabled bool) {
	n.useAlignment = enabled && n.useTimewarp && n.space.Alignment() != nil
	n.SetOrigin(n.origin)
}

func (n *blendNode) CurveTime() float64 {
	return n.curveTime
}

func (n *blendNode) baseLengths() []float64 {
	out := make([]float64, len(n.byBase))
	for i, c := range n.byBase {
		out[i] = c.PlayLength()
	}
	return out
}

func (n *blendNode) PlayLength() float64 {
	if len(n.byBase) == 0 {
		return n.node.PlayLength()
	}
	return floats.Dot(n.baseLengths(), n.weights)
}

func (n *blendNode) PlayTime() float64 {
	if len(n.byBase) == 0 {
		return n.node.PlayTime()
	}
	return n.phase * n.PlayLength()
}

func (n *blendNode) NormalizedPlayTime() float64 {
	if len(n.byBase) == 0 {
		return n.node.NormalizedPlayTime()
	}
	return n.phase
}

func (n *blendNode) SetPlayTime(t float64) {
	if len(n.byBase) == 0 {
		n.node.SetPlayTime(t)
		return
	}
	l := n.PlayLength()
	if l <= common.Epsilon {
		n.phase = 0
	} else {
		n.phase = common.WrapTime(t/l, 1)
	}
	if n.useTimewarp {
		n.curveTime = n.phase * float64(n.space.Timewarp().Segments())
	}
	n.syncChildren()
}

// childTimes returns each base's play time at normalized phase p.
func (n *blendNode) childTimes(phase float64) ([]float64, float64) {
	if n.useTimewarp {
		tw := n.space.Timewarp()
		u := phase * float64(tw.Segments())
		return tw.Sample(u), u
	}
	times := n.baseLengths()
	floats.Scale(phase, times)
	return times, 0
}

func (n *blendNode) syncChildren() {
	if len(n.byBase) == 0 {
		return
	}
	times, _ := n.childTimes(n.phase)
	for i, c := range n.byBase {
		c.SetPlayTime(times[i])
	}
	if n.useAlignment {
		n.alignChildren()
	}
}

func (n *blendNode) alignChildren() {
	align := n.space.Alignment()
	for i, c := range n.byBase {
		c.SetOrigin(n.origin.Mul(align.Sample(n.curveTime, i)))
	}
}

func (n *blendNode) SetOrigin(s common.Situation) {
	n.origin = s
	if n.useAlignment {
		n.alignChildren()
		return
	}
	for _, c := range n.children {
		c.SetOrigin(s)
	}
}

func (n *blendNode) updateNode(dt float64) {
	if len(n.byBase) == 0 {
		n.node.updateNode(dt)
		return
	}
	l := n.PlayLength()
	if l <= common.Epsilon {
		for _, c := range n.byBase {
			c.Update(dt)
		}
		return
	}

	if !n.useTimewarp {
		n.phase = common.WrapTime(n.phase+dt/l, 1)
		for _, c := range n.byBase {
			c.Update(dt * c.PlayLength() / l)
		}
		return
	}

	tw := n.space.Timewarp()
	segments := float64(tw.Segments())
	prev := tw.Sample(n.curveTime)
	unwrapped := n.curveTime + dt/l*segments
	wraps := math.Floor(unwrapped / segments)
	n.curveTime = tw.WrapU(unwrapped)
	cur := tw.Sample(n.curveTime)
	n.phase = n.curveTime / segments
	for i, c := range n.byBase {
		// each full curve cycle plays the child once
		delta := cur[i] - prev[i] + wraps*c.PlayLength()
		if dt > 0 && delta < 0 {
			delta += c.PlayLength()
		} else if dt < 0 && delta > 0 {
			delta -= c.PlayLength()
		}
		c.Update(delta)
	}
	if n.useAlignment {
		n.alignChildren()
	}
}

func (n *blendNode) applyNode(weight float64, mask BoneMask) {
	if len(n.byBase) == 0 {
		n.node.applyNode(weight, mask)
		return
	}
	for i, c := range n.byBase {
		w := weight * n.weights[i]
		if w == 0 {
			continue
		}
		c.Apply(w, mask)
	}
}

func (n *blendNode) MotionSituation(t float64) common.Situation {
	if len(n.byBase) == 0 {
		return n.node.MotionSituation(t)
	}
	l := n.PlayLength()
	phase := 0.0
	if l > common.Epsilon {
		phase = common.WrapTime(t/l, 1)
	}
	times, u := n.childTimes(phase)

	var out common.Situation
	total := 0.0
	for i, c := range n.byBase {
		w := n.weights[i]
		if w == 0 {
			continue
		}
		s := c.MotionSituation(times[i])
		if n.useAlignment {
			s = n.space.Alignment().Sample(u, i).Mul(s)
		}
		if total == 0 {
			out = s
		} else {
			out = out.Lerp(s, w/(total+w))
		}
		total += w
	}
	return out
}

func (n *blendNode) WorldSituation() common.Situation {
	return n.origin.Mul(n.MotionSituation(n.PlayTime()))
}

func (n *blendNode) cloneInto(dst Node, resolve func(Node) Node) {
	n.node.cloneInto(dst, resolve)
	d := dst.(*blendNode)
	d.space = n.space
	d.byBase = make([]Node, len(n.byBase))
	for i, c := range n.byBase {
		d.byBase[i] = resolve(c)
	}
	d.weights = copyValue(n.weights)
	d.parametric = n.parametric
	d.params = copyValue(n.params)
	d.useTimewarp = n.useTimewarp
	d.useAlignment = n.useAlignment
	d.phase = n.phase
	d.curveTime = n.curveTime
	if d.space != nil {
		d.rebuildAnnotations()
	}
}
