package animation

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/annotation"
	"github.com/Carmen-Shannon/oxy-anim/engine/retarget"
)

// NodeKind is the closed set of node implementations a tree can create.
type NodeKind int

const (
	KindSample NodeKind = iota
	KindBlend
	KindQueue
	KindTransition
	KindMixer
)

func (k NodeKind) String() string {
	switch k {
	case KindSample:
		return "sample"
	case KindBlend:
		return "blend"
	case KindQueue:
		return "queue"
	case KindTransition:
		return "transition"
	case KindMixer:
		return "mixer"
	}
	return "unknown"
}

// ParseNodeKind resolves a kind from its definition name.
//
// Parameters:
//   - name: the kind name, e.g. "blend"
//
// Returns:
//   - NodeKind: the kind
//   - bool: false if the name is unknown
func ParseNodeKind(name string) (NodeKind, bool) {
	for k := KindSample; k <= KindMixer; k++ {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Node is one operator of an animation tree. Every node follows a two-phase contract:
// Update advances time, Apply composes the node's pose into the tree's skeleton.
// Nodes are created and owned by a Tree; only nodes of the same tree can be linked.
type Node interface {
	// ID returns the tree-unique node id.
	ID() int

	// Name returns the tree-unique node name.
	Name() string

	// Kind returns the node implementation kind.
	Kind() NodeKind

	// Tree returns the owning tree.
	Tree() Tree

	// Parent returns the parent node, or nil for a detached or root node.
	Parent() Node

	// Children returns the ordered children. The slice must not be modified.
	Children() []Node

	// AddChild attaches a parentless node of the same tree as the last child.
	//
	// Parameters:
	//   - child: the node to attach
	AddChild(child Node)

	// RemoveChild detaches a child. Unknown nodes are ignored.
	//
	// Parameters:
	//   - child: the node to detach
	RemoveChild(child Node)

	// MainChild returns the node that drives the play time accessors: the designated
	// main child, or the first child when none is designated.
	//
	// Returns:
	//   - Node: the main child, or nil for leaves
	MainChild() Node

	// SetMainChild designates a main child. Pass nil to fall back to the first child.
	//
	// Parameters:
	//   - child: one of this node's children, or nil
	SetMainChild(child Node)

	// Play starts this node and its subtree.
	Play()

	// Pause freezes the subtree clock while keeping it playing.
	Pause()

	// Resume clears a pause on the subtree.
	Resume()

	// Stop halts the subtree and rewinds it.
	Stop()

	IsPlaying() bool
	IsPaused() bool

	// PlayRate returns the multiplier applied to dt by Update.
	PlayRate() float64
	SetPlayRate(rate float64)

	// Update advances the node by dt seconds. A node that is not playing ignores the
	// call; a paused node advances by zero.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float64)

	// Apply composes the node's pose into the skeleton.
	//
	// Parameters:
	//   - weight: contribution weight
	//   - mask: bones excluded by the caller
	Apply(weight float64, mask BoneMask)

	// PlayTime returns the current play time in seconds.
	PlayTime() float64

	// SetPlayTime jumps to a play time.
	//
	// Parameters:
	//   - t: the play time in seconds
	SetPlayTime(t float64)

	// PreviousPlayTime returns the play time before the last Update.
	PreviousPlayTime() float64

	// NormalizedPlayTime returns PlayTime / PlayLength, or 0 for an empty node.
	NormalizedPlayTime() float64

	// PlayLength returns the length of one play cycle in seconds.
	PlayLength() float64

	// BoneMask returns the bones this node never writes.
	BoneMask() BoneMask
	SetBoneMask(mask BoneMask)

	// Annotations returns the node's annotation containers.
	//
	// Returns:
	//   - *annotation.Set: the annotations, never nil
	Annotations() *annotation.Set

	// Origin returns the node's ground placement in world space.
	Origin() common.Situation

	// SetOrigin places the node, propagating to children.
	//
	// Parameters:
	//   - s: the world placement
	SetOrigin(s common.Situation)

	// MotionSituation returns the root motion placement at play time t, relative to the
	// node's origin.
	//
	// Parameters:
	//   - t: the play time
	//
	// Returns:
	//   - common.Situation: the placement
	MotionSituation(t float64) common.Situation

	// WorldSituation returns the current world placement of the node's root motion.
	WorldSituation() common.Situation

	// Params returns the control parameters of a parametric node, or nil.
	Params() []float64

	// SetParams sets control parameters. Non-parametric nodes ignore it.
	//
	// Parameters:
	//   - params: the parameters
	SetParams(params []float64)

	// Adaptor returns the retargeting adaptor run after IK, or nil.
	Adaptor() retarget.Adaptor

	// SetAdaptor attaches a retargeting adaptor.
	//
	// Parameters:
	//   - a: the adaptor, or nil to detach
	SetAdaptor(a retarget.Adaptor)

	base() *node
	updateNode(dt float64)
	applyNode(weight float64, mask BoneMask)
	resolveMainChild() Node
	cloneInto(dst Node, resolve func(Node) Node)
}

// node carries the state and default behavior shared by every node kind. Kinds embed it
// and override the unexported hooks; self points back at the embedding kind so the
// defaults can dispatch to the overrides.
type node struct {
	self Node

	id   int
	name string
	kind NodeKind
	tree *tree

	parent   Node
	children []Node

	mainChild  Node
	cachedMain Node
	mainValid  bool

	playing  bool
	paused   bool
	playRate float64

	mask        BoneMask
	annotations *annotation.Set
	origin      common.Situation

	prevTime           float64
	curTime            float64
	annotationsPending bool

	adaptor retarget.Adaptor
}

func (n *node) init(self Node, t *tree, id int, name string, kind NodeKind) {
	n.self = self
	n.tree = t
	n.id = id
	n.name = name
	n.kind = kind
	n.playRate = 1
	n.annotations = &annotation.Set{}
}

func (n *node) base() *node {
	return n
}

func (n *node) ID() int {
	return n.id
}

func (n *node) Name() string {
	return n.name
}

func (n *node) Kind() NodeKind {
	return n.kind
}

func (n *node) Tree() Tree {
	return n.tree
}

func (n *node) Parent() Node {
	return n.parent
}

func (n *node) Children() []Node {
	return n.children
}

func (n *node) AddChild(child Node) {
	if child == nil {
		panic(fmt.Sprintf("animation: nil child added to %q", n.name))
	}
	cb := child.base()
	if cb.tree != n.tree {
		panic(fmt.Sprintf("animation: node %q belongs to another tree than %q", cb.name, n.name))
	}
	if cb.parent != nil {
		panic(fmt.Sprintf("animation: node %q already has parent %q", cb.name, cb.parent.Name()))
	}
	if child == n.self || n.isDescendantOf(child) {
		panic(fmt.Sprintf("animation: adding %q under %q would create a cycle", cb.name, n.name))
	}
	cb.parent = n.self
	n.children = append(n.children, child)
	n.mainValid = false
}

func (n *node) RemoveChild(child Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.base().parent = nil
			if n.mainChild == child {
				n.mainChild = nil
			}
			n.mainValid = false
			return
		}
	}
}

func (n *node) isDescendantOf(other Node) bool {
	for p := n.parent; p != nil; p = p.Parent() {
		if p == other {
			return true
		}
	}
	return false
}

func (n *node) MainChild() Node {
	return n.self.resolveMainChild()
}

func (n *node) resolveMainChild() Node {
	if n.mainChild != nil {
		return n.mainChild
	}
	if !n.mainValid {
		n.cachedMain = nil
		if len(n.children) > 0 {
			n.cachedMain = n.children[0]
		}
		n.mainValid = true
	}
	return n.cachedMain
}

func (n *node) SetMainChild(child Node) {
	if child != nil && child.Parent() != n.self {
		panic(fmt.Sprintf("animation: %q is not a child of %q", child.Name(), n.name))
	}
	n.mainChild = child
}

func (n *node) Play() {
	n.playing = true
	n.paused = false
	for _, c := range n.children {
		c.Play()
	}
}

func (n *node) Pause() {
	n.paused = true
	for _, c := range n.children {
		c.Pause()
	}
}

func (n *node) Resume() {
	n.paused = false
	for _, c := range n.children {
		c.Resume()
	}
}

func (n *node) Stop() {
	n.playing = false
	n.paused = false
	for _, c := range n.children {
		c.Stop()
	}
	n.self.SetPlayTime(0)
	n.prevTime, n.curTime = 0, 0
	n.annotationsPending = false
}

func (n *node) IsPlaying() bool {
	return n.playing
}

func (n *node) IsPaused() bool {
	return n.paused
}

func (n *node) PlayRate() float64 {
	return n.playRate
}

func (n *node) SetPlayRate(rate float64) {
	n.playRate = rate
}

func (n *node) Update(dt float64) {
	if !n.playing {
		return
	}
	if n.paused {
		dt = 0
	}
	n.prevTime = n.self.PlayTime()
	n.self.updateNode(dt * n.playRate)
	n.curTime = n.self.PlayTime()
	n.annotationsPending = true
}

func (n *node) updateNode(dt float64) {
	for _, c := range n.children {
		c.Update(dt)
	}
}

func (n *node) Apply(weight float64, mask BoneMask) {
	n.self.applyNode(weight, mask.Union(n.mask))
	if n.annotationsPending {
		n.annotationsPending = false
		if n.tree.annotationsEnabled {
			n.emitAnnotationEvents()
		}
	}
}

func (n *node) applyNode(weight float64, mask BoneMask) {
	for _, c := range n.children {
		c.Apply(weight, mask)
	}
}

func (n *node) emitAnnotationEvents() {
	set := n.self.Annotations()
	if set.Empty() || n.prevTime == n.curTime {
		return
	}
	length := n.self.PlayLength()
	for _, kind := range annotation.Kinds {
		annotation.Crossings(set.Of(kind), n.prevTime, n.curTime, length, func(a annotation.Annotation, phase annotation.Phase) {
			typ := EventAnnotationStarted
			if phase == annotation.PhaseFinished {
				typ = EventAnnotationFinished
			}
			n.tree.emit(Event{
				Type:       typ,
				NodeID:     n.id,
				NodeName:   n.name,
				Annotation: a,
				Time:       n.curTime,
			})
		})
	}
}

func (n *node) PlayTime() float64 {
	if m := n.MainChild(); m != nil {
		return m.PlayTime()
	}
	return 0
}

func (n *node) SetPlayTime(t float64) {
	if m := n.MainChild(); m != nil {
		m.SetPlayTime(t)
	}
}

func (n *node) PreviousPlayTime() float64 {
	return n.prevTime
}

func (n *node) NormalizedPlayTime() float64 {
	l := n.self.PlayLength()
	if l <= 0 {
		return 0
	}
	return n.self.PlayTime() / l
}

func (n *node) PlayLength() float64 {
	if m := n.MainChild(); m != nil {
		return m.PlayLength()
	}
	return 0
}

func (n *node) BoneMask() BoneMask {
	return n.mask
}

func (n *node) SetBoneMask(mask BoneMask) {
	n.mask = mask
}

func (n *node) Annotations() *annotation.Set {
	return n.annotations
}

func (n *node) Origin() common.Situation {
	return n.origin
}

func (n *node) SetOrigin(s common.Situation) {
	n.origin = s
	for _, c := range n.children {
		c.SetOrigin(s)
	}
}

func (n *node) MotionSituation(t float64) common.Situation {
	if m := n.MainChild(); m != nil {
		return m.MotionSituation(t)
	}
	return common.IdentitySituation()
}

func (n *node) WorldSituation() common.Situation {
	if m := n.MainChild(); m != nil {
		return m.WorldSituation()
	}
	return n.origin.Mul(n.self.MotionSituation(n.self.PlayTime()))
}

func (n *node) Params() []float64 {
	return nil
}

func (n *node) SetParams([]float64) {}

func (n *node) Adaptor() retarget.Adaptor {
	return n.adaptor
}

func (n *node) SetAdaptor(a retarget.Adaptor) {
	n.adaptor = a
}

// cloneInto copies the shared node state into dst, re-resolving node references.
// The adaptor is not copied because it is bound to the source tree's skeleton.
func (n *node) cloneInto(dst Node, resolve func(Node) Node) {
	d := dst.base()
	d.children = make([]Node, len(n.children))
	for i, c := range n.children {
		d.children[i] = resolve(c)
	}
	d.parent = resolve(n.parent)
	d.mainChild = resolve(n.mainChild)
	d.mainValid = false
	d.playing = n.playing
	d.paused = n.paused
	d.playRate = n.playRate
	d.mask = copyValue(n.mask)
	d.annotations = n.annotations.Clone()
	d.origin = n.origin
	d.prevTime = n.prevTime
	d.curTime = n.curTime
	d.annotationsPending = n.annotationsPending
}

// nodeState is the per-play state swapped in and out for self-transitions.
type nodeState struct {
	time   float64
	origin common.Situation
	params []float64
}

func saveState(n Node) nodeState {
	return nodeState{time: n.PlayTime(), origin: n.Origin(), params: copyValue(n.Params())}
}

func restoreState(n Node, s nodeState) {
	if s.params != nil {
		n.SetParams(s.params)
	}
	n.SetPlayTime(s.time)
	n.SetOrigin(s.origin)
}
