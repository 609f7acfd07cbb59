package animation

import (
	"fmt"
	"log"
	"math"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// schedulerNode holds the transition state machine shared by QueueNode and TransitionNode.
// The current node plays until the head of the queue opens its window, then current and
// next are cross-blended with a C1 cubic until the window closes and next is promoted.
type schedulerNode struct {
	node

	current Node
	next    Node
	queue   TransitionQueue

	blendWeight             float64
	defaultNode             Node
	defaultTransitionLength float64

	// seeded is set once next has received its start state for the head transition.
	seeded bool

	// elapsed is the current node's play time unrolled across loop wraps.
	elapsed float64
	loops   int

	prevSituation common.Situation

	// selfState holds the incoming phase while current transitions into itself.
	selfState nodeState

	pending []Event
}

func (s *schedulerNode) initScheduler(self Node, t *tree, id int, name string, kind NodeKind) {
	s.init(self, t, id, name, kind)
	s.blendWeight = 1
	s.defaultTransitionLength = t.defaultTransitionLength
	s.prevSituation = common.IdentitySituation()
}

// attach makes target a child of the scheduler when it is still detached.
func (s *schedulerNode) attach(target Node) {
	if target == nil {
		panic(fmt.Sprintf("animation: nil transition target on %q", s.name))
	}
	switch p := target.Parent(); {
	case p == nil:
		s.AddChild(target)
	case p != s.self:
		panic(fmt.Sprintf("animation: transition target %q belongs to %q, not %q", target.Name(), p.Name(), s.name))
	}
}

func (s *schedulerNode) AddTransition(target Node) {
	s.attach(target)

	if s.current == nil && s.queue.Len() == 0 {
		s.start(target)
		return
	}

	source := s.current
	if back, ok := s.queue.Back(); ok {
		source = back.Target
	}

	tr := Transition{Target: target}
	if !s.findAnnotatedWindow(source, target, &tr) {
		l := source.PlayLength()
		tr.Start = math.Max(0, l-s.defaultTransitionLength)
		tr.End = l
		log.Printf("[AnimationTree] %s: no transition annotation from %q to %q, using default window [%.3f, %.3f]",
			s.name, source.Name(), target.Name(), tr.Start, tr.End)
	}
	s.queue.PushBack(tr)
}

func (s *schedulerNode) findAnnotatedWindow(source, target Node, tr *Transition) bool {
	if !s.tree.annotationsEnabled {
		return false
	}
	set := source.Annotations()
	if b, ok := target.(BlendNode); ok && b.Parametric() {
		a, found := set.FindParamTransition(target.Name())
		if !found {
			return false
		}
		tr.Start, tr.End, tr.TargetTime = a.Start, a.End, a.TargetTime
		tr.Params = copyValue(a.Params)
		tr.FromAnnotation = true
		return true
	}
	a, found := set.FindTransition(target.Name())
	if !found {
		return false
	}
	tr.Start, tr.End, tr.TargetTime = a.Start, a.End, a.TargetTime
	tr.FromAnnotation = true
	return true
}

// start makes n current without a cross-blend.
func (s *schedulerNode) start(n Node) {
	n.Play()
	n.SetPlayTime(0)
	n.SetOrigin(s.origin)
	s.current = n
	s.next = nil
	s.seeded = false
	s.blendWeight = 1
	s.loops = 0
	s.elapsed = 0
	s.mainValid = false
}

func (s *schedulerNode) RemoveLastTransition() {
	if _, ok := s.queue.PopBack(); ok {
		if s.queue.Len() == 0 {
			s.next = nil
			s.seeded = false
			s.blendWeight = 1
		}
		return
	}
	s.current = nil
	s.next = nil
}

func (s *schedulerNode) RemoveAllTransitions() {
	s.queue.Clear()
	s.next = nil
	s.seeded = false
	s.blendWeight = 1
}

func (s *schedulerNode) Current() Node {
	return s.current
}

func (s *schedulerNode) Next() Node {
	return s.next
}

func (s *schedulerNode) Queue() []Transition {
	return s.queue.Items()
}

func (s *schedulerNode) BlendWeight() float64 {
	return s.blendWeight
}

func (s *schedulerNode) DefaultNode() Node {
	return s.defaultNode
}

func (s *schedulerNode) SetDefaultNode(n Node) {
	if n != nil {
		s.attach(n)
	}
	s.defaultNode = n
}

func (s *schedulerNode) DefaultTransitionLength() float64 {
	return s.defaultTransitionLength
}

func (s *schedulerNode) SetDefaultTransitionLength(d float64) {
	if d < 0 {
		panic(fmt.Sprintf("animation: negative default transition length %v on %q", d, s.name))
	}
	s.defaultTransitionLength = d
}

func (s *schedulerNode) resolveMainChild() Node {
	if s.current != nil {
		return s.current
	}
	return s.node.resolveMainChild()
}

func (s *schedulerNode) SetOrigin(o common.Situation) {
	s.origin = o
	if s.current != nil {
		s.current.SetOrigin(o)
	}
}

// RemoveChild also drops every scheduler reference to the child.
func (s *schedulerNode) RemoveChild(child Node) {
	s.node.RemoveChild(child)
	kept := s.queue.Items()
	s.queue.Clear()
	for _, tr := range kept {
		if tr.Target != child {
			s.queue.PushBack(tr)
		}
	}
	if s.next == child || s.queue.Len() == 0 {
		s.next = nil
		s.seeded = false
		s.blendWeight = 1
	}
	if s.current == child {
		s.current = nil
	}
	if s.defaultNode == child {
		s.defaultNode = nil
	}
}

func (s *schedulerNode) Stop() {
	s.node.Stop()
	s.RemoveAllTransitions()
	s.loops = 0
	s.elapsed = 0
	s.pending = nil
}

func (s *schedulerNode) updateNode(dt float64) {
	// events of a frame that was never applied are dropped
	s.pending = s.pending[:0]
	if s.queue.Len() == 0 && s.defaultNode != nil {
		s.AddTransition(s.defaultNode)
	}
	if s.current == nil {
		return
	}

	prevTime := s.current.PlayTime()
	s.prevSituation = s.current.WorldSituation()
	s.current.Update(dt)
	s.track(prevTime, dt)
	s.advance(dt)
}

// track unrolls the current node's play time across loop wraps.
func (s *schedulerNode) track(prevTime, dt float64) {
	cur := s.current.PlayTime()
	if dt > 0 && cur < prevTime {
		s.loops++
	}
	s.elapsed = float64(s.loops)*s.current.PlayLength() + cur
}

func (s *schedulerNode) advance(dt float64) {
	head, ok := s.queue.Front()
	if !ok {
		if s.elapsed >= s.current.PlayLength() {
			s.current.Stop()
			s.current = nil
			s.mainValid = false
		}
		return
	}

	start := math.Max(0, head.Start)
	end := math.Min(s.current.PlayLength(), head.End)
	if start > end {
		start = end
	}

	switch {
	case s.elapsed < start:
		s.next = nil
		s.seeded = false
		s.blendWeight = 1

	case s.elapsed < end:
		if !s.seeded {
			s.seed(head, start)
		} else {
			s.advanceNext(dt)
		}
		s.blendWeight = common.TransitionWeight((s.elapsed - start) / (end - start))

	default:
		if !s.seeded {
			s.seed(head, start)
		} else {
			s.advanceNext(dt)
		}
		s.finish()
		// a transition already due hops in the same frame; the promoted node keeps the
		// play interval it advanced through above
		if s.queue.Len() > 0 {
			s.prevSituation = s.current.WorldSituation()
			s.advance(0)
		}
	}
}

// seed places the head target so that its world situation continues the current node's
// situation from the previous frame.
func (s *schedulerNode) seed(head Transition, start float64) {
	target := head.Target
	t := head.TargetTime + (s.elapsed - start)

	var saved nodeState
	self := target == s.current
	if self {
		saved = saveState(target)
	}

	target.Play()
	if head.Params != nil {
		target.SetParams(head.Params)
	}
	target.SetPlayTime(t)
	target.SetOrigin(s.prevSituation.Mul(target.MotionSituation(target.PlayTime()).Inverse()))

	if self {
		s.selfState = saveState(target)
		restoreState(target, saved)
	}

	s.next = target
	s.seeded = true
	s.pending = append(s.pending, Event{
		Type:     EventTransitionStarted,
		NodeID:   s.id,
		NodeName: s.name,
		From:     s.current.Name(),
		To:       target.Name(),
		Time:     s.elapsed,
	})
}

func (s *schedulerNode) advanceNext(dt float64) {
	if s.next != s.current {
		s.next.Update(dt)
		return
	}
	s.withSelfState(func() {
		s.next.Update(dt)
	})
}

// withSelfState runs fn with the incoming phase of a self-transition swapped in.
func (s *schedulerNode) withSelfState(fn func()) {
	n := s.current
	b := n.base()
	saved := saveState(n)
	prev, cur, pending := b.prevTime, b.curTime, b.annotationsPending

	restoreState(n, s.selfState)
	fn()
	s.selfState = saveState(n)

	restoreState(n, saved)
	b.prevTime, b.curTime, b.annotationsPending = prev, cur, pending
}

func (s *schedulerNode) finish() {
	from := s.current
	s.queue.PopFront()

	if s.next == from {
		restoreState(from, s.selfState)
	} else {
		from.Stop()
	}

	s.current = s.next
	s.next = nil
	s.seeded = false
	s.blendWeight = 1
	s.loops = 0
	s.elapsed = s.current.PlayTime()
	s.mainValid = false

	s.pending = append(s.pending, Event{
		Type:     EventTransitionFinished,
		NodeID:   s.id,
		NodeName: s.name,
		From:     from.Name(),
		To:       s.current.Name(),
		Time:     s.elapsed,
	})
}

func (s *schedulerNode) applyNode(weight float64, mask BoneMask) {
	if s.current != nil {
		if s.next == nil || s.blendWeight >= 1 {
			s.current.Apply(weight, mask)
		} else {
			s.current.Apply(weight*s.blendWeight, mask)
			w := weight * (1 - s.blendWeight)
			if s.next == s.current {
				s.withSelfState(func() {
					s.next.Apply(w, mask)
				})
			} else {
				s.next.Apply(w, mask)
			}
		}
	}

	for _, e := range s.pending {
		s.tree.emit(e)
	}
	s.pending = s.pending[:0]
}

func (s *schedulerNode) cloneInto(dst Node, resolve func(Node) Node) {
	s.node.cloneInto(dst, resolve)
	d := dst.(schedulerHolder).scheduler()
	d.current = resolve(s.current)
	d.next = resolve(s.next)
	d.queue.Clear()
	for _, tr := range s.queue.items {
		tr.Target = resolve(tr.Target)
		tr.Params = copyValue(tr.Params)
		d.queue.PushBack(tr)
	}
	d.blendWeight = s.blendWeight
	d.defaultNode = resolve(s.defaultNode)
	d.defaultTransitionLength = s.defaultTransitionLength
	d.seeded = s.seeded
	d.elapsed = s.elapsed
	d.loops = s.loops
	d.prevSituation = s.prevSituation
	d.selfState = nodeState{
		time:   s.selfState.time,
		origin: s.selfState.origin,
		params: copyValue(s.selfState.params),
	}
	d.pending = append([]Event(nil), s.pending...)
}

type schedulerHolder interface {
	scheduler() *schedulerNode
}

func (s *schedulerNode) scheduler() *schedulerNode {
	return s
}
