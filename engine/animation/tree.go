package animation

import (
	"fmt"
	"log"
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation_space"
	"github.com/Carmen-Shannon/oxy-anim/engine/clip"
	"github.com/Carmen-Shannon/oxy-anim/engine/retarget"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

// DefaultTransitionLength is the fallback transition window, in seconds, of new trees.
const DefaultTransitionLength = 0.2

// tree is the implementation of the Tree interface.
type tree struct {
	name string

	nodes  map[int]Node
	byName map[string]Node
	nextID int
	root   Node

	skeleton skeleton.Skeleton

	totalAppliedWeight      float64
	annotationsEnabled      bool
	defaultTransitionLength float64
	sink                    EventSink
}

// Tree owns a graph of animation nodes and the skeleton they pose. A tree loaded from a
// definition is a shared resource; each character plays its own Instantiate copy.
type Tree interface {
	// Name returns the tree name.
	Name() string

	// CreateNode creates a detached node of the given kind.
	//
	// Parameters:
	//   - kind: the node kind
	//   - name: a tree-unique name
	//
	// Returns:
	//   - Node: the new node
	CreateNode(kind NodeKind, name string) Node

	// CreateSampleNode creates a sample node playing c.
	//
	// Parameters:
	//   - name: a tree-unique name
	//   - c: the clip, may be nil
	//
	// Returns:
	//   - SampleNode: the new node
	CreateSampleNode(name string, c *clip.Clip) SampleNode

	// CreateBlendNode creates a blend node bound to space.
	//
	// Parameters:
	//   - name: a tree-unique name
	//   - space: the animation space, or nil to bind later
	//
	// Returns:
	//   - BlendNode: the new node
	CreateBlendNode(name string, space animation_space.Space) BlendNode

	CreateQueueNode(name string) QueueNode
	CreateTransitionNode(name string) TransitionNode
	CreateMixerNode(name string) MixerNode

	// DeleteNode detaches a node from its parent and children and forgets it.
	//
	// Parameters:
	//   - n: the node
	DeleteNode(n Node)

	// Node returns the node with the given id and panics if there is none.
	//
	// Parameters:
	//   - id: the node id
	//
	// Returns:
	//   - Node: the node
	Node(id int) Node

	// FindNode looks a node up by name.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - Node: the node, or nil
	//   - bool: false if no node has the name
	FindNode(name string) (Node, bool)

	// Nodes returns every node in id order.
	Nodes() []Node

	// RenameNode renames a node. The new name must be free.
	//
	// Parameters:
	//   - n: the node
	//   - name: the new name
	RenameNode(n Node, name string)

	// Root returns the evaluated root node, or nil.
	Root() Node
	SetRoot(n Node)

	// Skeleton returns the posed skeleton, or nil.
	Skeleton() skeleton.Skeleton
	SetSkeleton(sk skeleton.Skeleton)

	// Update advances the root node by dt seconds.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float64)

	// Apply resets the skeleton to its bind pose, composes the root at full weight and
	// commits the blended pose.
	Apply()

	// Evaluate runs one frame: Update, Apply, SolveIK on the skeleton, then every node
	// adaptor in id order.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	//   - env: environment queries for adaptors, may be nil
	Evaluate(dt float64, env retarget.EnvironmentContext)

	// TotalAppliedWeight returns the sum of leaf weights composed by the last Apply.
	TotalAppliedWeight() float64

	AnnotationsEnabled() bool
	SetAnnotationsEnabled(enabled bool)

	// SetEventSink sets the receiver of annotation and transition events.
	//
	// Parameters:
	//   - sink: the receiver, or nil to drop events
	SetEventSink(sink EventSink)

	// DefaultTransitionLength returns the fallback window given to new scheduler nodes.
	DefaultTransitionLength() float64
	SetDefaultTransitionLength(d float64)

	// Clone deep copies the tree. Node ids, structure and playback state are kept; the
	// event sink and node adaptors are not.
	//
	// Parameters:
	//   - name: the clone's name
	//
	// Returns:
	//   - Tree: the clone
	Clone(name string) Tree

	// Instantiate clones the tree for one character and binds the character's skeleton.
	//
	// Parameters:
	//   - name: the instance name
	//   - sk: the skeleton to pose
	//
	// Returns:
	//   - Tree: the instance
	Instantiate(name string, sk skeleton.Skeleton) Tree
}

var _ Tree = &tree{}

// NewTree creates an empty tree.
//
// Parameters:
//   - name: the tree name
//   - options: builder options
//
// Returns:
//   - Tree: the tree
func NewTree(name string, options ...TreeBuilderOption) Tree {
	t := newTree(name)
	for _, opt := range options {
		opt(t)
	}
	return t
}

func newTree(name string) *tree {
	return &tree{
		name:                    name,
		nodes:                   make(map[int]Node),
		byName:                  make(map[string]Node),
		nextID:                  1,
		annotationsEnabled:      true,
		defaultTransitionLength: DefaultTransitionLength,
	}
}

func (t *tree) Name() string {
	return t.name
}

func (t *tree) CreateNode(kind NodeKind, name string) Node {
	if _, ok := t.byName[name]; ok {
		panic(fmt.Sprintf("animation: tree %q already has a node named %q", t.name, name))
	}
	id := t.nextID
	n := t.newNode(kind, id, name)
	t.nextID++
	t.nodes[id] = n
	t.byName[name] = n
	return n
}

func (t *tree) newNode(kind NodeKind, id int, name string) Node {
	switch kind {
	case KindSample:
		return newSampleNode(t, id, name)
	case KindBlend:
		return newBlendNode(t, id, name)
	case KindQueue:
		return newQueueNode(t, id, name)
	case KindTransition:
		return newTransitionNode(t, id, name)
	case KindMixer:
		return newMixerNode(t, id, name)
	}
	panic(fmt.Sprintf("animation: unknown node kind %d", kind))
}

func (t *tree) CreateSampleNode(name string, c *clip.Clip) SampleNode {
	n := t.CreateNode(KindSample, name).(SampleNode)
	if c != nil {
		n.SetClip(c)
	}
	return n
}

func (t *tree) CreateBlendNode(name string, space animation_space.Space) BlendNode {
	n := t.CreateNode(KindBlend, name).(BlendNode)
	if space != nil {
		n.BindSpace(space)
	}
	return n
}

func (t *tree) CreateQueueNode(name string) QueueNode {
	return t.CreateNode(KindQueue, name).(QueueNode)
}

func (t *tree) CreateTransitionNode(name string) TransitionNode {
	return t.CreateNode(KindTransition, name).(TransitionNode)
}

func (t *tree) CreateMixerNode(name string) MixerNode {
	return t.CreateNode(KindMixer, name).(MixerNode)
}

func (t *tree) DeleteNode(n Node) {
	if got, ok := t.nodes[n.ID()]; !ok || got != n {
		panic(fmt.Sprintf("animation: node %q does not belong to tree %q", n.Name(), t.name))
	}
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
	for _, c := range append([]Node(nil), n.Children()...) {
		n.RemoveChild(c)
	}
	if t.root == n {
		t.root = nil
	}
	delete(t.nodes, n.ID())
	delete(t.byName, n.Name())
}

func (t *tree) Node(id int) Node {
	n, ok := t.nodes[id]
	if !ok {
		panic(fmt.Sprintf("animation: tree %q has no node %d", t.name, id))
	}
	return n
}

func (t *tree) FindNode(name string) (Node, bool) {
	n, ok := t.byName[name]
	return n, ok
}

func (t *tree) Nodes() []Node {
	out := make([]Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (t *tree) RenameNode(n Node, name string) {
	if n.Name() == name {
		return
	}
	if _, ok := t.byName[name]; ok {
		panic(fmt.Sprintf("animation: tree %q already has a node named %q", t.name, name))
	}
	delete(t.byName, n.Name())
	n.base().name = name
	t.byName[name] = n
}

func (t *tree) Root() Node {
	return t.root
}

func (t *tree) SetRoot(n Node) {
	if n != nil && n.base().tree != t {
		panic(fmt.Sprintf("animation: node %q belongs to another tree than %q", n.Name(), t.name))
	}
	t.root = n
}

func (t *tree) Skeleton() skeleton.Skeleton {
	return t.skeleton
}

func (t *tree) SetSkeleton(sk skeleton.Skeleton) {
	t.skeleton = sk
}

func (t *tree) Update(dt float64) {
	if t.root != nil {
		t.root.Update(dt)
	}
}

func (t *tree) Apply() {
	t.totalAppliedWeight = 0
	if t.skeleton == nil {
		return
	}
	t.skeleton.ResetToInitialPose()
	if t.root != nil {
		t.root.Apply(1, nil)
	}
	t.skeleton.CommitPose()
}

func (t *tree) Evaluate(dt float64, env retarget.EnvironmentContext) {
	t.Update(dt)
	t.Apply()
	if t.skeleton == nil {
		return
	}
	t.skeleton.SolveIK()
	for _, n := range t.Nodes() {
		if a := n.Adaptor(); a != nil {
			a.Adapt(env)
		}
	}
}

func (t *tree) TotalAppliedWeight() float64 {
	return t.totalAppliedWeight
}

func (t *tree) AnnotationsEnabled() bool {
	return t.annotationsEnabled
}

func (t *tree) SetAnnotationsEnabled(enabled bool) {
	t.annotationsEnabled = enabled
}

func (t *tree) SetEventSink(sink EventSink) {
	t.sink = sink
}

func (t *tree) emit(e Event) {
	if t.sink == nil {
		return
	}
	e.Tree = t.name
	t.sink.HandleAnimationEvent(e)
}

func (t *tree) DefaultTransitionLength() float64 {
	return t.defaultTransitionLength
}

func (t *tree) SetDefaultTransitionLength(d float64) {
	if d < 0 {
		panic(fmt.Sprintf("animation: negative default transition length %v", d))
	}
	t.defaultTransitionLength = d
}

func (t *tree) Clone(name string) Tree {
	return t.clone(name)
}

func (t *tree) clone(name string) *tree {
	c := newTree(name)
	c.nextID = t.nextID
	c.skeleton = t.skeleton
	c.annotationsEnabled = t.annotationsEnabled
	c.defaultTransitionLength = t.defaultTransitionLength

	// placeholders first so every reference can be resolved by id
	for id, n := range t.nodes {
		p := c.newNode(n.Kind(), id, n.Name())
		c.nodes[id] = p
		c.byName[n.Name()] = p
	}
	resolve := func(n Node) Node {
		if n == nil {
			return nil
		}
		return c.nodes[n.ID()]
	}
	for id, n := range t.nodes {
		n.cloneInto(c.nodes[id], resolve)
	}
	c.root = resolve(t.root)
	return c
}

func (t *tree) Instantiate(name string, sk skeleton.Skeleton) Tree {
	c := t.clone(name)
	c.skeleton = sk
	log.Printf("[AnimationTree] instantiated %q from %q with %d nodes", name, t.name, len(c.nodes))
	return c
}
