package character

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/retarget"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

type character struct {
	mu *sync.Mutex

	id      uint64
	name    string
	enabled atomic.Bool

	tree     animation.Tree
	template string
	skeleton skeleton.Skeleton
	rig      func(sk skeleton.Skeleton)
	sink     animation.EventSink
	origin   common.Situation

	adaptor        retarget.Adaptor
	target         skeleton.Skeleton
	adaptorOptions []retarget.AdaptorBuilderOption

	palette []float32
}

// Character is one animated actor: a private tree instance driving a private skeleton,
// optionally retargeted onto a second skeleton. A character is stepped by one goroutine
// at a time; the palette may be read concurrently.
type Character interface {
	// ID returns the character's unique identifier.
	//
	// Returns:
	//   - uint64: the id, 0 until a scene assigns one
	ID() uint64

	// SetID sets the character's unique identifier.
	//
	// Parameters:
	//   - id: the id
	SetID(id uint64)

	// Name returns the character name, also used for its tree instance.
	Name() string

	// Enabled reports whether scenes step this character.
	Enabled() bool
	SetEnabled(enabled bool)

	// Tree returns the private tree instance.
	Tree() animation.Tree

	// Template returns the name of the template tree the instance was made from.
	Template() string

	// Skeleton returns the skeleton the tree drives.
	Skeleton() skeleton.Skeleton

	// Adaptor returns the retarget adaptor, or nil.
	Adaptor() retarget.Adaptor

	// Step advances the tree by dt, evaluates it, then adapts the retarget skeleton.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	//   - env: the environment queried by adaptors, may be nil
	Step(dt float64, env retarget.EnvironmentContext)

	// Situation returns the world placement of the tree's root motion.
	Situation() common.Situation

	// Palette returns a copy of the skinning palette of the output skeleton as of the last
	// Step: the retarget target when one is set, the driven skeleton otherwise.
	//
	// Returns:
	//   - []float32: 16 floats per bone ordered by bone id
	Palette() []float32

	// Reload swaps the tree for a new instance of template, keeping skeleton, origin and
	// event sink. Used when a tree definition changes on disk.
	//
	// Parameters:
	//   - template: the new template tree
	Reload(template animation.Tree)
}

var _ Character = &character{}

// NewCharacter instantiates a template tree for one character. Without WithSkeleton the
// template's skeleton is cloned.
//
// Parameters:
//   - name: the character name
//   - template: the shared template tree
//   - options: variadic list of CharacterBuilderOption functions
//
// Returns:
//   - Character: the character
func NewCharacter(name string, template animation.Tree, options ...CharacterBuilderOption) Character {
	if template == nil {
		panic("character: nil template tree")
	}
	c := &character{
		mu:   &sync.Mutex{},
		name: name,
	}
	c.enabled.Store(true)
	for _, option := range options {
		option(c)
	}

	if c.skeleton == nil {
		if template.Skeleton() == nil {
			panic(fmt.Sprintf("character: template tree %q has no skeleton", template.Name()))
		}
		c.skeleton = template.Skeleton().Clone(name)
	}
	if c.rig != nil {
		c.rig(c.skeleton)
	}
	if c.target != nil {
		c.adaptor = retarget.NewAdaptor(c.skeleton, c.target, c.adaptorOptions...)
	}
	c.instantiate(template)
	return c
}

func (c *character) instantiate(template animation.Tree) {
	tree := template.Instantiate(c.name, c.skeleton)
	if c.sink != nil {
		tree.SetEventSink(c.sink)
	}
	if root := tree.Root(); root != nil {
		root.SetOrigin(c.origin)
	}

	c.mu.Lock()
	c.tree = tree
	c.template = template.Name()
	c.mu.Unlock()
}

func (c *character) ID() uint64 {
	return c.id
}

func (c *character) SetID(id uint64) {
	c.id = id
}

func (c *character) Name() string {
	return c.name
}

func (c *character) Enabled() bool {
	return c.enabled.Load()
}

func (c *character) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
}

func (c *character) Tree() animation.Tree {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree
}

func (c *character) Template() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.template
}

func (c *character) Skeleton() skeleton.Skeleton {
	return c.skeleton
}

func (c *character) Adaptor() retarget.Adaptor {
	return c.adaptor
}

func (c *character) Step(dt float64, env retarget.EnvironmentContext) {
	c.Tree().Evaluate(dt, env)

	out := c.skeleton
	if c.adaptor != nil {
		c.adaptor.Adapt(env)
		out = c.adaptor.Target()
	}
	palette := out.SkinningPalette()

	c.mu.Lock()
	c.palette = palette
	c.mu.Unlock()
}

func (c *character) Situation() common.Situation {
	if root := c.Tree().Root(); root != nil {
		return root.WorldSituation()
	}
	return c.origin
}

func (c *character) Palette() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float32(nil), c.palette...)
}

func (c *character) Reload(template animation.Tree) {
	if root := c.Tree().Root(); root != nil {
		c.origin = root.WorldSituation()
	}
	c.instantiate(template)
}
