package character

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/retarget"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

// CharacterBuilderOption is a functional option for configuring a Character during construction.
type CharacterBuilderOption func(*character)

// WithID sets the ID of the Character.
//
// Parameters:
//   - id: unique identifier for the Character
//
// Returns:
//   - CharacterBuilderOption: functional option to set the ID
func WithID(id uint64) CharacterBuilderOption {
	return func(c *character) {
		c.id = id
	}
}

// WithEnabled sets whether scenes step the Character. Characters start enabled.
//
// Parameters:
//   - enabled: false to skip the character
//
// Returns:
//   - CharacterBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) CharacterBuilderOption {
	return func(c *character) {
		c.enabled.Store(enabled)
	}
}

// WithSkeleton drives a caller-owned skeleton instead of a clone of the template's.
//
// Parameters:
//   - sk: the skeleton, owned by this character from now on
//
// Returns:
//   - CharacterBuilderOption: functional option to set the skeleton
func WithSkeleton(sk skeleton.Skeleton) CharacterBuilderOption {
	return func(c *character) {
		c.skeleton = sk
	}
}

// WithRig runs fn on the character's skeleton before the tree is instantiated, typically to
// tag bones and attach IK solvers, which skeleton clones do not carry.
//
// Parameters:
//   - fn: the rig setup
//
// Returns:
//   - CharacterBuilderOption: functional option to set the rig setup
func WithRig(fn func(sk skeleton.Skeleton)) CharacterBuilderOption {
	return func(c *character) {
		c.rig = fn
	}
}

// WithRetarget adapts every step's pose onto target.
//
// Parameters:
//   - target: the skeleton to pose
//   - options: adaptor options
//
// Returns:
//   - CharacterBuilderOption: functional option to set the retarget target
func WithRetarget(target skeleton.Skeleton, options ...retarget.AdaptorBuilderOption) CharacterBuilderOption {
	return func(c *character) {
		c.target = target
		c.adaptorOptions = options
	}
}

// WithOrigin places the character's tree root in the world.
func WithOrigin(s common.Situation) CharacterBuilderOption {
	return func(c *character) {
		c.origin = s
	}
}

// WithEventSink routes the tree instance's events to sink.
func WithEventSink(sink animation.EventSink) CharacterBuilderOption {
	return func(c *character) {
		c.sink = sink
	}
}
