// Package ecs bridges animation tree events into a donburi world.
package ecs

import (
	"sync"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
)

// AnimationEventType is the donburi event type for animation tree events.
// Subscribe to it in ECS systems to receive annotation and transition notifications.
var AnimationEventType = events.NewEventType[animation.Event]()

type donburiSink struct {
	mu    *sync.Mutex
	world donburi.World
}

var _ animation.EventSink = &donburiSink{}

// NewDonburiSink creates an EventSink backed by a donburi world.
// Events are queued on AnimationEventType and delivered by ProcessEvents, which must not
// run while a scene is stepping. Characters stepped in parallel should share one sink per
// world, since the sink serializes publishing.
//
// Parameters:
//   - world: the world events are published to
//
// Returns:
//   - animation.EventSink: the sink
func NewDonburiSink(world donburi.World) animation.EventSink {
	if world == nil {
		panic("ecs: nil world")
	}
	return &donburiSink{mu: &sync.Mutex{}, world: world}
}

func (s *donburiSink) HandleAnimationEvent(e animation.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	AnimationEventType.Publish(s.world, e)
}
