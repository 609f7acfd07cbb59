package animation

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/annotation"
)

// EventType classifies a notification emitted during Apply.
type EventType int

const (
	// EventAnnotationStarted fires when play time crosses an annotation's start.
	EventAnnotationStarted EventType = iota

	// EventAnnotationFinished fires when play time crosses an annotation's end.
	EventAnnotationFinished

	// EventTransitionStarted fires once when a scheduled transition window opens.
	EventTransitionStarted

	// EventTransitionFinished fires once when the next node has been promoted.
	EventTransitionFinished
)

func (t EventType) String() string {
	switch t {
	case EventAnnotationStarted:
		return "annotation_started"
	case EventAnnotationFinished:
		return "annotation_finished"
	case EventTransitionStarted:
		return "transition_started"
	case EventTransitionFinished:
		return "transition_finished"
	}
	return "unknown"
}

// Event is a fire-and-forget notification from the node tree.
type Event struct {
	Type EventType

	// Tree is the name of the emitting tree.
	Tree string

	// NodeID and NodeName identify the emitting node.
	NodeID   int
	NodeName string

	// Annotation is set for annotation events.
	Annotation annotation.Annotation

	// From and To name the nodes involved in a transition event.
	From string
	To   string

	// Time is the emitting node's play time.
	Time float64
}

// EventSink receives tree events. Sinks are called synchronously from Apply.
type EventSink interface {
	HandleAnimationEvent(e Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(e Event)

func (f EventSinkFunc) HandleAnimationEvent(e Event) {
	f(e)
}
