package animation

// queueNode is the implementation of the QueueNode interface.
type queueNode struct {
	schedulerNode
}

// QueueNode plays its children one after another. Each AddTransition appends a hand-over
// from the last scheduled node; the window comes from a matching transition annotation on
// the source, or defaults to the last DefaultTransitionLength seconds of the source.
type QueueNode interface {
	Node

	// AddTransition schedules target after the last scheduled node. When nothing plays
	// yet the target starts immediately. A detached target becomes a child.
	//
	// Parameters:
	//   - target: the node to play next
	AddTransition(target Node)

	// RemoveLastTransition drops the tail of the queue, or the current node when the
	// queue is already empty.
	RemoveLastTransition()

	// RemoveAllTransitions abandons every pending transition. The current node keeps
	// playing.
	RemoveAllTransitions()

	// Current returns the playing node, or nil when idle.
	Current() Node

	// Next returns the node being blended in, or nil outside a transition window.
	Next() Node

	// Queue returns the pending transitions front to back.
	Queue() []Transition

	// BlendWeight returns the weight of the current node in [0, 1]; the next node gets
	// the complement.
	BlendWeight() float64

	// DefaultNode returns the node re-queued whenever the queue empties, or nil.
	DefaultNode() Node

	// SetDefaultNode sets the idle node. Pass nil to clear.
	//
	// Parameters:
	//   - n: the idle node
	SetDefaultNode(n Node)

	// DefaultTransitionLength returns the fallback window length in seconds.
	DefaultTransitionLength() float64

	// SetDefaultTransitionLength sets the fallback window length.
	//
	// Parameters:
	//   - d: the length in seconds, must be non-negative
	SetDefaultTransitionLength(d float64)
}

var _ QueueNode = &queueNode{}

func newQueueNode(t *tree, id int, name string) *queueNode {
	n := &queueNode{}
	n.initScheduler(n, t, id, name, KindQueue)
	return n
}
