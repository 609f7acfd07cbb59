package animation

type transitionNode struct {
	schedulerNode
}

// TransitionNode blends from whatever is playing to one requested target. It runs the
// same scheduler as QueueNode but each request replaces the pending ones.
type TransitionNode interface {
	QueueNode

	// TransitionTo abandons pending transitions and schedules target.
	//
	// Parameters:
	//   - target: the node to blend to
	TransitionTo(target Node)
}

var _ TransitionNode = &transitionNode{}

func newTransitionNode(t *tree, id int, name string) *transitionNode {
	n := &transitionNode{}
	n.initScheduler(n, t, id, name, KindTransition)
	return n
}

func (n *transitionNode) TransitionTo(target Node) {
	n.RemoveAllTransitions()
	n.AddTransition(target)
}
