package animation

// Transition is one scheduled hand-over. Start and End are in the source node's play
// time, TargetTime is where the target starts when the window opens.
type Transition struct {
	Start      float64
	End        float64
	TargetTime float64
	Target     Node

	// Params seeds a parametric target, nil otherwise.
	Params []float64

	// FromAnnotation is false when the window fell back to the default length.
	FromAnnotation bool
}

// TransitionQueue is a FIFO of scheduled transitions that can be traversed front to back.
type TransitionQueue struct {
	items []Transition
}

func (q *TransitionQueue) Len() int {
	return len(q.items)
}

// At returns the i-th transition counted from the front.
func (q *TransitionQueue) At(i int) Transition {
	return q.items[i]
}

// Front returns the head of the queue.
//
// Returns:
//   - Transition: the head, zero if empty
//   - bool: false if the queue is empty
func (q *TransitionQueue) Front() (Transition, bool) {
	if len(q.items) == 0 {
		return Transition{}, false
	}
	return q.items[0], true
}

// Back returns the tail of the queue.
//
// Returns:
//   - Transition: the tail, zero if empty
//   - bool: false if the queue is empty
func (q *TransitionQueue) Back() (Transition, bool) {
	if len(q.items) == 0 {
		return Transition{}, false
	}
	return q.items[len(q.items)-1], true
}

func (q *TransitionQueue) PushBack(t Transition) {
	q.items = append(q.items, t)
}

func (q *TransitionQueue) PopFront() (Transition, bool) {
	t, ok := q.Front()
	if ok {
		q.items[0] = Transition{}
		q.items = q.items[1:]
	}
	return t, ok
}

func (q *TransitionQueue) PopBack() (Transition, bool) {
	t, ok := q.Back()
	if ok {
		q.items = q.items[:len(q.items)-1]
	}
	return t, ok
}

func (q *TransitionQueue) Clear() {
	q.items = nil
}

// Items returns a copy of the queue from front to back.
func (q *TransitionQueue) Items() []Transition {
	out := make([]Transition, len(q.items))
	copy(out, q.items)
	return out
}
