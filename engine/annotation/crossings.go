package annotation

// Phase is the boundary of an annotation interval that was crossed.
type Phase int

const (
	PhaseStarted Phase = iota
	PhaseFinished
)

func (p Phase) String() string {
	if p == PhaseStarted {
		return "started"
	}
	return "finished"
}

// Crossings reports every annotation boundary that lies in the play interval
// [prev, cur). When cur < prev the clip looped and the interval is [prev, length]
// followed by [0, cur). The clip end counts as crossed on a wrap and when cur
// stops at length, so an annotation ending at length still finishes. Starts are
// reported before finishes within each segment.
//
// Parameters:
//   - list: the annotations to test
//   - prev: the play time before the update
//   - cur: the play time after the update
//   - length: the clip length, used for loop wrap
//   - fn: called once per crossed boundary
func Crossings(list []Annotation, prev, cur, length float64, fn func(a Annotation, phase Phase)) {
	if cur >= prev {
		crossSegment(list, prev, cur, cur >= length, fn)
		return
	}
	crossSegment(list, prev, length, true, fn)
	crossSegment(list, 0, cur, false, fn)
}

// crossSegment tests [lo, hi). With closed set, a finish at hi is included.
func crossSegment(list []Annotation, lo, hi float64, closed bool, fn func(a Annotation, phase Phase)) {
	if hi <= lo {
		return
	}
	for _, a := range list {
		if start, _ := a.Bounds(); start >= lo && start < hi {
			fn(a, PhaseStarted)
		}
	}
	for _, a := range list {
		if _, end := a.Bounds(); end >= lo && (end < hi || closed && end == hi) {
			fn(a, PhaseFinished)
		}
	}
}
