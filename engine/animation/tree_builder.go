package animation

import "github.com/Carmen-Shannon/oxy-anim/engine/skeleton"

// TreeBuilderOption is a function that configures a tree.
type TreeBuilderOption func(t *tree)

// WithSkeleton sets the skeleton the tree poses.
//
// Parameters:
//   - sk: the skeleton
//
// Returns:
//   - TreeBuilderOption: a function that applies the skeleton to a tree
func WithSkeleton(sk skeleton.Skeleton) TreeBuilderOption {
	return func(t *tree) {
		t.skeleton = sk
	}
}

// WithDefaultTransitionLength sets the fallback transition window inherited by scheduler
// nodes created afterwards.
//
// Parameters:
//   - d: the window length in seconds
//
// Returns:
//   - TreeBuilderOption: a function that applies the length to a tree
func WithDefaultTransitionLength(d float64) TreeBuilderOption {
	return func(t *tree) {
		t.SetDefaultTransitionLength(d)
	}
}

// WithAnnotations toggles annotation events and annotation-driven transition windows.
func WithAnnotations(enabled bool) TreeBuilderOption {
	return func(t *tree) {
		t.annotationsEnabled = enabled
	}
}

// WithEventSink sets the event receiver.
func WithEventSink(sink EventSink) TreeBuilderOption {
	return func(t *tree) {
		t.sink = sink
	}
}
