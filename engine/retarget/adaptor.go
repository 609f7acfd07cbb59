package retarget

import (
	"math"

	"github.com/tanema/gween/ease"

	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

// adaptor is the implementation of the Adaptor interface.
type adaptor struct {
	source skeleton.Skeleton
	target skeleton.Skeleton

	envRange         float64
	groundRange      float64
	predictionFactor float64
	falloff          ease.TweenFunc

	prevEnv    map[skeleton.BoneTag]float64
	prevGround map[skeleton.BoneTag]float64
	weights    map[skeleton.BoneTag]float64
}

// Adaptor transfers the pose of a source skeleton onto a differently proportioned target
// and pulls the target's end effectors toward the source's contacts with IK. Contacts
// close to obstacles or the ground get the strongest goals.
type Adaptor interface {
	// Source returns the skeleton the motion was authored for.
	Source() skeleton.Skeleton

	// Target returns the skeleton being posed, or nil.
	Target() skeleton.Skeleton

	// SetTarget replaces the target and forgets distance history.
	//
	// Parameters:
	//   - target: the skeleton to pose
	SetTarget(target skeleton.Skeleton)

	// Adapt retargets the current source pose onto the target and solves the target's IK.
	//
	// Parameters:
	//   - env: world queries, or nil for an empty world with the ground at height 0
	Adapt(env EnvironmentContext)

	// AdaptTo sets the target when it differs from the current one, then adapts.
	//
	// Parameters:
	//   - target: the skeleton to pose
	//   - env: world queries, may be nil
	AdaptTo(target skeleton.Skeleton, env EnvironmentContext)

	// GoalWeight returns the weight given to an effector by the last Adapt.
	//
	// Parameters:
	//   - tag: an end effector tag
	//
	// Returns:
	//   - float64: the weight
	//   - bool: false if no goal was set for the tag
	GoalWeight(tag skeleton.BoneTag) (float64, bool)
}

var _ Adaptor = &adaptor{}

// NewAdaptor creates an adaptor from source onto target.
//
// Parameters:
//   - source: the skeleton driven by the animation tree
//   - target: the skeleton to pose, may be nil until AdaptTo
//   - options: builder options
//
// Returns:
//   - Adaptor: the adaptor
func NewAdaptor(source, target skeleton.Skeleton, options ...AdaptorBuilderOption) Adaptor {
	if source == nil {
		panic("retarget: NewAdaptor requires a source skeleton")
	}
	a := &adaptor{
		source:           source,
		target:           target,
		envRange:         DefaultEnvironmentRange,
		groundRange:      DefaultGroundRange,
		predictionFactor: DefaultPredictionFactor,
		falloff:          ease.InCubic,
	}
	for _, opt := range options {
		opt(a)
	}
	a.resetHistory()
	return a
}

func (a *adaptor) resetHistory() {
	a.prevEnv = make(map[skeleton.BoneTag]float64)
	a.prevGround = make(map[skeleton.BoneTag]float64)
	a.weights = make(map[skeleton.BoneTag]float64)
}

func (a *adaptor) Source() skeleton.Skeleton {
	return a.source
}

func (a *adaptor) Target() skeleton.Skeleton {
	return a.target
}

func (a *adaptor) SetTarget(target skeleton.Skeleton) {
	a.target = target
	a.resetHistory()
}

func (a *adaptor) AdaptTo(target skeleton.Skeleton, env EnvironmentContext) {
	if target != a.target {
		a.SetTarget(target)
	}
	a.Adapt(env)
}

func (a *adaptor) GoalWeight(tag skeleton.BoneTag) (float64, bool) {
	w, ok := a.weights[tag]
	return w, ok
}

func (a *adaptor) Adapt(env EnvironmentContext) {
	if a.target == nil {
		panic("retarget: Adapt called without a target skeleton")
	}
	if env == nil {
		env = FlatGround{}
	}
	a.copyPose()

	solvers := a.target.IKSolvers()
	for _, s := range solvers {
		s.ClearGoals()
	}
	for _, tag := range skeleton.EndEffectorTags {
		goal, ok := a.effectorGoal(tag, env)
		if !ok {
			continue
		}
		for _, s := range solvers {
			s.SetGoal(goal)
		}
	}
	a.target.SolveIK()
}

// copyPose copies local orientations by bone name; the root also takes the position.
func (a *adaptor) copyPose() {
	root := a.source.RootBone()
	for _, src := range a.source.Bones() {
		dst, ok := a.target.FindBone(src.Name())
		if !ok {
			continue
		}
		dst.SetOrientation(src.Orientation())
		if src == root {
			dst.SetPosition(src.Position())
		}
	}
}

func (a *adaptor) effectorGoal(tag skeleton.BoneTag, env EnvironmentContext) (skeleton.IKGoal, bool) {
	src, ok := a.source.TaggedBone(tag)
	if !ok {
		return skeleton.IKGoal{}, false
	}
	dst, ok := a.target.TaggedBone(tag)
	if !ok {
		if dst, ok = a.target.FindBone(src.Name()); !ok {
			return skeleton.IKGoal{}, false
		}
	}

	p := src.WorldPosition()
	dEnv := a.predict(a.prevEnv, tag, env.DistanceToNearestObject(p))
	dGround := a.predict(a.prevGround, tag, env.DistanceToGround(p))
	w := math.Max(a.weigh(dEnv, a.envRange), a.weigh(dGround, a.groundRange))
	a.weights[tag] = w

	return skeleton.IKGoal{BoneID: dst.ID(), Position: p, Weight: w}, true
}

// predict extrapolates a distance by its last frame delta and records it.
func (a *adaptor) predict(history map[skeleton.BoneTag]float64, tag skeleton.BoneTag, d float64) float64 {
	prev, seen := history[tag]
	history[tag] = d
	if !seen || math.IsInf(d, 0) || math.IsInf(prev, 0) {
		return d
	}
	return d + (d-prev)*a.predictionFactor
}

// weigh maps a distance to [0, 1] with the falloff curve: 1 at contact, 0 at range.
func (a *adaptor) weigh(d, rng float64) float64 {
	if rng <= 0 || math.IsInf(d, 1) || math.IsNaN(d) {
		return 0
	}
	x := math.Min(math.Max(d/rng, 0), 1)
	return float64(a.falloff(float32(x), 1, -1, 1))
}
