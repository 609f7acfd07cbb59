package ik

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

// rootSolver is the implementation of the RootSolver interface.
type rootSolver struct {
	goalSet
	root  *skeleton.Bone
	shift mgl64.Vec3
}

// RootSolver rigidly shifts the whole skeleton by the weighted average displacement of
// all its goals. It is meant to run before limb solvers with a lower priority value, as a
// coarse correction they then refine.
type RootSolver interface {
	skeleton.IKSolver

	// LastTranslation returns the world translation applied by the most recent Solve.
	//
	// Returns:
	//   - mgl64.Vec3: the applied shift, zero when the solve was skipped
	LastTranslation() mgl64.Vec3
}

var _ RootSolver = &rootSolver{}

// NewRootSolver creates a root solver acting on the skeleton's root bone.
// The default priority is 0.
//
// Parameters:
//   - sk: the skeleton to shift
//   - options: variadic list of SolverBuilderOption functions
//
// Returns:
//   - RootSolver: the new solver
func NewRootSolver(sk skeleton.Skeleton, options ...SolverBuilderOption) RootSolver {
	if sk == nil {
		panic("ik: NewRootSolver requires a skeleton")
	}
	cfg := &solverConfig{}
	for _, opt := range options {
		opt(cfg)
	}

	s := &rootSolver{goalSet: newGoalSet(sk), root: sk.RootBone()}
	s.priority = cfg.priority
	s.chain = []*skeleton.Bone{s.root}
	return s
}

func (s *rootSolver) LastTranslation() mgl64.Vec3 {
	return s.shift
}

func (s *rootSolver) Solve() {
	s.shift = mgl64.Vec3{}

	var sum mgl64.Vec3
	total := 0.0
	for _, goal := range s.Goals() {
		if goal.Weight <= 0 {
			continue
		}
		d := goal.Position.Sub(s.bones(goal.BoneID).WorldPosition())
		sum = sum.Add(d.Mul(goal.Weight))
		total += goal.Weight
	}
	if total == 0 {
		return
	}

	s.shift = sum.Mul(1 / total)
	s.root.SetWorldPosition(s.root.WorldPosition().Add(s.shift))
}
