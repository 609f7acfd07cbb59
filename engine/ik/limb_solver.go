package ik

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

// limbSolver is the implementation of the LimbSolver interface.
type limbSolver struct {
	goalSet

	// swingAxis is the last well-defined bend-plane normal in world space.
	swingAxis mgl64.Vec3
	hasAxis   bool
}

// LimbSolver is an analytic two-segment solver for a three-bone chain such as
// shoulder-elbow-wrist or hip-knee-ankle. It bends the middle joint to match the goal
// distance, re-aims the chain root at the goal, then blends the correction by goal weight.
type LimbSolver interface {
	skeleton.IKSolver

	// SwingAxis returns the cached bend-plane normal.
	//
	// Returns:
	//   - mgl64.Vec3: the axis in world space
	//   - bool: false until an axis has been seeded or observed
	SwingAxis() (mgl64.Vec3, bool)
}

var _ LimbSolver = &limbSolver{}

// NewLimbSolver creates a limb solver on sk. The chain must contain exactly three bones,
// given with WithChain or WithChainTags.
//
// Parameters:
//   - sk: the skeleton owning the chain
//   - options: variadic list of SolverBuilderOption functions
//
// Returns:
//   - LimbSolver: the new solver
func NewLimbSolver(sk skeleton.Skeleton, options ...SolverBuilderOption) LimbSolver {
	if sk == nil {
		panic("ik: NewLimbSolver requires a skeleton")
	}
	cfg := &solverConfig{}
	for _, opt := range options {
		opt(cfg)
	}
	chain := resolveChain(sk, cfg)
	if len(chain) != 3 {
		panic(fmt.Sprintf("ik: limb solver needs a 3-bone chain, got %d", len(chain)))
	}

	s := &limbSolver{goalSet: newGoalSet(sk)}
	s.priority = cfg.priority
	s.chain = chain
	if axis, ok := common.SafeNormalize(cfg.swingAxis); ok {
		s.swingAxis = axis
		s.hasAxis = true
	}
	return s
}

func (s *limbSolver) SwingAxis() (mgl64.Vec3, bool) {
	return s.swingAxis, s.hasAxis
}

func (s *limbSolver) Solve() {
	root, mid, tip := s.chain[0], s.chain[1], s.chain[2]
	goal, ok := s.goals[tip.ID()]
	if !ok || goal.Weight <= 0 {
		return
	}

	preRoot := root.Orientation()
	preMid := mid.Orientation()

	sp := root.WorldPosition()
	ep := mid.WorldPosition()
	wp := tip.WorldPosition()

	toRoot := sp.Sub(ep)
	toTip := wp.Sub(ep)
	les := toRoot.Len()
	lew := toTip.Len()
	if les < common.Epsilon || lew < common.Epsilon {
		return
	}

	dist := goal.Position.Sub(sp).Len()
	cosDesired := common.Clamp((les*les+lew*lew-dist*dist)/(2*les*lew), -1, 1)
	cosCurrent := common.Clamp(toRoot.Dot(toTip)/(les*lew), -1, 1)
	delta := math.Acos(cosDesired) - math.Acos(cosCurrent)

	axis, ok := common.SafeNormalize(toRoot.Cross(toTip))
	if ok && toRoot.Cross(toTip).Len()/(les*lew) > 1e-6 {
		s.swingAxis = axis
		s.hasAxis = true
	} else {
		axis = s.fallbackAxis(toRoot)
	}

	if math.Abs(delta) > common.Epsilon {
		bend := mgl64.QuatRotate(delta, axis)
		mid.SetWorldOrientation(bend.Mul(mid.WorldOrientation()))
	}

	// re-aim the root so the bent tip lands on the goal direction
	from, okFrom := common.SafeNormalize(tip.WorldPosition().Sub(sp))
	to, okTo := common.SafeNormalize(goal.Position.Sub(sp))
	if okFrom && okTo && from.Dot(to) < 1-1e-12 {
		aim := mgl64.QuatBetweenVectors(from, to)
		root.SetWorldOrientation(aim.Mul(root.WorldOrientation()))
	}

	if goal.Weight < 1 {
		root.SetOrientation(common.Slerp(preRoot, root.Orientation(), goal.Weight))
		mid.SetOrientation(common.Slerp(preMid, mid.Orientation(), goal.Weight))
	}
}

// fallbackAxis returns the cached axis, or any axis perpendicular to the segment when
// none has been seen yet.
func (s *limbSolver) fallbackAxis(segment mgl64.Vec3) mgl64.Vec3 {
	if s.hasAxis {
		return s.swingAxis
	}
	if axis, ok := common.SafeNormalize(segment.Cross(mgl64.Vec3{0, 1, 0})); ok {
		return axis
	}
	axis, _ := common.SafeNormalize(segment.Cross(mgl64.Vec3{1, 0, 0}))
	return axis
}
