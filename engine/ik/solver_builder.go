package ik

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

// solverConfig collects the options shared by every solver constructor.
type solverConfig struct {
	priority  int
	chainIDs  []int
	fromTag   skeleton.BoneTag
	toTag     skeleton.BoneTag
	useTags   bool
	swingAxis mgl64.Vec3
}

// SolverBuilderOption is a functional option for configuring a solver.
// Use the With* functions to create options.
type SolverBuilderOption func(c *solverConfig)

// WithPriority sets the solve order key. Lower values are solved first.
//
// Parameters:
//   - priority: the priority
//
// Returns:
//   - SolverBuilderOption: option function to apply
func WithPriority(priority int) SolverBuilderOption {
	return func(c *solverConfig) {
		c.priority = priority
	}
}

// WithChain sets the solver chain from explicit bone ids, root to tip.
//
// Parameters:
//   - ids: the bone ids
//
// Returns:
//   - SolverBuilderOption: option function to apply
func WithChain(ids ...int) SolverBuilderOption {
	return func(c *solverConfig) {
		c.chainIDs = ids
		c.useTags = false
	}
}

// WithChainTags resolves the solver chain between two tagged bones with FindBoneChain.
//
// Parameters:
//   - from: the chain root tag
//   - to: the chain tip tag
//
// Returns:
//   - SolverBuilderOption: option function to apply
func WithChainTags(from, to skeleton.BoneTag) SolverBuilderOption {
	return func(c *solverConfig) {
		c.fromTag = from
		c.toTag = to
		c.useTags = true
	}
}

// WithSwingAxis seeds the limb bend axis used while the chain is fully straight.
// The axis is in world space; after the first bent solve the solver tracks the axis itself.
//
// Parameters:
//   - axis: the initial swing-plane normal
//
// Returns:
//   - SolverBuilderOption: option function to apply
func WithSwingAxis(axis mgl64.Vec3) SolverBuilderOption {
	return func(c *solverConfig) {
		c.swingAxis = axis
	}
}

func resolveChain(sk skeleton.Skeleton, c *solverConfig) []*skeleton.Bone {
	if c.useTags {
		chain, ok := sk.FindBoneChain(c.fromTag, c.toTag)
		if !ok {
			panic("ik: no bone chain from " + c.fromTag.String() + " to " + c.toTag.String())
		}
		return chain
	}
	chain := make([]*skeleton.Bone, len(c.chainIDs))
	for i, id := range c.chainIDs {
		chain[i] = sk.Bone(id)
	}
	return chain
}
