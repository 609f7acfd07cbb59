package skeleton

import (
	"github.com/go-gl/mathgl/mgl64"
)

// IKGoal is a desired world position for a bone, typically a chain's end effector.
type IKGoal struct {
	// BoneID identifies the bone the goal pulls on.
	BoneID int

	// Position is the desired world position.
	Position mgl64.Vec3

	// Weight in [0, 1] expresses importance: 0 leaves the pose untouched, 1 applies the
	// full correction.
	Weight float64
}

// IKSolver resolves a set of goals into bone rotations or translations.
// Solvers registered on a skeleton are run by SolveIK in ascending priority order; later
// solvers see the pose already adjusted by earlier ones.
type IKSolver interface {
	// Priority returns the solve order key. Lower values are solved first.
	//
	// Returns:
	//   - int: the priority
	Priority() int

	// Chain returns the ordered bone chain (root to tip) owned by this solver.
	//
	// Returns:
	//   - []*Bone: the chain, possibly empty for whole-skeleton solvers
	Chain() []*Bone

	// SetGoal installs or replaces the goal for goal.BoneID.
	//
	// Parameters:
	//   - goal: the goal to install
	SetGoal(goal IKGoal)

	// RemoveGoal removes the goal for a bone, if any.
	//
	// Parameters:
	//   - boneID: the bone whose goal is removed
	RemoveGoal(boneID int)

	// ClearGoals removes every goal.
	ClearGoals()

	// Goals returns the installed goals ordered by bone id.
	//
	// Returns:
	//   - []IKGoal: a copy of the goals
	Goals() []IKGoal

	// Solve runs one analytic pass over the current pose.
	Solve()

	// GoalError returns the distance between a goal and its bone's current world position.
	//
	// Parameters:
	//   - boneID: the bone whose goal is measured
	//
	// Returns:
	//   - float64: the error distance
	//   - bool: false if no goal is installed for the bone
	GoalError(boneID int) (float64, bool)

	// Error returns the sum of all goal errors.
	//
	// Returns:
	//   - float64: the aggregate error
	Error() float64
}
