package ik

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

func armSkeleton() skeleton.Skeleton {
	return skeleton.NewSkeleton("arm",
		skeleton.WithBones(
			skeleton.BoneSpec{ID: 0, Name: "root", Parent: -1},
			skeleton.BoneSpec{ID: 1, Name: "shoulder", Parent: 0, Position: mgl64.Vec3{0, 1, 0}},
			skeleton.BoneSpec{ID: 2, Name: "elbow", Parent: 1, Position: mgl64.Vec3{1, 0, 0}},
			skeleton.BoneSpec{ID: 3, Name: "wrist", Parent: 2, Position: mgl64.Vec3{0.8, 0, 0}},
		),
		skeleton.WithTags(map[skeleton.BoneTag]string{
			skeleton.BoneTagLeftShoulder: "shoulder",
			skeleton.BoneTagLeftWrist:    "wrist",
		}),
	)
}

func TestLimbSolverReachesGoal(t *testing.T) {
	goals := []mgl64.Vec3{
		{1, 2, 0},
		{0.5, 1, 1},
		{-0.3, 0.2, 0.4},
		{1.7, 1.2, 0.1},
	}
	for _, g := range goals {
		sk := armSkeleton()
		// Bend the elbow a little so the first solve has a well-defined plane.
		sk.Bone(2).SetOrientation(mgl64.QuatRotate(0.3, mgl64.Vec3{0, 0, 1}))

		solver := NewLimbSolver(sk, WithChainTags(skeleton.BoneTagLeftShoulder, skeleton.BoneTagLeftWrist))
		dist := g.Sub(sk.Bone(1).WorldPosition()).Len()
		if dist < 0.2 || dist > 1.8 {
			t.Fatalf("goal %v out of reach (%v)", g, dist)
		}
		solver.SetGoal(skeleton.IKGoal{BoneID: 3, Position: g, Weight: 1})
		solver.Solve()

		e, ok := solver.GoalError(3)
		if !ok {
			t.Fatal("GoalError reported no goal")
		}
		if e > 1e-6 {
			t.Errorf("goal %v: error after solve = %v", g, e)
		}
	}
}

func TestLimbSolverStraightChainUsesFallbackAxis(t *testing.T) {
	sk := armSkeleton()
	solver := NewLimbSolver(sk, WithChain(1, 2, 3), WithSwingAxis(mgl64.Vec3{0, 0, 1}))
	solver.SetGoal(skeleton.IKGoal{BoneID: 3, Position: mgl64.Vec3{1, 1.5, 0}, Weight: 1})
	solver.Solve()

	if e := solver.Error(); e > 1e-6 {
		t.Errorf("error after solve = %v", e)
	}
	axis, ok := solver.SwingAxis()
	if !ok || math.Abs(math.Abs(axis.Z())-1) > 1e-6 {
		t.Errorf("swing axis = %v, %v", axis, ok)
	}
}

func TestLimbSolverZeroWeightLeavesPose(t *testing.T) {
	sk := armSkeleton()
	sk.Bone(2).SetOrientation(mgl64.QuatRotate(0.3, mgl64.Vec3{0, 0, 1}))
	before := sk.Bone(3).WorldPosition()
	preShoulder := sk.Bone(1).Orientation()
	preElbow := sk.Bone(2).Orientation()

	solver := NewLimbSolver(sk, WithChain(1, 2, 3))
	solver.SetGoal(skeleton.IKGoal{BoneID: 3, Position: mgl64.Vec3{0.5, 1, 1}, Weight: 0})
	solver.Solve()

	if sk.Bone(3).WorldPosition() != before {
		t.Errorf("wrist moved: %v -> %v", before, sk.Bone(3).WorldPosition())
	}
	if sk.Bone(1).Orientation() != preShoulder || sk.Bone(2).Orientation() != preElbow {
		t.Error("orientations changed at weight 0")
	}
}

func TestLimbSolverPartialWeightIsBetween(t *testing.T) {
	goal := mgl64.Vec3{0.5, 1, 1}
	sk := armSkeleton()
	sk.Bone(2).SetOrientation(mgl64.QuatRotate(0.3, mgl64.Vec3{0, 0, 1}))
	solver := NewLimbSolver(sk, WithChain(1, 2, 3))
	solver.SetGoal(skeleton.IKGoal{BoneID: 3, Position: goal, Weight: 0.5})
	before, _ := solver.GoalError(3)
	solver.Solve()
	after, _ := solver.GoalError(3)
	if !(after < before) || after < 1e-6 {
		t.Errorf("half weight error: before %v, after %v", before, after)
	}
}

func TestLimbSolverRequiresThreeBones(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a 2-bone chain")
		}
	}()
	NewLimbSolver(armSkeleton(), WithChain(1, 2))
}

func TestRootSolverTranslatesExactly(t *testing.T) {
	sk := armSkeleton()
	solver := NewRootSolver(sk)
	wrist := sk.Bone(3)
	start := wrist.WorldPosition()
	rootStart := sk.RootBone().WorldPosition()
	goal := mgl64.Vec3{3, -1, 2}

	solver.SetGoal(skeleton.IKGoal{BoneID: 3, Position: goal, Weight: 1})
	solver.Solve()

	want := goal.Sub(start)
	got := sk.RootBone().WorldPosition().Sub(rootStart)
	if got.Sub(want).Len() > 1e-9 {
		t.Errorf("root moved by %v, want %v", got, want)
	}
	if solver.LastTranslation().Sub(want).Len() > 1e-9 {
		t.Errorf("LastTranslation = %v", solver.LastTranslation())
	}
}

func TestRootSolverWeightedAverage(t *testing.T) {
	sk := armSkeleton()
	solver := NewRootSolver(sk)
	p1 := sk.Bone(1).WorldPosition()
	p3 := sk.Bone(3).WorldPosition()

	solver.SetGoal(skeleton.IKGoal{BoneID: 1, Position: p1.Add(mgl64.Vec3{3, 0, 0}), Weight: 1})
	solver.SetGoal(skeleton.IKGoal{BoneID: 3, Position: p3.Add(mgl64.Vec3{0, 0, 3}), Weight: 0.5})
	solver.Solve()

	want := mgl64.Vec3{2, 0, 1}
	if solver.LastTranslation().Sub(want).Len() > 1e-9 {
		t.Errorf("shift = %v, want %v", solver.LastTranslation(), want)
	}
}

func TestRootSolverSkipsZeroWeight(t *testing.T) {
	sk := armSkeleton()
	solver := NewRootSolver(sk)
	solver.SetGoal(skeleton.IKGoal{BoneID: 3, Position: mgl64.Vec3{9, 9, 9}, Weight: 0})
	solver.Solve()
	if sk.RootBone().Position() != (mgl64.Vec3{}) {
		t.Errorf("root moved to %v", sk.RootBone().Position())
	}
	if solver.Error() == 0 {
		t.Error("error should still be reported for unweighted goals")
	}
}

func TestSolversRunInPriorityOrder(t *testing.T) {
	sk := armSkeleton()
	sk.Bone(2).SetOrientation(mgl64.QuatRotate(0.3, mgl64.Vec3{0, 0, 1}))
	root := NewRootSolver(sk, WithPriority(0))
	limb := NewLimbSolver(sk, WithChain(1, 2, 3), WithPriority(1))
	sk.AddIKSolver("limb", limb)
	sk.AddIKSolver("root", root)

	goal := skeleton.IKGoal{BoneID: 3, Position: mgl64.Vec3{4, 1.5, 0}, Weight: 1}
	root.SetGoal(goal)
	limb.SetGoal(goal)
	sk.SolveIK()

	// root shifts the chain onto the goal first, the limb then has nothing left to fix.
	if e, _ := limb.GoalError(3); e > 1e-6 {
		t.Errorf("limb error = %v", e)
	}
	goals := limb.Goals()
	if len(goals) != 1 || goals[0].BoneID != 3 {
		t.Errorf("goals = %v", goals)
	}
	limb.ClearGoals()
	if len(limb.Goals()) != 0 {
		t.Error("ClearGoals left goals behind")
	}
}
