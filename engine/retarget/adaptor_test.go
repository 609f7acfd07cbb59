package retarget

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

func arm(name string, segment float64) skeleton.Skeleton {
	return skeleton.NewSkeleton(name,
		skeleton.WithBones(
			skeleton.BoneSpec{ID: 0, Name: "root", Parent: -1},
			skeleton.BoneSpec{ID: 1, Name: "shoulder", Parent: 0, Position: mgl64.Vec3{0, 1, 0}},
			skeleton.BoneSpec{ID: 2, Name: "elbow", Parent: 1, Position: mgl64.Vec3{segment, 0, 0}},
			skeleton.BoneSpec{ID: 3, Name: "wrist", Parent: 2, Position: mgl64.Vec3{segment, 0, 0}},
		),
		skeleton.WithTags(map[skeleton.BoneTag]string{
			skeleton.BoneTagRightShoulder: "shoulder",
			skeleton.BoneTagRightElbow:    "elbow",
			skeleton.BoneTagRightWrist:    "wrist",
		}),
	)
}

// fixedEnv reports the same obstacle distance everywhere and a far away ground.
type fixedEnv struct {
	object float64
}

func (e *fixedEnv) DistanceToNearestObject(mgl64.Vec3) float64 { return e.object }
func (e *fixedEnv) DistanceToGround(mgl64.Vec3) float64         { return 100 }

type goalRecorder struct {
	goals  map[int]skeleton.IKGoal
	solved int
}

func newGoalRecorder() *goalRecorder {
	return &goalRecorder{goals: make(map[int]skeleton.IKGoal)}
}

func (r *goalRecorder) Priority() int                 { return 0 }
func (r *goalRecorder) Chain() []*skeleton.Bone       { return nil }
func (r *goalRecorder) SetGoal(g skeleton.IKGoal)     { r.goals[g.BoneID] = g }
func (r *goalRecorder) RemoveGoal(id int)             { delete(r.goals, id) }
func (r *goalRecorder) ClearGoals()                   { clear(r.goals) }
func (r *goalRecorder) Goals() []skeleton.IKGoal      { return nil }
func (r *goalRecorder) Solve()                        { r.solved++ }
func (r *goalRecorder) GoalError(int) (float64, bool) { return 0, false }
func (r *goalRecorder) Error() float64                { return 0 }

func TestAdaptCopiesOrientationsAndRootPosition(t *testing.T) {
	src := arm("source", 1)
	dst := arm("target", 2)
	src.Bone(0).SetPosition(mgl64.Vec3{3, 0, 0})
	bend := mgl64.QuatRotate(math.Pi/3, mgl64.Vec3{0, 0, 1})
	src.Bone(2).SetOrientation(bend)

	NewAdaptor(src, dst).Adapt(nil)

	if !dst.Bone(2).Orientation().ApproxEqualThreshold(bend, 1e-9) {
		t.Errorf("elbow orientation = %v, want %v", dst.Bone(2).Orientation(), bend)
	}
	if got := dst.Bone(0).Position(); !got.ApproxEqual(mgl64.Vec3{3, 0, 0}) {
		t.Errorf("root position = %v, want (3,0,0)", got)
	}
	if got := dst.Bone(2).Position(); !got.ApproxEqual(mgl64.Vec3{2, 0, 0}) {
		t.Errorf("elbow keeps its own offset, got %v", got)
	}
}

func TestGoalWeightFalloff(t *testing.T) {
	cases := []struct {
		distance float64
		want     float64
	}{
		{0, 1},
		{0.25, 0.875},
		{0.5, 0},
		{2, 0},
		{math.Inf(1), 0},
	}
	for _, c := range cases {
		a := NewAdaptor(arm("source", 1), arm("target", 1),
			WithEnvironmentRange(0.5), WithPredictionFactor(0))
		a.Adapt(&fixedEnv{object: c.distance})
		got, ok := a.GoalWeight(skeleton.BoneTagRightWrist)
		if !ok {
			t.Fatal("no goal for the right wrist")
		}
		if math.Abs(got-c.want) > 1e-5 {
			t.Errorf("distance %v: weight = %v, want %v", c.distance, got, c.want)
		}
	}
}

func TestGoalWeightUsesGroundWhenCloser(t *testing.T) {
	src := arm("source", 1)
	src.Bone(0).SetPosition(mgl64.Vec3{0, -1, 0}) // wrist on the ground
	a := NewAdaptor(src, arm("target", 1))
	a.Adapt(FlatGround{})
	if w, _ := a.GoalWeight(skeleton.BoneTagRightWrist); math.Abs(w-1) > 1e-6 {
		t.Errorf("weight on ground = %v, want 1", w)
	}
	if _, ok := a.GoalWeight(skeleton.BoneTagLeftWrist); ok {
		t.Error("untagged effector must not get a goal")
	}
}

func TestPredictionExtrapolatesDistance(t *testing.T) {
	env := &fixedEnv{object: 0.4}
	a := NewAdaptor(arm("source", 1), arm("target", 1), WithEnvironmentRange(0.5))
	a.Adapt(env)
	env.object = 0.3
	a.Adapt(env)

	// 0.3 + (0.3 - 0.4) = 0.2, normalized 0.4
	want := 1 - 0.4*0.4*0.4
	if w, _ := a.GoalWeight(skeleton.BoneTagRightWrist); math.Abs(w-want) > 1e-5 {
		t.Errorf("predicted weight = %v, want %v", w, want)
	}
}

func TestGoalsInstalledOnEveryTargetSolver(t *testing.T) {
	src := arm("source", 1)
	dst := arm("target", 1.5)
	first, second := newGoalRecorder(), newGoalRecorder()
	dst.AddIKSolver("first", first)
	dst.AddIKSolver("second", second)

	NewAdaptor(src, nil).AdaptTo(dst, &fixedEnv{object: 0})

	for name, r := range map[string]*goalRecorder{"first": first, "second": second} {
		g, ok := r.goals[3]
		if !ok {
			t.Fatalf("%s: no goal for the target wrist", name)
		}
		if !g.Position.ApproxEqual(mgl64.Vec3{2, 1, 0}) {
			t.Errorf("%s: goal position = %v, want source wrist (2,1,0)", name, g.Position)
		}
		if r.solved != 1 {
			t.Errorf("%s: solved %d times, want 1", name, r.solved)
		}
	}
}
