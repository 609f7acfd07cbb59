package skeleton

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

func assertVec(t *testing.T, name string, got, want mgl64.Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("%s = %v, want %v", name, got, want)
			return
		}
	}
}

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

// armSkeleton builds root -> shoulder -> elbow -> wrist along +X with unit segments.
func armSkeleton() Skeleton {
	return NewSkeleton("arm",
		WithBones(
			BoneSpec{ID: 0, Name: "root", Parent: -1},
			BoneSpec{ID: 1, Name: "shoulder", Parent: 0, Position: mgl64.Vec3{0, 1, 0}},
			BoneSpec{ID: 2, Name: "elbow", Parent: 1, Position: mgl64.Vec3{1, 0, 0}},
			BoneSpec{ID: 3, Name: "wrist", Parent: 2, Position: mgl64.Vec3{1, 0, 0}},
		),
		WithTags(map[BoneTag]string{
			BoneTagRoot:          "root",
			BoneTagRightShoulder: "shoulder",
			BoneTagRightElbow:    "elbow",
			BoneTagRightWrist:    "wrist",
		}),
		WithBindMatrices(),
	)
}

func TestWorldPositionMatchesManualComposition(t *testing.T) {
	s := NewSkeleton("chain", WithBones(
		BoneSpec{ID: 0, Name: "a", Parent: -1, Position: mgl64.Vec3{1, 0, 0}},
		BoneSpec{ID: 1, Name: "b", Parent: 0, Position: mgl64.Vec3{0, 2, 0},
			Orientation: mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})},
		BoneSpec{ID: 2, Name: "c", Parent: 1, Position: mgl64.Vec3{3, 0, 0},
			Scale: mgl64.Vec3{2, 2, 2}},
	))
	s.Bone(0).SetOrientation(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}))

	a, b, c := s.Bone(0), s.Bone(1), s.Bone(2)
	manual := mgl64.Translate3D(1, 0, 0).Mul4(a.Orientation().Mat4()).
		Mul4(mgl64.Translate3D(0, 2, 0)).Mul4(b.Orientation().Mat4()).
		Mul4(mgl64.Translate3D(3, 0, 0)).Mul4(mgl64.Scale3D(2, 2, 2))

	assertVec(t, "c world", c.WorldPosition(), manual.Col(3).Vec3())

	// b's roll turns c's offset onto +Y, which a's yaw leaves in place.
	assertVec(t, "b world", b.WorldPosition(), mgl64.Vec3{1, 2, 0})
	assertVec(t, "c world explicit", c.WorldPosition(), mgl64.Vec3{1, 5, 0})
	assertVec(t, "c world scale", c.WorldScale(), mgl64.Vec3{2, 2, 2})
}

func TestRootWorldEqualsLocal(t *testing.T) {
	s := armSkeleton()
	root := s.RootBone()
	root.SetPosition(mgl64.Vec3{4, 5, 6})
	if root.WorldTransform() != root.LocalTransform() {
		t.Fatalf("root world %v != local %v", root.WorldTransform(), root.LocalTransform())
	}
}

func TestCreateBoneRejectsDuplicates(t *testing.T) {
	s := armSkeleton()
	expectPanic(t, "duplicate id", func() { s.CreateBone(1, "other") })
	expectPanic(t, "duplicate name", func() { s.CreateBone(99, "elbow") })
	expectPanic(t, "missing id", func() { s.Bone(42) })
	expectPanic(t, "missing name", func() { s.BoneByName("tail") })

	if _, ok := s.FindBone("tail"); ok {
		t.Error("FindBone(tail) reported a hit")
	}
	if s.HasBone(42) {
		t.Error("HasBone(42) = true")
	}
}

func TestRootBoneInvalidation(t *testing.T) {
	s := armSkeleton()
	if s.RootBone().Name() != "root" {
		t.Fatalf("root = %q", s.RootBone().Name())
	}

	s.CreateBone(10, "floating")
	expectPanic(t, "two roots", func() { s.RootBone() })

	s.AddChild(0, 10)
	if s.RootBone().Name() != "root" {
		t.Fatalf("root after attach = %q", s.RootBone().Name())
	}
}

func TestMoveChildAndCycles(t *testing.T) {
	s := armSkeleton()
	expectPanic(t, "cycle", func() { s.MoveChild(1, 3) })
	expectPanic(t, "already parented", func() { s.AddChild(0, 2) })

	s.MoveChild(3, 1)
	if s.Bone(3).Parent().Name() != "shoulder" {
		t.Fatalf("wrist parent = %q", s.Bone(3).Parent().Name())
	}
	if len(s.Bone(2).Children()) != 0 {
		t.Fatalf("elbow still has %d children", len(s.Bone(2).Children()))
	}
}

func TestDeleteBoneReparentsChildren(t *testing.T) {
	s := armSkeleton()
	s.DeleteBone(2)
	wrist := s.Bone(3)
	if wrist.Parent().Name() != "shoulder" {
		t.Fatalf("wrist parent = %q", wrist.Parent().Name())
	}
	if _, ok := s.TaggedBone(BoneTagRightElbow); ok {
		t.Error("elbow tag survived deletion")
	}
}

func TestResetToInitialPose(t *testing.T) {
	s := armSkeleton()
	elbow := s.Bone(2)
	elbow.SetOrientation(mgl64.QuatRotate(1, mgl64.Vec3{0, 0, 1}))
	elbow.SetPosition(mgl64.Vec3{9, 9, 9})
	s.ResetToInitialPose()

	assertVec(t, "elbow position", elbow.Position(), mgl64.Vec3{1, 0, 0})
	if !elbow.Orientation().ApproxEqual(mgl64.QuatIdent()) {
		t.Errorf("elbow orientation = %v", elbow.Orientation())
	}
}

func TestTagsAndChains(t *testing.T) {
	s := armSkeleton()
	chain, ok := s.FindBoneChain(BoneTagRightShoulder, BoneTagRightWrist)
	if !ok {
		t.Fatal("chain not found")
	}
	want := []string{"shoulder", "elbow", "wrist"}
	if len(chain) != len(want) {
		t.Fatalf("chain length = %d, want %d", len(chain), len(want))
	}
	for i, b := range chain {
		if b.Name() != want[i] {
			t.Errorf("chain[%d] = %q, want %q", i, b.Name(), want[i])
		}
	}

	if _, ok := s.FindBoneChain(BoneTagRightWrist, BoneTagRightShoulder); ok {
		t.Error("upward chain should not be found")
	}
	if _, ok := s.FindBoneChain(BoneTagLeftShoulder, BoneTagRightWrist); ok {
		t.Error("chain from untagged bone should not be found")
	}

	// A bone may carry several tags; a tag maps to one bone.
	s.TagBone(BoneTagPelvis, 0)
	tags := s.BoneTags(0)
	if len(tags) != 2 || tags[0] != BoneTagRoot || tags[1] != BoneTagPelvis {
		t.Errorf("root tags = %v", tags)
	}
	s.TagBone(BoneTagPelvis, 1)
	if b, _ := s.TaggedBone(BoneTagPelvis); b.Name() != "shoulder" {
		t.Errorf("pelvis moved to %q", b.Name())
	}
	s.UntagBone(BoneTagPelvis)
	if _, ok := s.TaggedBone(BoneTagPelvis); ok {
		t.Error("pelvis still tagged")
	}
}

func TestParseBoneTag(t *testing.T) {
	tag, ok := ParseBoneTag("left_ankle")
	if !ok || tag != BoneTagLeftAnkle {
		t.Fatalf("ParseBoneTag(left_ankle) = %v, %v", tag, ok)
	}
	if tag.String() != "left_ankle" {
		t.Errorf("String() = %q", tag.String())
	}
	if _, ok := ParseBoneTag("tail"); ok {
		t.Error("ParseBoneTag(tail) succeeded")
	}
}

type recordingSolver struct {
	priority int
	label    string
	log      *[]string
}

func (r *recordingSolver) Priority() int                  { return r.priority }
func (r *recordingSolver) Chain() []*Bone                 { return nil }
func (r *recordingSolver) SetGoal(IKGoal)                 {}
func (r *recordingSolver) RemoveGoal(int)                 {}
func (r *recordingSolver) ClearGoals()                    {}
func (r *recordingSolver) Goals() []IKGoal                { return nil }
func (r *recordingSolver) Solve()                         { *r.log = append(*r.log, r.label) }
func (r *recordingSolver) GoalError(int) (float64, bool) { return 0, false }
func (r *recordingSolver) Error() float64                 { return 0 }

func TestSolveIKOrdersByPriorityThenInsertion(t *testing.T) {
	s := armSkeleton()
	var log []string
	s.AddIKSolver("arm_b", &recordingSolver{priority: 1, label: "b", log: &log})
	s.AddIKSolver("root", &recordingSolver{priority: 0, label: "root", log: &log})
	s.AddIKSolver("arm_a", &recordingSolver{priority: 1, label: "a", log: &log})
	s.AddIKSolver("late", &recordingSolver{priority: -1, label: "late", log: &log})

	s.SolveIK()
	want := []string{"late", "root", "b", "a"}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("solve order = %v, want %v", log, want)
		}
	}

	expectPanic(t, "duplicate solver", func() {
		s.AddIKSolver("root", &recordingSolver{log: &log})
	})
	s.RemoveIKSolver("root")
	if _, ok := s.IKSolver("root"); ok {
		t.Error("root solver still registered")
	}
}

func TestBlendPoseWeightedAverage(t *testing.T) {
	s := armSkeleton()
	b := s.Bone(2)
	b.poseWeight = 0
	b.BlendPose(mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1}, 0.25)
	b.BlendPose(mgl64.Vec3{4, 0, 0}, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1}, 0.75)
	assertVec(t, "blended", b.Position(), mgl64.Vec3{3, 0, 0})
	if math.Abs(b.PoseWeight()-1) > epsilon {
		t.Errorf("pose weight = %v", b.PoseWeight())
	}
}

func TestCommitPoseEasesTowardBind(t *testing.T) {
	s := armSkeleton()
	s.ResetToInitialPose()
	b := s.Bone(2)
	b.BlendPose(mgl64.Vec3{3, 0, 0}, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1}, 0.5)
	s.CommitPose()
	assertVec(t, "half weight", b.Position(), mgl64.Vec3{2, 0, 0})
}

func TestSkinningPaletteIdentityAtBind(t *testing.T) {
	s := armSkeleton()
	palette := s.SkinningPalette()
	if len(palette) != 4*16 {
		t.Fatalf("palette length = %d", len(palette))
	}
	ident := mgl64.Ident4()
	for i, v := range palette {
		if math.Abs(float64(v)-ident[i%16]) > 1e-5 {
			t.Fatalf("palette[%d] = %v, want %v", i, v, ident[i%16])
		}
	}
	if len(PaletteBytes(palette)) != len(palette)*4 {
		t.Errorf("byte view length = %d", len(PaletteBytes(palette)))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := armSkeleton()
	s.Bone(2).SetOrientation(mgl64.QuatRotate(0.5, mgl64.Vec3{0, 0, 1}))
	c := s.Clone("copy")

	assertVec(t, "clone wrist", c.Bone(3).WorldPosition(), s.Bone(3).WorldPosition())
	c.Bone(1).SetPosition(mgl64.Vec3{10, 0, 0})
	if s.Bone(1).Position() == c.Bone(1).Position() {
		t.Error("clone shares bone state with the original")
	}
	if b, ok := c.TaggedBone(BoneTagRightWrist); !ok || b != c.Bone(3) {
		t.Error("clone tags do not point at cloned bones")
	}
}

func TestSituationFromRoot(t *testing.T) {
	s := armSkeleton()
	root := s.RootBone()
	root.SetPosition(mgl64.Vec3{2, 7, -3})
	root.SetOrientation(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}))
	sit := s.Situation()
	if math.Abs(sit.X-2) > epsilon || math.Abs(sit.Z+3) > epsilon {
		t.Errorf("situation position = (%v, %v)", sit.X, sit.Z)
	}
	if math.Abs(sit.Yaw-math.Pi/2) > 1e-9 {
		t.Errorf("situation yaw = %v", sit.Yaw)
	}
}
