package character

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/clip"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

var hipTurn = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})

func body(name string) skeleton.Skeleton {
	return skeleton.NewSkeleton(name, skeleton.WithBones(
		skeleton.BoneSpec{ID: 0, Name: "root", Parent: -1},
		skeleton.BoneSpec{ID: 1, Name: "hip", Parent: 0, Position: mgl64.Vec3{0, 1, 0}},
		skeleton.BoneSpec{ID: 2, Name: "spine", Parent: 1, Position: mgl64.Vec3{0, 0.5, 0}},
	))
}

// template plays a clip that moves the hip to x=2 and turns it a quarter around Y.
func template() animation.Tree {
	c := clip.NewClip("pose", 1)
	c.AddChannel(&clip.Channel{
		Bone: "hip",
		PositionKeys: []clip.VectorKeyframe{
			{Time: 0, Value: mgl64.Vec3{2, 1, 0}},
			{Time: 1, Value: mgl64.Vec3{2, 1, 0}},
		},
		RotationKeys: []clip.QuaternionKeyframe{
			{Time: 0, Value: hipTurn},
			{Time: 1, Value: hipTurn},
		},
	})
	t := animation.NewTree("template", animation.WithSkeleton(body("template")))
	n := t.CreateSampleNode("pose", c)
	n.Play()
	t.SetRoot(n)
	return t
}

func TestCharacterOwnsItsInstance(t *testing.T) {
	tpl := template()
	c := NewCharacter("hero", tpl)
	if !c.Enabled() || c.Name() != "hero" {
		t.Errorf("defaults: enabled %v name %q", c.Enabled(), c.Name())
	}
	if c.Skeleton() == tpl.Skeleton() {
		t.Fatal("character must drive a clone of the template skeleton")
	}
	if c.Template() != "template" {
		t.Errorf("template = %q", c.Template())
	}
	if c.Tree() == tpl || c.Tree().Name() != "hero" {
		t.Fatalf("tree instance = %q", c.Tree().Name())
	}

	c.Step(0.1, nil)
	if x := c.Skeleton().BoneByName("hip").Position().X(); math.Abs(x-2) > 1e-9 {
		t.Errorf("hip x = %v, want 2", x)
	}
	if x := tpl.Skeleton().BoneByName("hip").Position().X(); x != 0 {
		t.Errorf("template skeleton moved to %v", x)
	}
	if n := len(c.Palette()); n != 16*3 {
		t.Errorf("palette floats = %d, want 48", n)
	}
}

func TestCharacterRetargets(t *testing.T) {
	target := body("mannequin")
	c := NewCharacter("hero", template(), WithRetarget(target))
	if c.Adaptor() == nil {
		t.Fatal("no adaptor")
	}
	c.Step(0.1, nil)
	probe := mgl64.Vec3{0, 0, 1}
	got := target.BoneByName("hip").Orientation().Rotate(probe)
	if !got.ApproxEqualThreshold(hipTurn.Rotate(probe), 1e-9) {
		t.Errorf("target hip maps +Z to %v", got)
	}
	if x := target.BoneByName("hip").Position().X(); x != 0 {
		t.Errorf("non-root positions must stay on the target's proportions, x = %v", x)
	}
}

func TestCharacterOptions(t *testing.T) {
	own := body("own")
	rigged := false
	var events []animation.Event
	c := NewCharacter("hero", template(),
		WithID(7),
		WithEnabled(false),
		WithSkeleton(own),
		WithRig(func(sk skeleton.Skeleton) {
			rigged = sk == own
		}),
		WithOrigin(common.Situation{X: 3}),
		WithEventSink(animation.EventSinkFunc(func(e animation.Event) {
			events = append(events, e)
		})),
	)
	if c.ID() != 7 || c.Enabled() || c.Skeleton() != own || !rigged {
		t.Errorf("options not applied")
	}
	if !c.Situation().ApproxEqual(common.Situation{X: 3}, 1e-9) {
		t.Errorf("situation = %+v", c.Situation())
	}
	c.SetID(9)
	c.SetEnabled(true)
	if c.ID() != 9 || !c.Enabled() {
		t.Error("setters lost")
	}
}

func TestCharacterReloadKeepsPlacement(t *testing.T) {
	c := NewCharacter("hero", template(), WithOrigin(common.Situation{Z: 2, Yaw: 1}))
	first := c.Tree()
	c.Reload(template())
	if c.Tree() == first {
		t.Fatal("tree not replaced")
	}
	if !c.Situation().ApproxEqual(common.Situation{Z: 2, Yaw: 1}, 1e-9) {
		t.Errorf("situation after reload = %+v", c.Situation())
	}
}

func TestNewCharacterPanics(t *testing.T) {
	expect := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		fn()
	}
	expect("nil template", func() { NewCharacter("x", nil) })
	expect("no skeleton", func() { NewCharacter("x", animation.NewTree("bare")) })
}
