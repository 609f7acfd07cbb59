package scene

import (
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/character"
	"github.com/Carmen-Shannon/oxy-anim/engine/clip"
	"github.com/Carmen-Shannon/oxy-anim/engine/environment"
	"github.com/Carmen-Shannon/oxy-anim/engine/retarget"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

// template holds the hip at x.
func template(name string, x float64) animation.Tree {
	c := clip.NewClip(name, 1)
	c.AddChannel(&clip.Channel{
		Bone: "hip",
		PositionKeys: []clip.VectorKeyframe{
			{Time: 0, Value: mgl64.Vec3{x, 1, 0}},
			{Time: 1, Value: mgl64.Vec3{x, 1, 0}},
		},
	})
	sk := skeleton.NewSkeleton(name, skeleton.WithBones(
		skeleton.BoneSpec{ID: 0, Name: "root", Parent: -1},
		skeleton.BoneSpec{ID: 1, Name: "hip", Parent: 0, Position: mgl64.Vec3{0, 1, 0}},
	))
	t := animation.NewTree(name, animation.WithSkeleton(sk))
	n := t.CreateSampleNode("pose", c)
	n.Play()
	t.SetRoot(n)
	return t
}

func hipX(c character.Character) float64 {
	return c.Skeleton().BoneByName("hip").Position().X()
}

// probe records the environment it was stepped with and can be told to panic.
type probe struct {
	character.Character
	steps  atomic.Int32
	env    atomic.Value
	panics bool
}

func (p *probe) Step(dt float64, env retarget.EnvironmentContext) {
	p.steps.Add(1)
	if env != nil {
		p.env.Store(env)
	}
	if p.panics {
		panic("boom")
	}
	p.Character.Step(dt, env)
}

func TestAddAssignsIDs(t *testing.T) {
	tpl := template("walker", 1)
	s := NewScene("level", WithWorkers(2))
	a := s.Add(character.NewCharacter("a", tpl))
	b := s.Add(character.NewCharacter("b", tpl, character.WithID(10)))
	c := s.Add(character.NewCharacter("c", tpl))
	if a != 1 || b != 10 || c != 11 {
		t.Errorf("ids = %d, %d, %d, want 1, 10, 11", a, b, c)
	}
	if s.Count() != 3 || s.Get(10).Name() != "b" {
		t.Fatalf("registry = %d", s.Count())
	}
	names := ""
	for _, ch := range s.Characters() {
		names += ch.Name()
	}
	if names != "abc" {
		t.Errorf("order = %q", names)
	}

	s.Remove(10)
	s.Remove(99)
	if s.Count() != 2 || s.Get(10) != nil {
		t.Error("remove failed")
	}
	s.Clear()
	if s.Count() != 0 {
		t.Error("clear failed")
	}
}

func TestAddRejectsTakenID(t *testing.T) {
	tpl := template("walker", 1)
	s := NewScene("level", WithCharacters(character.NewCharacter("a", tpl, character.WithID(3))))
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a duplicate id")
		}
	}()
	s.Add(character.NewCharacter("b", tpl, character.WithID(3)))
}

func TestStepEvaluatesEnabledCharacters(t *testing.T) {
	tpl := template("walker", 2)
	s := NewScene("level", WithWorkers(4))
	var crowd []character.Character
	for i := 0; i < 32; i++ {
		c := character.NewCharacter(fmt.Sprintf("c%d", i), tpl)
		crowd = append(crowd, c)
		s.Add(c)
	}
	idle := crowd[5]
	idle.SetEnabled(false)

	s.Step(0.1)
	for _, c := range crowd {
		want := 2.0
		if c == idle {
			want = 0
		}
		if math.Abs(hipX(c)-want) > 1e-9 {
			t.Errorf("%s hip x = %v, want %v", c.Name(), hipX(c), want)
		}
	}
	if s.LastStepDuration() <= 0 {
		t.Error("step duration not recorded")
	}
}

func TestStepSurvivesPanickingCharacter(t *testing.T) {
	tpl := template("walker", 2)
	bad := &probe{Character: character.NewCharacter("bad", tpl), panics: true}
	good := &probe{Character: character.NewCharacter("good", tpl)}
	env := environment.NewEnvironment()
	s := NewScene("level", WithEnvironment(env), WithCharacters(bad, good))

	s.Step(0.1)
	s.Step(0.1)
	if bad.steps.Load() != 2 || good.steps.Load() != 2 {
		t.Fatalf("steps = %d, %d", bad.steps.Load(), good.steps.Load())
	}
	if math.Abs(hipX(good)-2) > 1e-9 {
		t.Errorf("good hip x = %v", hipX(good))
	}
	if got, _ := good.env.Load().(environment.Environment); got != env {
		t.Error("characters must be adapted against the scene environment")
	}
}

func TestReloadMatchesTemplateName(t *testing.T) {
	s := NewScene("level")
	a := character.NewCharacter("a", template("walker", 1))
	b := character.NewCharacter("b", template("runner", 1))
	s.Add(a)
	s.Add(b)

	if n := s.Reload(template("walker", 3)); n != 1 {
		t.Fatalf("reloaded %d, want 1", n)
	}
	s.Step(0.1)
	if math.Abs(hipX(a)-3) > 1e-9 || math.Abs(hipX(b)-1) > 1e-9 {
		t.Errorf("hip x = %v, %v, want 3, 1", hipX(a), hipX(b))
	}
}

func TestSceneFlags(t *testing.T) {
	s := NewScene("level", WithActive(true))
	if !s.Active() || s.Name() != "level" || s.Environment() == nil {
		t.Fatal("defaults")
	}
	s.SetActive(false)
	s.SetName("menu")
	s.SetEnvironment(nil)
	if s.Active() || s.Name() != "menu" || s.Environment() != nil {
		t.Error("setters lost")
	}
	s.Step(0.1)
}
