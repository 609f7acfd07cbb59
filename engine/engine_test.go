package engine

import (
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/character"
	"github.com/Carmen-Shannon/oxy-anim/engine/clip"
	"github.com/Carmen-Shannon/oxy-anim/engine/resource"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

func rig() skeleton.Skeleton {
	return skeleton.NewSkeleton("rig", skeleton.WithBones(
		skeleton.BoneSpec{ID: 0, Name: "root", Parent: -1},
		skeleton.BoneSpec{ID: 1, Name: "hip", Parent: 0, Position: mgl64.Vec3{0, 1, 0}},
	))
}

func hold(name string, x float64) *clip.Clip {
	c := clip.NewClip(name, 1)
	c.AddChannel(&clip.Channel{
		Bone: "hip",
		PositionKeys: []clip.VectorKeyframe{
			{Time: 0, Value: mgl64.Vec3{x, 1, 0}},
			{Time: 1, Value: mgl64.Vec3{x, 1, 0}},
		},
	})
	return c
}

func template(name string, c *clip.Clip) animation.Tree {
	t := animation.NewTree(name, animation.WithSkeleton(rig()))
	n := t.CreateSampleNode("pose", c)
	n.Play()
	t.SetRoot(n)
	return t
}

func hipX(c character.Character) float64 {
	return c.Skeleton().BoneByName("hip").Position().X()
}

func TestTickStepsActiveScenesInOrder(t *testing.T) {
	var order []string
	e := NewEngine(WithTickCallback(func(dt float64) {
		order = append(order, "callback")
	}))

	tpl := template("hero", hold("pose", 2))
	front := e.CreateScene(1, "front", scene.WithWorkers(1))
	back := e.CreateScene(0, "back", scene.WithWorkers(1))
	hidden := scene.NewScene("hidden", scene.WithWorkers(1))
	e.AddScene(2, hidden)

	a := character.NewCharacter("a", tpl)
	b := character.NewCharacter("b", tpl)
	c := character.NewCharacter("c", tpl)
	front.Add(a)
	back.Add(b)
	hidden.Add(c)

	e.Tick(0.1)
	if len(order) != 1 {
		t.Errorf("callback ran %d times", len(order))
	}
	if math.Abs(hipX(a)-2) > 1e-9 || math.Abs(hipX(b)-2) > 1e-9 {
		t.Errorf("active scenes not stepped: %v, %v", hipX(a), hipX(b))
	}
	if hipX(c) != 0 {
		t.Error("inactive scene stepped")
	}

	if len(e.Scenes()) != 3 || e.Scene(1) != front {
		t.Fatal("scene registry")
	}
	e.RemoveScene(2)
	if e.Scene(2) != nil {
		t.Error("scene not removed")
	}
}

func TestConfigDrivesEngine(t *testing.T) {
	cfg := resource.DefaultConfig()
	cfg.Engine.TickRate = 120
	cfg.Engine.Profiling = true
	cfg.Scene.Workers = 3
	e := NewEngine(WithConfig(cfg))
	if e.TickRate() != time.Second/120 {
		t.Errorf("tick rate = %v", e.TickRate())
	}
	if e.Config().Scene.Workers != 3 {
		t.Error("config not kept")
	}

	e.SetTickRate(0)
	if e.TickRate() != time.Second/60 {
		t.Errorf("default tick rate = %v", e.TickRate())
	}

	s := e.CreateScene(0, "level")
	if !s.Active() {
		t.Error("created scenes start active")
	}
	s.Add(character.NewCharacter("a", template("hero", hold("pose", 1))))
	e.Tick(0.01)
	e.DisableProfiler()
	e.Tick(0.01)
}

func TestRunUntilQuit(t *testing.T) {
	var ticks atomic.Int32
	var e Engine
	e = NewEngine(WithTickRate(500), WithTickCallback(func(dt float64) {
		if ticks.Add(1) == 5 {
			e.Quit()
		}
	}))

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
	if ticks.Load() < 5 {
		t.Errorf("ticks = %d", ticks.Load())
	}
	e.Quit()
}

func TestTickPanicStopsRun(t *testing.T) {
	e := NewEngine(WithTickRate(500), WithTickCallback(func(dt float64) {
		panic("bad tick")
	}))
	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("a panicking tick must shut the engine down")
	}
}

const heroYAML = `
name: hero
root: pose
nodes:
  - kind: sample
    name: pose
    clip: lean
`

func TestHotReloadSwapsCharacterTrees(t *testing.T) {
	dir := t.TempDir()
	w, err := resource.NewWatcher(10*time.Millisecond, dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	lib := &resource.Library{
		Clips:    map[string]*clip.Clip{"lean": hold("lean", 4)},
		Skeleton: rig(),
	}

	e := NewEngine(WithTickRate(200), WithHotReload(w, lib))
	s := e.CreateScene(0, "level", scene.WithWorkers(1))
	hero := character.NewCharacter("hero", template("hero", hold("pose", 1)))
	s.Add(hero)
	first := hero.Tree()

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	defer func() {
		e.Quit()
		<-done
	}()

	tmp := filepath.Join(dir, "hero.tmp")
	if err := os.WriteFile(tmp, []byte(heroYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, "hero.yaml")); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for hero.Tree() == first {
		if time.Now().After(deadline) {
			t.Fatal("tree not reloaded")
		}
		time.Sleep(10 * time.Millisecond)
	}
	for math.Abs(hipX(hero)-4) > 1e-9 {
		if time.Now().After(deadline) {
			t.Fatalf("reloaded tree not stepped, hip x = %v", hipX(hero))
		}
		time.Sleep(10 * time.Millisecond)
	}
}
