package resource

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation_space"
	"github.com/Carmen-Shannon/oxy-anim/engine/clip"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

func testLibrary() *Library {
	idle := clip.NewClip("idle", 2)
	walk := clip.NewClip("walk", 1)
	run := clip.NewClip("run", 0.8)
	return &Library{
		Clips: map[string]*clip.Clip{"idle": idle, "walk": walk, "run": run},
		Spaces: map[string]animation_space.Space{
			"locomotion": animation_space.NewSpace("locomotion", []*clip.Clip{walk, run}),
		},
		Skeleton: skeleton.NewSkeleton("body", skeleton.WithBones(
			skeleton.BoneSpec{ID: 0, Name: "root", Parent: -1},
			skeleton.BoneSpec{ID: 1, Name: "hip", Parent: 0, Position: mgl64.Vec3{0, 1, 0}},
			skeleton.BoneSpec{ID: 2, Name: "spine", Parent: 1, Position: mgl64.Vec3{0, 0.5, 0}},
		)),
	}
}

const heroDefinition = `
name: hero
root: top
default_transition_length: 0.3
nodes:
  - kind: queue
    name: top
    children: [idle, move]
    default: idle
    start: idle
  - kind: sample
    name: idle
    clip: idle
    loop: false
    play_rate: 0.5
    mask: [spine]
  - kind: blend
    name: move
    space: locomotion
    children: [walk]
    weights: [0.5, 0.5]
  - kind: sample
    name: walk
    clip: walk
`

func TestBuildTreeFromDefinition(t *testing.T) {
	def, err := ParseTreeDefinition([]byte(heroDefinition))
	if err != nil {
		t.Fatalf("ParseTreeDefinition: %v", err)
	}
	tr, err := Build(def, testLibrary())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if tr.Name() != "hero" || tr.DefaultTransitionLength() != 0.3 {
		t.Errorf("tree settings: %q %v", tr.Name(), tr.DefaultTransitionLength())
	}
	if tr.Skeleton() == nil {
		t.Error("library skeleton not bound")
	}
	for i, name := range []string{"top", "idle", "move", "walk"} {
		n, ok := tr.FindNode(name)
		if !ok {
			t.Fatalf("node %q missing", name)
		}
		if n.ID() != i+1 {
			t.Errorf("%q id = %d, want definition order %d", name, n.ID(), i+1)
		}
	}
	if tr.Root() == nil || tr.Root().Name() != "top" {
		t.Fatal("root not set")
	}
	if !tr.Root().IsPlaying() {
		t.Error("root not started")
	}

	top := tr.Root().(animation.QueueNode)
	if top.Current() == nil || top.Current().Name() != "idle" {
		t.Errorf("start node not scheduled")
	}
	if top.DefaultNode() == nil || top.DefaultNode().Name() != "idle" {
		t.Errorf("default node not set")
	}

	n, _ := tr.FindNode("idle")
	idle := n.(animation.SampleNode)
	if idle.Loop() || idle.PlayRate() != 0.5 || idle.Clip().Name != "idle" {
		t.Errorf("idle settings lost")
	}
	if !idle.BoneMask().Excludes(2) || idle.BoneMask().Excludes(1) {
		t.Errorf("mask = %v, want spine only", idle.BoneMask())
	}

	n, _ = tr.FindNode("move")
	move := n.(animation.BlendNode)
	if len(move.Children()) != 2 {
		t.Fatalf("blend children = %d, want 2", len(move.Children()))
	}
	walk, _ := tr.FindNode("walk")
	if i, ok := move.BaseIndex(walk); !ok || i != 0 {
		t.Errorf("defined walk child not reused as base 0")
	}
	if w := move.Weights(); w[0] != 0.5 || w[1] != 0.5 {
		t.Errorf("weights = %v", w)
	}
}

func TestBuildAppliesMixerLayers(t *testing.T) {
	def, err := ParseTreeDefinition([]byte(`
name: layered
root: mix
nodes:
  - {kind: mixer, name: mix, children: [base, upper], layers: {upper: 0.25}}
  - {kind: sample, name: base, clip: walk}
  - {kind: sample, name: upper, clip: idle, mask: [root, hip]}
`))
	if err != nil {
		t.Fatal(err)
	}
	tr, err := Build(def, testLibrary())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mix := tr.Root().(animation.MixerNode)
	base, _ := tr.FindNode("base")
	upper, _ := tr.FindNode("upper")
	if mix.LayerWeight(base) != 1 || mix.LayerWeight(upper) != 0.25 {
		t.Errorf("layers = %v, %v", mix.LayerWeight(base), mix.LayerWeight(upper))
	}
}

func TestValidateRejectsBrokenDefinitions(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown kind", `{name: t, nodes: [{kind: spline, name: a}]}`, "unknown kind"},
		{"duplicate", `{name: t, nodes: [{kind: sample, name: a}, {kind: sample, name: a}]}`, "duplicate"},
		{"unknown child", `{name: t, nodes: [{kind: mixer, name: a, children: [b]}]}`, "unknown child"},
		{"two parents", `{name: t, nodes: [{kind: mixer, name: a, children: [c]}, {kind: mixer, name: b, children: [c]}, {kind: sample, name: c}]}`, "child of both"},
		{"cycle", `{name: t, nodes: [{kind: mixer, name: a, children: [b]}, {kind: mixer, name: b, children: [a]}]}`, "cycle"},
		{"unknown clip", `{name: t, nodes: [{kind: sample, name: a, clip: swim}]}`, "unknown clip"},
		{"unknown space", `{name: t, nodes: [{kind: blend, name: a, space: fly}]}`, "unknown space"},
		{"weight count", `{name: t, nodes: [{kind: blend, name: a, space: locomotion, weights: [1]}]}`, "weights"},
		{"parametric", `{name: t, nodes: [{kind: blend, name: a, space: locomotion, parametric: true}]}`, "parametrization"},
		{"mask bone", `{name: t, nodes: [{kind: sample, name: a, mask: [tail]}]}`, "mask bone"},
		{"main child", `{name: t, nodes: [{kind: mixer, name: a, main_child: b}, {kind: sample, name: b}]}`, "main child"},
		{"default", `{name: t, nodes: [{kind: queue, name: q, default: b}, {kind: sample, name: b}]}`, "listed as a child"},
		{"layer", `{name: t, nodes: [{kind: mixer, name: m, layers: {b: 1}}, {kind: sample, name: b}]}`, "layer"},
		{"root", `{name: t, root: b, nodes: [{kind: mixer, name: a, children: [b]}, {kind: sample, name: b}]}`, "has parent"},
		{"no name", `{nodes: []}`, "no name"},
	}
	for _, c := range cases {
		def, err := ParseTreeDefinition([]byte(c.doc))
		if err != nil {
			t.Fatalf("%s: parse: %v", c.name, err)
		}
		if _, err := Build(def, testLibrary()); err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: err = %v, want it to mention %q", c.name, err, c.want)
		}
	}
}

func TestMaskWithoutSkeleton(t *testing.T) {
	def, _ := ParseTreeDefinition([]byte(`{name: t, nodes: [{kind: sample, name: a, mask: [hip]}]}`))
	if err := def.Validate(&Library{}); err == nil {
		t.Error("mask without a skeleton must fail")
	}
}
