package resource

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation_space"
	"github.com/Carmen-Shannon/oxy-anim/engine/clip"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

// NodeDefinition describes one node of a tree definition. Which fields apply depends on
// Kind; fields that do not apply to a kind are ignored.
type NodeDefinition struct {
	Kind     string   `yaml:"kind"`
	Name     string   `yaml:"name"`
	Children []string `yaml:"children"`

	// MainChild names the child driving the play time accessors.
	MainChild string `yaml:"main_child"`

	// Mask lists bone names the node never writes.
	Mask     []string `yaml:"mask"`
	PlayRate *float64 `yaml:"play_rate"`

	// sample
	Clip string `yaml:"clip"`
	Loop *bool  `yaml:"loop"`

	// blend
	Space      string    `yaml:"space"`
	Weights    []float64 `yaml:"weights"`
	Parametric bool      `yaml:"parametric"`
	Params     []float64 `yaml:"params"`

	// queue and transition
	Default                 string   `yaml:"default"`
	DefaultTransitionLength *float64 `yaml:"default_transition_length"`
	Start                   string   `yaml:"start"`

	// mixer
	Layers map[string]float64 `yaml:"layers"`
}

// TreeDefinition describes a whole animation tree.
type TreeDefinition struct {
	Name                    string           `yaml:"name"`
	Root                    string           `yaml:"root"`
	DefaultTransitionLength *float64         `yaml:"default_transition_length"`
	Annotations             *bool            `yaml:"annotations"`
	Nodes                   []NodeDefinition `yaml:"nodes"`
}

// Library holds the shared resources a definition refers to by name.
type Library struct {
	Clips    map[string]*clip.Clip
	Spaces   map[string]animation_space.Space
	Skeleton skeleton.Skeleton
}

// LoadTreeDefinition reads and parses a YAML tree definition.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - *TreeDefinition: the definition
//   - error: if the file cannot be read or parsed
func LoadTreeDefinition(path string) (*TreeDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: load %s: %w", path, err)
	}
	def, err := ParseTreeDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("resource: %s: %w", path, err)
	}
	return def, nil
}

// ParseTreeDefinition parses a YAML tree definition.
func ParseTreeDefinition(data []byte) (*TreeDefinition, error) {
	var def TreeDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("unmarshal tree definition: %w", err)
	}
	return &def, nil
}

// Validate checks the definition against a library without building anything.
//
// Parameters:
//   - lib: the resources names resolve against
//
// Returns:
//   - error: the first problem found
func (d *TreeDefinition) Validate(lib *Library) error {
	if d.Name == "" {
		return fmt.Errorf("tree definition has no name")
	}
	byName := make(map[string]*NodeDefinition, len(d.Nodes))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if n.Name == "" {
			return fmt.Errorf("node %d has no name", i)
		}
		if _, dup := byName[n.Name]; dup {
			return fmt.Errorf("duplicate node %q", n.Name)
		}
		if _, ok := animation.ParseNodeKind(n.Kind); !ok {
			return fmt.Errorf("node %q: unknown kind %q", n.Name, n.Kind)
		}
		byName[n.Name] = n
	}

	parent := make(map[string]string)
	for _, n := range d.Nodes {
		for _, c := range n.Children {
			if _, ok := byName[c]; !ok {
				return fmt.Errorf("node %q: unknown child %q", n.Name, c)
			}
			if p, taken := parent[c]; taken {
				return fmt.Errorf("node %q is a child of both %q and %q", c, p, n.Name)
			}
			parent[c] = n.Name
		}
		if err := n.validate(lib, byName); err != nil {
			return fmt.Errorf("node %q: %w", n.Name, err)
		}
	}

	for _, n := range d.Nodes {
		seen := map[string]bool{n.Name: true}
		for p, ok := parent[n.Name]; ok; p, ok = parent[p] {
			if seen[p] {
				return fmt.Errorf("node %q is part of a cycle", n.Name)
			}
			seen[p] = true
		}
	}

	if d.Root != "" {
		if _, ok := byName[d.Root]; !ok {
			return fmt.Errorf("unknown root %q", d.Root)
		}
		if p, ok := parent[d.Root]; ok {
			return fmt.Errorf("root %q has parent %q", d.Root, p)
		}
	}
	if d.DefaultTransitionLength != nil && *d.DefaultTransitionLength < 0 {
		return fmt.Errorf("negative default transition length")
	}
	return nil
}

func (n *NodeDefinition) validate(lib *Library, byName map[string]*NodeDefinition) error {
	isChild := func(name string) bool {
		for _, c := range n.Children {
			if c == name {
				return true
			}
		}
		return false
	}

	if n.MainChild != "" && !isChild(n.MainChild) {
		return fmt.Errorf("main child %q is not a child", n.MainChild)
	}
	if len(n.Mask) > 0 {
		if lib == nil || lib.Skeleton == nil {
			return fmt.Errorf("mask needs a skeleton")
		}
		for _, bone := range n.Mask {
			if _, ok := lib.Skeleton.FindBone(bone); !ok {
				return fmt.Errorf("mask bone %q not in skeleton %q", bone, lib.Skeleton.Name())
			}
		}
	}

	kind, _ := animation.ParseNodeKind(n.Kind)
	switch kind {
	case animation.KindSample:
		if n.Clip != "" && (lib == nil || lib.Clips[n.Clip] == nil) {
			return fmt.Errorf("unknown clip %q", n.Clip)
		}
	case animation.KindBlend:
		if n.Space == "" {
			break
		}
		if lib == nil || lib.Spaces[n.Space] == nil {
			return fmt.Errorf("unknown space %q", n.Space)
		}
		space := lib.Spaces[n.Space]
		if n.Weights != nil && len(n.Weights) != space.Len() {
			return fmt.Errorf("%d weights for %d bases", len(n.Weights), space.Len())
		}
		if n.Parametric && space.Parametrization() == nil {
			return fmt.Errorf("space %q has no parametrization", n.Space)
		}
	case animation.KindQueue, animation.KindTransition:
		for _, ref := range []string{n.Default, n.Start} {
			if ref == "" {
				continue
			}
			if _, ok := byName[ref]; !ok {
				return fmt.Errorf("unknown node %q", ref)
			}
			if !isChild(ref) {
				return fmt.Errorf("%q must be listed as a child", ref)
			}
		}
		if n.DefaultTransitionLength != nil && *n.DefaultTransitionLength < 0 {
			return fmt.Errorf("negative default transition length")
		}
	case animation.KindMixer:
		for name := range n.Layers {
			if !isChild(name) {
				return fmt.Errorf("layer %q is not a child", name)
			}
		}
	}
	return nil
}

// Build validates a definition and creates the tree it describes. Nodes are created in
// definition order, so node ids follow the file. The root is started.
//
// Parameters:
//   - def: the definition
//   - lib: the resources names resolve against
//   - options: extra tree options, applied before the definition's own settings
//
// Returns:
//   - animation.Tree: the tree
//   - error: if the definition is invalid
func Build(def *TreeDefinition, lib *Library, options ...animation.TreeBuilderOption) (animation.Tree, error) {
	if err := def.Validate(lib); err != nil {
		return nil, fmt.Errorf("resource: tree %q: %w", def.Name, err)
	}

	opts := append([]animation.TreeBuilderOption{}, options...)
	if lib != nil && lib.Skeleton != nil {
		opts = append(opts, animation.WithSkeleton(lib.Skeleton))
	}
	if def.DefaultTransitionLength != nil {
		opts = append(opts, animation.WithDefaultTransitionLength(*def.DefaultTransitionLength))
	}
	if def.Annotations != nil {
		opts = append(opts, animation.WithAnnotations(*def.Annotations))
	}
	t := animation.NewTree(def.Name, opts...)

	for _, n := range def.Nodes {
		kind, _ := animation.ParseNodeKind(n.Kind)
		t.CreateNode(kind, n.Name)
	}
	for _, n := range def.Nodes {
		node := find(t, n.Name)
		for _, c := range n.Children {
			node.AddChild(find(t, c))
		}
	}
	// children are configured before their parents so a blend node binding its space
	// sees its sample children with their clips set
	byName := make(map[string]*NodeDefinition, len(def.Nodes))
	for i := range def.Nodes {
		byName[def.Nodes[i].Name] = &def.Nodes[i]
	}
	done := make(map[string]bool, len(def.Nodes))
	var visit func(n *NodeDefinition)
	visit = func(n *NodeDefinition) {
		if done[n.Name] {
			return
		}
		done[n.Name] = true
		for _, c := range n.Children {
			visit(byName[c])
		}
		configure(t, n, lib)
	}
	for i := range def.Nodes {
		visit(&def.Nodes[i])
	}

	if def.Root != "" {
		root := find(t, def.Root)
		t.SetRoot(root)
		root.Play()
	}
	return t, nil
}

// find resolves a name that Validate has already checked.
func find(t animation.Tree, name string) animation.Node {
	n, _ := t.FindNode(name)
	return n
}

func configure(t animation.Tree, n *NodeDefinition, lib *Library) {
	node := find(t, n.Name)

	if n.MainChild != "" {
		node.SetMainChild(find(t, n.MainChild))
	}
	if n.PlayRate != nil {
		node.SetPlayRate(*n.PlayRate)
	}
	if len(n.Mask) > 0 {
		ids := make([]int, 0, len(n.Mask))
		for _, bone := range n.Mask {
			ids = append(ids, lib.Skeleton.BoneByName(bone).ID())
		}
		node.SetBoneMask(animation.NewBoneMask(ids...))
	}

	switch v := node.(type) {
	case animation.SampleNode:
		if n.Clip != "" {
			v.SetClip(lib.Clips[n.Clip])
		}
		if n.Loop != nil {
			v.SetLoop(*n.Loop)
		}
	case animation.BlendNode:
		if n.Space != "" {
			v.BindSpace(lib.Spaces[n.Space])
		}
		if n.Weights != nil {
			v.SetWeights(n.Weights)
		}
		if n.Parametric {
			v.SetParametric(true)
			if n.Params != nil {
				v.SetParams(n.Params)
			}
		}
	case animation.QueueNode:
		if n.DefaultTransitionLength != nil {
			v.SetDefaultTransitionLength(*n.DefaultTransitionLength)
		}
		if n.Default != "" {
			v.SetDefaultNode(find(t, n.Default))
		}
		if n.Start != "" {
			v.AddTransition(find(t, n.Start))
		}
	case animation.MixerNode:
		for name, w := range n.Layers {
			v.SetLayerWeight(find(t, name), w)
		}
	}
}
