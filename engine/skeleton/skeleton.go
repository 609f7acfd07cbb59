package skeleton

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

type namedSolver struct {
	name   string
	solver IKSolver
}

// skeleton is the implementation of the Skeleton interface.
type skeleton struct {
	name string

	bones  map[int]*Bone
	byName map[string]*Bone

	// root is resolved lazily and invalidated whenever the hierarchy changes.
	root      *Bone
	rootValid bool

	tags map[BoneTag]*Bone

	solvers []namedSolver
}

// Skeleton is a hierarchical rigid-transform tree with id/name/tag lookup and a set of
// named IK solvers. It owns the lifetime of every bone.
//
// Operations on ids or names that do not exist are programmer errors and panic. Lookups
// that can legitimately miss (FindBone, HasBone, TaggedBone, IKSolver) return a
// sentinel instead.
type Skeleton interface {
	// Name returns the skeleton name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// CreateBone creates a parentless bone. Both the id and the name must be free.
	//
	// Parameters:
	//   - id: the unique bone id
	//   - name: the unique bone name
	//
	// Returns:
	//   - *Bone: the new bone
	CreateBone(id int, name string) *Bone

	// DeleteBone removes a bone. Its children are re-parented to its parent and its tags
	// are dropped.
	//
	// Parameters:
	//   - id: the bone to delete
	DeleteBone(id int)

	// Bone returns the bone with the given id. Panics if it does not exist.
	//
	// Parameters:
	//   - id: the bone id
	//
	// Returns:
	//   - *Bone: the bone
	Bone(id int) *Bone

	// BoneByName returns the bone with the given name. Panics if it does not exist.
	//
	// Parameters:
	//   - name: the bone name
	//
	// Returns:
	//   - *Bone: the bone
	BoneByName(name string) *Bone

	// FindBone looks up a bone by name.
	//
	// Parameters:
	//   - name: the bone name
	//
	// Returns:
	//   - *Bone: the bone, or nil
	//   - bool: false if no bone has that name
	FindBone(name string) (*Bone, bool)

	// HasBone reports whether a bone id exists.
	//
	// Parameters:
	//   - id: the bone id
	//
	// Returns:
	//   - bool: true if the bone exists
	HasBone(id int) bool

	// Bones returns every bone ordered by id.
	//
	// Returns:
	//   - []*Bone: the bones
	Bones() []*Bone

	// RootBone returns the single parentless bone. Panics when the hierarchy has zero or
	// several parentless bones.
	//
	// Returns:
	//   - *Bone: the root
	RootBone() *Bone

	// AddChild attaches a parentless bone under parentID.
	//
	// Parameters:
	//   - parentID: the new parent
	//   - childID: the bone to attach (must have no parent)
	AddChild(parentID, childID int)

	// MoveChild re-parents a bone. The new parent must not be the bone itself or one of
	// its descendants.
	//
	// Parameters:
	//   - childID: the bone to move
	//   - newParentID: the new parent
	MoveChild(childID, newParentID int)

	// ResetToInitialPose restores the bind pose of every bone and clears the pose
	// composition weights.
	ResetToInitialPose()

	// CommitPose finalizes a frame's composed pose: bones covered by less than full weight
	// are eased back toward the bind pose by the missing weight.
	CommitPose()

	// TagBone attaches a semantic tag to a bone, moving the tag off any previous bone.
	//
	// Parameters:
	//   - tag: the tag
	//   - id: the bone id
	TagBone(tag BoneTag, id int)

	// UntagBone removes a tag.
	//
	// Parameters:
	//   - tag: the tag to remove
	UntagBone(tag BoneTag)

	// TaggedBone returns the bone carrying a tag.
	//
	// Parameters:
	//   - tag: the tag
	//
	// Returns:
	//   - *Bone: the tagged bone, or nil
	//   - bool: false if the tag is unassigned
	TaggedBone(tag BoneTag) (*Bone, bool)

	// BoneTags returns every tag carried by a bone, in tag order.
	//
	// Parameters:
	//   - id: the bone id
	//
	// Returns:
	//   - []BoneTag: the tags
	BoneTags(id int) []BoneTag

	// FindBoneChain searches depth-first from the bone tagged `from` down to the bone
	// tagged `to` and returns the path, both ends included.
	//
	// Parameters:
	//   - from: the chain root tag
	//   - to: the chain tip tag
	//
	// Returns:
	//   - []*Bone: the chain root to tip
	//   - bool: false if either tag is unassigned or `to` is not below `from`
	FindBoneChain(from, to BoneTag) ([]*Bone, bool)

	// AddIKSolver registers a solver under a unique name.
	//
	// Parameters:
	//   - name: the solver name
	//   - solver: the solver
	AddIKSolver(name string, solver IKSolver)

	// RemoveIKSolver unregisters a solver. Unknown names are ignored.
	//
	// Parameters:
	//   - name: the solver name
	RemoveIKSolver(name string)

	// IKSolver looks up a solver by name.
	//
	// Parameters:
	//   - name: the solver name
	//
	// Returns:
	//   - IKSolver: the solver, or nil
	//   - bool: false if no solver has that name
	IKSolver(name string) (IKSolver, bool)

	// IKSolvers returns the solvers in solve order (priority, then insertion order).
	//
	// Returns:
	//   - []IKSolver: the ordered solvers
	IKSolvers() []IKSolver

	// SolveIK runs every registered solver once in ascending priority order.
	SolveIK()

	// Situation projects the root bone's world placement onto the ground plane.
	//
	// Returns:
	//   - common.Situation: the root placement
	Situation() common.Situation

	// ComputeInverseBindMatrices stores the inverse of every bone's current world
	// transform as its inverse bind matrix. Call it with the skeleton in its bind pose.
	ComputeInverseBindMatrices()

	// SkinningPalette returns world * inverse-bind matrices for every bone ordered by id,
	// 16 column-major float32 values per bone, ready for an external skinning pass.
	//
	// Returns:
	//   - []float32: the flattened palette
	SkinningPalette() []float32

	// Clone deep-copies bones, poses and tags under a new name. Solvers are not copied
	// because they reference bones of this skeleton.
	//
	// Parameters:
	//   - name: the name of the copy
	//
	// Returns:
	//   - Skeleton: the copy
	Clone(name string) Skeleton
}

var _ Skeleton = &skeleton{}

// NewSkeleton creates an empty skeleton and applies the given options.
//
// Parameters:
//   - name: the skeleton name
//   - options: variadic list of SkeletonBuilderOption functions
//
// Returns:
//   - Skeleton: the new skeleton
func NewSkeleton(name string, options ...SkeletonBuilderOption) Skeleton {
	s := &skeleton{
		name:   name,
		bones:  make(map[int]*Bone),
		byName: make(map[string]*Bone),
		tags:   make(map[BoneTag]*Bone),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *skeleton) Name() string {
	return s.name
}

func (s *skeleton) CreateBone(id int, name string) *Bone {
	if _, ok := s.bones[id]; ok {
		panic(fmt.Sprintf("skeleton: bone id %d already exists in %q", id, s.name))
	}
	if _, ok := s.byName[name]; ok {
		panic(fmt.Sprintf("skeleton: bone name %q already exists in %q", name, s.name))
	}
	b := newBone(id, name)
	s.bones[id] = b
	s.byName[name] = b
	s.rootValid = false
	return b
}

func (s *skeleton) DeleteBone(id int) {
	b := s.Bone(id)
	parent := b.parent
	if parent != nil {
		parent.removeChild(b)
	}
	for _, c := range b.children {
		c.parent = parent
		if parent != nil {
			parent.children = append(parent.children, c)
		}
	}
	b.children = nil
	b.parent = nil
	for tag, tb := range s.tags {
		if tb == b {
			delete(s.tags, tag)
		}
	}
	delete(s.bones, id)
	delete(s.byName, b.name)
	s.rootValid = false
}

func (s *skeleton) Bone(id int) *Bone {
	b, ok := s.bones[id]
	if !ok {
		panic(fmt.Sprintf("skeleton: no bone with id %d in %q", id, s.name))
	}
	return b
}

func (s *skeleton) BoneByName(name string) *Bone {
	b, ok := s.byName[name]
	if !ok {
		panic(fmt.Sprintf("skeleton: no bone named %q in %q", name, s.name))
	}
	return b
}

func (s *skeleton) FindBone(name string) (*Bone, bool) {
	b, ok := s.byName[name]
	return b, ok
}

func (s *skeleton) HasBone(id int) bool {
	_, ok := s.bones[id]
	return ok
}

func (s *skeleton) Bones() []*Bone {
	out := make([]*Bone, 0, len(s.bones))
	for _, b := range s.bones {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (s *skeleton) RootBone() *Bone {
	if s.rootValid {
		return s.root
	}
	var root *Bone
	for _, b := range s.bones {
		if b.parent != nil {
			continue
		}
		if root != nil {
			panic(fmt.Sprintf("skeleton: %q has several parentless bones (%q, %q)", s.name, root.name, b.name))
		}
		root = b
	}
	if root == nil {
		panic(fmt.Sprintf("skeleton: %q has no root bone", s.name))
	}
	s.root = root
	s.rootValid = true
	return root
}

func (s *skeleton) AddChild(parentID, childID int) {
	parent := s.Bone(parentID)
	child := s.Bone(childID)
	if child.parent != nil {
		panic(fmt.Sprintf("skeleton: bone %q already has parent %q, use MoveChild", child.name, child.parent.name))
	}
	if parent == child || parent.isDescendantOf(child) {
		panic(fmt.Sprintf("skeleton: attaching %q under %q would create a cycle", child.name, parent.name))
	}
	child.parent = parent
	parent.children = append(parent.children, child)
	s.rootValid = false
}

func (s *skeleton) MoveChild(childID, newParentID int) {
	child := s.Bone(childID)
	parent := s.Bone(newParentID)
	if parent == child || parent.isDescendantOf(child) {
		panic(fmt.Sprintf("skeleton: moving %q under %q would create a cycle", child.name, parent.name))
	}
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = parent
	parent.children = append(parent.children, child)
	s.rootValid = false
}

func (s *skeleton) ResetToInitialPose() {
	for _, b := range s.bones {
		if b.parent == nil {
			b.ResetToInitialPose()
		}
	}
}

func (s *skeleton) CommitPose() {
	for _, b := range s.bones {
		b.commitPose()
	}
}

func (s *skeleton) TagBone(tag BoneTag, id int) {
	s.tags[tag] = s.Bone(id)
}

func (s *skeleton) UntagBone(tag BoneTag) {
	delete(s.tags, tag)
}

func (s *skeleton) TaggedBone(tag BoneTag) (*Bone, bool) {
	b, ok := s.tags[tag]
	return b, ok
}

func (s *skeleton) BoneTags(id int) []BoneTag {
	b := s.Bone(id)
	var out []BoneTag
	for tag := BoneTag(0); tag < boneTagCount; tag++ {
		if s.tags[tag] == b {
			out = append(out, tag)
		}
	}
	return out
}

func (s *skeleton) FindBoneChain(from, to BoneTag) ([]*Bone, bool) {
	start, ok := s.tags[from]
	if !ok {
		return nil, false
	}
	end, ok := s.tags[to]
	if !ok {
		return nil, false
	}

	var path []*Bone
	var dfs func(b *Bone) bool
	dfs = func(b *Bone) bool {
		path = append(path, b)
		if b == end {
			return true
		}
		for _, c := range b.children {
			if dfs(c) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}
	if !dfs(start) {
		return nil, false
	}
	return path, true
}

func (s *skeleton) AddIKSolver(name string, solver IKSolver) {
	if solver == nil {
		panic("skeleton: AddIKSolver requires a non-nil solver")
	}
	for _, ns := range s.solvers {
		if ns.name == name {
			panic(fmt.Sprintf("skeleton: IK solver %q already registered on %q", name, s.name))
		}
	}
	s.solvers = append(s.solvers, namedSolver{name: name, solver: solver})
}

func (s *skeleton) RemoveIKSolver(name string) {
	for i, ns := range s.solvers {
		if ns.name == name {
			s.solvers = append(s.solvers[:i], s.solvers[i+1:]...)
			return
		}
	}
}

func (s *skeleton) IKSolver(name string) (IKSolver, bool) {
	for _, ns := range s.solvers {
		if ns.name == name {
			return ns.solver, true
		}
	}
	return nil, false
}

func (s *skeleton) IKSolvers() []IKSolver {
	ordered := make([]namedSolver, len(s.solvers))
	copy(ordered, s.solvers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].solver.Priority() < ordered[j].solver.Priority()
	})
	out := make([]IKSolver, len(ordered))
	for i, ns := range ordered {
		out[i] = ns.solver
	}
	return out
}

func (s *skeleton) SolveIK() {
	for _, solver := range s.IKSolvers() {
		solver.Solve()
	}
}

func (s *skeleton) Situation() common.Situation {
	root := s.RootBone()
	return common.SituationFromTransform(root.WorldPosition(), root.WorldOrientation())
}

func (s *skeleton) ComputeInverseBindMatrices() {
	for _, b := range s.bones {
		b.inverseBind = b.WorldTransform().Inv()
	}
}

func (s *skeleton) SkinningPalette() []float32 {
	bones := s.Bones()
	out := make([]float32, 0, len(bones)*16)
	for _, b := range bones {
		m := b.WorldTransform().Mul4(b.inverseBind)
		for _, v := range m {
			out = append(out, float32(v))
		}
	}
	return out
}

func (s *skeleton) Clone(name string) Skeleton {
	c := NewSkeleton(name).(*skeleton)
	for _, b := range s.Bones() {
		nb := c.CreateBone(b.id, b.name)
		nb.SetInitialPose(b.initialPosition, b.initialOrientation, b.initialScale)
		nb.position = b.position
		nb.orientation = b.orientation
		nb.scale = b.scale
		nb.inverseBind = b.inverseBind
	}
	for _, b := range s.Bones() {
		nb := c.bones[b.id]
		for _, child := range b.children {
			nc := c.bones[child.id]
			nc.parent = nb
			nb.children = append(nb.children, nc)
		}
	}
	for tag, b := range s.tags {
		c.tags[tag] = c.bones[b.id]
	}
	return c
}

// PaletteBytes returns a byte view of a palette produced by SkinningPalette.
//
// Parameters:
//   - palette: the flattened matrices
//
// Returns:
//   - []byte: the shared-memory byte view
func PaletteBytes(palette []float32) []byte {
	return common.SliceToBytes(palette)
}

// WorldPositions returns the world position of every bone keyed by id.
//
// Parameters:
//   - s: the skeleton to read
//
// Returns:
//   - map[int]mgl64.Vec3: world positions by bone id
func WorldPositions(s Skeleton) map[int]mgl64.Vec3 {
	out := make(map[int]mgl64.Vec3)
	for _, b := range s.Bones() {
		out[b.ID()] = b.WorldPosition()
	}
	return out
}
