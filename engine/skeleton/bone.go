package skeleton

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// Bone is a single rigid transform in a skeleton hierarchy. The skeleton owns every bone;
// parent and children are tree membership only. World transforms are always derived from
// the local pose chain and never stored, so they stay consistent after any local edit.
type Bone struct {
	id   int
	name string

	parent   *Bone
	children []*Bone

	position    mgl64.Vec3
	orientation mgl64.Quat
	scale       mgl64.Vec3

	initialPosition    mgl64.Vec3
	initialOrientation mgl64.Quat
	initialScale       mgl64.Vec3

	inverseBind mgl64.Mat4

	// poseWeight is the total weight composed into this bone since the last reset.
	poseWeight float64
}

func newBone(id int, name string) *Bone {
	return &Bone{
		id:                 id,
		name:               name,
		orientation:        mgl64.QuatIdent(),
		scale:              mgl64.Vec3{1, 1, 1},
		initialOrientation: mgl64.QuatIdent(),
		initialScale:       mgl64.Vec3{1, 1, 1},
		inverseBind:        mgl64.Ident4(),
	}
}

func (b *Bone) ID() int {
	return b.id
}

func (b *Bone) Name() string {
	return b.name
}

// Parent returns the parent bone, or nil for the root.
func (b *Bone) Parent() *Bone {
	return b.parent
}

// Children returns the ordered child bones. The slice must not be modified.
func (b *Bone) Children() []*Bone {
	return b.children
}

func (b *Bone) Position() mgl64.Vec3 {
	return b.position
}

func (b *Bone) SetPosition(p mgl64.Vec3) {
	b.position = p
}

func (b *Bone) Orientation() mgl64.Quat {
	return b.orientation
}

func (b *Bone) SetOrientation(q mgl64.Quat) {
	b.orientation = q.Normalize()
}

func (b *Bone) Scale() mgl64.Vec3 {
	return b.scale
}

func (b *Bone) SetScale(s mgl64.Vec3) {
	b.scale = s
}

func (b *Bone) InitialPosition() mgl64.Vec3 {
	return b.initialPosition
}

func (b *Bone) InitialOrientation() mgl64.Quat {
	return b.initialOrientation
}

func (b *Bone) InitialScale() mgl64.Vec3 {
	return b.initialScale
}

// SetInitialPose sets the bind pose and also moves the current pose onto it.
//
// Parameters:
//   - pos: bind position relative to the parent
//   - rot: bind orientation relative to the parent
//   - scale: bind scale
func (b *Bone) SetInitialPose(pos mgl64.Vec3, rot mgl64.Quat, scale mgl64.Vec3) {
	b.initialPosition = pos
	b.initialOrientation = rot.Normalize()
	b.initialScale = scale
	b.position = b.initialPosition
	b.orientation = b.initialOrientation
	b.scale = b.initialScale
}

// InverseBindMatrix returns the matrix that maps model space into this bone's bind space.
func (b *Bone) InverseBindMatrix() mgl64.Mat4 {
	return b.inverseBind
}

func (b *Bone) SetInverseBindMatrix(m mgl64.Mat4) {
	b.inverseBind = m
}

// ResetToInitialPose restores the bind pose of this bone and all of its descendants.
func (b *Bone) ResetToInitialPose() {
	b.position = b.initialPosition
	b.orientation = b.initialOrientation
	b.scale = b.initialScale
	b.poseWeight = 0
	for _, c := range b.children {
		c.ResetToInitialPose()
	}
}

// LocalTransform returns T * R * S of the current local pose.
func (b *Bone) LocalTransform() mgl64.Mat4 {
	return common.TRS(b.position, b.orientation, b.scale)
}

// WorldTransform composes the parent's world transform with the local transform.
// The root's world transform equals its local transform.
func (b *Bone) WorldTransform() mgl64.Mat4 {
	if b.parent == nil {
		return b.LocalTransform()
	}
	return b.parent.WorldTransform().Mul4(b.LocalTransform())
}

func (b *Bone) WorldPosition() mgl64.Vec3 {
	return b.WorldTransform().Col(3).Vec3()
}

// WorldOrientation chains the local orientations from the root down to this bone.
func (b *Bone) WorldOrientation() mgl64.Quat {
	if b.parent == nil {
		return b.orientation
	}
	return b.parent.WorldOrientation().Mul(b.orientation).Normalize()
}

// WorldScale is the component-wise product of the scales along the chain.
func (b *Bone) WorldScale() mgl64.Vec3 {
	if b.parent == nil {
		return b.scale
	}
	ps := b.parent.WorldScale()
	return mgl64.Vec3{ps.X() * b.scale.X(), ps.Y() * b.scale.Y(), ps.Z() * b.scale.Z()}
}

// SetWorldOrientation sets the local orientation so that the world orientation becomes q.
//
// Parameters:
//   - q: the desired world orientation
func (b *Bone) SetWorldOrientation(q mgl64.Quat) {
	if b.parent == nil {
		b.SetOrientation(q)
		return
	}
	b.SetOrientation(b.parent.WorldOrientation().Inverse().Mul(q))
}

// SetWorldPosition sets the local position so that the world position becomes p.
//
// Parameters:
//   - p: the desired world position
func (b *Bone) SetWorldPosition(p mgl64.Vec3) {
	if b.parent == nil {
		b.position = p
		return
	}
	inv := b.parent.WorldTransform().Inv()
	b.position = inv.Mul4x1(p.Vec4(1)).Vec3()
}

// PoseWeight returns the total animation weight composed into the bone since the last reset.
func (b *Bone) PoseWeight() float64 {
	return b.poseWeight
}

// BlendPose composes a sampled local pose into the bone with the given weight. Successive
// calls keep a running weighted average, so applying poses with weights w1..wn yields
// their weighted mean regardless of call order for positions and scales (orientations are
// chained slerps). A zero weight is ignored.
//
// Parameters:
//   - pos: sampled local position
//   - rot: sampled local orientation
//   - scale: sampled local scale
//   - weight: contribution weight
func (b *Bone) BlendPose(pos mgl64.Vec3, rot mgl64.Quat, scale mgl64.Vec3, weight float64) {
	if weight == 0 {
		return
	}
	total := b.poseWeight + weight
	if b.poseWeight == 0 || total == 0 {
		b.position = pos
		b.orientation = rot.Normalize()
		b.scale = scale
	} else {
		t := weight / total
		b.position = common.LerpVec3(b.position, pos, t)
		b.orientation = common.Slerp(b.orientation, rot, t).Normalize()
		b.scale = common.LerpVec3(b.scale, scale, t)
	}
	b.poseWeight = total
}

// commitPose eases partially covered bones back toward the bind pose by the missing weight.
func (b *Bone) commitPose() {
	if b.poseWeight <= 0 || b.poseWeight >= 1 {
		return
	}
	w := b.poseWeight
	b.position = common.LerpVec3(b.initialPosition, b.position, w)
	b.orientation = common.Slerp(b.initialOrientation, b.orientation, w).Normalize()
	b.scale = common.LerpVec3(b.initialScale, b.scale, w)
}

func (b *Bone) isDescendantOf(other *Bone) bool {
	for p := b.parent; p != nil; p = p.parent {
		if p == other {
			return true
		}
	}
	return false
}

func (b *Bone) removeChild(c *Bone) {
	for i, cc := range b.children {
		if cc == c {
			b.children = append(b.children[:i], b.children[i+1:]...)
			return
		}
	}
}
