package skeleton

import (
	"github.com/go-gl/mathgl/mgl64"
)

// SkeletonBuilderOption is a functional option for configuring a Skeleton.
// Use the With* functions to create options.
type SkeletonBuilderOption func(s *skeleton)

// BoneSpec describes one bone for WithBones. A negative Parent marks the root.
type BoneSpec struct {
	ID          int
	Name        string
	Parent      int
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Scale       mgl64.Vec3
}

// WithBones creates bones in order and links each one to its parent. Parents must be
// listed before their children. A zero orientation defaults to identity and a zero scale
// to unit scale.
//
// Parameters:
//   - specs: the bones to create
//
// Returns:
//   - SkeletonBuilderOption: option function to apply
func WithBones(specs ...BoneSpec) SkeletonBuilderOption {
	return func(s *skeleton) {
		for _, spec := range specs {
			b := s.CreateBone(spec.ID, spec.Name)
			rot := spec.Orientation
			if rot == (mgl64.Quat{}) {
				rot = mgl64.QuatIdent()
			}
			scale := spec.Scale
			if scale == (mgl64.Vec3{}) {
				scale = mgl64.Vec3{1, 1, 1}
			}
			b.SetInitialPose(spec.Position, rot, scale)
			if spec.Parent >= 0 {
				s.AddChild(spec.Parent, spec.ID)
			}
		}
	}
}

// WithTags tags bones by name. Unknown bone names panic.
//
// Parameters:
//   - tags: map of tag to bone name
//
// Returns:
//   - SkeletonBuilderOption: option function to apply
func WithTags(tags map[BoneTag]string) SkeletonBuilderOption {
	return func(s *skeleton) {
		for tag, name := range tags {
			s.TagBone(tag, s.BoneByName(name).id)
		}
	}
}

// WithBindMatrices computes inverse bind matrices from the bind pose once all bones exist.
// Place it after WithBones.
//
// Returns:
//   - SkeletonBuilderOption: option function to apply
func WithBindMatrices() SkeletonBuilderOption {
	return func(s *skeleton) {
		s.ComputeInverseBindMatrices()
	}
}
