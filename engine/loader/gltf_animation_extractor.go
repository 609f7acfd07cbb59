package loader

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-anim/engine/clip"
)

// gltfSinglePoseLength is the length given to animations whose keys all sit at time 0.
const gltfSinglePoseLength = 1.0 / 30

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
}

// gltfAnimationExtractor converts glTF animations into clips whose channels are addressed by
// bone name.
//
// STEP samplers are expanded into hold keys and CUBICSPLINE samplers keep only their key
// values, so every clip samples with linear interpolation.
type gltfAnimationExtractor interface {
	// ExtractClip converts one animation. Channels targeting nodes missing from nodeToBone
	// are skipped.
	//
	// Parameters:
	//   - animIndex: the animation index
	//   - nodeToBone: glTF node index to bone name
	//   - rootBone: the bone carrying root motion
	//
	// Returns:
	//   - *clip.Clip: the clip
	//   - error: if the animation is malformed
	ExtractClip(animIndex int, nodeToBone map[int]string, rootBone string) (*clip.Clip, error)

	// ExtractClips converts every animation that targets at least one mapped node.
	//
	// Parameters:
	//   - nodeToBone: glTF node index to bone name
	//   - rootBone: the bone carrying root motion
	//
	// Returns:
	//   - []*clip.Clip: the clips in document order
	//   - error: if an animation is malformed
	ExtractClips(nodeToBone map[int]string, rootBone string) ([]*clip.Clip, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

func newGLTFAnimationExtractor(parser gltfParser) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser}
}

func (e *gltfAnimationExtractorImpl) ExtractClip(animIndex int, nodeToBone map[int]string, rootBone string) (*clip.Clip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range", animIndex)
	}
	anim := &doc.Animations[animIndex]

	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}
	c := clip.NewClip(name, 0)
	c.RootBone = rootBone

	for i := range anim.Channels {
		ch := &anim.Channels[i]
		if ch.Target.Node == nil {
			continue
		}
		bone, ok := nodeToBone[*ch.Target.Node]
		if !ok {
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", name, i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		times, err := e.parser.ReadScalars(sampler.Input)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read times: %w", name, i, err)
		}
		if len(times) > 0 {
			c.Length = math.Max(c.Length, times[len(times)-1])
		}

		track, ok := c.Channels[bone]
		if !ok {
			track = &clip.Channel{Bone: bone}
			c.AddChannel(track)
		}

		switch ch.Target.Path {
		case gltfAnimPathTranslation, gltfAnimPathScale:
			values, err := e.parser.ReadVec3s(sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: failed to read %s: %w", name, i, ch.Target.Path, err)
			}
			values = gltfKeyValues(values, sampler.Interpolation)
			keys := make([]clip.VectorKeyframe, 0, len(times))
			for j := 0; j < len(times) && j < len(values); j++ {
				if j > 0 && sampler.Interpolation == gltfInterpolationStep {
					keys = append(keys, clip.VectorKeyframe{Time: times[j], Value: values[j-1]})
				}
				keys = append(keys, clip.VectorKeyframe{Time: times[j], Value: values[j]})
			}
			if ch.Target.Path == gltfAnimPathTranslation {
				track.PositionKeys = keys
			} else {
				track.ScaleKeys = keys
			}

		case gltfAnimPathRotation:
			values, err := e.parser.ReadQuats(sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: failed to read rotation: %w", name, i, err)
			}
			values = gltfKeyValues(values, sampler.Interpolation)
			keys := make([]clip.QuaternionKeyframe, 0, len(times))
			for j := 0; j < len(times) && j < len(values); j++ {
				if j > 0 && sampler.Interpolation == gltfInterpolationStep {
					keys = append(keys, clip.QuaternionKeyframe{Time: times[j], Value: values[j-1]})
				}
				keys = append(keys, clip.QuaternionKeyframe{Time: times[j], Value: values[j]})
			}
			track.RotationKeys = keys
		}
	}

	if c.Length <= 0 {
		c.Length = gltfSinglePoseLength
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *gltfAnimationExtractorImpl) ExtractClips(nodeToBone map[int]string, rootBone string) ([]*clip.Clip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}

	var clips []*clip.Clip
	for i := range doc.Animations {
		relevant := false
		for _, ch := range doc.Animations[i].Channels {
			if ch.Target.Node != nil {
				if _, ok := nodeToBone[*ch.Target.Node]; ok {
					relevant = true
					break
				}
			}
		}
		if !relevant {
			continue
		}
		c, err := e.ExtractClip(i, nodeToBone, rootBone)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clips = append(clips, c)
	}
	return clips, nil
}

// gltfKeyValues drops the in and out tangents of cubic spline output.
func gltfKeyValues[T any](values []T, interpolation string) []T {
	if interpolation != gltfInterpolationCubicSpline {
		return values
	}
	out := make([]T, len(values)/3)
	for i := range out {
		out[i] = values[3*i+1]
	}
	return out
}
