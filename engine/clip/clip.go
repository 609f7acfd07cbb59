package clip

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/annotation"
)

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float64

	// Value is the vector at this keyframe.
	Value mgl64.Vec3
}

// QuaternionKeyframe stores a rotation at a specific time.
type QuaternionKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float64

	// Value is the rotation at this keyframe.
	Value mgl64.Quat
}

// Channel contains the keyframes animating a single bone, addressed by bone name so that
// one clip can drive any skeleton with matching names.
type Channel struct {
	// Bone is the name of the animated bone.
	Bone string

	// PositionKeys are keyframes for translation.
	PositionKeys []VectorKeyframe

	// RotationKeys are keyframes for rotation.
	RotationKeys []QuaternionKeyframe

	// ScaleKeys are keyframes for scale.
	ScaleKeys []VectorKeyframe
}

// LocalPose is a bone-local transform sampled from a channel.
type LocalPose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Scale       mgl64.Vec3
}

// Clip is a read-only keyframed animation with its annotations. Clips are shared between
// tree instances and must not be mutated once the tree using them has been built.
type Clip struct {
	// Name identifies the clip in libraries and definitions.
	Name string

	// Length is the play length in seconds.
	Length float64

	// Channels are the bone tracks keyed by bone name.
	Channels map[string]*Channel

	// Annotations are the clip's four annotation containers.
	Annotations *annotation.Set

	// RootBone names the bone whose track carries root motion.
	RootBone string
}

// NewClip creates an empty clip.
//
// Parameters:
//   - name: the clip name
//   - length: the play length in seconds
//
// Returns:
//   - *Clip: the new clip
func NewClip(name string, length float64) *Clip {
	return &Clip{
		Name:        name,
		Length:      length,
		Channels:    make(map[string]*Channel),
		Annotations: &annotation.Set{},
	}
}

// AddChannel registers a channel, replacing any channel for the same bone.
func (c *Clip) AddChannel(ch *Channel) {
	if c.Channels == nil {
		c.Channels = make(map[string]*Channel)
	}
	c.Channels[ch.Bone] = ch
}

// Channel returns the channel animating a bone.
//
// Parameters:
//   - bone: the bone name
//
// Returns:
//   - *Channel: the channel, or nil
//   - bool: false if the bone is not animated
func (c *Clip) Channel(bone string) (*Channel, bool) {
	ch, ok := c.Channels[bone]
	return ch, ok
}

// BoneNames returns the animated bone names in sorted order.
func (c *Clip) BoneNames() []string {
	names := make([]string, 0, len(c.Channels))
	for n := range c.Channels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MotionSituation projects the root channel at time t onto the ground plane.
// A clip without a root channel stays at the identity situation.
//
// Parameters:
//   - t: the clip time
//
// Returns:
//   - common.Situation: the root placement at t
func (c *Clip) MotionSituation(t float64) common.Situation {
	ch, ok := c.Channels[c.RootBone]
	if !ok {
		return common.IdentitySituation()
	}
	p := ch.Sample(t, LocalPose{Orientation: mgl64.QuatIdent(), Scale: mgl64.Vec3{1, 1, 1}})
	return common.SituationFromTransform(p.Position, p.Orientation)
}

// Validate checks that the clip can be sampled: positive length, keys in ascending
// order and inside [0, Length], and annotation intervals well ordered.
//
// Returns:
//   - error: the first problem found, or nil
func (c *Clip) Validate() error {
	if c.Length <= 0 {
		return fmt.Errorf("clip %q: non-positive length %v", c.Name, c.Length)
	}
	for _, name := range c.BoneNames() {
		ch := c.Channels[name]
		if err := checkTimes(c, name, "position", vectorTimes(ch.PositionKeys)); err != nil {
			return err
		}
		if err := checkTimes(c, name, "rotation", quaternionTimes(ch.RotationKeys)); err != nil {
			return err
		}
		if err := checkTimes(c, name, "scale", vectorTimes(ch.ScaleKeys)); err != nil {
			return err
		}
	}
	if c.Annotations != nil {
		for _, kind := range annotation.Kinds {
			for i, a := range c.Annotations.Of(kind) {
				if start, end := a.Bounds(); end < start {
					return fmt.Errorf("clip %q: %s annotation %d ends before it starts", c.Name, kind, i)
				}
			}
		}
	}
	return nil
}

func checkTimes(c *Clip, bone, path string, times []float64) error {
	const slack = 1e-6
	for i, t := range times {
		if t < -slack || t > c.Length+slack {
			return fmt.Errorf("clip %q bone %q: %s key %d at %v outside [0, %v]", c.Name, bone, path, i, t, c.Length)
		}
		if i > 0 && t < times[i-1] {
			return fmt.Errorf("clip %q bone %q: %s keys out of order at %d", c.Name, bone, path, i)
		}
	}
	return nil
}

func vectorTimes(keys []VectorKeyframe) []float64 {
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = k.Time
	}
	return out
}

func quaternionTimes(keys []QuaternionKeyframe) []float64 {
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = k.Time
	}
	return out
}
