package animation

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/annotation"
	"github.com/Carmen-Shannon/oxy-anim/engine/clip"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

type boneBinding struct {
	bone    *skeleton.Bone
	channel *clip.Channel
	root    bool
}

// sampleNode is the implementation of the SampleNode interface.
type sampleNode struct {
	node

	clip *clip.Clip
	time float64
	loop bool

	// accumulate carries root motion across loop wraps by shifting the origin.
	accumulate bool

	bindings    []boneBinding
	boundTo     skeleton.Skeleton
	boundToClip *clip.Clip
}

// SampleNode is a leaf that plays one clip and writes its sampled pose.
type SampleNode interface {
	Node

	// Clip returns the played clip, or nil.
	Clip() *clip.Clip

	// SetClip replaces the played clip and rewinds.
	//
	// Parameters:
	//   - c: the clip
	SetClip(c *clip.Clip)

	// Loop reports whether play time wraps at the clip end.
	Loop() bool
	SetLoop(loop bool)

	// AccumulateRootMotion reports whether each loop wrap advances the origin by the
	// clip's net root displacement.
	AccumulateRootMotion() bool
	SetAccumulateRootMotion(accumulate bool)
}

var _ SampleNode = &sampleNode{}

func newSampleNode(t *tree, id int, name string) *sampleNode {
	n := &sampleNode{loop: true}
	n.init(n, t, id, name, KindSample)
	return n
}

func (n *sampleNode) Clip() *clip.Clip {
	return n.clip
}

func (n *sampleNode) SetClip(c *clip.Clip) {
	n.clip = c
	n.time = 0
	n.bindings = nil
	n.boundTo = nil
}

func (n *sampleNode) Loop() bool {
	return n.loop
}

func (n *sampleNode) SetLoop(loop bool) {
	n.loop = loop
}

func (n *sampleNode) AccumulateRootMotion() bool {
	return n.accumulate
}

func (n *sampleNode) SetAccumulateRootMotion(accumulate bool) {
	n.accumulate = accumulate
}

func (n *sampleNode) resolveMainChild() Node {
	return nil
}

func (n *sampleNode) PlayTime() float64 {
	return n.time
}

func (n *sampleNode) SetPlayTime(t float64) {
	if n.clip == nil {
		n.time = 0
		return
	}
	if n.loop {
		n.time = common.WrapTime(t, n.clip.Length)
		return
	}
	n.time = common.Clamp(t, 0, n.clip.Length)
}

func (n *sampleNode) PlayLength() float64 {
	if n.clip == nil {
		return 0
	}
	return n.clip.Length
}

func (n *sampleNode) Annotations() *annotation.Set {
	if n.clip == nil || n.clip.Annotations == nil {
		return n.annotations
	}
	return n.clip.Annotations
}

func (n *sampleNode) MotionSituation(t float64) common.Situation {
	if n.clip == nil {
		return common.IdentitySituation()
	}
	return n.clip.MotionSituation(t)
}

func (n *sampleNode) WorldSituation() common.Situation {
	return n.origin.Mul(n.MotionSituation(n.time))
}

func (n *sampleNode) updateNode(dt float64) {
	if n.clip == nil || n.clip.Length <= 0 {
		return
	}
	length := n.clip.Length
	t := n.time + dt
	if !n.loop {
		n.time = common.Clamp(t, 0, length)
		return
	}
	if n.accumulate {
		// one full cycle of root motion, applied once per wrap
		cycle := n.clip.MotionSituation(length).Mul(n.clip.MotionSituation(0).Inverse())
		for t >= length {
			n.origin = n.origin.Mul(cycle)
			t -= length
		}
		for t < 0 {
			n.origin = n.origin.Mul(cycle.Inverse())
			t += length
		}
	}
	n.time = common.WrapTime(t, length)
}

func (n *sampleNode) bind(sk skeleton.Skeleton) {
	if n.boundTo == sk && n.boundToClip == n.clip {
		return
	}
	n.bindings = n.bindings[:0]
	for _, name := range n.clip.BoneNames() {
		bone, ok := sk.FindBone(name)
		if !ok {
			continue
		}
		n.bindings = append(n.bindings, boneBinding{
			bone:    bone,
			channel: n.clip.Channels[name],
			root:    name == n.clip.RootBone,
		})
	}
	n.boundTo = sk
	n.boundToClip = n.clip
}

func (n *sampleNode) applyNode(weight float64, mask BoneMask) {
	sk := n.tree.skeleton
	if sk == nil || n.clip == nil {
		return
	}
	n.bind(sk)
	rot := n.origin.Quat()
	for _, b := range n.bindings {
		if mask.Excludes(b.bone.ID()) {
			continue
		}
		pose := b.channel.Sample(n.time, clip.LocalPose{
			Position:    b.bone.InitialPosition(),
			Orientation: b.bone.InitialOrientation(),
			Scale:       b.bone.InitialScale(),
		})
		if b.root {
			pose.Position = n.origin.TransformPoint(pose.Position)
			pose.Orientation = rot.Mul(pose.Orientation)
		}
		b.bone.BlendPose(pose.Position, pose.Orientation, pose.Scale, weight)
	}
	n.tree.totalAppliedWeight += weight
}

func (n *sampleNode) cloneInto(dst Node, resolve func(Node) Node) {
	n.node.cloneInto(dst, resolve)
	d := dst.(*sampleNode)
	d.clip = n.clip
	d.time = n.time
	d.loop = n.loop
	d.accumulate = n.accumulate
}
