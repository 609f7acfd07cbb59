package animation

import "fmt"

type mixerNode struct {
	node

	// layers maps child id to its layer weight; missing children weigh 1.
	layers map[int]float64
}

// MixerNode passes time through to every child and layers their poses, each scaled by a
// per-child layer weight. Combined with bone masks it drives partial-body layering.
type MixerNode interface {
	Node

	// LayerWeight returns the layer weight of a child, 1 by default.
	//
	// Parameters:
	//   - child: one of this node's children
	//
	// Returns:
	//   - float64: the weight
	LayerWeight(child Node) float64

	// SetLayerWeight sets the layer weight of a child.
	//
	// Parameters:
	//   - child: one of this node's children
	//   - w: the weight
	SetLayerWeight(child Node, w float64)
}

var _ MixerNode = &mixerNode{}

func newMixerNode(t *tree, id int, name string) *mixerNode {
	n := &mixerNode{layers: make(map[int]float64)}
	n.init(n, t, id, name, KindMixer)
	return n
}

func (n *mixerNode) LayerWeight(child Node) float64 {
	if w, ok := n.layers[child.ID()]; ok {
		return w
	}
	return 1
}

func (n *mixerNode) SetLayerWeight(child Node, w float64) {
	if child.Parent() != Node(n) {
		panic(fmt.Sprintf("animation: %q is not a child of %q", child.Name(), n.name))
	}
	n.layers[child.ID()] = w
}

func (n *mixerNode) RemoveChild(child Node) {
	n.node.RemoveChild(child)
	delete(n.layers, child.ID())
}

func (n *mixerNode) applyNode(weight float64, mask BoneMask) {
	for _, c := range n.children {
		w := weight * n.LayerWeight(c)
		if w == 0 {
			continue
		}
		c.Apply(w, mask)
	}
}

func (n *mixerNode) cloneInto(dst Node, resolve func(Node) Node) {
	n.node.cloneInto(dst, resolve)
	d := dst.(*mixerNode)
	d.layers = make(map[int]float64, len(n.layers))
	for id, w := range n.layers {
		d.layers[id] = w
	}
}
