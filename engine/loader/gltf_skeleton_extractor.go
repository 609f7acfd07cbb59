package loader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

// gltfSkeletonExtractorImpl is the implementation of the gltfSkeletonExtractor interface.
type gltfSkeletonExtractorImpl struct {
	parser gltfParser
}

// gltfSkeletonExtractor converts glTF skins into skeletons. Bone ids follow a breadth-first
// order from the root so parents always have smaller ids than their children.
type gltfSkeletonExtractor interface {
	// ExtractSkeleton builds the skeleton of a skin.
	//
	// Parameters:
	//   - skinIndex: the skin to extract
	//   - name: the skeleton name
	//
	// Returns:
	//   - skeleton.Skeleton: the skeleton in its bind pose
	//   - map[int]string: glTF node index to bone name, for binding animation channels
	//   - error: if the skin is malformed
	ExtractSkeleton(skinIndex int, name string) (skeleton.Skeleton, map[int]string, error)
}

var _ gltfSkeletonExtractor = &gltfSkeletonExtractorImpl{}

func newGLTFSkeletonExtractor(parser gltfParser) gltfSkeletonExtractor {
	return &gltfSkeletonExtractorImpl{parser: parser}
}

func (e *gltfSkeletonExtractorImpl) ExtractSkeleton(skinIndex int, name string) (skeleton.Skeleton, map[int]string, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, nil, errNoDocument
	}
	if skinIndex < 0 || skinIndex >= len(doc.Skins) {
		return nil, nil, fmt.Errorf("skin index %d out of range", skinIndex)
	}
	skin := &doc.Skins[skinIndex]
	if len(skin.Joints) == 0 {
		return nil, nil, fmt.Errorf("skin %d has no joints", skinIndex)
	}

	var inverseBind []mgl64.Mat4
	if skin.InverseBindMatrices != nil {
		var err error
		if inverseBind, err = e.parser.ReadMat4s(*skin.InverseBindMatrices); err != nil {
			return nil, nil, fmt.Errorf("failed to read inverse bind matrices: %w", err)
		}
	}

	isJoint := make(map[int]int, len(skin.Joints))
	for i, node := range skin.Joints {
		if node < 0 || node >= len(doc.Nodes) {
			return nil, nil, fmt.Errorf("joint %d: invalid node index %d", i, node)
		}
		isJoint[node] = i
	}

	nodeParent := make(map[int]int, len(doc.Nodes))
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			nodeParent[c] = i
		}
	}
	// a joint's bone parent is its nearest ancestor that is also a joint
	jointParent := func(node int) int {
		for p, ok := nodeParent[node]; ok; p, ok = nodeParent[p] {
			if _, joint := isJoint[p]; joint {
				return p
			}
		}
		return -1
	}

	children := make(map[int][]int)
	var roots []int
	for _, node := range skin.Joints {
		if p := jointParent(node); p >= 0 {
			children[p] = append(children[p], node)
		} else {
			roots = append(roots, node)
		}
	}

	order := make([]int, 0, len(skin.Joints))
	queue := append([]int{}, roots...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		queue = append(queue, children[n]...)
	}

	sk := skeleton.NewSkeleton(name)
	names := make(map[int]string, len(order))
	used := make(map[string]bool, len(order))
	nextID := 0

	// skins with several root joints get a synthetic root so the skeleton stays a tree
	rootID := -1
	if len(roots) > 1 {
		rootName := uniqueBoneName(name+"_root", used)
		root := sk.CreateBone(nextID, rootName)
		root.SetInitialPose(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1})
		rootID = nextID
		nextID++
	}

	ids := make(map[int]int, len(order))
	for _, node := range order {
		n := &doc.Nodes[node]
		boneName := n.Name
		if boneName == "" {
			boneName = fmt.Sprintf("bone_%d", isJoint[node])
		}
		boneName = uniqueBoneName(boneName, used)

		b := sk.CreateBone(nextID, boneName)
		pos, rot, scale := gltfNodeTRS(n)
		b.SetInitialPose(pos, rot, scale)
		if j := isJoint[node]; j < len(inverseBind) {
			b.SetInverseBindMatrix(inverseBind[j])
		}

		if p := jointParent(node); p >= 0 {
			sk.AddChild(ids[p], nextID)
		} else if rootID >= 0 {
			sk.AddChild(rootID, nextID)
		}
		ids[node] = nextID
		names[node] = boneName
		nextID++
	}

	sk.ResetToInitialPose()
	if inverseBind == nil {
		sk.ComputeInverseBindMatrices()
	}
	return sk, names, nil
}

func uniqueBoneName(name string, used map[string]bool) string {
	candidate := name
	for i := 1; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s_%d", name, i)
	}
	used[candidate] = true
	return candidate
}

// gltfNodeTRS returns the node's local transform, decomposing a matrix when one is given.
func gltfNodeTRS(n *gltfNode) (mgl64.Vec3, mgl64.Quat, mgl64.Vec3) {
	if n.Matrix != nil {
		return gltfDecomposeMatrix(mgl64.Mat4(*n.Matrix))
	}
	pos := mgl64.Vec3{}
	rot := mgl64.QuatIdent()
	scale := mgl64.Vec3{1, 1, 1}
	if n.Translation != nil {
		pos = mgl64.Vec3(*n.Translation)
	}
	if n.Rotation != nil {
		r := *n.Rotation
		rot = gltfQuat(r[0], r[1], r[2], r[3])
	}
	if n.Scale != nil {
		scale = mgl64.Vec3(*n.Scale)
	}
	return pos, rot, scale
}

// gltfDecomposeMatrix splits a column-major matrix without shear into TRS.
func gltfDecomposeMatrix(m mgl64.Mat4) (mgl64.Vec3, mgl64.Quat, mgl64.Vec3) {
	pos := m.Col(3).Vec3()
	scale := mgl64.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}

	r := mgl64.Ident4()
	for c := 0; c < 3; c++ {
		s := scale[c]
		if s < 1e-4 {
			s = 1
		}
		r.SetCol(c, m.Col(c).Vec3().Mul(1/s).Vec4(0))
	}
	return pos, mgl64.Mat4ToQuat(r).Normalize(), scale
}
