package skeleton

// BoneTag is a semantic label attached to a bone so that solvers and adaptors can find
// anatomical landmarks without knowing rig-specific bone names. A tag maps to at most one
// bone; a bone may carry several tags.
type BoneTag int

const (
	BoneTagRoot BoneTag = iota
	BoneTagPelvis
	BoneTagSpine
	BoneTagChest
	BoneTagNeck
	BoneTagHead
	BoneTagLeftShoulder
	BoneTagLeftElbow
	BoneTagLeftWrist
	BoneTagRightShoulder
	BoneTagRightElbow
	BoneTagRightWrist
	BoneTagLeftHip
	BoneTagLeftKnee
	BoneTagLeftAnkle
	BoneTagLeftToe
	BoneTagRightHip
	BoneTagRightKnee
	BoneTagRightAnkle
	BoneTagRightToe

	boneTagCount
)

var boneTagNames = [boneTagCount]string{
	"root", "pelvis", "spine", "chest", "neck", "head",
	"left_shoulder", "left_elbow", "left_wrist",
	"right_shoulder", "right_elbow", "right_wrist",
	"left_hip", "left_knee", "left_ankle", "left_toe",
	"right_hip", "right_knee", "right_ankle", "right_toe",
}

// String returns the snake_case name used in definitions and logs.
func (t BoneTag) String() string {
	if t < 0 || t >= boneTagCount {
		return "unknown"
	}
	return boneTagNames[t]
}

// ParseBoneTag resolves a tag from its snake_case name.
//
// Parameters:
//   - name: the tag name, e.g. "left_wrist"
//
// Returns:
//   - BoneTag: the parsed tag
//   - bool: false if the name is not a known tag
func ParseBoneTag(name string) (BoneTag, bool) {
	for i, n := range boneTagNames {
		if n == name {
			return BoneTag(i), true
		}
	}
	return 0, false
}

// EndEffectorTags are the limb tips tracked by retargeting.
var EndEffectorTags = []BoneTag{
	BoneTagLeftWrist,
	BoneTagRightWrist,
	BoneTagLeftAnkle,
	BoneTagRightAnkle,
}
