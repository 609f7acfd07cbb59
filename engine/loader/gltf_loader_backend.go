package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// gltfLoaderBackendImpl is the glTF/GLB loaderBackend.
type gltfLoaderBackendImpl struct {
	// skin selects the skin to import; negative picks the skin of the first skinned node,
	// or the first skin of the document.
	skin int
}

var _ loaderBackend = &gltfLoaderBackendImpl{}

func newGLTFLoaderBackend(skin int) loaderBackend {
	return &gltfLoaderBackendImpl{skin: skin}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*Asset, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return b.importFromParser(parser, path)
}

func (b *gltfLoaderBackendImpl) LoadReader(r io.Reader, isGLB bool) (*Asset, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}
	return b.importFromParser(parser, "")
}

func (b *gltfLoaderBackendImpl) importFromParser(parser gltfParser, fallbackPath string) (*Asset, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}
	name := gltfAssetName(doc, fallbackPath)
	asset := &Asset{Name: name}

	skin := b.skin
	if skin < 0 {
		skin = gltfDefaultSkin(doc)
	}
	if skin < 0 {
		return asset, nil
	}

	sk, nodeToBone, err := newGLTFSkeletonExtractor(parser).ExtractSkeleton(skin, name)
	if err != nil {
		return nil, fmt.Errorf("skeleton extraction failed: %w", err)
	}
	asset.Skeleton = sk

	clips, err := newGLTFAnimationExtractor(parser).ExtractClips(nodeToBone, sk.RootBone().Name())
	if err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}
	asset.Clips = clips
	return asset, nil
}

// gltfDefaultSkin prefers the skin bound to a node over the document's first skin.
func gltfDefaultSkin(doc *gltfDocument) int {
	for _, n := range doc.Nodes {
		if n.Skin != nil && *n.Skin >= 0 && *n.Skin < len(doc.Skins) {
			return *n.Skin
		}
	}
	if len(doc.Skins) > 0 {
		return 0
	}
	return -1
}

func gltfAssetName(doc *gltfDocument, fallbackPath string) string {
	var sceneName, skinName, fileName string
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		sceneName = doc.Scenes[*doc.Scene].Name
	}
	for _, s := range doc.Skins {
		if s.Name != "" {
			skinName = s.Name
			break
		}
	}
	if fallbackPath != "" {
		base := filepath.Base(fallbackPath)
		fileName = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return common.Coalesce(sceneName, skinName, fileName, "unnamed_asset")
}
