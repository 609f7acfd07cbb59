// Package loader imports skeletons and animation clips from model files and caches them by
// path or name.
package loader

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/engine/clip"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// Asset is the animation content of one model file. Skeleton is nil for files without a
// skin. Assets are shared between characters: the skeleton serves as a template for
// instances and the clips are read-only.
type Asset struct {
	Name     string
	Skeleton skeleton.Skeleton
	Clips    []*clip.Clip
}

// Clip looks a clip up by name.
//
// Parameters:
//   - name: the clip name
//
// Returns:
//   - *clip.Clip: the clip, or nil
//   - bool: false if the asset has no clip with that name
func (a *Asset) Clip(name string) (*clip.Clip, bool) {
	for _, c := range a.Clips {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ClipMap returns the clips keyed by name, the shape tree definitions resolve against.
func (a *Asset) ClipMap() map[string]*clip.Clip {
	m := make(map[string]*clip.Clip, len(a.Clips))
	for _, c := range a.Clips {
		m[c.Name] = c
	}
	return m
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	assetCache map[string]*Asset

	skin    int
	backend loaderBackend
}

// Loader imports animation assets and caches them. The file format is hidden behind a
// backend selected at construction.
type Loader interface {
	// Load imports a model file, or returns the cached asset for the same path.
	//
	// Parameters:
	//   - path: the model file path
	//
	// Returns:
	//   - *Asset: the asset
	//   - error: if the format is unsupported or the import fails
	Load(path string) (*Asset, error)

	// LoadReader imports an asset from a stream and caches it under name.
	//
	// Parameters:
	//   - name: the cache key
	//   - r: the stream
	//   - isGLB: true for binary GLB data
	//
	// Returns:
	//   - *Asset: the asset
	//   - error: if the import fails
	LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error)

	// Get returns a cached asset, or nil.
	Get(name string) *Asset

	// Assets returns a copy of the cache.
	Assets() map[string]*Asset
}

var _ Loader = &loader{}

// NewLoader creates a Loader for a backend type.
//
// Parameters:
//   - backendType: the file format backend
//   - options: variadic list of LoaderBuilderOption functions
//
// Returns:
//   - Loader: the loader
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		assetCache: make(map[string]*Asset),
		skin:       -1,
	}
	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(l.skin)
	default:
		panic(fmt.Sprintf("loader: unknown backend type %d", backendType))
	}
	return l
}

func (l *loader) Load(path string) (*Asset, error) {
	l.mu.RLock()
	if cached, ok := l.assetCache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}
	asset, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	l.store(path, asset)
	return asset, nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error) {
	l.mu.RLock()
	if cached, ok := l.assetCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	asset, err := l.backend.LoadReader(r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	l.store(name, asset)
	return asset, nil
}

func (l *loader) store(key string, asset *Asset) {
	bones := 0
	if asset.Skeleton != nil {
		bones = len(asset.Skeleton.Bones())
	}
	log.Printf("[Loader] loaded %q: %d bones, %d clips", asset.Name, bones, len(asset.Clips))

	l.mu.Lock()
	l.assetCache[key] = asset
	l.mu.Unlock()
}

func (l *loader) Get(name string) *Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.assetCache[name]
}

func (l *loader) Assets() map[string]*Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Asset, len(l.assetCache))
	for k, v := range l.assetCache {
		result[k] = v
	}
	return result
}

func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported model format: %s", ext)
	}
}
