package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithAsset pre-populates the cache, e.g. with a procedurally built skeleton and clips.
//
// Parameters:
//   - key: the cache key
//   - asset: the asset to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the asset option to a loader
func WithAsset(key string, asset *Asset) LoaderBuilderOption {
	return func(l *loader) {
		l.assetCache[key] = asset
	}
}

// WithSkin selects which skin of a file becomes the asset skeleton. By default the skin of
// the first skinned node is used.
//
// Parameters:
//   - index: the skin index
//
// Returns:
//   - LoaderBuilderOption: a function that applies the skin option to a loader
func WithSkin(index int) LoaderBuilderOption {
	return func(l *loader) {
		l.skin = index
	}
}
