package loader

import (
	"io"
)

// loaderBackend imports an animation asset from one file format.
type loaderBackend interface {
	// Load imports the asset stored at path.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: if the file cannot be imported
	Load(path string) (*Asset, error)

	// LoadReader imports an asset from a stream.
	//
	// Parameters:
	//   - r: the stream
	//   - isGLB: true for binary data
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: if the stream cannot be imported
	LoadReader(r io.Reader, isGLB bool) (*Asset, error)
}
