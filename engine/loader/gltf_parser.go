package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.x")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
	errNoDocument         = errors.New("no document loaded")
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	baseDir        string
	document       *gltfDocument
	glbBinaryChunk []byte
}

// gltfParser loads a glTF or GLB document with its buffers and decodes accessors into
// float64 values.
type gltfParser interface {
	// Parse loads a .gltf or .glb file. GLB is detected by extension or magic number.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - error: if reading or decoding fails
	Parse(path string) error

	// ParseReader parses a document from a stream. External buffer URIs resolve against
	// the working directory.
	//
	// Parameters:
	//   - r: the stream
	//   - isGLB: true for binary GLB data
	//
	// Returns:
	//   - error: if reading or decoding fails
	ParseReader(r io.Reader, isGLB bool) error

	// Document returns the parsed document, or nil before a successful parse.
	Document() *gltfDocument

	// ReadScalars decodes a SCALAR accessor.
	ReadScalars(accessorIndex int) ([]float64, error)

	// ReadVec3s decodes a VEC3 accessor.
	ReadVec3s(accessorIndex int) ([]mgl64.Vec3, error)

	// ReadQuats decodes a VEC4 accessor of (x, y, z, w) rotations. Normalized integer
	// components are accepted.
	ReadQuats(accessorIndex int) ([]mgl64.Quat, error)

	// ReadMat4s decodes a MAT4 accessor of column-major matrices.
	ReadMat4s(accessorIndex int) ([]mgl64.Mat4, error)
}

var _ gltfParser = &gltfParserImpl{}

func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) Parse(path string) error {
	p.baseDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".glb" || (len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic) {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	if isGLB {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

func (p *gltfParserImpl) parseGLTF(data []byte) error {
	return p.decode(data)
}

// parseGLB splits a GLB container into its JSON and BIN chunks.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParserImpl) parseGLB(data []byte) error {
	if len(data) < 12 {
		return errors.New("GLB file too small")
	}
	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return errInvalidGLBVersion
	}

	var jsonData []byte
	for {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}
		body := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return fmt.Errorf("failed to read chunk data: %w", err)
		}
		switch chunk.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = body
		case gltfGLBChunkBIN:
			p.glbBinaryChunk = body
		}
	}
	if jsonData == nil {
		return errMissingJSONChunk
	}
	return p.decode(jsonData)
}

func (p *gltfParserImpl) decode(jsonData []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}
	p.document = &doc
	return nil
}

// loadBuffers fills every buffer from its URI or, for the first URI-less buffer of a GLB,
// from the BIN chunk.
func (p *gltfParserImpl) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && p.glbBinaryChunk != nil:
			buf.Data = p.glbBinaryChunk
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		default:
			data, err := p.loadBufferURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

func (p *gltfParserImpl) loadBufferURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		data, err := os.ReadFile(filepath.Join(p.baseDir, uri))
		if err != nil {
			return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
		}
		return data, nil
	}

	// data:[<mediatype>][;base64],<data>
	comma := strings.Index(uri, ",")
	if comma < 0 {
		return nil, errInvalidBufferURI
	}
	if header := uri[5:comma]; !strings.Contains(header, "base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %s", header)
	}
	data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

// readFloats decodes an accessor of the given type into count*components floats.
// Normalized integer components are mapped to [0, 1] or [-1, 1] as glTF prescribes.
func (p *gltfParserImpl) readFloats(accessorIndex int, accessorType string) ([]float64, error) {
	if p.document == nil {
		return nil, errNoDocument
	}
	doc := p.document
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}
	acc := &doc.Accessors[accessorIndex]
	if acc.Type != accessorType {
		return nil, fmt.Errorf("accessor %d is %s, want %s", accessorIndex, acc.Type, accessorType)
	}
	if acc.Sparse != nil {
		return nil, fmt.Errorf("accessor %d: sparse accessors are not supported", accessorIndex)
	}
	if acc.ComponentType != gltfComponentTypeFloat && !acc.Normalized {
		return nil, fmt.Errorf("accessor %d: component type %d is neither float nor normalized", accessorIndex, acc.ComponentType)
	}
	if acc.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no bufferView", accessorIndex)
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor %d: bufferView %d out of range", accessorIndex, *acc.BufferView)
	}
	bv := &doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("bufferView %d: buffer %d out of range", *acc.BufferView, bv.Buffer)
	}
	data := doc.Buffers[bv.Buffer].Data

	size := gltfComponentTypeSize(acc.ComponentType)
	components := gltfAccessorTypeComponentCount(acc.Type)
	if size == 0 || components == 0 {
		return nil, fmt.Errorf("accessor %d: unsupported layout %s/%d", accessorIndex, acc.Type, acc.ComponentType)
	}
	stride := size * components
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	start := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 {
		end := start + (acc.Count-1)*stride + size*components
		if end > len(data) {
			return nil, fmt.Errorf("accessor %d: %w", accessorIndex, errBufferSizeMismatch)
		}
	}

	out := make([]float64, 0, acc.Count*components)
	for i := 0; i < acc.Count; i++ {
		at := start + i*stride
		for c := 0; c < components; c++ {
			out = append(out, gltfReadComponent(data[at+c*size:], acc.ComponentType))
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadScalars(accessorIndex int) ([]float64, error) {
	return p.readFloats(accessorIndex, gltfAccessorTypeScalar)
}

func (p *gltfParserImpl) ReadVec3s(accessorIndex int) ([]mgl64.Vec3, error) {
	f, err := p.readFloats(accessorIndex, gltfAccessorTypeVec3)
	if err != nil {
		return nil, err
	}
	out := make([]mgl64.Vec3, len(f)/3)
	for i := range out {
		out[i] = mgl64.Vec3{f[3*i], f[3*i+1], f[3*i+2]}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadQuats(accessorIndex int) ([]mgl64.Quat, error) {
	f, err := p.readFloats(accessorIndex, gltfAccessorTypeVec4)
	if err != nil {
		return nil, err
	}
	out := make([]mgl64.Quat, len(f)/4)
	for i := range out {
		out[i] = gltfQuat(f[4*i], f[4*i+1], f[4*i+2], f[4*i+3])
	}
	return out, nil
}

func (p *gltfParserImpl) ReadMat4s(accessorIndex int) ([]mgl64.Mat4, error) {
	f, err := p.readFloats(accessorIndex, gltfAccessorTypeMat4)
	if err != nil {
		return nil, err
	}
	out := make([]mgl64.Mat4, len(f)/16)
	for i := range out {
		copy(out[i][:], f[16*i:16*i+16])
	}
	return out, nil
}

// gltfQuat converts glTF (x, y, z, w) order to a normalized mgl64 quaternion.
func gltfQuat(x, y, z, w float64) mgl64.Quat {
	q := mgl64.Quat{W: w, V: mgl64.Vec3{x, y, z}}
	if q.Len() < 1e-12 {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}

func gltfReadComponent(b []byte, componentType int) float64 {
	switch componentType {
	case gltfComponentTypeFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case gltfComponentTypeByte:
		return math.Max(float64(int8(b[0]))/127, -1)
	case gltfComponentTypeUnsignedByte:
		return float64(b[0]) / 255
	case gltfComponentTypeShort:
		return math.Max(float64(int16(binary.LittleEndian.Uint16(b)))/32767, -1)
	case gltfComponentTypeUnsignedShort:
		return float64(binary.LittleEndian.Uint16(b)) / 65535
	case gltfComponentTypeUnsignedInt:
		return float64(binary.LittleEndian.Uint32(b)) / math.MaxUint32
	}
	return 0
}

func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	}
	return 0
}

func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	case gltfAccessorTypeMat4:
		return 16
	}
	return 0
}
