package loader

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var errInvalidDataURI = errors.New("invalid data URI")

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	container *Container
	baseDir   string
	document  *gltfDocument
	buffers   [][]byte
	accessors map[int]*accessorView
}

// gltfParser decodes the JSON chunk of a container and gives bounds-checked access to its
// buffers and accessors. A parser belongs to one import session.
type gltfParser interface {
	// Parse decodes the JSON chunk, checks the asset version and loads every buffer.
	//
	// Returns:
	//   - error: ErrUnsupportedVersion, ErrMissingChunk, or a decode error
	Parse() error

	// Document returns the decoded document, nil before Parse succeeds.
	//
	// Returns:
	//   - *gltfDocument: the document
	Document() *gltfDocument

	// Accessor returns the validated view of an accessor. Views are built once per index.
	//
	// Parameters:
	//   - index: the accessor index
	//
	// Returns:
	//   - *accessorView: the view
	//   - error: ErrInvalidReference, ErrUnsupportedAccessorFormat or ErrAccessorOutOfRange
	Accessor(index int) (*accessorView, error)

	// BufferView returns the bytes of a buffer view.
	//
	// Parameters:
	//   - index: the buffer view index
	//
	// Returns:
	//   - []byte: the view's bytes, aliasing the buffer
	//   - error: ErrInvalidReference or ErrAccessorOutOfRange
	BufferView(index int) ([]byte, error)

	// ReadURI loads a data: URI or a file relative to the base directory.
	//
	// Parameters:
	//   - uri: the URI
	//
	// Returns:
	//   - []byte: the payload
	//   - error: error if the URI cannot be decoded or read
	ReadURI(uri string) ([]byte, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a parser over a parsed container.
//
// Parameters:
//   - container: the GLB payloads
//   - baseDir: the directory external URIs resolve against, "" to disallow external files
//
// Returns:
//   - gltfParser: the parser
func newGLTFParser(container *Container, baseDir string) gltfParser {
	return &gltfParserImpl{
		container: container,
		baseDir:   baseDir,
		accessors: make(map[int]*accessorView),
	}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) Parse() error {
	var doc gltfDocument
	if err := json.Unmarshal(p.container.JSON, &doc); err != nil {
		return fmt.Errorf("failed to decode glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return fmt.Errorf("%w: asset version %q", ErrUnsupportedVersion, doc.Asset.Version)
	}
	p.document = &doc

	if err := p.loadBuffers(); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}
	return nil
}

// loadBuffers resolves every buffer: the first URI-less buffer is the BIN chunk, others come from URIs.
func (p *gltfParserImpl) loadBuffers() error {
	p.buffers = make([][]byte, len(p.document.Buffers))
	for i, buf := range p.document.Buffers {
		var data []byte
		if buf.URI == "" {
			if i != 0 || p.container.BIN == nil {
				return fmt.Errorf("buffer %d has no URI: %w", i, ErrMissingChunk)
			}
			data = p.container.BIN
		} else {
			var err error
			if data, err = p.ReadURI(buf.URI); err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
		}

		if len(data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: declares %d bytes, has %d: %w", i, buf.ByteLength, len(data), ErrMalformedChunk)
		}
		p.buffers[i] = data[:buf.ByteLength:buf.ByteLength]
	}
	return nil
}

func (p *gltfParserImpl) ReadURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		return decodeDataURI(uri)
	}
	if p.baseDir == "" {
		return nil, fmt.Errorf("external URI %q without a base directory: %w", uri, ErrInvalidReference)
	}

	data, err := os.ReadFile(filepath.Join(p.baseDir, filepath.FromSlash(uri)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", uri, err)
	}
	return data, nil
}

// decodeDataURI decodes a base64 data URI of the form data:[<mediatype>];base64,<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errInvalidDataURI
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: unsupported encoding %q", errInvalidDataURI, header)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidDataURI, err)
	}
	return data, nil
}

func (p *gltfParserImpl) Accessor(index int) (*accessorView, error) {
	if v, ok := p.accessors[index]; ok {
		return v, nil
	}
	v, err := newAccessorView(p.document, p.buffers, index)
	if err != nil {
		return nil, err
	}
	p.accessors[index] = v
	return v, nil
}

func (p *gltfParserImpl) BufferView(index int) ([]byte, error) {
	doc := p.document
	if index < 0 || index >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d: %w", index, ErrInvalidReference)
	}
	view := &doc.BufferViews[index]
	if view.Buffer < 0 || view.Buffer >= len(p.buffers) {
		return nil, fmt.Errorf("buffer view %d: buffer %d: %w", index, view.Buffer, ErrInvalidReference)
	}
	buf := p.buffers[view.Buffer]
	if view.ByteOffset < 0 || view.ByteLength < 0 || view.ByteOffset+view.ByteLength > len(buf) {
		return nil, fmt.Errorf("buffer view %d: %w", index, ErrAccessorOutOfRange)
	}
	return buf[view.ByteOffset : view.ByteOffset+view.ByteLength], nil
}
