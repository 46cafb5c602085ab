package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
)

var (
	// ErrEmptyResource is returned when a buffer or texture would be created from no bytes.
	ErrEmptyResource = errors.New("resource data is empty")
	// ErrBackendReleased is returned when a released backend is asked to create resources.
	ErrBackendReleased = errors.New("graphics backend has been released")
)

// Resource is a handle to a buffer or texture owned by a GraphicsBackend.
type Resource = model.GPUResource

// GraphicsBackend creates GPU resources for imported models.
// Calls are made from the execution context of the Executor paired with the backend.
type GraphicsBackend interface {
	// Name returns the backend identifier (e.g., "wgpu", "gl", "memory").
	//
	// Returns:
	//   - string: the backend name
	Name() string

	// CreateVertexBuffer uploads interleaved vertex data.
	//
	// Parameters:
	//   - label: a debug label for the buffer
	//   - data: the vertex bytes
	//   - stride: the distance in bytes between consecutive vertices
	//
	// Returns:
	//   - Resource: the buffer handle
	//   - error: error if the buffer cannot be created
	CreateVertexBuffer(label string, data []byte, stride int) (Resource, error)

	// CreateIndexBuffer uploads index data.
	//
	// Parameters:
	//   - label: a debug label for the buffer
	//   - data: the little-endian index bytes
	//   - width: 16 or 32 bits per index
	//
	// Returns:
	//   - Resource: the buffer handle
	//   - error: error if the buffer cannot be created
	CreateIndexBuffer(label string, data []byte, width model.IndexWidth) (Resource, error)

	// CreateTexture2D uploads a single-mip 2D texture.
	//
	// Parameters:
	//   - label: a debug label for the texture
	//   - width: width in pixels
	//   - height: height in pixels
	//   - format: the pixel layout of pixels
	//   - pixels: tightly packed pixel data
	//
	// Returns:
	//   - Resource: the texture handle
	//   - error: error if the texture cannot be created
	CreateTexture2D(label string, width, height uint32, format common.PixelFormat, pixels []byte) (Resource, error)
}
