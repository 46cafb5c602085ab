package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// glResource is a Resource backed by an OpenGL buffer or texture name.
type glResource struct {
	backend *glBackendImpl
	label   string
	name    uint32
	texture bool
	once    sync.Once
}

func (r *glResource) Label() string {
	return r.label
}

// Release queues the GL object for deletion; it is deleted on the next Collect
// (or resource creation) on the context thread.
func (r *glResource) Release() {
	r.once.Do(func() {
		r.backend.mu.Lock()
		r.backend.pending = append(r.backend.pending, r)
		r.backend.mu.Unlock()
	})
}

// Name returns the GL object name.
func (r *glResource) Name() uint32 {
	return r.name
}

// glBackendImpl is the implementation of the GLBackend interface.
type glBackendImpl struct {
	mu      sync.Mutex
	pending []*glResource
}

// GLBackend is a GraphicsBackend for an OpenGL 4.1 core context.
// Every method must be called on the thread that owns the current GL context; pair it with a
// ForegroundExecutor drained from that thread.
type GLBackend interface {
	GraphicsBackend

	// Collect deletes every GL object whose Resource has been released.
	//
	// Returns:
	//   - int: the number of objects deleted
	Collect() int
}

var _ GLBackend = &glBackendImpl{}

// NewGLBackend loads the GL function pointers for the current context and creates a GLBackend.
// It must be called on the context thread after the context is made current.
//
// Returns:
//   - GLBackend: the backend
//   - error: error if the GL bindings cannot be initialized
func NewGLBackend() (GLBackend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return &glBackendImpl{}, nil
}

func (b *glBackendImpl) Name() string {
	return "gl"
}

func (b *glBackendImpl) CreateVertexBuffer(label string, data []byte, stride int) (Resource, error) {
	if stride <= 0 {
		return nil, fmt.Errorf("vertex buffer %q: invalid stride %d", label, stride)
	}
	return b.createBuffer(label, gl.ARRAY_BUFFER, data)
}

func (b *glBackendImpl) CreateIndexBuffer(label string, data []byte, width model.IndexWidth) (Resource, error) {
	if len(data)%width.Bytes() != 0 {
		return nil, fmt.Errorf("index buffer %q: %d bytes is not a multiple of %d-bit indices", label, len(data), width)
	}
	return b.createBuffer(label, gl.ELEMENT_ARRAY_BUFFER, data)
}

func (b *glBackendImpl) createBuffer(label string, target uint32, data []byte) (Resource, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("buffer %q: %w", label, ErrEmptyResource)
	}
	b.Collect()

	var name uint32
	gl.GenBuffers(1, &name)
	gl.BindBuffer(target, name)
	gl.BufferData(target, len(data), gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(target, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteBuffers(1, &name)
		return nil, fmt.Errorf("buffer %q: gl error 0x%x", label, code)
	}
	return &glResource{backend: b, label: label, name: name}, nil
}

func (b *glBackendImpl) CreateTexture2D(label string, width, height uint32, format common.PixelFormat, pixels []byte) (Resource, error) {
	if width == 0 || height == 0 || len(pixels) == 0 {
		return nil, fmt.Errorf("texture %q: %w", label, ErrEmptyResource)
	}
	if want := int(width) * int(height) * 4; len(pixels) != want {
		return nil, fmt.Errorf("texture %q: expected %d bytes, got %d", label, want, len(pixels))
	}
	b.Collect()

	internal := int32(gl.RGBA8)
	if format == common.PixelFormatRGBA8UnormSrgb {
		internal = gl.SRGB8_ALPHA8
	}

	var name uint32
	gl.GenTextures(1, &name)
	gl.BindTexture(gl.TEXTURE_2D, name)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &name)
		return nil, fmt.Errorf("texture %q: gl error 0x%x", label, code)
	}
	return &glResource{backend: b, label: label, name: name, texture: true}, nil
}

func (b *glBackendImpl) Collect() int {
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, r := range pending {
		if r.texture {
			gl.DeleteTextures(1, &r.name)
		} else {
			gl.DeleteBuffers(1, &r.name)
		}
	}
	return len(pending)
}
