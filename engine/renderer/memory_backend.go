package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
)

// ResourceKind identifies what a Resource holds.
type ResourceKind int

const (
	ResourceKindVertexBuffer ResourceKind = iota
	ResourceKindIndexBuffer
	ResourceKindTexture2D
)

// String returns a readable kind name.
func (k ResourceKind) String() string {
	switch k {
	case ResourceKindVertexBuffer:
		return "vertex-buffer"
	case ResourceKindIndexBuffer:
		return "index-buffer"
	case ResourceKindTexture2D:
		return "texture2d"
	default:
		return "unknown"
	}
}

// MemoryStats summarizes the resources a MemoryBackend holds.
type MemoryStats struct {
	// Created counts every resource created, by kind.
	Created map[ResourceKind]int
	// Live counts resources not yet released.
	Live int
	// LiveBytes sums the byte size of resources not yet released.
	LiveBytes int
}

// memoryResource is a Resource kept in host memory.
type memoryResource struct {
	backend *memoryBackendImpl
	label   string
	kind    ResourceKind
	size    int
	once    sync.Once
}

func (r *memoryResource) Label() string {
	return r.label
}

func (r *memoryResource) Release() {
	r.once.Do(func() {
		r.backend.release(r)
	})
}

// memoryBackendImpl is the implementation of the MemoryBackend interface.
type memoryBackendImpl struct {
	mu      sync.Mutex
	created map[ResourceKind]int
	live    map[*memoryResource]struct{}
}

// MemoryBackend is a GraphicsBackend that keeps resources in host memory.
// It is used for headless imports (inspection tools, servers) and for verifying
// resource lifetimes.
type MemoryBackend interface {
	GraphicsBackend

	// Stats returns a snapshot of created and live resources.
	//
	// Returns:
	//   - MemoryStats: the snapshot
	Stats() MemoryStats
}

var _ MemoryBackend = &memoryBackendImpl{}

// NewMemoryBackend creates a new MemoryBackend.
//
// Returns:
//   - MemoryBackend: an empty backend
func NewMemoryBackend() MemoryBackend {
	return &memoryBackendImpl{
		created: make(map[ResourceKind]int),
		live:    make(map[*memoryResource]struct{}),
	}
}

func (b *memoryBackendImpl) Name() string {
	return "memory"
}

func (b *memoryBackendImpl) CreateVertexBuffer(label string, data []byte, stride int) (Resource, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("vertex buffer %q: %w", label, ErrEmptyResource)
	}
	if stride <= 0 {
		return nil, fmt.Errorf("vertex buffer %q: invalid stride %d", label, stride)
	}
	return b.add(label, ResourceKindVertexBuffer, len(data)), nil
}

func (b *memoryBackendImpl) CreateIndexBuffer(label string, data []byte, width model.IndexWidth) (Resource, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("index buffer %q: %w", label, ErrEmptyResource)
	}
	if len(data)%width.Bytes() != 0 {
		return nil, fmt.Errorf("index buffer %q: %d bytes is not a multiple of %d-bit indices", label, len(data), width)
	}
	return b.add(label, ResourceKindIndexBuffer, len(data)), nil
}

func (b *memoryBackendImpl) CreateTexture2D(label string, width, height uint32, format common.PixelFormat, pixels []byte) (Resource, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("texture %q: %w", label, ErrEmptyResource)
	}
	if want := int(width) * int(height) * 4; len(pixels) != want {
		return nil, fmt.Errorf("texture %q: %s expects %d bytes, got %d", label, format, want, len(pixels))
	}
	return b.add(label, ResourceKindTexture2D, len(pixels)), nil
}

func (b *memoryBackendImpl) Stats() MemoryStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := MemoryStats{Created: make(map[ResourceKind]int, len(b.created)), Live: len(b.live)}
	for k, v := range b.created {
		stats.Created[k] = v
	}
	for r := range b.live {
		stats.LiveBytes += r.size
	}
	return stats
}

// add records a new live resource.
func (b *memoryBackendImpl) add(label string, kind ResourceKind, size int) *memoryResource {
	r := &memoryResource{backend: b, label: label, kind: kind, size: size}

	b.mu.Lock()
	b.created[kind]++
	b.live[r] = struct{}{}
	b.mu.Unlock()

	return r
}

// release forgets a live resource.
func (b *memoryBackendImpl) release(r *memoryResource) {
	b.mu.Lock()
	delete(b.live, r)
	b.mu.Unlock()
}
