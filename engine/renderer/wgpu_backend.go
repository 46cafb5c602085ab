package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuResource is a Resource backed by a WebGPU buffer or texture.
type wgpuResource struct {
	label   string
	buffer  *wgpu.Buffer
	texture *wgpu.Texture
	view    *wgpu.TextureView
	once    sync.Once
}

func (r *wgpuResource) Label() string {
	return r.label
}

func (r *wgpuResource) Release() {
	r.once.Do(func() {
		if r.view != nil {
			r.view.Release()
		}
		if r.texture != nil {
			r.texture.Release()
		}
		if r.buffer != nil {
			r.buffer.Release()
		}
	})
}

// Buffer returns the underlying buffer, or nil for textures.
func (r *wgpuResource) Buffer() *wgpu.Buffer {
	return r.buffer
}

// TextureView returns the default view of the underlying texture, or nil for buffers.
func (r *wgpuResource) TextureView() *wgpu.TextureView {
	return r.view
}

// wgpuBackendImpl is the implementation of the WGPUBackend interface.
type wgpuBackendImpl struct {
	mu sync.Mutex

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	forceFallbackAdapter bool
	// owned is false when the device was supplied by the caller and must not be released here.
	owned    bool
	released bool
}

// WGPUBackend is a GraphicsBackend that uploads resources to a WebGPU device.
type WGPUBackend interface {
	GraphicsBackend

	// Device returns the WebGPU device resources are created on.
	//
	// Returns:
	//   - *wgpu.Device: the device
	Device() *wgpu.Device

	// Queue returns the queue used for uploads.
	//
	// Returns:
	//   - *wgpu.Queue: the queue
	Queue() *wgpu.Queue

	// Adapter returns the adapter the device was requested from, or nil for a supplied device.
	//
	// Returns:
	//   - *wgpu.Adapter: the adapter
	Adapter() *wgpu.Adapter

	// Release frees the device, adapter and instance if the backend created them.
	Release()
}

var _ WGPUBackend = &wgpuBackendImpl{}

// WGPUBackendOption is a functional option for configuring a WGPUBackend via NewWGPUBackend.
type WGPUBackendOption func(*wgpuBackendImpl)

// WithDevice is an option builder that makes the backend upload to an existing device.
// The backend does not release a supplied device.
//
// Parameters:
//   - device: the device
//   - queue: the device's queue
//
// Returns:
//   - WGPUBackendOption: a function that applies the device option
func WithDevice(device *wgpu.Device, queue *wgpu.Queue) WGPUBackendOption {
	return func(b *wgpuBackendImpl) {
		b.device = device
		b.queue = queue
	}
}

// WithSurface is an option builder that requests an adapter compatible with a window surface.
//
// Parameters:
//   - instance: the instance the surface was created from
//   - surface: the window surface
//
// Returns:
//   - WGPUBackendOption: a function that applies the surface option
func WithSurface(instance *wgpu.Instance, surface *wgpu.Surface) WGPUBackendOption {
	return func(b *wgpuBackendImpl) {
		b.instance = instance
		b.surface = surface
	}
}

// WithForceFallbackAdapter is an option builder that requests the software fallback adapter.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - WGPUBackendOption: a function that applies the fallback option
func WithForceFallbackAdapter(force bool) WGPUBackendOption {
	return func(b *wgpuBackendImpl) {
		b.forceFallbackAdapter = force
	}
}

// NewWGPUBackend creates a WGPUBackend. Without WithDevice it creates its own instance, adapter and device.
//
// Parameters:
//   - options: a variadic list of WGPUBackendOption functions
//
// Returns:
//   - WGPUBackend: the backend
//   - error: error if no adapter or device could be acquired
func NewWGPUBackend(options ...WGPUBackendOption) (WGPUBackend, error) {
	b := &wgpuBackendImpl{}
	for _, option := range options {
		option(b)
	}

	if b.device != nil {
		if b.queue == nil {
			b.queue = b.device.GetQueue()
		}
		return b, nil
	}

	b.owned = true
	if b.instance == nil {
		b.instance = wgpu.CreateInstance(nil)
	}

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
		PowerPreference:      wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "oxy-glb Device",
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	return b, nil
}

func (b *wgpuBackendImpl) Name() string {
	return "wgpu"
}

func (b *wgpuBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuBackendImpl) Adapter() *wgpu.Adapter {
	return b.adapter
}

func (b *wgpuBackendImpl) CreateVertexBuffer(label string, data []byte, stride int) (Resource, error) {
	if stride <= 0 {
		return nil, fmt.Errorf("vertex buffer %q: invalid stride %d", label, stride)
	}
	return b.createBuffer(label+" Vertex Buffer", data, wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst)
}

func (b *wgpuBackendImpl) CreateIndexBuffer(label string, data []byte, width model.IndexWidth) (Resource, error) {
	if len(data)%width.Bytes() != 0 {
		return nil, fmt.Errorf("index buffer %q: %d bytes is not a multiple of %d-bit indices", label, len(data), width)
	}
	return b.createBuffer(label+" Index Buffer", data, wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst)
}

// createBuffer creates a buffer and writes data into it through the queue.
// The size is rounded up to the 4-byte copy alignment WebGPU requires.
func (b *wgpuBackendImpl) createBuffer(label string, data []byte, usage wgpu.BufferUsage) (Resource, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", label, ErrEmptyResource)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return nil, ErrBackendReleased
	}

	padded := common.PadTo4(data, 0)

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             uint64(len(padded)),
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, padded)

	return &wgpuResource{label: label, buffer: buf}, nil
}

func (b *wgpuBackendImpl) CreateTexture2D(label string, width, height uint32, format common.PixelFormat, pixels []byte) (Resource, error) {
	if width == 0 || height == 0 || len(pixels) == 0 {
		return nil, fmt.Errorf("texture %q: %w", label, ErrEmptyResource)
	}
	if want := int(width) * int(height) * 4; len(pixels) != want {
		return nil, fmt.Errorf("texture %q: expected %d bytes, got %d", label, want, len(pixels))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return nil, ErrBackendReleased
	}

	texFormat := wgpu.TextureFormatRGBA8Unorm
	if format == common.PixelFormatRGBA8UnormSrgb {
		texFormat = wgpu.TextureFormatRGBA8UnormSrgb
	}

	size := wgpu.Extent3D{
		Width:              width,
		Height:             height,
		DepthOrArrayLayers: 1,
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        texFormat,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", label, err)
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&size,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create view for texture %q: %w", label, err)
	}

	return &wgpuResource{label: label, texture: tex, view: view}, nil
}

func (b *wgpuBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return
	}
	b.released = true

	if !b.owned {
		return
	}
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil && b.surface == nil {
		b.instance.Release()
	}
}
