package renderer

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// ErrNoAdapter is returned when a Renderer is created on a backend that was given a device
// without the adapter needed to query surface capabilities.
var ErrNoAdapter = errors.New("renderer requires a backend with an adapter")

// drawUniformSize is the byte size of the Draw uniform: mvp, world and color.
const drawUniformSize = 16*4 + 16*4 + 4*4

const previewShaderSource = `
struct Draw {
	mvp : mat4x4<f32>,
	world : mat4x4<f32>,
	color : vec4<f32>,
};

@group(0) @binding(0) var<uniform> draw : Draw;

struct VertexOut {
	@builtin(position) position : vec4<f32>,
	@location(0) world : vec3<f32>,
};

@vertex
fn vs_main(@location(0) position : vec3<f32>) -> VertexOut {
	var out : VertexOut;
	out.position = draw.mvp * vec4<f32>(position, 1.0);
	out.world = (draw.world * vec4<f32>(position, 1.0)).xyz;
	return out;
}

@fragment
fn fs_main(in : VertexOut) -> @location(0) vec4<f32> {
	let c = cross(dpdx(in.world), dpdy(in.world));
	var light = 1.0;
	if (length(c) > 0.0) {
		light = 0.35 + 0.65 * abs(dot(normalize(c), normalize(vec3<f32>(0.4, 0.8, 0.6))));
	}
	return vec4<f32>(draw.color.rgb * light, draw.color.a);
}
`

// pipelineKey identifies the render state of a draw; draws with equal keys share a pipeline.
type pipelineKey struct {
	stride      uint64
	offset      uint64
	topology    wgpu.PrimitiveTopology
	stripFormat wgpu.IndexFormat
	frontFace   wgpu.FrontFace
	cullMode    wgpu.CullMode
	blend       bool
}

// drawItem is one primitive instance placed by a node.
type drawItem struct {
	label       string
	key         pipelineKey
	vertex      *wgpu.Buffer
	index       *wgpu.Buffer
	indexFormat wgpu.IndexFormat
	indexCount  uint32
	world       mgl32.Mat4
	color       [4]float32
	transparent bool

	uniform   *wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backend WGPUBackend
	surface *wgpu.Surface
	logger  *zap.Logger

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount
	clearColor    wgpu.Color
	width         int
	height        int

	msaaTexture  *wgpu.Texture
	msaaView     *wgpu.TextureView
	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	shader          *wgpu.ShaderModule
	bindGroupLayout *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout
	pipelineCache   map[pipelineKey]*wgpu.RenderPipeline

	draws []*drawItem
}

// Renderer draws imported models onto a window surface with a flat-shaded preview pipeline.
// All methods must be called from the goroutine that owns the device.
type Renderer interface {
	// Resize reconfigures the surface and its depth and MSAA targets.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetModel replaces the drawn model. Primitives without an uploaded float3 POSITION stream
	// and index buffer are skipped. A nil model clears the draw list.
	//
	// Parameters:
	//   - m: the model, uploaded with this renderer's backend
	//
	// Returns:
	//   - error: an error if a pipeline or uniform buffer could not be created
	SetModel(m model.Model) error

	// DrawCount returns the number of primitive instances drawn each frame.
	//
	// Returns:
	//   - int: the draw count
	DrawCount() int

	// Render clears the surface, draws the model and presents the frame.
	//
	// Parameters:
	//   - viewProjection: the camera's projection * view matrix
	//
	// Returns:
	//   - error: an error if the surface texture could not be acquired
	Render(viewProjection mgl32.Mat4) error

	// Release frees the draw list, pipelines and surface targets. The backend is not released.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer that presents to surface using backend's device.
//
// Parameters:
//   - backend: a WGPUBackend created WithSurface for the same surface
//   - surface: the window surface
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - options: a variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the renderer
//   - error: ErrNoAdapter, or an error if the preview shader could not be created
func NewRenderer(backend WGPUBackend, surface *wgpu.Surface, width, height int, options ...RendererBuilderOption) (Renderer, error) {
	if backend.Adapter() == nil {
		return nil, ErrNoAdapter
	}

	r := &renderer{
		mu:            &sync.Mutex{},
		backend:       backend,
		surface:       surface,
		logger:        zap.NewNop(),
		presentMode:   wgpu.PresentModeFifo,
		sampleCount:   MSAA4x,
		clearColor:    wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		pipelineCache: make(map[pipelineKey]*wgpu.RenderPipeline),
	}
	for _, option := range options {
		option(r)
	}

	device := backend.Device()

	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "Preview Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: previewShaderSource,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create preview shader: %w", err)
	}
	r.shader = shader

	r.bindGroupLayout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Preview Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: drawUniformSize,
				},
			},
		},
	})
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("failed to create bind group layout: %w", err)
	}

	r.pipelineLayout, err = device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Preview Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.bindGroupLayout},
	})
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	r.Resize(width, height)
	return r, nil
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Minimized windows report a zero framebuffer; keep the previous configuration.
	if width <= 0 || height <= 0 {
		return
	}
	r.width, r.height = width, height

	adapter, device := r.backend.Adapter(), r.backend.Device()
	capabilities := r.surface.GetCapabilities(adapter)
	r.surfaceFormat = capabilities.Formats[0]

	r.surface.Configure(adapter, device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      r.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: r.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	r.releaseTargets()

	size := wgpu.Extent3D{
		Width:              uint32(width),
		Height:             uint32(height),
		DepthOrArrayLayers: 1,
	}
	count := uint32(r.sampleCount)

	if count > 1 {
		tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        r.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			r.logger.Error("failed to create MSAA texture", zap.Error(err))
			return
		}
		r.msaaTexture = tex
		if r.msaaView, err = tex.CreateView(nil); err != nil {
			r.logger.Error("failed to create MSAA view", zap.Error(err))
			return
		}
	}

	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		r.logger.Error("failed to create depth texture", zap.Error(err))
		return
	}
	r.depthTexture = tex
	if r.depthView, err = tex.CreateView(nil); err != nil {
		r.logger.Error("failed to create depth view", zap.Error(err))
	}
}

func (r *renderer) SetModel(m model.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseDraws()
	if m == nil {
		return nil
	}

	materials := m.MaterialDescriptions()
	for _, node := range m.AllNodes() {
		if node.Mesh == nil {
			continue
		}
		world := node.WorldMatrix()
		for i, p := range node.Mesh.Primitives {
			label := fmt.Sprintf("%s/%s/%d", m.Name(), node.Mesh.Name, i)
			item, ok := r.newDrawItem(label, p, world, materials)
			if !ok {
				continue
			}
			if err := r.prepareDraw(item); err != nil {
				r.releaseDraws()
				return fmt.Errorf("draw %s: %w", label, err)
			}
			r.draws = append(r.draws, item)
		}
	}

	// Opaque draws first so blended draws composite over them.
	sort.SliceStable(r.draws, func(i, j int) bool {
		return !r.draws[i].transparent && r.draws[j].transparent
	})

	r.logger.Debug("model prepared for preview",
		zap.String("model", m.Name()),
		zap.Int("draws", len(r.draws)),
		zap.Int("pipelines", len(r.pipelineCache)))
	return nil
}

// newDrawItem extracts the buffers and render state of a primitive. It reports false for
// primitives the preview pipeline cannot draw.
func (r *renderer) newDrawItem(label string, p *model.MeshPrimitive, world mgl32.Mat4, materials []*model.MaterialDescription) (*drawItem, bool) {
	if p.Indices == nil || p.Indices.Count == 0 {
		return nil, false
	}
	index, ok := wgpuBuffer(p.Indices.Buffer)
	if !ok {
		return nil, false
	}

	var (
		stream *model.VertexStream
		elem   model.ElementDescription
	)
	for _, s := range p.Streams {
		if e, found := s.Element(model.SemanticPosition, 0); found {
			stream, elem = s, e
			break
		}
	}
	if stream == nil || elem.Format != model.ElementFormatFloat3 {
		r.logger.Debug("primitive skipped: no float3 position", zap.String("draw", label))
		return nil, false
	}
	vertex, ok := wgpuBuffer(stream.Buffer)
	if !ok {
		return nil, false
	}

	item := &drawItem{
		label:       label,
		vertex:      vertex,
		index:       index,
		indexFormat: WGPUIndexFormat(p.Indices.Width),
		indexCount:  uint32(p.Indices.Count),
		world:       world,
		color:       [4]float32{1, 1, 1, 1},
		key: pipelineKey{
			stride:    uint64(stream.Stride),
			offset:    uint64(elem.Offset),
			topology:  WGPUTopology(p.Topology),
			frontFace: wgpu.FrontFaceCCW,
			cullMode:  wgpu.CullModeBack,
		},
	}

	switch p.Topology {
	case model.TopologyTriangleStrip, model.TopologyLineStrip:
		item.key.stripFormat = item.indexFormat
	}
	if p.Indices.FlipWinding && p.Topology == model.TopologyTriangleList {
		item.key.frontFace = wgpu.FrontFaceCW
	}

	if p.MaterialIndex >= 0 && p.MaterialIndex < len(materials) {
		mat := materials[p.MaterialIndex]
		item.color = mat.BaseColor
		if mat.DoubleSided {
			item.key.cullMode = wgpu.CullModeNone
		}
		if mat.Bucket.Transparent() {
			item.key.blend = true
			item.transparent = true
		}
	}
	if item.key.topology != wgpu.PrimitiveTopologyTriangleList && item.key.topology != wgpu.PrimitiveTopologyTriangleStrip {
		item.key.cullMode = wgpu.CullModeNone
	}
	return item, true
}

// prepareDraw creates the draw's uniform buffer, bind group and pipeline.
// Caller must hold the mutex.
func (r *renderer) prepareDraw(item *drawItem) error {
	device := r.backend.Device()

	uniform, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: item.label + " Uniform Buffer",
		Size:  drawUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	item.uniform = uniform

	item.bindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  item.label + " Bind Group",
		Layout: r.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  uniform,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		return err
	}

	_, err = r.pipeline(item.key)
	return err
}

// pipeline returns the cached pipeline for key, creating it on first use.
// Caller must hold the mutex.
func (r *renderer) pipeline(key pipelineKey) (*wgpu.RenderPipeline, error) {
	if p, ok := r.pipelineCache[key]; ok {
		return p, nil
	}

	target := wgpu.ColorTargetState{
		Format:    r.surfaceFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if key.blend {
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}

	created, err := r.backend.Device().CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("Preview Pipeline %d", len(r.pipelineCache)),
		Layout: r.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     r.shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: key.stride,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{
							Format:         wgpu.VertexFormatFloat32x3,
							Offset:         key.offset,
							ShaderLocation: 0,
						},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     r.shader,
			EntryPoint: "fs_main",
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:         key.topology,
			StripIndexFormat: key.stripFormat,
			FrontFace:        key.frontFace,
			CullMode:         key.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(r.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: !key.blend,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline: %w", err)
	}
	r.pipelineCache[key] = created
	return created, nil
}

func (r *renderer) DrawCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.draws)
}

func (r *renderer) Render(viewProjection mgl32.Mat4) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.depthView == nil {
		return nil
	}

	queue := r.backend.Queue()
	for _, item := range r.draws {
		queue.WriteBuffer(item.uniform, 0, drawUniform(viewProjection, item.world, item.color))
	}

	surfaceTexture, err := r.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	encoder, err := r.backend.Device().CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	color := wgpu.RenderPassColorAttachment{
		View:       view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: r.clearColor,
	}
	// With MSAA the pass draws into the multisampled target and resolves into the swapchain.
	if r.msaaView != nil {
		color.View = r.msaaView
		color.ResolveTarget = view
		color.StoreOp = wgpu.StoreOpDiscard
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})

	for _, item := range r.draws {
		pass.SetPipeline(r.pipelineCache[item.key])
		pass.SetBindGroup(0, item.bindGroup, nil)
		pass.SetVertexBuffer(0, item.vertex, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(item.index, item.indexFormat, 0, wgpu.WholeSize)
		pass.DrawIndexed(item.indexCount, 1, 0, 0, 0)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()

	queue.Submit(commandBuffer)
	r.surface.Present()
	return nil
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseDraws()
	r.releaseTargets()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	if r.pipelineLayout != nil {
		r.pipelineLayout.Release()
		r.pipelineLayout = nil
	}
	if r.bindGroupLayout != nil {
		r.bindGroupLayout.Release()
		r.bindGroupLayout = nil
	}
	if r.shader != nil {
		r.shader.Release()
		r.shader = nil
	}
}

// releaseDraws frees the per-draw uniforms and bind groups. Vertex and index buffers belong
// to the model. Caller must hold the mutex.
func (r *renderer) releaseDraws() {
	for _, item := range r.draws {
		if item.bindGroup != nil {
			item.bindGroup.Release()
		}
		if item.uniform != nil {
			item.uniform.Release()
		}
	}
	r.draws = nil
}

// releaseTargets frees the depth and MSAA targets. Caller must hold the mutex.
func (r *renderer) releaseTargets() {
	for _, v := range []*wgpu.TextureView{r.msaaView, r.depthView} {
		if v != nil {
			v.Release()
		}
	}
	for _, t := range []*wgpu.Texture{r.msaaTexture, r.depthTexture} {
		if t != nil {
			t.Release()
		}
	}
	r.msaaView, r.depthView = nil, nil
	r.msaaTexture, r.depthTexture = nil, nil
}

// wgpuBuffer unwraps a resource created by a WGPUBackend.
func wgpuBuffer(res model.GPUResource) (*wgpu.Buffer, bool) {
	b, ok := res.(interface{ Buffer() *wgpu.Buffer })
	if !ok || b.Buffer() == nil {
		return nil, false
	}
	return b.Buffer(), true
}

// drawUniform packs the Draw uniform in WGSL layout.
func drawUniform(viewProjection, world mgl32.Mat4, color [4]float32) []byte {
	mvp := viewProjection.Mul4(world)
	out := make([]byte, 0, drawUniformSize)
	out = appendFloats(out, mvp[:]...)
	out = appendFloats(out, world[:]...)
	return appendFloats(out, color[:]...)
}

func appendFloats(b []byte, values ...float32) []byte {
	for _, v := range values {
		bits := math32.Float32bits(v)
		b = append(b, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}
	return b
}
