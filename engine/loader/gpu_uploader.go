package loader

import (
	"context"
	"sync"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/Carmen-Shannon/oxy-glb/engine/renderer"
)

// gpuUploader creates GPU resources for one import session through the session's executor and
// remembers every resource it created so they can be handed to the model or released on failure.
// With no backend configured every upload is a no-op returning a nil resource.
type gpuUploader struct {
	backend  renderer.GraphicsBackend
	executor renderer.Executor

	mu        sync.Mutex
	resources []model.GPUResource
}

func newGPUUploader(backend renderer.GraphicsBackend, executor renderer.Executor) *gpuUploader {
	if executor == nil {
		executor = renderer.NewInlineExecutor()
	}
	return &gpuUploader{backend: backend, executor: executor}
}

// create runs fn on the executor and tracks the resource it returns.
func (u *gpuUploader) create(ctx context.Context, fn func() (model.GPUResource, error)) (model.GPUResource, error) {
	if u.backend == nil {
		return nil, nil
	}

	var res model.GPUResource
	err := u.executor.Run(ctx, func() error {
		r, err := fn()
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.resources = append(u.resources, res)
	u.mu.Unlock()
	return res, nil
}

func (u *gpuUploader) vertexBuffer(ctx context.Context, label string, s *model.VertexStream) (model.GPUResource, error) {
	return u.create(ctx, func() (model.GPUResource, error) {
		return u.backend.CreateVertexBuffer(label, s.Data, s.Stride)
	})
}

func (u *gpuUploader) indexBuffer(ctx context.Context, label string, ib *model.IndexBuffer) (model.GPUResource, error) {
	return u.create(ctx, func() (model.GPUResource, error) {
		return u.backend.CreateIndexBuffer(label, ib.Data, ib.Width)
	})
}

func (u *gpuUploader) texture(ctx context.Context, label string, img common.DecodedImage) (model.GPUResource, error) {
	return u.create(ctx, func() (model.GPUResource, error) {
		return u.backend.CreateTexture2D(label, img.Width, img.Height, img.Format, img.Pixels)
	})
}

// take hands ownership of every created resource to the caller.
func (u *gpuUploader) take() []model.GPUResource {
	u.mu.Lock()
	defer u.mu.Unlock()
	res := u.resources
	u.resources = nil
	return res
}

// release frees every resource still owned by the uploader.
func (u *gpuUploader) release() {
	for _, r := range u.take() {
		r.Release()
	}
}
