package main

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine"
	"github.com/Carmen-Shannon/oxy-glb/engine/camera"
	"github.com/Carmen-Shannon/oxy-glb/engine/loader"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeWindow runs the update callback until closed and records the title.
type fakeWindow struct {
	mu       sync.Mutex
	running  bool
	title    string
	onUpdate func()
	onDrop   func(paths []string)
	onKey    func(keyCode uint32)
}

func (w *fakeWindow) SetUpdateCallback(callback func()) { w.onUpdate = callback }
func (w *fakeWindow) SetResizeCallback(callback func(width, height int)) {}
func (w *fakeWindow) SetScrollCallback(callback func(delta float32)) {}
func (w *fakeWindow) SetKeyDownCallback(callback func(keyCode uint32)) { w.onKey = callback }
func (w *fakeWindow) SetDragCallback(callback func(dx, dy float32)) {}
func (w *fakeWindow) SetDropCallback(callback func(paths []string)) { w.onDrop = callback }
func (w *fakeWindow) Wake() {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) Width() int { return 800 }
func (w *fakeWindow) Height() int { return 600 }

func (w *fakeWindow) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
}

func (w *fakeWindow) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

func (w *fakeWindow) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *fakeWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
	return nil
}

func (w *fakeWindow) ProcessMessages() {
	for w.IsRunning() {
		if w.onUpdate != nil {
			w.onUpdate()
		}
		time.Sleep(time.Millisecond)
	}
}

// fakeRenderer records the model it was given.
type fakeRenderer struct {
	mu     sync.Mutex
	model  model.Model
	frames int
}

func (r *fakeRenderer) Resize(width, height int) {}
func (r *fakeRenderer) Release() {}

func (r *fakeRenderer) SetModel(m model.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.model = m
	return nil
}

func (r *fakeRenderer) Model() model.Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model
}

func (r *fakeRenderer) DrawCount() int {
	if r.Model() == nil {
		return 0
	}
	return 1
}

func (r *fakeRenderer) Render(viewProjection mgl32.Mat4) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
	return nil
}

func writeTriangle(t *testing.T, dir, name string) string {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {4, 0, 0}, {0, 4, 0}})
	doc.Meshes = []*gltf.Mesh{{
		Name: "Triangle",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{gltf.POSITION: uint32(pos)},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "Triangle", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = []uint32{0}

	path := filepath.Join(dir, name)
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func newTestViewer(t *testing.T) (*viewer, *fakeWindow, *fakeRenderer, loader.Loader) {
	t.Helper()
	win := &fakeWindow{running: true}
	rend := &fakeRenderer{}
	eng := engine.NewEngine(win)
	l := loader.NewLoader()
	t.Cleanup(l.Close)

	v := newViewer(eng, l, rend, camera.NewCamera(), "glbview", zap.NewNop())
	v.bind()
	return v, win, rend, l
}

func TestViewerShowsDroppedFileAndEvictsPrevious(t *testing.T) {
	dir := t.TempDir()
	first := writeTriangle(t, dir, "first.glb")
	second := writeTriangle(t, dir, "second.glb")

	v, win, rend, l := newTestViewer(t)

	go func() {
		win.onDrop([]string{first})
		assert.Eventually(t, func() bool { return win.Title() == "glbview - first" }, 5*time.Second, 5*time.Millisecond)

		win.onDrop([]string{second})
		assert.Eventually(t, func() bool { return win.Title() == "glbview - second" }, 5*time.Second, 5*time.Millisecond)
		v.eng.Quit()
	}()
	v.eng.Run()

	require.NotNil(t, rend.Model())
	assert.Equal(t, "second", rend.Model().Name())
	assert.Nil(t, l.Get(first), "the replaced model is evicted")
	assert.NotNil(t, l.Get(second))
	assert.Equal(t, second, v.shownKey)
	assert.InDelta(t, 2, v.camera.Target().X(), 1e-5, "the camera frames the shown model")
}

func TestViewerKeepsRunningAfterFailedImport(t *testing.T) {
	v, win, rend, _ := newTestViewer(t)

	go func() {
		win.onDrop([]string{filepath.Join(t.TempDir(), "missing.glb")})
		time.Sleep(50 * time.Millisecond)
		v.eng.Quit()
	}()
	v.eng.Run()

	assert.Nil(t, rend.Model())
	assert.Empty(t, win.Title())
}

func TestViewerStatsKeyTogglesProfiler(t *testing.T) {
	v, win, _, _ := newTestViewer(t)

	win.onKey(common.KeyS)
	assert.True(t, v.stats)
	win.onKey(common.KeyS)
	assert.False(t, v.stats)
}

func TestViewerArrowKeysOrbit(t *testing.T) {
	v, win, _, _ := newTestViewer(t)
	before := v.camera.Position()

	win.onKey(common.KeyLeft)
	assert.NotEqual(t, before, v.camera.Position())

	win.onKey(common.KeyRight)
	assert.InDelta(t, before.X(), v.camera.Position().X(), 1e-4)
	assert.InDelta(t, before.Z(), v.camera.Position().Z(), 1e-4)
}
