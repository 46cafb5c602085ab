package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine"
	"github.com/Carmen-Shannon/oxy-glb/engine/camera"
	"github.com/Carmen-Shannon/oxy-glb/engine/config"
	"github.com/Carmen-Shannon/oxy-glb/engine/loader"
	"github.com/Carmen-Shannon/oxy-glb/engine/logger"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/Carmen-Shannon/oxy-glb/engine/renderer"
	"github.com/Carmen-Shannon/oxy-glb/engine/watcher"
	"go.uber.org/zap"
)

const (
	// dragSteps converts dragged pixels to camera orbit steps.
	dragSteps = 0.2
	// keySteps is the orbit per arrow key press.
	keySteps = 3
)

// viewer connects input, background imports and the renderer. Fields below the blank line are
// only touched on the window goroutine.
type viewer struct {
	eng      engine.Engine
	loader   loader.Loader
	renderer renderer.Renderer
	camera   camera.Camera
	title    string
	log      *zap.Logger

	shown    model.Model
	shownKey string
	stats    bool
}

func newViewer(eng engine.Engine, l loader.Loader, r renderer.Renderer, c camera.Camera, title string, log *zap.Logger) *viewer {
	return &viewer{
		eng:      eng,
		loader:   l,
		renderer: r,
		camera:   c,
		title:    title,
		log:      log,
	}
}

// bind registers the window and engine callbacks.
func (v *viewer) bind() {
	win := v.eng.Window()

	win.SetResizeCallback(func(width, height int) {
		v.renderer.Resize(width, height)
		v.camera.SetAspect(aspect(width, height))
	})
	win.SetDragCallback(func(dx, dy float32) {
		v.camera.Orbit(dx*dragSteps, dy*dragSteps)
	})
	win.SetScrollCallback(func(delta float32) {
		v.camera.Zoom(delta)
	})
	win.SetDropCallback(func(paths []string) {
		for _, p := range paths {
			v.open(p)
		}
	})
	win.SetKeyDownCallback(func(keyCode uint32) {
		switch keyCode {
		case common.KeyLeft:
			v.camera.Orbit(-keySteps, 0)
		case common.KeyRight:
			v.camera.Orbit(keySteps, 0)
		case common.KeyUp:
			v.camera.Orbit(0, keySteps)
		case common.KeyDown:
			v.camera.Orbit(0, -keySteps)
		case common.KeyEqual:
			v.camera.Zoom(1)
		case common.KeyMinus:
			v.camera.Zoom(-1)
		case common.KeyR:
			if v.shown != nil {
				v.camera.Frame(v.shown.BoundingBox())
			}
		case common.KeyS:
			v.stats = !v.stats
			if v.stats {
				v.eng.EnableProfiler()
			} else {
				v.eng.DisableProfiler()
			}
		}
	})

	v.eng.SetRenderCallback(func(float32) {
		if err := v.renderer.Render(v.camera.ViewProjectionMatrix()); err != nil {
			v.log.Warn("frame skipped", zap.Error(err))
		}
	})
}

// open imports path on a background goroutine and shows it when the import finishes.
func (v *viewer) open(path string) {
	v.eng.Go(func(ctx context.Context) {
		m, err := v.loader.Load(ctx, path)
		if err != nil {
			v.log.Error("import failed", zap.String("path", path), zap.Error(err))
			return
		}
		v.show(ctx, path, m)
	})
}

// watch shows every model imported from the drop folder until the engine quits.
func (v *viewer) watch(cfg config.WatchConfig) {
	v.eng.Go(func(ctx context.Context) {
		dw, err := watcher.NewWatcher(cfg.Dir, v.loader,
			watcher.WithDebounce(time.Duration(cfg.DebounceMS)*time.Millisecond),
			watcher.WithWatcherLogger(logger.Named("watcher")),
		)
		if err != nil {
			v.log.Error("watch failed", zap.String("dir", cfg.Dir), zap.Error(err))
			return
		}
		defer dw.Close()

		v.log.Info("watching for .glb files", zap.String("dir", cfg.Dir))
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-dw.Errors():
				if ok {
					v.log.Warn("watch error", zap.Error(err))
				}
			case e, ok := <-dw.Events():
				if !ok {
					return
				}
				switch ev := e.(type) {
				case watcher.EventReady:
					v.show(ctx, ev.Key, ev.Model)
				case watcher.EventFailed:
					v.log.Error("import failed", zap.String("path", ev.Path), zap.Error(ev.Err))
				}
			}
		}
	})
}

// show hands m to the window goroutine, which draws it, frames it and evicts the model it
// replaces.
func (v *viewer) show(ctx context.Context, key string, m model.Model) {
	err := v.eng.Executor().Run(ctx, func() error {
		if err := v.renderer.SetModel(m); err != nil {
			return err
		}
		v.camera.Frame(m.BoundingBox())
		v.eng.Window().SetTitle(fmt.Sprintf("%s - %s", v.title, m.Name()))

		if v.shownKey != "" && v.shownKey != key {
			v.loader.Evict(v.shownKey)
		}
		v.shown, v.shownKey = m, key
		v.log.Info("showing model",
			zap.String("model", m.Name()),
			zap.Int("draws", v.renderer.DrawCount()))
		return nil
	})
	if err != nil {
		v.log.Error("failed to show model", zap.String("model", m.Name()), zap.Error(err))
	}
}
