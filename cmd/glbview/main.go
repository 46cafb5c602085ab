// glbview opens GLB files in a preview window. Files can also be dropped onto the window or
// into a watched directory.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-glb/engine"
	"github.com/Carmen-Shannon/oxy-glb/engine/camera"
	"github.com/Carmen-Shannon/oxy-glb/engine/config"
	"github.com/Carmen-Shannon/oxy-glb/engine/loader"
	"github.com/Carmen-Shannon/oxy-glb/engine/logger"
	"github.com/Carmen-Shannon/oxy-glb/engine/profiler"
	"github.com/Carmen-Shannon/oxy-glb/engine/registry"
	"github.com/Carmen-Shannon/oxy-glb/engine/renderer"
	"github.com/Carmen-Shannon/oxy-glb/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: glbview [options] [file.glb]...")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := flags.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}
	if err := logger.InitWithFileConfig(cfg.Log.Level, cfg.Log.File, cfg.Log.Console); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	log := logger.Named("glbview")

	win, err := window.NewWindow(
		window.WithTitle(cfg.Viewer.Title),
		window.WithWidth(cfg.Viewer.Width),
		window.WithHeight(cfg.Viewer.Height),
		window.WithMinSize(320, 240),
		window.WithEventWait(16*time.Millisecond),
	)
	if err != nil {
		log.Error("window creation failed", zap.Error(err))
		return 1
	}

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	surface := instance.CreateSurface(win.SurfaceDescriptor())
	defer surface.Release()

	backend, err := renderer.NewWGPUBackend(
		renderer.WithSurface(instance, surface),
		renderer.WithForceFallbackAdapter(cfg.Viewer.ForceFallbackAdapter),
	)
	if err != nil {
		log.Error("graphics init failed", zap.Error(err))
		_ = win.Close()
		return 1
	}
	defer backend.Release()

	if info := backend.Adapter().GetInfo(); info.Name != "" {
		log.Info("adapter selected", zap.String("name", info.Name), zap.String("backend", info.BackendType.String()))
	}

	rend, err := renderer.NewRenderer(backend, surface, win.Width(), win.Height(),
		renderer.WithRendererLogger(logger.Named("renderer")),
	)
	if err != nil {
		log.Error("renderer init failed", zap.Error(err))
		_ = win.Close()
		return 1
	}
	defer rend.Release()

	prof := profiler.NewProfiler(logger.Named("profiler"))
	eng := engine.NewEngine(win,
		engine.WithProfiler(prof),
		engine.WithProfiling(cfg.Viewer.ShowStats),
		engine.WithEngineLogger(log),
	)

	reg := registry.NewAssetRegistry()
	imp := loader.NewImporter(
		loader.WithBackend(backend),
		loader.WithExecutor(eng.Executor()),
		loader.WithRegistry(reg),
		loader.WithLogger(logger.Named("importer")),
		loader.WithFlipWinding(cfg.Import.FlipWinding),
		loader.WithPremultipliedAlpha(cfg.Import.PremultipliedAlpha),
		loader.WithStrictLength(cfg.Import.StrictLength),
	)
	l := loader.NewLoader(
		loader.WithImporter(imp),
		loader.WithAssetRegistry(reg),
		loader.WithWorkers(cfg.Import.Workers),
		loader.WithProfiler(prof),
		loader.WithLoaderLogger(logger.Named("loader")),
	)
	// Runs before rend and backend are released.
	defer l.Close()

	cam := camera.NewCamera(camera.WithAspect(aspect(win.Width(), win.Height())))
	v := newViewer(eng, l, rend, cam, cfg.Viewer.Title, log)
	v.stats = cfg.Viewer.ShowStats
	v.bind()

	for _, path := range flag.Args() {
		v.open(path)
	}
	if cfg.Watch.Dir != "" {
		v.watch(cfg.Watch)
	}

	eng.Run()

	if err := rend.SetModel(nil); err != nil {
		log.Debug("clearing draw list", zap.Error(err))
	}
	log.Info("viewer closed", zap.Int("models", len(l.Models())))
	return 0
}

func aspect(width, height int) float32 {
	if height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}
