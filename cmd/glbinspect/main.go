// glbinspect imports GLB files and prints what they contain.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-glb/engine/config"
	"github.com/Carmen-Shannon/oxy-glb/engine/loader"
	"github.com/Carmen-Shannon/oxy-glb/engine/logger"
	"github.com/Carmen-Shannon/oxy-glb/engine/profiler"
	"github.com/Carmen-Shannon/oxy-glb/engine/registry"
	"github.com/Carmen-Shannon/oxy-glb/engine/renderer"
	"github.com/Carmen-Shannon/oxy-glb/engine/watcher"
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
	jsonOut := flag.Bool("json", false, "print summaries as JSON")
	flag.Usage = printUsage
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

	if flag.NArg() == 0 && cfg.Watch.Dir == "" {
		printUsage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := logger.Named("glbinspect")
	prof := profiler.NewProfiler(log)

	var (
		backend renderer.GraphicsBackend
		glctx   *glContext
	)
	if cfg.Import.Backend == config.BackendGL {
		glctx, err = newGLContext()
		if err != nil {
			log.Error("OpenGL backend unavailable", zap.Error(err))
			return 1
		}
		// Deferred before the loader so models are released before the context goes away.
		defer glctx.Close()
		backend = glctx.backend
	} else if backend, err = newBackend(cfg.Import.Backend); err != nil {
		log.Error("invalid backend", zap.Error(err))
		return 2
	}

	reg := registry.NewAssetRegistry()
	options := []loader.ImporterBuilderOption{
		loader.WithRegistry(reg),
		loader.WithLogger(logger.Named("importer")),
		loader.WithFlipWinding(cfg.Import.FlipWinding),
		loader.WithPremultipliedAlpha(cfg.Import.PremultipliedAlpha),
		loader.WithStrictLength(cfg.Import.StrictLength),
	}
	if backend != nil {
		options = append(options, loader.WithBackend(backend))
	}
	if glctx != nil {
		options = append(options, loader.WithExecutor(glctx.executor))
	}
	l := loader.NewLoader(
		loader.WithImporter(loader.NewImporter(options...)),
		loader.WithAssetRegistry(reg),
		loader.WithWorkers(cfg.Import.Workers),
		loader.WithProfiler(prof),
		loader.WithLoaderLogger(logger.Named("loader")),
	)
	defer l.Close()

	// With the gl backend, uploads run on this thread while the work runs elsewhere.
	serve := func(fn func()) {
		if glctx != nil {
			glctx.serve(fn)
			return
		}
		fn()
	}

	code := 0
	if flag.NArg() > 0 {
		serve(func() { code = inspect(ctx, l, prof, flag.Args(), *jsonOut, os.Stdout) })
		if mem, ok := backend.(renderer.MemoryBackend); ok {
			stats := mem.Stats()
			log.Info("backend resources",
				zap.Int("live", stats.Live),
				zap.Int("liveBytes", stats.LiveBytes),
			)
		}
	}

	if cfg.Watch.Dir != "" {
		serve(func() { err = watch(ctx, l, cfg.Watch, *jsonOut, os.Stdout, log) })
		if err != nil {
			log.Error("watch failed", zap.Error(err))
			return 1
		}
	}
	return code
}

func printUsage() {
	fmt.Fprintln(flag.CommandLine.Output(), `glbinspect - GLB model inspector

Usage:
  glbinspect [options] <file.glb>...
  glbinspect [options] -watch <dir>

Options:`)
	flag.PrintDefaults()
}

// newBackend returns the host-side resource backend named by the config, nil for a pure decode.
func newBackend(name string) (renderer.GraphicsBackend, error) {
	switch name {
	case config.BackendMemory, "":
		return renderer.NewMemoryBackend(), nil
	case config.BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// inspect batch-imports paths and writes one summary per file. It returns 1 when any file failed.
func inspect(ctx context.Context, l loader.Loader, prof *profiler.Profiler, paths []string, jsonOut bool, w io.Writer) int {
	models, err := l.LoadBatch(ctx, paths)

	failures := make(map[string]error)
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			var loadErr *loader.LoadError
			if errors.As(e, &loadErr) {
				failures[loadErr.Path] = loadErr.Err
			}
		}
	}

	elapsed := make(map[string]time.Duration)
	for _, s := range prof.Imports() {
		elapsed[s.Name] = s.Elapsed
	}

	summaries := make([]summary, 0, len(paths))
	for _, p := range paths {
		if m, ok := models[p]; ok {
			summaries = append(summaries, withElapsed(summarize(p, m), elapsed[filepath.Base(p)]))
			continue
		}
		if ferr, ok := failures[p]; ok {
			summaries = append(summaries, failed(p, ferr))
		}
	}

	if jsonOut {
		err = writeJSON(w, summaries)
	} else {
		err = writeText(w, summaries)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(failures) > 0 {
		return 1
	}
	return 0
}

// watch prints a summary for every file imported from the drop folder until ctx is cancelled.
// Each path keeps only its latest version in the loader.
func watch(ctx context.Context, l loader.Loader, cfg config.WatchConfig, jsonOut bool, w io.Writer, log *zap.Logger) error {
	dw, err := watcher.NewWatcher(cfg.Dir, l,
		watcher.WithDebounce(time.Duration(cfg.DebounceMS)*time.Millisecond),
		watcher.WithInitialScan(true),
		watcher.WithWatcherLogger(logger.Named("watcher")),
	)
	if err != nil {
		return err
	}
	defer dw.Close()

	log.Info("watching for .glb files", zap.String("dir", cfg.Dir))
	current := make(map[string]string)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-dw.Errors():
			if ok {
				log.Warn("watch error", zap.Error(err))
			}
		case e, ok := <-dw.Events():
			if !ok {
				return nil
			}
			var s summary
			switch ev := e.(type) {
			case watcher.EventReady:
				if prev, ok := current[ev.Path]; ok && prev != ev.Key {
					l.Evict(prev)
				}
				current[ev.Path] = ev.Key
				s = summarize(ev.Path, ev.Model)
			case watcher.EventFailed:
				s = failed(ev.Path, ev.Err)
			case watcher.EventRemoved:
				if prev, ok := current[ev.Path]; ok {
					l.Evict(prev)
					delete(current, ev.Path)
				}
				log.Info("model removed", zap.String("path", ev.Path))
				continue
			}
			if jsonOut {
				err = writeJSON(w, []summary{s})
			} else {
				err = writeText(w, []summary{s})
			}
			if err != nil {
				return err
			}
		}
	}
}
