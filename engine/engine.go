package engine

import (
	"context"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-glb/engine/profiler"
	"github.com/Carmen-Shannon/oxy-glb/engine/renderer"
	"github.com/Carmen-Shannon/oxy-glb/engine/window"
	"go.uber.org/zap"
)

// engine implements the Engine interface.
// Coordinates the window goroutine, the tick goroutine and background work.
type engine struct {
	tickRateChannel chan time.Duration

	running bool
	wg      sync.WaitGroup

	ctx         context.Context
	cancel      context.CancelFunc
	quitChannel chan struct{}
	quitOnce    sync.Once

	window      window.Window
	windowShut  bool
	executor    renderer.ForegroundExecutor
	logger      *zap.Logger
	frameBudget int

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration
	lastRender       time.Time
}

// Engine runs the viewer: the window message loop, which also drains GPU uploads queued by
// background imports, a fixed-rate tick loop, and goroutines started with Go.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Executor returns the executor whose work runs on the window goroutine. Importers that
	// upload to the window's device must be configured with it.
	//
	// Returns:
	//   - renderer.ForegroundExecutor: the executor
	Executor() renderer.ForegroundExecutor

	// Context returns a context cancelled when the engine quits.
	//
	// Returns:
	//   - context.Context: the engine context
	Context() context.Context

	// Profiler returns the profiler used for frame statistics.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler
	Profiler() *profiler.Profiler

	// EnableProfiler enables frame statistics output to the log.
	EnableProfiler()

	// DisableProfiler disables frame statistics output.
	DisableProfiler()

	// SetTickRate sets the tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each tick on the tick goroutine.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each frame on the window goroutine,
	// after queued executor work has run.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Go runs fn on a new goroutine. fn should return once ctx is cancelled; Run waits for it.
	//
	// Parameters:
	//   - fn: the background work
	Go(fn func(ctx context.Context))

	// Run starts the tick loop and runs the window message loop on the calling goroutine until
	// the window closes or Quit is called. It then closes the executor and waits for the tick
	// loop and every Go goroutine.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times and from any goroutine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine for a window.
//
// Parameters:
//   - w: the window; the engine takes over its update callback
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(w window.Window, options ...EngineBuilderOption) Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		ctx:             ctx,
		cancel:          cancel,
		quitChannel:     make(chan struct{}),
		window:          w,
		logger:          zap.NewNop(),
		frameBudget:     64,
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.executor == nil {
		e.executor = renderer.NewForegroundExecutor(renderer.WithWakeFunc(w.Wake))
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(e.logger)
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Executor() renderer.ForegroundExecutor {
	return e.executor
}

func (e *engine) Context() context.Context {
	return e.ctx
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Go(fn func(ctx context.Context)) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn(e.ctx)
	}()
}

func (e *engine) Run() {
	e.running = true
	e.lastRender = time.Now()

	e.wg.Add(1)
	go e.handleEngine()

	e.window.SetUpdateCallback(e.handleFrame)
	e.window.ProcessMessages()

	e.signalQuit()
	e.shutdownWindow()
	e.executor.Close()
	e.wg.Wait()
	e.running = false
}

// Quit signals all engine goroutines to stop and wakes the window loop so it can exit.
func (e *engine) Quit() {
	e.signalQuit()
	e.window.Wake()
}

// signalQuit cancels the engine context and closes the quit channel once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.cancel()
		close(e.quitChannel)
	})
}

// shutdownWindow closes the window once, from the window goroutine.
func (e *engine) shutdownWindow() {
	if e.windowShut {
		return
	}
	e.windowShut = true
	if err := e.window.Close(); err != nil {
		e.logger.Debug("window close", zap.Error(err))
	}
}

// handleFrame runs one iteration of the window loop: queued GPU work, the render callback,
// profiling and frame limiting.
func (e *engine) handleFrame() {
	select {
	case <-e.quitChannel:
		e.shutdownWindow()
		return
	default:
	}

	// Drain in bounded rounds so a flood of uploads cannot starve rendering.
	for range e.frameBudget {
		if e.executor.Drain() == 0 {
			break
		}
	}

	now := time.Now()
	dt := float32(now.Sub(e.lastRender).Seconds())
	e.lastRender = now

	if e.renderCallback != nil {
		e.renderCallback(dt)
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running {
		e.engineTickRate = newRate
		return
	}

	// Replace a pending update rather than block the caller.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
