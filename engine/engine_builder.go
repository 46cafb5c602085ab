package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-glb/engine/profiler"
	"github.com/Carmen-Shannon/oxy-glb/engine/renderer"
	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables frame statistics output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler sets the profiler, so import and frame statistics share one instance.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithTickRate sets the tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithExecutor sets the executor drained each frame instead of creating one woken by the window.
//
// Parameters:
//   - executor: the foreground executor
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithExecutor(executor renderer.ForegroundExecutor) EngineBuilderOption {
	return func(e *engine) {
		e.executor = executor
	}
}

// WithFrameBudget caps how many executor drain rounds run per frame.
//
// Parameters:
//   - rounds: drain rounds per frame, at least 1
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameBudget(rounds int) EngineBuilderOption {
	return func(e *engine) {
		if rounds > 0 {
			e.frameBudget = rounds
		}
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithEngineLogger sets the logger for engine diagnostics and the default profiler.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithEngineLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}
