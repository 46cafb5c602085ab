package profiler

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ImportStats is the cost of one import.
type ImportStats struct {
	Name    string
	Elapsed time.Duration
	// AllocBytes is the growth of cumulative heap allocation during the import. Concurrent imports
	// share the counter, so the value is an upper bound when imports overlap.
	AllocBytes uint64
	Err        error
}

// Profiler tracks import timings and, for the viewer, frame rate and memory statistics.
// Frame statistics are logged at a configurable interval.
type Profiler struct {
	logger *zap.Logger

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	mu      sync.Mutex
	imports []ImportStats
}

// NewProfiler creates a new Profiler logging to logger.
// Update interval defaults to 1 second.
//
// Parameters:
//   - logger: the logger stats are written to; nil disables logging
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *zap.Logger) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{
		logger:         logger,
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// BeginImport starts timing an import. Call the returned function with the import's error when it finishes.
//
// Parameters:
//   - name: the model name
//
// Returns:
//   - func(error) ImportStats: ends the measurement, records it and logs it
func (p *Profiler) BeginImport(name string) func(error) ImportStats {
	start := time.Now()
	var before runtime.MemStats
	runtime.ReadMemStats(&before)

	return func(err error) ImportStats {
		var after runtime.MemStats
		runtime.ReadMemStats(&after)

		stats := ImportStats{
			Name:       name,
			Elapsed:    time.Since(start),
			AllocBytes: after.TotalAlloc - before.TotalAlloc,
			Err:        err,
		}

		p.mu.Lock()
		p.imports = append(p.imports, stats)
		p.mu.Unlock()

		fields := []zap.Field{
			zap.String("model", name),
			zap.Duration("elapsed", stats.Elapsed),
			zap.Float64("allocMB", float64(stats.AllocBytes)/1024/1024),
		}
		if err != nil {
			p.logger.Warn("import failed", append(fields, zap.Error(err))...)
		} else {
			p.logger.Info("import finished", fields...)
		}
		return stats
	}
}

// Imports returns every recorded import in completion order.
//
// Returns:
//   - []ImportStats: the stats
func (p *Profiler) Imports() []ImportStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ImportStats, len(p.imports))
	copy(out, p.imports)
	return out
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	runtime.ReadMemStats(&p.memStats)

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.logger.Info("frame stats",
		zap.Float64("fps", fps),
		zap.Float64("heapMB", float64(p.memStats.Alloc)/1024/1024),
		zap.Float64("allocRateMBps", allocRateMB),
		zap.Uint32("gc", gcCount),
		zap.Uint64("lastPauseUs", lastPauseUs),
		zap.Uint64("maxPauseUs", maxPauseUs),
		zap.Float64("sysMB", float64(p.memStats.Sys)/1024/1024),
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
