package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/Carmen-Shannon/oxy-glb/engine/profiler"
	"github.com/Carmen-Shannon/oxy-glb/engine/registry"
	"go.uber.org/zap"
)

// ErrUnsupportedExtension is returned by Load for files that are not .glb.
var ErrUnsupportedExtension = errors.New("unsupported model file extension")

// LoadError is a failed file in a LoadBatch.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return e.Err.Error() }
func (e *LoadError) Unwrap() error { return e.Err }

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	importer Importer
	registry registry.AssetRegistry
	profiler *profiler.Profiler
	logger   *zap.Logger

	modelCache map[string]model.Model

	workers  int
	poolOnce sync.Once
	pool     worker.DynamicWorkerPool
}

// Loader imports GLB models through an Importer and caches them by path or name.
// All methods are safe for concurrent use.
type Loader interface {
	// Load imports a .glb file and caches the result by path.
	// If the model is already cached, the cached version is returned.
	//
	// Parameters:
	//   - ctx: the import context
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Model: the loaded and cached model
	//   - error: error if loading fails
	Load(ctx context.Context, path string) (model.Model, error)

	// LoadAs imports a .glb file and caches the result under key instead of its path, so a
	// changed file can be imported again while the previous version stays cached.
	//
	// Parameters:
	//   - ctx: the import context
	//   - key: the cache key
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Model: the loaded and cached model
	//   - error: error if loading fails
	LoadAs(ctx context.Context, key, path string) (model.Model, error)

	// LoadReader imports a GLB stream and caches it by the given name.
	//
	// Parameters:
	//   - ctx: the import context
	//   - name: the cache key and model name
	//   - r: the reader providing GLB data
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if loading fails
	LoadReader(ctx context.Context, name string, r io.Reader) (model.Model, error)

	// LoadBatch imports several files on the loader's worker pool and waits for all of them.
	// Files that fail are left out of the result and their errors are joined, each one a *LoadError.
	//
	// Parameters:
	//   - ctx: the import context shared by every file
	//   - paths: the files to load
	//
	// Returns:
	//   - map[string]model.Model: the loaded models keyed by path
	//   - error: the joined errors of every failed file, or nil
	LoadBatch(ctx context.Context, paths []string) (map[string]model.Model, error)

	// Get retrieves a cached model by key. Returns nil if not found.
	//
	// Parameters:
	//   - key: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(key string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by path or name
	Models() map[string]model.Model

	// Evict removes a model from the cache, releases its GPU resources and removes it and its
	// materials from the asset registry.
	//
	// Parameters:
	//   - key: the cache key
	//
	// Returns:
	//   - bool: true if a model was evicted
	Evict(key string) bool

	// Close evicts every cached model.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the options applied.
// Without WithImporter it uses a headless NewImporter().
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		modelCache: make(map[string]model.Model),
		logger:     zap.NewNop(),
		workers:    max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(l)
	}
	if l.importer == nil {
		l.importer = NewImporter(WithRegistry(l.registry), WithLogger(l.logger))
	}
	return l
}

func (l *loader) Load(ctx context.Context, path string) (model.Model, error) {
	return l.LoadAs(ctx, path, path)
}

func (l *loader) LoadAs(ctx context.Context, key, path string) (model.Model, error) {
	if cached := l.Get(key); cached != nil {
		return cached, nil
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".glb" {
		return nil, fmt.Errorf("failed to load %s: %w %q", path, ErrUnsupportedExtension, ext)
	}

	m, err := l.measure(filepath.Base(path), func() (model.Model, error) {
		return l.importer.ImportFile(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return l.store(key, m), nil
}

func (l *loader) LoadReader(ctx context.Context, name string, r io.Reader) (model.Model, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	m, err := l.measure(name, func() (model.Model, error) {
		return l.importer.ImportReader(ctx, name, r)
	})
	if err != nil {
		return nil, err
	}
	return l.store(name, m), nil
}

func (l *loader) LoadBatch(ctx context.Context, paths []string) (map[string]model.Model, error) {
	l.poolOnce.Do(func() {
		l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	result := make(map[string]model.Model, len(paths))

	for i, path := range paths {
		wg.Add(1)
		p := path
		l.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()

				m, err := l.Load(ctx, p)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, &LoadError{Path: p, Err: err})
					return nil, err
				}
				result[p] = m
				return m, nil
			},
		})
	}
	wg.Wait()

	l.logger.Debug("batch loaded", zap.Int("models", len(result)), zap.Int("failed", len(errs)))
	return result, errors.Join(errs...)
}

func (l *loader) Get(key string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[key]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

func (l *loader) Evict(key string) bool {
	l.mu.Lock()
	m, ok := l.modelCache[key]
	delete(l.modelCache, key)
	l.mu.Unlock()

	if !ok {
		return false
	}
	l.discard(m)
	return true
}

func (l *loader) Close() {
	l.mu.Lock()
	cached := l.modelCache
	l.modelCache = make(map[string]model.Model)
	l.mu.Unlock()

	for _, m := range cached {
		l.discard(m)
	}
}

// measure runs an import under the profiler when one is configured.
func (l *loader) measure(name string, load func() (model.Model, error)) (model.Model, error) {
	if l.profiler == nil {
		return load()
	}
	done := l.profiler.BeginImport(name)
	m, err := load()
	done(err)
	return m, err
}

// store caches m under key. When another goroutine cached the same key first, m is discarded
// and the cached model is returned.
func (l *loader) store(key string, m model.Model) model.Model {
	l.mu.Lock()
	if cached, ok := l.modelCache[key]; ok {
		l.mu.Unlock()
		l.discard(m)
		return cached
	}
	l.modelCache[key] = m
	l.mu.Unlock()
	return m
}

// discard releases a model's GPU resources and forgets its registry entries.
func (l *loader) discard(m model.Model) {
	m.Release()
	if l.registry == nil {
		return
	}
	for _, mat := range m.Materials() {
		if mat.ID != "" {
			l.registry.Remove(mat.ID)
		}
	}
	if m.ID() != "" {
		l.registry.Remove(m.ID())
	}
}
