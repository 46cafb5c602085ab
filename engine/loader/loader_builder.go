package loader

import (
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/Carmen-Shannon/oxy-glb/engine/profiler"
	"github.com/Carmen-Shannon/oxy-glb/engine/registry"
	"go.uber.org/zap"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithImporter is an option builder that sets the Importer used by the Loader.
// The importer should register with the same registry passed to WithAssetRegistry.
//
// Parameters:
//   - imp: the importer instance
//
// Returns:
//   - LoaderBuilderOption: a function that applies the importer option to a loader
func WithImporter(imp Importer) LoaderBuilderOption {
	return func(l *loader) {
		l.importer = imp
	}
}

// WithAssetRegistry is an option builder that sets the registry evicted models are removed from.
// It is also handed to the default importer.
//
// Parameters:
//   - reg: the asset registry
//
// Returns:
//   - LoaderBuilderOption: a function that applies the registry option to a loader
func WithAssetRegistry(reg registry.AssetRegistry) LoaderBuilderOption {
	return func(l *loader) {
		l.registry = reg
	}
}

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - model: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, model model.Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = model
	}
}

// WithWorkers sets how many LoadBatch imports run at once.
//
// Parameters:
//   - workers: the worker count, at least 1
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker count to a loader
func WithWorkers(workers int) LoaderBuilderOption {
	return func(l *loader) {
		if workers > 0 {
			l.workers = workers
		}
	}
}

// WithProfiler records the time and allocations of every import.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - LoaderBuilderOption: a function that applies the profiler to a loader
func WithProfiler(p *profiler.Profiler) LoaderBuilderOption {
	return func(l *loader) {
		l.profiler = p
	}
}

// WithLoaderLogger sets the logger for batch summaries and the default importer.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger to a loader
func WithLoaderLogger(logger *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
