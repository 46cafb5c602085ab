package loader

import (
	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/registry"
	"github.com/Carmen-Shannon/oxy-glb/engine/renderer"
	"go.uber.org/zap"
)

// ImporterBuilderOption is a functional option for configuring an Importer via NewImporter.
type ImporterBuilderOption func(*importer)

// WithBackend is an option builder that sets the graphics backend vertex, index and texture data
// are uploaded to. Without it imports are headless.
//
// Parameters:
//   - backend: the graphics backend
//
// Returns:
//   - ImporterBuilderOption: a function that applies the backend option to an importer
func WithBackend(backend renderer.GraphicsBackend) ImporterBuilderOption {
	return func(imp *importer) {
		imp.backend = backend
	}
}

// WithExecutor is an option builder that sets the execution context GPU resources are created on.
//
// Parameters:
//   - executor: the executor, e.g. a renderer.ForegroundExecutor drained by the render thread
//
// Returns:
//   - ImporterBuilderOption: a function that applies the executor option to an importer
func WithExecutor(executor renderer.Executor) ImporterBuilderOption {
	return func(imp *importer) {
		if executor != nil {
			imp.executor = executor
		}
	}
}

// WithImageDecoder is an option builder that replaces the embedded image decoder.
//
// Parameters:
//   - decoder: the image decoder
//
// Returns:
//   - ImporterBuilderOption: a function that applies the decoder option to an importer
func WithImageDecoder(decoder common.ImageDecoder) ImporterBuilderOption {
	return func(imp *importer) {
		if decoder != nil {
			imp.decoder = decoder
		}
	}
}

// WithMaterialSink is an option builder that sets the sink backend materials are created with.
//
// Parameters:
//   - sink: the material sink
//
// Returns:
//   - ImporterBuilderOption: a function that applies the sink option to an importer
func WithMaterialSink(sink MaterialSink) ImporterBuilderOption {
	return func(imp *importer) {
		imp.sink = sink
	}
}

// WithRegistry is an option builder that registers every imported model and material.
//
// Parameters:
//   - reg: the asset registry
//
// Returns:
//   - ImporterBuilderOption: a function that applies the registry option to an importer
func WithRegistry(reg registry.AssetRegistry) ImporterBuilderOption {
	return func(imp *importer) {
		imp.registry = reg
	}
}

// WithLogger is an option builder that sets the logger import diagnostics are written to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - ImporterBuilderOption: a function that applies the logger option to an importer
func WithLogger(logger *zap.Logger) ImporterBuilderOption {
	return func(imp *importer) {
		if logger != nil {
			imp.logger = logger
		}
	}
}

// WithBaseDir is an option builder that sets the directory external URIs of in-memory imports
// resolve against.
//
// Parameters:
//   - dir: the base directory
//
// Returns:
//   - ImporterBuilderOption: a function that applies the base directory option to an importer
func WithBaseDir(dir string) ImporterBuilderOption {
	return func(imp *importer) {
		imp.baseDir = dir
	}
}

// WithPremultipliedAlpha is an option builder that premultiplies decoded image colors by alpha.
//
// Parameters:
//   - premultiply: true to premultiply
//
// Returns:
//   - ImporterBuilderOption: a function that applies the premultiply option to an importer
func WithPremultipliedAlpha(premultiply bool) ImporterBuilderOption {
	return func(imp *importer) {
		imp.premultiply = premultiply
	}
}

// WithFlipWinding is an option builder that controls triangle winding reversal for renderers
// whose front faces are clockwise. It is on by default.
//
// Parameters:
//   - flip: true to flip triangle-list winding
//
// Returns:
//   - ImporterBuilderOption: a function that applies the winding option to an importer
func WithFlipWinding(flip bool) ImporterBuilderOption {
	return func(imp *importer) {
		imp.flipWinding = flip
	}
}

// WithStrictLength is an option builder that rejects GLB files whose header length differs from
// the data length.
//
// Parameters:
//   - strict: true to enforce the header length
//
// Returns:
//   - ImporterBuilderOption: a function that applies the strict length option to an importer
func WithStrictLength(strict bool) ImporterBuilderOption {
	return func(imp *importer) {
		imp.strict = strict
	}
}
