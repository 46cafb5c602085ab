package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/Carmen-Shannon/oxy-glb/engine/registry"
	"github.com/Carmen-Shannon/oxy-glb/engine/renderer"
	"go.uber.org/zap"
)

// importer is the implementation of the Importer interface.
type importer struct {
	backend     renderer.GraphicsBackend
	executor    renderer.Executor
	decoder     common.ImageDecoder
	sink        MaterialSink
	registry    registry.AssetRegistry
	logger      *zap.Logger
	baseDir     string
	premultiply bool
	flipWinding bool
	strict      bool
}

// Importer decodes GLB files into models. It holds only configuration; every call runs in its own
// session, so one Importer may be used from many goroutines at once.
type Importer interface {
	// Import decodes a GLB file held in memory.
	//
	// Parameters:
	//   - ctx: cancels the import between node steps and while waiting on GPU uploads
	//   - name: the model name
	//   - data: the GLB bytes; they are not retained after Import returns
	//
	// Returns:
	//   - model.Model: the model, registered with the asset registry if one is configured
	//   - error: a wrapped loader sentinel, ctx.Err(), or a backend error; no model is returned on error
	Import(ctx context.Context, name string, data []byte) (model.Model, error)

	// ImportReader reads a GLB stream to the end and decodes it.
	//
	// Parameters:
	//   - ctx: the import context
	//   - name: the model name
	//   - r: the GLB stream
	//
	// Returns:
	//   - model.Model: the model
	//   - error: a read or import error
	ImportReader(ctx context.Context, name string, r io.Reader) (model.Model, error)

	// ImportFile reads and decodes a GLB file. External URIs resolve against the file's directory
	// and the model is named after the file without its extension.
	//
	// Parameters:
	//   - ctx: the import context
	//   - path: the file path
	//
	// Returns:
	//   - model.Model: the model
	//   - error: a read or import error
	ImportFile(ctx context.Context, path string) (model.Model, error)
}

var _ Importer = &importer{}

// NewImporter creates an Importer. Without options it decodes headlessly (no GPU resources),
// flips triangle winding, and accepts GLB headers whose total length disagrees with the data.
//
// Parameters:
//   - options: a variadic list of ImporterBuilderOption functions
//
// Returns:
//   - Importer: the importer
func NewImporter(options ...ImporterBuilderOption) Importer {
	imp := &importer{
		executor:    renderer.NewInlineExecutor(),
		decoder:     common.NewImageDecoder(),
		logger:      zap.NewNop(),
		flipWinding: true,
	}
	for _, option := range options {
		option(imp)
	}
	return imp
}

func (imp *importer) Import(ctx context.Context, name string, data []byte) (model.Model, error) {
	return imp.importBytes(ctx, name, data, imp.baseDir)
}

func (imp *importer) ImportReader(ctx context.Context, name string, r io.Reader) (model.Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", name, err)
	}
	return imp.importBytes(ctx, name, data, imp.baseDir)
}

func (imp *importer) ImportFile(ctx context.Context, path string) (model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return imp.importBytes(ctx, name, data, filepath.Dir(path))
}

func (imp *importer) importBytes(ctx context.Context, name string, data []byte, baseDir string) (model.Model, error) {
	container, err := ParseContainer(data, imp.strict)
	if err != nil {
		return nil, fmt.Errorf("failed to import %q: %w", name, err)
	}
	if container.Skipped > 0 {
		imp.logger.Debug("skipped unknown GLB chunks", zap.String("model", name), zap.Int("chunks", container.Skipped))
	}

	m, err := newImportSession(name, container, baseDir, imp).run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to import %q: %w", name, err)
	}

	if imp.registry != nil {
		for i, desc := range m.MaterialDescriptions() {
			m.SetMaterialID(i, imp.registry.Register(desc.Name, desc))
		}
		m.SetID(imp.registry.Register(name, m))
	}
	return m, nil
}
