package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"go.uber.org/zap"
)

// importSession owns every cache and output of a single import call. Sessions are never shared,
// so concurrent imports do not contend.
type importSession struct {
	name        string
	parser      gltfParser
	uploader    *gpuUploader
	materials   gltfMaterialResolver
	textures    gltfTextureResolver
	sink        MaterialSink
	logger      *zap.Logger
	flipWinding bool

	meshes     map[int][]*model.MeshPrimitive
	nodes      []*model.NodeContent
	visit      []int
	roots      []int
	containers []*model.MeshContainer
	skins      []*model.SkinContent
	clips      map[string]*model.AnimationClip
}

// newImportSession creates a session over a parsed container using the importer's collaborators.
func newImportSession(name string, container *Container, baseDir string, imp *importer) *importSession {
	logger := imp.logger.With(zap.String("model", name))
	parser := newGLTFParser(container, baseDir)
	uploader := newGPUUploader(imp.backend, imp.executor)
	textures := newGLTFTextureResolver(parser, imp.decoder, uploader, logger, imp.premultiply)

	return &importSession{
		name:        name,
		parser:      parser,
		uploader:    uploader,
		textures:    textures,
		materials:   newGLTFMaterialResolver(parser, textures, logger),
		sink:        imp.sink,
		logger:      logger,
		flipWinding: imp.flipWinding,
		meshes:      make(map[int][]*model.MeshPrimitive),
	}
}

// run decodes the document and assembles the model. Stages run in order: buffers, skins, the
// default scene, animations, material sink, model assembly. On any error every GPU resource the
// session created is released and no model is returned.
func (s *importSession) run(ctx context.Context) (m model.Model, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			s.uploader.release()
			s.logger.Debug("import failed", zap.Error(err))
		}
	}()

	if err = s.parser.Parse(); err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	if s.skins, err = readSkins(s.parser); err != nil {
		return nil, err
	}
	if err = s.readDefaultScene(ctx); err != nil {
		return nil, err
	}
	if s.clips, err = readAnimations(s.parser, s.logger); err != nil {
		return nil, err
	}

	descriptions := s.materials.Materials()
	if s.sink != nil {
		for i, desc := range descriptions {
			if desc.Backend, err = s.sink.CreateMaterial(ctx, desc); err != nil {
				return nil, fmt.Errorf("material %d %q: %w", i, desc.Name, err)
			}
		}
	}

	m = model.NewModel(
		model.WithName(s.name),
		model.WithNodes(s.nodes, s.roots),
		model.WithMeshContainers(s.containers),
		model.WithMaterials(descriptions),
		model.WithSkins(s.skins),
		model.WithAnimations(s.clips),
		model.WithResources(s.uploader.take()),
	)

	s.logger.Debug("import finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("nodes", len(s.parser.Document().Nodes)),
		zap.Int("containers", len(s.containers)),
		zap.Int("materials", len(descriptions)),
		zap.Int("images", len(s.textures.Images())),
		zap.Int("skins", len(s.skins)),
		zap.Int("clips", len(s.clips)),
		zap.Stringer("bounds", boundsStringer(m.BoundingBox())),
	)
	return m, nil
}

// boundsStringer formats a bounding box for logging.
type boundsStringer common.BoundingBox

func (b boundsStringer) String() string {
	return fmt.Sprintf("[%v, %v]", b.Min, b.Max)
}
