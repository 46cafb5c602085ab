package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"go.uber.org/zap"
)

// defaultMaterialKey is the cache key of the white material used by primitives without a material.
const defaultMaterialKey = -1

// MaterialSink turns a canonical material description into a backend-specific material.
type MaterialSink interface {
	// CreateMaterial builds the backend material for a description.
	//
	// Parameters:
	//   - ctx: the import context
	//   - desc: the resolved material description
	//
	// Returns:
	//   - any: the backend material, stored in desc.Backend
	//   - error: error if the material cannot be created; the import fails
	CreateMaterial(ctx context.Context, desc *model.MaterialDescription) (any, error)
}

// MaterialSinkFunc adapts a function to the MaterialSink interface.
type MaterialSinkFunc func(ctx context.Context, desc *model.MaterialDescription) (any, error)

// CreateMaterial calls f.
func (f MaterialSinkFunc) CreateMaterial(ctx context.Context, desc *model.MaterialDescription) (any, error) {
	return f(ctx, desc)
}

// gltfMaterialResolverImpl is the implementation of the gltfMaterialResolver interface.
type gltfMaterialResolverImpl struct {
	parser   gltfParser
	textures gltfTextureResolver
	logger   *zap.Logger

	// indices maps a source material index (or defaultMaterialKey) to its table position.
	indices map[int]int
	table   []*model.MaterialDescription
}

// gltfMaterialResolver builds material descriptions, memoized per source material index.
type gltfMaterialResolver interface {
	// Resolve returns the table index of a primitive's material, building the description on first use.
	//
	// Parameters:
	//   - ctx: cancels texture uploads
	//   - material: the primitive's material index, nil for the default white material
	//   - vertexColor: whether the first primitive using the material declares a COLOR attribute
	//
	// Returns:
	//   - int: the material table index (insertion order)
	//   - error: ErrInvalidReference or a texture error
	Resolve(ctx context.Context, material *int, vertexColor bool) (int, error)

	// Materials returns the material table in insertion order.
	//
	// Returns:
	//   - []*model.MaterialDescription: the table
	Materials() []*model.MaterialDescription
}

var _ gltfMaterialResolver = &gltfMaterialResolverImpl{}

func newGLTFMaterialResolver(parser gltfParser, textures gltfTextureResolver, logger *zap.Logger) gltfMaterialResolver {
	return &gltfMaterialResolverImpl{
		parser:   parser,
		textures: textures,
		logger:   logger,
		indices:  make(map[int]int),
	}
}

func (r *gltfMaterialResolverImpl) Materials() []*model.MaterialDescription {
	return r.table
}

func (r *gltfMaterialResolverImpl) Resolve(ctx context.Context, material *int, vertexColor bool) (int, error) {
	key := defaultMaterialKey
	if material != nil {
		key = *material
	}
	if i, ok := r.indices[key]; ok {
		return i, nil
	}

	var (
		desc *model.MaterialDescription
		err  error
	)
	if key == defaultMaterialKey {
		desc = defaultMaterial()
	} else if desc, err = r.build(ctx, key); err != nil {
		return 0, fmt.Errorf("material %d: %w", key, err)
	}
	desc.VertexColor = vertexColor

	r.indices[key] = len(r.table)
	r.table = append(r.table, desc)
	return r.indices[key], nil
}

// defaultMaterial is opaque white.
func defaultMaterial() *model.MaterialDescription {
	return &model.MaterialDescription{
		Name:            "_Default",
		SourceIndex:     defaultMaterialKey,
		BaseColor:       [4]float32{1, 1, 1, 1},
		MetallicFactor:  1,
		RoughnessFactor: 1,
		AlphaMode:       model.AlphaModeOpaque,
		Bucket:          model.BucketOpaque,
	}
}

func (r *gltfMaterialResolverImpl) build(ctx context.Context, index int) (*model.MaterialDescription, error) {
	doc := r.parser.Document()
	if index < 0 || index >= len(doc.Materials) {
		return nil, ErrInvalidReference
	}
	mat := &doc.Materials[index]

	desc := defaultMaterial()
	desc.Name = common.Coalesce(mat.Name, fmt.Sprintf("_Material_%d", index))
	desc.SourceIndex = index
	desc.DoubleSided = mat.DoubleSided

	var err error
	pbr := mat.PbrMetallicRoughness
	sg := r.specularGlossiness(mat, index)

	switch {
	case pbr != nil && (pbr.BaseColorFactor != nil || pbr.BaseColorTexture != nil):
		if pbr.BaseColorFactor != nil {
			desc.BaseColor = *pbr.BaseColorFactor
		}
		if desc.BaseColorTexture, err = r.binding(ctx, pbr.BaseColorTexture, nil); err != nil {
			return nil, fmt.Errorf("base color texture: %w", err)
		}
	case sg != nil && (sg.DiffuseFactor != nil || sg.DiffuseTexture != nil):
		if sg.DiffuseFactor != nil {
			desc.BaseColor = *sg.DiffuseFactor
		}
		if desc.BaseColorTexture, err = r.binding(ctx, sg.DiffuseTexture, nil); err != nil {
			return nil, fmt.Errorf("diffuse texture: %w", err)
		}
	}

	if pbr != nil {
		if pbr.MetallicFactor != nil {
			desc.MetallicFactor = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			desc.RoughnessFactor = *pbr.RoughnessFactor
		}
		if desc.MetallicRoughnessTexture, err = r.binding(ctx, pbr.MetallicRoughnessTexture, nil); err != nil {
			return nil, fmt.Errorf("metallic-roughness texture: %w", err)
		}
	}

	if desc.NormalTexture, err = r.binding(ctx, mat.NormalTexture, func(t *gltfTextureInfo) *float32 { return t.Scale }); err != nil {
		return nil, fmt.Errorf("normal texture: %w", err)
	}
	if desc.OcclusionTexture, err = r.binding(ctx, mat.OcclusionTexture, func(t *gltfTextureInfo) *float32 { return t.Strength }); err != nil {
		return nil, fmt.Errorf("occlusion texture: %w", err)
	}
	if desc.EmissiveTexture, err = r.binding(ctx, mat.EmissiveTexture, nil); err != nil {
		return nil, fmt.Errorf("emissive texture: %w", err)
	}
	if mat.EmissiveFactor != nil {
		desc.EmissiveFactor = *mat.EmissiveFactor
	}

	switch mat.AlphaMode {
	case gltfAlphaMask:
		desc.AlphaMode = model.AlphaModeMask
		desc.AlphaCutoff = 0.5
		if mat.AlphaCutoff != nil {
			desc.AlphaCutoff = *mat.AlphaCutoff
		}
	case gltfAlphaBlend:
		desc.AlphaMode = model.AlphaModeBlend
	case "", gltfAlphaOpaque:
	default:
		r.logger.Debug("unknown alpha mode, using OPAQUE", zap.Int("material", index), zap.String("alphaMode", mat.AlphaMode))
	}
	desc.Bucket = renderBucket(desc)

	return desc, nil
}

// renderBucket routes BLEND materials with alpha below 1 to a transparent bucket; everything else is opaque.
func renderBucket(desc *model.MaterialDescription) model.RenderBucket {
	if desc.AlphaMode != model.AlphaModeBlend || desc.Alpha() >= 1 {
		return model.BucketOpaque
	}
	if desc.DoubleSided {
		return model.BucketTransparentDoubleSided
	}
	return model.BucketTransparent
}

// binding resolves an optional textureInfo; scale selects the normal scale or occlusion strength.
func (r *gltfMaterialResolverImpl) binding(ctx context.Context, info *gltfTextureInfo, scale func(*gltfTextureInfo) *float32) (*model.TextureBinding, error) {
	if info == nil {
		return nil, nil
	}
	s := float32(1)
	if scale != nil {
		if v := scale(info); v != nil {
			s = *v
		}
	}
	return r.textures.Binding(ctx, info, s)
}

// specularGlossiness decodes the KHR_materials_pbrSpecularGlossiness extension, nil when absent or invalid.
func (r *gltfMaterialResolverImpl) specularGlossiness(mat *gltfMaterial, index int) *gltfSpecularGlossiness {
	raw, ok := mat.Extensions[gltfExtSpecularGlossiness]
	if !ok {
		return nil
	}
	var sg gltfSpecularGlossiness
	if err := json.Unmarshal(raw, &sg); err != nil {
		r.logger.Debug("ignoring malformed specular-glossiness extension", zap.Int("material", index), zap.Error(err))
		return nil
	}
	return &sg
}
