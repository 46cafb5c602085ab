package loader

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"go.uber.org/zap"
)

// gltfTextureResolverImpl is the implementation of the gltfTextureResolver interface.
type gltfTextureResolverImpl struct {
	parser      gltfParser
	decoder     common.ImageDecoder
	uploader    *gpuUploader
	logger      *zap.Logger
	premultiply bool

	// images caches decoded images by image index; a nil entry records an image that could not be decoded.
	images map[int]*model.TextureContent
	order  []*model.TextureContent
}

// gltfTextureResolver turns textureInfo references into texture bindings, decoding each image once.
type gltfTextureResolver interface {
	// Binding resolves a textureInfo into a binding.
	//
	// Parameters:
	//   - ctx: cancels GPU uploads
	//   - info: the textureInfo
	//   - scale: the normal scale or occlusion strength (1 for other slots)
	//
	// Returns:
	//   - *model.TextureBinding: the binding; its Texture is nil when the image is unavailable
	//   - error: ErrInvalidReference or an upload error
	Binding(ctx context.Context, info *gltfTextureInfo, scale float32) (*model.TextureBinding, error)

	// Images returns the decoded images in first-use order.
	//
	// Returns:
	//   - []*model.TextureContent: the images
	Images() []*model.TextureContent
}

var _ gltfTextureResolver = &gltfTextureResolverImpl{}

func newGLTFTextureResolver(parser gltfParser, decoder common.ImageDecoder, uploader *gpuUploader, logger *zap.Logger, premultiply bool) gltfTextureResolver {
	return &gltfTextureResolverImpl{
		parser:      parser,
		decoder:     decoder,
		uploader:    uploader,
		logger:      logger,
		premultiply: premultiply,
		images:      make(map[int]*model.TextureContent),
	}
}

func (r *gltfTextureResolverImpl) Images() []*model.TextureContent {
	return r.order
}

func (r *gltfTextureResolverImpl) Binding(ctx context.Context, info *gltfTextureInfo, scale float32) (*model.TextureBinding, error) {
	doc := r.parser.Document()
	if info.Index < 0 || info.Index >= len(doc.Textures) {
		return nil, fmt.Errorf("texture %d: %w", info.Index, ErrInvalidReference)
	}
	tex := &doc.Textures[info.Index]

	binding := &model.TextureBinding{
		Sampler:  common.LinearWrapSampler(),
		TexCoord: info.TexCoord,
		Scale:    scale,
	}

	if tex.Sampler != nil {
		s := *tex.Sampler
		if s < 0 || s >= len(doc.Samplers) {
			return nil, fmt.Errorf("texture %d: sampler %d: %w", info.Index, s, ErrInvalidReference)
		}
		if wrap := doc.Samplers[s].WrapS; wrap != nil && *wrap == gltfWrapClampToEdge {
			binding.Sampler = common.LinearClampSampler()
		}
	}

	if tex.Source == nil {
		r.logger.Debug("texture has no source image", zap.Int("texture", info.Index))
		return binding, nil
	}

	img, err := r.image(ctx, *tex.Source)
	if err != nil {
		return nil, fmt.Errorf("texture %d: %w", info.Index, err)
	}
	binding.Texture = img
	return binding, nil
}

// image decodes and uploads image index once.
func (r *gltfTextureResolverImpl) image(ctx context.Context, index int) (*model.TextureContent, error) {
	if cached, ok := r.images[index]; ok {
		return cached, nil
	}

	doc := r.parser.Document()
	if index < 0 || index >= len(doc.Images) {
		return nil, fmt.Errorf("image %d: %w", index, ErrInvalidReference)
	}
	src := &doc.Images[index]

	var (
		data []byte
		err  error
	)
	switch {
	case src.BufferView != nil:
		data, err = r.parser.BufferView(*src.BufferView)
	case src.URI != "":
		data, err = r.parser.ReadURI(src.URI)
	default:
		err = fmt.Errorf("image %d has neither bufferView nor uri: %w", index, ErrInvalidReference)
	}
	if err != nil {
		return nil, err
	}

	decoded, err := r.decoder.Decode(data, r.premultiply)
	if err != nil {
		r.logger.Debug("skipping undecodable image", zap.Int("image", index), zap.Error(err))
		r.images[index] = nil
		return nil, nil
	}

	mime := common.Coalesce(src.MimeType, decoded.MimeType, common.SniffMimeType(data))
	decoded.MimeType = mime
	content := &model.TextureContent{
		ImageIndex: index,
		Name:       common.Coalesce(src.Name, fmt.Sprintf("_Image_%d%s", index, common.MimeExtension(mime))),
		MimeType:   mime,
		Image:      decoded,
	}

	if content.Texture, err = r.uploader.texture(ctx, content.Name, decoded); err != nil {
		return nil, fmt.Errorf("failed to upload image %d: %w", index, err)
	}

	r.images[index] = content
	r.order = append(r.order, content)
	return content, nil
}
