package model

import (
	"github.com/Carmen-Shannon/oxy-glb/common"
)

// AlphaMode is how a material's alpha channel is interpreted.
type AlphaMode int

const (
	AlphaModeOpaque AlphaMode = iota
	AlphaModeMask
	AlphaModeBlend
)

// String returns the glTF name of the alpha mode.
func (m AlphaMode) String() string {
	switch m {
	case AlphaModeMask:
		return "MASK"
	case AlphaModeBlend:
		return "BLEND"
	default:
		return "OPAQUE"
	}
}

// RenderBucket is the render layer a material is routed to.
type RenderBucket int

const (
	// BucketOpaque holds opaque and alpha-tested materials.
	BucketOpaque RenderBucket = iota
	// BucketTransparent holds alpha-blended materials.
	BucketTransparent
	// BucketTransparentDoubleSided holds alpha-blended materials rendered without back-face culling.
	BucketTransparentDoubleSided
)

// String returns a readable bucket name.
func (b RenderBucket) String() string {
	switch b {
	case BucketTransparent:
		return "transparent"
	case BucketTransparentDoubleSided:
		return "transparent-double-sided"
	default:
		return "opaque"
	}
}

// Transparent reports whether the bucket is blended.
func (b RenderBucket) Transparent() bool {
	return b != BucketOpaque
}

// TextureContent is a decoded image shared by every material that references it.
type TextureContent struct {
	// ImageIndex is the source image index.
	ImageIndex int

	// Name is the image name, or a generated `_Image_{i}` name with an extension matching MimeType.
	Name string

	// MimeType is the declared or sniffed MIME type.
	MimeType string

	// Image holds the decoded RGBA8 pixels.
	Image common.DecodedImage

	// Texture is the GPU texture, nil when no graphics backend was used.
	Texture GPUResource
}

// TextureBinding pairs a texture with its sampler and UV set.
type TextureBinding struct {
	// Texture is the shared decoded image; nil when the texture has no embedded image.
	Texture *TextureContent

	// Sampler is the linear-clamp or linear-wrap sampler chosen from the glTF sampler.
	Sampler common.SamplerStagingData

	// TexCoord is the TEXCOORD set index.
	TexCoord int

	// Scale is the normal scale or occlusion strength (1 otherwise).
	Scale float32
}

// MaterialDescription is the canonical, engine-agnostic material.
type MaterialDescription struct {
	// Name is the material name.
	Name string

	// SourceIndex is the glTF material index, -1 for the default material.
	SourceIndex int

	// BaseColor is the linear RGBA base color.
	BaseColor [4]float32

	// MetallicFactor and RoughnessFactor scale the metallic-roughness texture.
	MetallicFactor  float32
	RoughnessFactor float32

	// EmissiveFactor is the linear RGB emissive color.
	EmissiveFactor [3]float32

	BaseColorTexture         *TextureBinding
	MetallicRoughnessTexture *TextureBinding
	NormalTexture            *TextureBinding
	EmissiveTexture          *TextureBinding
	OcclusionTexture         *TextureBinding

	// AlphaMode and AlphaCutoff control alpha testing and blending.
	AlphaMode   AlphaMode
	AlphaCutoff float32

	// DoubleSided disables back-face culling.
	DoubleSided bool

	// Bucket is the render layer derived from AlphaMode, the base color alpha and DoubleSided.
	Bucket RenderBucket

	// VertexColor enables per-vertex color modulation.
	VertexColor bool

	// Backend is the value produced by a material sink, if one was configured.
	Backend any
}

// Alpha returns the base color alpha.
func (m *MaterialDescription) Alpha() float32 {
	return m.BaseColor[3]
}

// MaterialEntry names a material registered with an asset registry.
type MaterialEntry struct {
	Name string
	ID   string
}
