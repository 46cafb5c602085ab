// gltf_types.go holds the glTF 2.0 JSON schema subset the importer reads.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package loader

import "encoding/json"

type gltfDocument struct {
	Asset       gltfAsset        `json:"asset"`
	Scene       *int             `json:"scene,omitempty"`
	Scenes      []gltfScene      `json:"scenes,omitempty"`
	Nodes       []gltfNode       `json:"nodes,omitempty"`
	Meshes      []gltfMesh       `json:"meshes,omitempty"`
	Accessors   []gltfAccessor   `json:"accessors,omitempty"`
	BufferViews []gltfBufferView `json:"bufferViews,omitempty"`
	Buffers     []gltfBuffer     `json:"buffers,omitempty"`
	Materials   []gltfMaterial   `json:"materials,omitempty"`
	Textures    []gltfTexture    `json:"textures,omitempty"`
	Images      []gltfImage      `json:"images,omitempty"`
	Samplers    []gltfSampler    `json:"samplers,omitempty"`
	Skins       []gltfSkin       `json:"skins,omitempty"`
	Animations  []gltfAnimation  `json:"animations,omitempty"`

	ExtensionsUsed     []string `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string `json:"extensionsRequired,omitempty"`
}

type gltfAsset struct {
	Version    string `json:"version"`
	MinVersion string `json:"minVersion,omitempty"`
	Generator  string `json:"generator,omitempty"`
}

type gltfScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// gltfNode is a scene node. Matrix, when present and not identity, takes precedence over TRS.
type gltfNode struct {
	Name        string       `json:"name,omitempty"`
	Children    []int        `json:"children,omitempty"`
	Mesh        *int         `json:"mesh,omitempty"`
	Skin        *int         `json:"skin,omitempty"`
	Matrix      *[16]float32 `json:"matrix,omitempty"`
	Translation *[3]float32  `json:"translation,omitempty"`
	Rotation    *[4]float32  `json:"rotation,omitempty"` // x, y, z, w
	Scale       *[3]float32  `json:"scale,omitempty"`
	Weights     []float32    `json:"weights,omitempty"`
}

type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
	Weights    []float32       `json:"weights,omitempty"`
}

type gltfPrimitive struct {
	Attributes map[string]int   `json:"attributes"`
	Indices    *int             `json:"indices,omitempty"`
	Material   *int             `json:"material,omitempty"`
	Mode       *int             `json:"mode,omitempty"`
	Targets    []map[string]int `json:"targets,omitempty"`
}

// Primitive modes.
const (
	gltfModePoints        = 0
	gltfModeLines         = 1
	gltfModeLineLoop      = 2
	gltfModeLineStrip     = 3
	gltfModeTriangles     = 4
	gltfModeTriangleStrip = 5
	gltfModeTriangleFan   = 6
)

type gltfAccessor struct {
	Name          string              `json:"name,omitempty"`
	BufferView    *int                `json:"bufferView,omitempty"`
	ByteOffset    int                 `json:"byteOffset,omitempty"`
	ComponentType int                 `json:"componentType"`
	Normalized    bool                `json:"normalized,omitempty"`
	Count         int                 `json:"count"`
	Type          string              `json:"type"`
	Max           []float32           `json:"max,omitempty"`
	Min           []float32           `json:"min,omitempty"`
	Sparse        *gltfAccessorSparse `json:"sparse,omitempty"`
}

// gltfAccessorSparse is only decoded so sparse accessors can be rejected.
type gltfAccessorSparse struct {
	Count int `json:"count"`
}

// Component types.
const (
	gltfComponentByte          = 5120
	gltfComponentUnsignedByte  = 5121
	gltfComponentShort         = 5122
	gltfComponentUnsignedShort = 5123
	gltfComponentUnsignedInt   = 5125
	gltfComponentFloat         = 5126
)

// Accessor types.
const (
	gltfTypeScalar = "SCALAR"
	gltfTypeVec2   = "VEC2"
	gltfTypeVec3   = "VEC3"
	gltfTypeVec4   = "VEC4"
	gltfTypeMat2   = "MAT2"
	gltfTypeMat3   = "MAT3"
	gltfTypeMat4   = "MAT4"
)

type gltfBufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset,omitempty"`
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride,omitempty"`
	Target     *int `json:"target,omitempty"`
}

// stride returns the declared byte stride, or 0 for tightly packed views.
func (v *gltfBufferView) stride() int {
	if v.ByteStride == nil {
		return 0
	}
	return *v.ByteStride
}

type gltfBuffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

type gltfMaterial struct {
	Name                 string                     `json:"name,omitempty"`
	PbrMetallicRoughness *gltfPbrMetallicRoughness  `json:"pbrMetallicRoughness,omitempty"`
	NormalTexture        *gltfTextureInfo           `json:"normalTexture,omitempty"`
	OcclusionTexture     *gltfTextureInfo           `json:"occlusionTexture,omitempty"`
	EmissiveTexture      *gltfTextureInfo           `json:"emissiveTexture,omitempty"`
	EmissiveFactor       *[3]float32                `json:"emissiveFactor,omitempty"`
	AlphaMode            string                     `json:"alphaMode,omitempty"`
	AlphaCutoff          *float32                   `json:"alphaCutoff,omitempty"`
	DoubleSided          bool                       `json:"doubleSided,omitempty"`
	Extensions           map[string]json.RawMessage `json:"extensions,omitempty"`
}

// Alpha modes.
const (
	gltfAlphaOpaque = "OPAQUE"
	gltfAlphaMask   = "MASK"
	gltfAlphaBlend  = "BLEND"
)

const gltfExtSpecularGlossiness = "KHR_materials_pbrSpecularGlossiness"

type gltfPbrMetallicRoughness struct {
	BaseColorFactor          *[4]float32      `json:"baseColorFactor,omitempty"`
	BaseColorTexture         *gltfTextureInfo `json:"baseColorTexture,omitempty"`
	MetallicFactor           *float32         `json:"metallicFactor,omitempty"`
	RoughnessFactor          *float32         `json:"roughnessFactor,omitempty"`
	MetallicRoughnessTexture *gltfTextureInfo `json:"metallicRoughnessTexture,omitempty"`
}

// gltfSpecularGlossiness is the KHR_materials_pbrSpecularGlossiness extension body.
type gltfSpecularGlossiness struct {
	DiffuseFactor  *[4]float32      `json:"diffuseFactor,omitempty"`
	DiffuseTexture *gltfTextureInfo `json:"diffuseTexture,omitempty"`
}

// gltfTextureInfo covers textureInfo, normalTextureInfo (scale) and occlusionTextureInfo (strength).
type gltfTextureInfo struct {
	Index    int      `json:"index"`
	TexCoord int      `json:"texCoord,omitempty"`
	Scale    *float32 `json:"scale,omitempty"`
	Strength *float32 `json:"strength,omitempty"`
}

type gltfTexture struct {
	Name    string `json:"name,omitempty"`
	Sampler *int   `json:"sampler,omitempty"`
	Source  *int   `json:"source,omitempty"`
}

type gltfImage struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
}

type gltfSampler struct {
	MagFilter *int `json:"magFilter,omitempty"`
	MinFilter *int `json:"minFilter,omitempty"`
	WrapS     *int `json:"wrapS,omitempty"`
	WrapT     *int `json:"wrapT,omitempty"`
}

const gltfWrapClampToEdge = 33071

type gltfSkin struct {
	Name                string `json:"name,omitempty"`
	InverseBindMatrices *int   `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int   `json:"skeleton,omitempty"`
	Joints              []int  `json:"joints"`
}

type gltfAnimation struct {
	Name     string                 `json:"name,omitempty"`
	Channels []gltfAnimationChannel `json:"channels"`
	Samplers []gltfAnimationSampler `json:"samplers"`
}

type gltfAnimationChannel struct {
	Sampler int                 `json:"sampler"`
	Target  gltfAnimationTarget `json:"target"`
}

type gltfAnimationTarget struct {
	Node *int   `json:"node,omitempty"`
	Path string `json:"path"`
}

type gltfAnimationSampler struct {
	Input         int    `json:"input"`
	Output        int    `json:"output"`
	Interpolation string `json:"interpolation,omitempty"`
}

// Animation target paths and interpolation modes.
const (
	gltfPathTranslation = "translation"
	gltfPathRotation    = "rotation"
	gltfPathScale       = "scale"
	gltfPathWeights     = "weights"

	gltfInterpolationStep        = "STEP"
	gltfInterpolationCubicSpline = "CUBICSPLINE"
)
