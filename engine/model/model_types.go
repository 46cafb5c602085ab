package model

import (
	"encoding/binary"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUResource is a handle to a backend-owned resource (buffer or texture).
type GPUResource interface {
	// Label returns the debug label the resource was created with.
	Label() string

	// Release frees the backend resource. Calling Release more than once is a no-op.
	Release()
}

// --- Vertex Data ---

// ElementSemantic identifies what a vertex attribute represents.
type ElementSemantic int

const (
	SemanticPosition ElementSemantic = iota
	SemanticNormal
	SemanticTangent
	SemanticTexCoord
	SemanticColor
	SemanticJoints
	SemanticWeights
)

// String returns the glTF attribute prefix for the semantic.
func (s ElementSemantic) String() string {
	switch s {
	case SemanticPosition:
		return "POSITION"
	case SemanticNormal:
		return "NORMAL"
	case SemanticTangent:
		return "TANGENT"
	case SemanticTexCoord:
		return "TEXCOORD"
	case SemanticColor:
		return "COLOR"
	case SemanticJoints:
		return "JOINTS"
	case SemanticWeights:
		return "WEIGHTS"
	default:
		return "UNKNOWN"
	}
}

// ElementDescription describes one attribute inside an interleaved vertex stream.
type ElementDescription struct {
	// Semantic is the attribute meaning.
	Semantic ElementSemantic

	// SemanticIndex is the attribute set (the N in TEXCOORD_N).
	SemanticIndex int

	// Format is the element format.
	Format ElementFormat

	// Offset is the byte offset of the element within one vertex of the stream.
	Offset int
}

// VertexStream is one vertex buffer holding one or more interleaved attributes.
type VertexStream struct {
	// Data is the raw vertex bytes, Stride*Count long.
	Data []byte

	// Stride is the distance in bytes between consecutive vertices.
	Stride int

	// Count is the number of vertices.
	Count int

	// Layout lists the attributes in this stream ordered by Offset.
	Layout []ElementDescription

	// Buffer is the GPU vertex buffer, nil when no graphics backend was used.
	Buffer GPUResource
}

// Element returns the first element with the given semantic, or false if absent.
//
// Parameters:
//   - semantic: the attribute semantic
//   - index: the semantic index
//
// Returns:
//   - ElementDescription: the element
//   - bool: true if found
func (s *VertexStream) Element(semantic ElementSemantic, index int) (ElementDescription, bool) {
	for _, e := range s.Layout {
		if e.Semantic == semantic && e.SemanticIndex == index {
			return e, true
		}
	}
	return ElementDescription{}, false
}

// IndexWidth is the size of one index in bits.
type IndexWidth int

const (
	IndexWidth16 IndexWidth = 16
	IndexWidth32 IndexWidth = 32
)

// Bytes returns the size of one index in bytes.
func (w IndexWidth) Bytes() int {
	return int(w) / 8
}

// IndexBuffer holds the indices of a primitive.
type IndexBuffer struct {
	// Data is the raw little-endian index bytes, Count*Width.Bytes() long.
	Data []byte

	// Count is the number of indices.
	Count int

	// Width is 16 or 32 bits.
	Width IndexWidth

	// FlipWinding reports whether triangle winding was reversed when the buffer was built.
	FlipWinding bool

	// Buffer is the GPU index buffer, nil when no graphics backend was used.
	Buffer GPUResource
}

// At decodes index i.
func (b *IndexBuffer) At(i int) uint32 {
	if b.Width == IndexWidth16 {
		return uint32(binary.LittleEndian.Uint16(b.Data[i*2:]))
	}
	return binary.LittleEndian.Uint32(b.Data[i*4:])
}

// PrimitiveTopology is how indices are assembled into primitives.
type PrimitiveTopology int

const (
	TopologyTriangleList PrimitiveTopology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyLineStrip
	TopologyPointList
)

// String returns a readable topology name.
func (t PrimitiveTopology) String() string {
	switch t {
	case TopologyTriangleList:
		return "triangle-list"
	case TopologyTriangleStrip:
		return "triangle-strip"
	case TopologyLineList:
		return "line-list"
	case TopologyLineStrip:
		return "line-strip"
	case TopologyPointList:
		return "point-list"
	default:
		return "unknown"
	}
}

// MeshPrimitive is one draw call.
type MeshPrimitive struct {
	// Streams are the vertex buffers of the primitive.
	Streams []*VertexStream

	// Indices is the index buffer.
	Indices *IndexBuffer

	// Topology is the primitive assembly mode.
	Topology PrimitiveTopology

	// MaterialIndex indexes Model.MaterialDescriptions.
	MaterialIndex int

	// VertexColor reports whether the primitive declares a COLOR attribute.
	VertexColor bool

	// Bounds is the local bounding box taken from the POSITION accessor's min/max.
	Bounds common.BoundingBox
}

// VertexCount returns the vertex count of the first stream.
func (p *MeshPrimitive) VertexCount() int {
	if len(p.Streams) == 0 {
		return 0
	}
	return p.Streams[0].Count
}

// MeshContainer is a named group of primitives attached to one node.
type MeshContainer struct {
	// Name is the filename-safe mesh name.
	Name string

	// MeshIndex is the source mesh index; containers sharing it share Primitives.
	MeshIndex int

	// Primitives are the draw calls of the mesh.
	Primitives []*MeshPrimitive

	// Skin is the skin bound by the owning node, if any.
	Skin *SkinContent

	// MorphTargetCount is the number of morph targets of the first primitive.
	MorphTargetCount int

	// MorphTargetWeights are the default morph weights of the mesh.
	MorphTargetWeights []float32

	// Bounds is the union of the primitive boxes in local space.
	Bounds common.BoundingBox
}

// RefreshBoundingBox recomputes Bounds from the primitives.
func (c *MeshContainer) RefreshBoundingBox() {
	bounds := common.EmptyBoundingBox()
	for _, p := range c.Primitives {
		bounds = bounds.Union(p.Bounds)
	}
	c.Bounds = bounds
}

// --- Scene Graph ---

// NodeContent is one node of the scene hierarchy.
type NodeContent struct {
	// Index is the node's index in Model.AllNodes.
	Index int

	// Name is the filename-safe node name.
	Name string

	// Translation, Rotation and Scale are the local transform.
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3

	// Parent is nil for root nodes.
	Parent *NodeContent

	// Children are owned child nodes, ChildIndices their indices in Model.AllNodes.
	Children     []*NodeContent
	ChildIndices []int

	// Mesh is the node's mesh container, if any.
	Mesh *MeshContainer

	// Skin is the node's skin, if any.
	Skin *SkinContent
}

// LocalMatrix composes the local TRS into a matrix.
func (n *NodeContent) LocalMatrix() mgl32.Mat4 {
	return common.ComposeMatrix(n.Translation, n.Rotation, n.Scale)
}

// WorldMatrix walks the parent chain and returns the bind-pose world transform.
func (n *NodeContent) WorldMatrix() mgl32.Mat4 {
	m := n.LocalMatrix()
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// --- Skinning ---

// SkinContent is a joint set with its inverse bind matrices.
type SkinContent struct {
	// Name is the skin name, possibly empty.
	Name string

	// RootJoint is the skeleton root node index (0 when the file omits it).
	RootJoint int

	// Joints are node indices.
	Joints []int

	// InverseBindMatrices is index-aligned with Joints, or nil when the file has none.
	InverseBindMatrices []mgl32.Mat4
}

// --- Animation ---

// AnimationProperty is the node property an animation channel drives.
type AnimationProperty int

const (
	PropertyTranslation AnimationProperty = iota
	PropertyRotation
	PropertyScale
	PropertyMorphWeights
)

// String returns the glTF path name of the property.
func (p AnimationProperty) String() string {
	switch p {
	case PropertyTranslation:
		return "translation"
	case PropertyRotation:
		return "rotation"
	case PropertyScale:
		return "scale"
	case PropertyMorphWeights:
		return "weights"
	default:
		return "unknown"
	}
}

// Interpolation is the keyframe interpolation mode.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubicSpline
)

// Keyframe is a value at a time in seconds.
type Keyframe[T any] struct {
	Time  float32
	Value T
}

// Curve is a typed keyframe track.
type Curve[T any] struct {
	// Keyframes are ordered by non-decreasing Time.
	Keyframes []Keyframe[T]

	// StartTime and EndTime are the first and last keyframe times.
	StartTime float32
	EndTime   float32
}

// Duration returns EndTime - StartTime.
func (c *Curve[T]) Duration() float32 {
	return c.EndTime - c.StartTime
}

// KeyCount returns the number of keyframes.
func (c *Curve[T]) KeyCount() int {
	return len(c.Keyframes)
}

type (
	// Vector3Curve drives translation or scale.
	Vector3Curve = Curve[mgl32.Vec3]
	// QuaternionCurve drives rotation.
	QuaternionCurve = Curve[mgl32.Quat]
	// FloatArrayCurve drives morph target weights; every value has the same width.
	FloatArrayCurve = Curve[[]float32]
)

// AnimationChannel drives one property of one node. Exactly one of the curve fields is set,
// matching Property.
type AnimationChannel struct {
	NodeIndex     int
	Property      AnimationProperty
	Interpolation Interpolation

	Vector3    *Vector3Curve
	Quaternion *QuaternionCurve
	Weights    *FloatArrayCurve

	// WeightsWidth is the number of morph weights per keyframe.
	WeightsWidth int

	// Duration is the curve's EndTime - StartTime.
	Duration float32
}

// AnimationClip is a named set of channels.
type AnimationClip struct {
	// Name is the clip name (`Track{i}` when the file leaves it empty).
	Name string

	// Duration is the maximum channel duration.
	Duration float32

	// Channels are the animated properties.
	Channels []*AnimationChannel
}
