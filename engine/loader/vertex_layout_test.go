package loader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interleavedPrimitive stores POSITION and NORMAL in one buffer view with a 24-byte stride.
func interleavedPrimitive(b *glbBuilder) gltfPrimitive {
	view := b.view(floatBytes(
		0, 0, 0, 0, 0, 1,
		1, 0, 0, 0, 0, 1,
		0, 1, 0, 0, 0, 1,
	), 24)
	pos := b.accessor(gltfAccessor{BufferView: ptr(view), ComponentType: gltfComponentFloat, Count: 3, Type: gltfTypeVec3})
	nrm := b.accessor(gltfAccessor{BufferView: ptr(view), ByteOffset: 12, ComponentType: gltfComponentFloat, Count: 3, Type: gltfTypeVec3})
	return gltfPrimitive{Attributes: map[string]int{"POSITION": pos, "NORMAL": nrm}}
}

func TestBuildVertexStreamsInterleaved(t *testing.T) {
	b := newGLBBuilder()
	prim := interleavedPrimitive(b)
	p := b.parse(t)

	layout, err := buildVertexStreams(p, &prim)
	require.NoError(t, err)
	require.Len(t, layout.streams, 1)

	s := layout.streams[0]
	assert.Equal(t, 24, s.Stride)
	assert.Equal(t, 3, s.Count)
	assert.Len(t, s.Data, 72)
	require.Len(t, s.Layout, 2)
	assert.Equal(t, model.SemanticPosition, s.Layout[0].Semantic)
	assert.Equal(t, 0, s.Layout[0].Offset)
	assert.Equal(t, model.SemanticNormal, s.Layout[1].Semantic)
	assert.Equal(t, 12, s.Layout[1].Offset)
	assert.Equal(t, model.ElementFormatFloat3, s.Layout[1].Format)

	assert.Equal(t, mgl32.Vec3{0, 0, 0}, layout.bounds.Min)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, layout.bounds.Max, "bounds computed when min/max are absent")
}

func TestBuildVertexStreamsSeparateViews(t *testing.T) {
	b := newGLBBuilder()
	pos := b.floats(gltfTypeVec3, 0, 0, 0, 1, 0, 0, 0, 1, 0)
	uv := b.floats(gltfTypeVec2, 0, 0, 1, 0, 0, 1)
	prim := gltfPrimitive{Attributes: map[string]int{"TEXCOORD_0": uv, "POSITION": pos}}
	p := b.parse(t)

	layout, err := buildVertexStreams(p, &prim)
	require.NoError(t, err)
	require.Len(t, layout.streams, 2)

	assert.Equal(t, 12, layout.streams[0].Stride)
	assert.Equal(t, model.SemanticPosition, layout.streams[0].Layout[0].Semantic)
	assert.Equal(t, 8, layout.streams[1].Stride)
	assert.Equal(t, model.SemanticTexCoord, layout.streams[1].Layout[0].Semantic)
	assert.False(t, layout.vertexColor)
}

func TestBuildVertexStreamsSplitsOverlappingAttributes(t *testing.T) {
	b := newGLBBuilder()
	view := b.view(floatBytes(1, 2, 3, 4, 5, 6, 7, 8, 9), 0)
	pos := b.accessor(gltfAccessor{BufferView: ptr(view), ComponentType: gltfComponentFloat, Count: 3, Type: gltfTypeVec3})
	alias := b.accessor(gltfAccessor{BufferView: ptr(view), ComponentType: gltfComponentFloat, Count: 3, Type: gltfTypeVec3})
	prim := gltfPrimitive{Attributes: map[string]int{"POSITION": pos, "NORMAL": alias}}
	p := b.parse(t)

	layout, err := buildVertexStreams(p, &prim)
	require.NoError(t, err)
	assert.Len(t, layout.streams, 2)
}

func TestBuildVertexStreamsColorAndCustomAttributes(t *testing.T) {
	b := newGLBBuilder()
	pos := b.floats(gltfTypeVec3, 0, 0, 0)
	col := b.floats(gltfTypeVec4, 1, 0, 0, 1)
	custom := b.floats(gltfTypeScalar, 7)
	prim := gltfPrimitive{Attributes: map[string]int{"POSITION": pos, "COLOR_0": col, "_CUSTOM": custom}}
	p := b.parse(t)

	layout, err := buildVertexStreams(p, &prim)
	require.NoError(t, err)
	assert.True(t, layout.vertexColor)
	assert.Len(t, layout.streams, 2, "custom attribute skipped")
}

func TestBuildVertexStreamsUsesDeclaredBounds(t *testing.T) {
	b := newGLBBuilder()
	prim := b.triangle()
	b.doc.Accessors[prim.Attributes["POSITION"]].Max = []float32{5, 5, 5}
	p := b.parse(t)

	layout, err := buildVertexStreams(p, &prim)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{5, 5, 5}, layout.bounds.Max)
}

func TestBuildVertexStreamsUnsupportedFormat(t *testing.T) {
	b := newGLBBuilder()
	view := b.view(floatBytes(1, 2, 3), 0)
	pos := b.accessor(gltfAccessor{BufferView: ptr(view), ComponentType: gltfComponentFloat, Normalized: true, Count: 1, Type: gltfTypeVec3})
	prim := gltfPrimitive{Attributes: map[string]int{"POSITION": pos}}
	p := b.parse(t)

	_, err := buildVertexStreams(p, &prim)
	assert.ErrorIs(t, err, ErrUnsupportedAccessorFormat)
}
