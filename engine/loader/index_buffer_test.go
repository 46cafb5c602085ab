package loader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexValues(ib *model.IndexBuffer) []uint32 {
	out := make([]uint32, ib.Count)
	for i := range out {
		out[i] = ib.At(i)
	}
	return out
}

func TestBuildIndexBuffer16(t *testing.T) {
	b := newGLBBuilder()
	prim := gltfPrimitive{Indices: ptr(b.indices16(0, 1, 2, 2, 1, 3))}
	p := b.parse(t)

	ib, err := buildIndexBuffer(p, &prim, 4, model.TopologyTriangleList, false)
	require.NoError(t, err)
	assert.Equal(t, model.IndexWidth16, ib.Width)
	assert.Equal(t, 6, ib.Count)
	assert.Len(t, ib.Data, 12)
	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 3}, indexValues(ib))
	assert.False(t, ib.FlipWinding)
}

func TestBuildIndexBuffer32Flipped(t *testing.T) {
	b := newGLBBuilder()
	prim := gltfPrimitive{Indices: ptr(b.indices32(0, 1, 70000, 3, 4, 5, 6))}
	p := b.parse(t)

	ib, err := buildIndexBuffer(p, &prim, 70001, model.TopologyTriangleList, true)
	require.NoError(t, err)
	assert.Equal(t, model.IndexWidth32, ib.Width)
	assert.Len(t, ib.Data, 28)
	assert.True(t, ib.FlipWinding)
	assert.Equal(t, []uint32{0, 70000, 1, 3, 5, 4, 6}, indexValues(ib), "trailing partial triangle kept as is")
}

func TestBuildIndexBufferFlipOnlyAffectsTriangleLists(t *testing.T) {
	b := newGLBBuilder()
	prim := gltfPrimitive{Indices: ptr(b.indices16(0, 1, 2, 3))}
	p := b.parse(t)

	ib, err := buildIndexBuffer(p, &prim, 4, model.TopologyTriangleStrip, true)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2, 3}, indexValues(ib))
	assert.True(t, ib.FlipWinding)
}

func TestBuildIndexBufferGenerated(t *testing.T) {
	b := newGLBBuilder()
	p := b.parse(t)

	ib, err := buildIndexBuffer(p, &gltfPrimitive{}, 3, model.TopologyTriangleList, true)
	require.NoError(t, err)
	assert.Equal(t, model.IndexWidth16, ib.Width)
	assert.Equal(t, []uint32{0, 2, 1}, indexValues(ib))

	ib, err = buildIndexBuffer(p, &gltfPrimitive{}, 70000, model.TopologyPointList, false)
	require.NoError(t, err)
	assert.Equal(t, model.IndexWidth32, ib.Width)
	assert.Equal(t, uint32(69999), ib.At(69999))
}

func TestBuildIndexBufferWidensBytes(t *testing.T) {
	b := newGLBBuilder()
	view := b.view([]byte{0, 1, 2, 0}, 0)
	idx := b.accessor(gltfAccessor{BufferView: ptr(view), ComponentType: gltfComponentUnsignedByte, Count: 3, Type: gltfTypeScalar})
	prim := gltfPrimitive{Indices: ptr(idx)}
	p := b.parse(t)

	ib, err := buildIndexBuffer(p, &prim, 3, model.TopologyTriangleList, false)
	require.NoError(t, err)
	assert.Equal(t, model.IndexWidth16, ib.Width)
	assert.Equal(t, []uint32{0, 1, 2}, indexValues(ib))
}

func TestBuildIndexBufferRejectsFloatIndices(t *testing.T) {
	b := newGLBBuilder()
	prim := gltfPrimitive{Indices: ptr(b.floats(gltfTypeScalar, 0, 1, 2))}
	p := b.parse(t)

	_, err := buildIndexBuffer(p, &prim, 3, model.TopologyTriangleList, false)
	assert.ErrorIs(t, err, ErrUnsupportedAccessorFormat)
}

func TestTopology(t *testing.T) {
	got, err := topology(nil)
	require.NoError(t, err)
	assert.Equal(t, model.TopologyTriangleList, got)

	got, err = topology(ptr(gltfModeLineStrip))
	require.NoError(t, err)
	assert.Equal(t, model.TopologyLineStrip, got)

	for _, mode := range []int{gltfModeLineLoop, gltfModeTriangleFan, 9} {
		_, err = topology(ptr(mode))
		assert.ErrorIs(t, err, ErrUnsupportedTopology)
	}
}
