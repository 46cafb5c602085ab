package loader

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessorFloatVec3(t *testing.T) {
	b := newGLBBuilder()
	idx := b.floats(gltfTypeVec3, 1, 2, 3, 4, 5, 6)
	p := b.parse(t)

	v, err := p.Accessor(idx)
	require.NoError(t, err)
	assert.Equal(t, 12, v.elementSize)
	assert.Equal(t, 12, v.stride)
	assert.Equal(t, 2, v.count)
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, v.Vec3(1))

	again, err := p.Accessor(idx)
	require.NoError(t, err)
	assert.Same(t, v, again)
}

func TestAccessorStridedRead(t *testing.T) {
	b := newGLBBuilder()
	// Two vertices of (position, pad) with a 16-byte stride.
	view := b.view(floatBytes(1, 2, 3, 99, 4, 5, 6, 99), 16)
	idx := b.accessor(gltfAccessor{BufferView: ptr(view), ComponentType: gltfComponentFloat, Count: 2, Type: gltfTypeVec3})
	p := b.parse(t)

	v, err := p.Accessor(idx)
	require.NoError(t, err)
	assert.Equal(t, 16, v.stride)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, v.Vec3(0))
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, v.Vec3(1))
}

func TestAccessorNormalizedComponents(t *testing.T) {
	b := newGLBBuilder()
	view := b.view([]byte{255, 0, 128, 0}, 0)
	ub := b.accessor(gltfAccessor{BufferView: ptr(view), ComponentType: gltfComponentUnsignedByte, Normalized: true, Count: 1, Type: gltfTypeVec4})
	sb := b.accessor(gltfAccessor{BufferView: ptr(view), ComponentType: gltfComponentByte, Normalized: true, Count: 1, Type: gltfTypeVec4})
	p := b.parse(t)

	v, err := p.Accessor(ub)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v.component(0, 0), 1e-6)
	assert.InDelta(t, 128.0/255.0, v.component(0, 2), 1e-6)

	s, err := p.Accessor(sb)
	require.NoError(t, err)
	assert.InDelta(t, -1.0/127.0, s.component(0, 0), 1e-6)
	assert.InDelta(t, -1.0, s.component(0, 2), 1e-6, "-128 clamps to -1")
}

func TestAccessorMat4(t *testing.T) {
	b := newGLBBuilder()
	m := mgl32.Translate3D(1, 2, 3)
	idx := b.floats(gltfTypeMat4, m[:]...)
	p := b.parse(t)

	v, err := p.Accessor(idx)
	require.NoError(t, err)
	assert.Equal(t, 64, v.elementSize)
	assert.Equal(t, m, v.Mat4(0))
}

func TestAccessorMatrixColumnPadding(t *testing.T) {
	columnSize, elementSize := elementLayout(gltfComponentUnsignedByte, gltfTypeMat3)
	assert.Equal(t, 4, columnSize)
	assert.Equal(t, 12, elementSize)

	columnSize, elementSize = elementLayout(gltfComponentFloat, gltfTypeMat4)
	assert.Equal(t, 16, columnSize)
	assert.Equal(t, 64, elementSize)
}

func TestAccessorQuatOrder(t *testing.T) {
	b := newGLBBuilder()
	idx := b.floats(gltfTypeVec4, 0.1, 0.2, 0.3, 0.9)
	p := b.parse(t)

	v, err := p.Accessor(idx)
	require.NoError(t, err)
	q := v.Quat(0)
	assert.Equal(t, float32(0.9), q.W)
	assert.Equal(t, mgl32.Vec3{0.1, 0.2, 0.3}, q.V)
}

func TestAccessorErrors(t *testing.T) {
	b := newGLBBuilder()
	view := b.view(floatBytes(1, 2, 3, 4, 5, 6), 0)
	overrun := b.accessor(gltfAccessor{BufferView: ptr(view), ComponentType: gltfComponentFloat, Count: 3, Type: gltfTypeVec3})
	offset := b.accessor(gltfAccessor{BufferView: ptr(view), ByteOffset: 4, ComponentType: gltfComponentFloat, Count: 2, Type: gltfTypeVec3})
	sparse := b.accessor(gltfAccessor{BufferView: ptr(view), ComponentType: gltfComponentFloat, Count: 1, Type: gltfTypeVec3, Sparse: &gltfAccessorSparse{Count: 1}})
	badType := b.accessor(gltfAccessor{BufferView: ptr(view), ComponentType: 5130, Count: 1, Type: gltfTypeScalar})
	badView := b.accessor(gltfAccessor{BufferView: ptr(42), ComponentType: gltfComponentFloat, Count: 1, Type: gltfTypeScalar})
	strided := b.view(floatBytes(1, 2, 3, 4), 8)
	narrow := b.accessor(gltfAccessor{BufferView: ptr(strided), ComponentType: gltfComponentFloat, Count: 1, Type: gltfTypeVec3})
	p := b.parse(t)

	tests := []struct {
		name  string
		index int
		want  error
	}{
		{"count overruns view", overrun, ErrAccessorOutOfRange},
		{"offset overruns view", offset, ErrAccessorOutOfRange},
		{"sparse", sparse, ErrUnsupportedAccessorFormat},
		{"unknown component type", badType, ErrUnsupportedAccessorFormat},
		{"missing buffer view", badView, ErrInvalidReference},
		{"stride below element size", narrow, ErrAccessorOutOfRange},
		{"missing accessor", 99, ErrInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Accessor(tt.index)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAccessorWithoutBufferViewReadsZeros(t *testing.T) {
	b := newGLBBuilder()
	idx := b.accessor(gltfAccessor{ComponentType: gltfComponentFloat, Count: 2, Type: gltfTypeVec3})
	p := b.parse(t)

	v, err := p.Accessor(idx)
	require.NoError(t, err)
	assert.Equal(t, -1, v.viewIndex)
	assert.Equal(t, mgl32.Vec3{}, v.Vec3(1))
}

func TestFloatArraySpansElements(t *testing.T) {
	b := newGLBBuilder()
	idx := b.floats(gltfTypeScalar, 1, 2, 3, 4, 5, 6)
	p := b.parse(t)

	v, err := p.Accessor(idx)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, v.FloatArray(2, 2))
}

func TestAccessorRejectsHugeCount(t *testing.T) {
	b := newGLBBuilder()
	view := b.view(floatBytes(0, 0, 0, 1, 0, 0, 0, 1, 0), 0)
	overflow := b.accessor(gltfAccessor{BufferView: ptr(view), ComponentType: gltfComponentFloat, Count: 1 << 62, Type: gltfTypeVec3})
	strided := b.accessor(gltfAccessor{BufferView: ptr(view), ComponentType: gltfComponentFloat, Count: 3, ByteOffset: 1 << 40, Type: gltfTypeVec3})
	zeros := b.accessor(gltfAccessor{ComponentType: gltfComponentFloat, Count: 1 << 62, Type: gltfTypeVec3})
	p := b.parse(t)

	for _, idx := range []int{overflow, strided, zeros} {
		_, err := p.Accessor(idx)
		assert.ErrorIs(t, err, ErrAccessorOutOfRange, "accessor %d", idx)
	}
}
