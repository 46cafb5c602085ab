package loader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementFormat(t *testing.T) {
	tests := []struct {
		componentType int
		accessorType  string
		normalized    bool
		want          model.ElementFormat
	}{
		{gltfComponentFloat, gltfTypeScalar, false, model.ElementFormatFloat},
		{gltfComponentFloat, gltfTypeVec3, false, model.ElementFormatFloat3},
		{gltfComponentFloat, gltfTypeMat4, false, model.ElementFormatFloat4x4},
		{gltfComponentUnsignedInt, gltfTypeVec2, false, model.ElementFormatUInt2},
		{gltfComponentUnsignedByte, gltfTypeVec4, false, model.ElementFormatUByte4},
		{gltfComponentUnsignedByte, gltfTypeVec4, true, model.ElementFormatUByte4Normalized},
		{gltfComponentByte, gltfTypeVec3, true, model.ElementFormatByte3Normalized},
		{gltfComponentShort, gltfTypeVec2, false, model.ElementFormatShort2},
		{gltfComponentUnsignedShort, gltfTypeVec4, false, model.ElementFormatUShort4},
		{gltfComponentUnsignedShort, gltfTypeScalar, true, model.ElementFormatUShortNormalized},
	}
	for _, tt := range tests {
		got, err := elementFormat(tt.componentType, tt.accessorType, tt.normalized)
		require.NoError(t, err, "%d %s %t", tt.componentType, tt.accessorType, tt.normalized)
		assert.Equal(t, tt.want, got, "%d %s %t", tt.componentType, tt.accessorType, tt.normalized)
	}
}

func TestElementFormatUnsupported(t *testing.T) {
	tests := []struct {
		componentType int
		accessorType  string
		normalized    bool
	}{
		{gltfComponentFloat, gltfTypeVec3, true},
		{gltfComponentUnsignedInt, gltfTypeScalar, true},
		{gltfComponentFloat, gltfTypeMat3, false},
		{gltfComponentUnsignedShort, gltfTypeMat4, false},
		{gltfComponentFloat, "VEC5", false},
		{5130, gltfTypeScalar, false},
	}
	for _, tt := range tests {
		_, err := elementFormat(tt.componentType, tt.accessorType, tt.normalized)
		assert.ErrorIs(t, err, ErrUnsupportedAccessorFormat, "%d %s %t", tt.componentType, tt.accessorType, tt.normalized)
	}
}

func TestParseSemantic(t *testing.T) {
	semantic, index, ok := parseSemantic("TEXCOORD_1")
	require.True(t, ok)
	assert.Equal(t, model.SemanticTexCoord, semantic)
	assert.Equal(t, 1, index)

	semantic, index, ok = parseSemantic("POSITION")
	require.True(t, ok)
	assert.Equal(t, model.SemanticPosition, semantic)
	assert.Zero(t, index)

	for _, name := range []string{"_CUSTOM", "TEXCOORD_x", "BLEND_0", ""} {
		_, _, ok = parseSemantic(name)
		assert.False(t, ok, name)
	}
}
