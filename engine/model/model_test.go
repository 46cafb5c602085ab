package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

type fakeResource struct {
	label    string
	released int
}

func (r *fakeResource) Label() string { return r.label }
func (r *fakeResource) Release() { r.released++ }

func TestElementFormatSize(t *testing.T) {
	tests := []struct {
		format     ElementFormat
		size       int
		components int
		normalized bool
	}{
		{ElementFormatFloat3, 12, 3, false},
		{ElementFormatFloat4, 16, 4, false},
		{ElementFormatFloat, 4, 1, false},
		{ElementFormatUByte4Normalized, 4, 4, true},
		{ElementFormatByte3, 3, 3, false},
		{ElementFormatShort2Normalized, 4, 2, true},
		{ElementFormatUShort4, 8, 4, false},
		{ElementFormatUInt3, 12, 3, false},
		{ElementFormatFloat4x4, 64, 16, false},
		{ElementFormatUndefined, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			assert.Equal(t, tt.size, tt.format.Size())
			assert.Equal(t, tt.components, tt.format.ComponentCount())
			assert.Equal(t, tt.normalized, tt.format.Normalized())
		})
	}
}

func TestModelBoundingBoxUsesWorldTransform(t *testing.T) {
	container := &MeshContainer{
		Primitives: []*MeshPrimitive{
			{Bounds: common.NewBoundingBox([]float32{-1, -1, -1}, []float32{1, 1, 1})},
		},
	}
	container.RefreshBoundingBox()

	parent := &NodeContent{Index: 0, Translation: mgl32.Vec3{10, 0, 0}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
	child := &NodeContent{Index: 1, Translation: mgl32.Vec3{0, 5, 0}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{2, 2, 2}, Mesh: container, Parent: parent}
	parent.Children = []*NodeContent{child}
	parent.ChildIndices = []int{1}

	m := NewModel(WithNodes([]*NodeContent{parent, child}, []int{0}), WithMeshContainers([]*MeshContainer{container}))

	bb := m.BoundingBox()
	assert.True(t, bb.Min.ApproxEqual(mgl32.Vec3{8, 3, -2}), "min %v", bb.Min)
	assert.True(t, bb.Max.ApproxEqual(mgl32.Vec3{12, 7, 2}), "max %v", bb.Max)
}

func TestModelMaterialsAndRelease(t *testing.T) {
	r1, r2 := &fakeResource{label: "a"}, &fakeResource{label: "b"}
	m := NewModel(
		WithName("test"),
		WithMaterials([]*MaterialDescription{{Name: "red"}, {Name: "blue"}}),
		WithResources([]GPUResource{r1, r2}),
		WithAnimations(map[string]*AnimationClip{"walk": {Name: "walk"}, "idle": {Name: "idle"}}),
	)

	assert.Equal(t, "test", m.Name())
	assert.Equal(t, []string{"idle", "walk"}, m.AnimationNames())

	m.SetMaterialID(1, "id-1")
	m.SetMaterialID(5, "ignored")
	assert.Equal(t, []MaterialEntry{{Name: "red"}, {Name: "blue", ID: "id-1"}}, m.Materials())

	assert.Nil(t, m.Node(3))
	assert.True(t, m.BoundingBox().IsEmpty())

	m.Release()
	m.Release()
	assert.Equal(t, 1, r1.released)
	assert.Equal(t, 1, r2.released)
	assert.Empty(t, m.Resources())
}

func TestCurveDuration(t *testing.T) {
	c := Vector3Curve{
		Keyframes: []Keyframe[mgl32.Vec3]{{Time: 0.5}, {Time: 2}},
		StartTime: 0.5,
		EndTime:   2,
	}
	assert.InDelta(t, 1.5, c.Duration(), 1e-6)
	assert.Equal(t, 2, c.KeyCount())
}
