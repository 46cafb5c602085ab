package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestBoundingBoxUnion(t *testing.T) {
	a := NewBoundingBox([]float32{0, 0, 0}, []float32{1, 1, 1})
	b := NewBoundingBox([]float32{-1, 0.5, 0}, []float32{0.5, 2, 1})

	u := a.Union(b)
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, u.Min)
	assert.Equal(t, mgl32.Vec3{1, 2, 1}, u.Max)

	assert.Equal(t, a, EmptyBoundingBox().Union(a))
	assert.Equal(t, a, a.Union(EmptyBoundingBox()))
	assert.True(t, EmptyBoundingBox().IsEmpty())
}

func TestBoundingBoxTransform(t *testing.T) {
	b := NewBoundingBox([]float32{-1, -1, -1}, []float32{1, 1, 1})

	moved := b.Transform(mgl32.Translate3D(10, 0, 0))
	assert.True(t, moved.Min.ApproxEqual(mgl32.Vec3{9, -1, -1}))
	assert.True(t, moved.Max.ApproxEqual(mgl32.Vec3{11, 1, 1}))

	scaled := b.Transform(mgl32.Scale3D(2, 3, 4))
	assert.True(t, scaled.Size().ApproxEqual(mgl32.Vec3{4, 6, 8}))

	assert.True(t, EmptyBoundingBox().Transform(mgl32.Translate3D(1, 1, 1)).IsEmpty())
}

func TestBoundingBoxCenter(t *testing.T) {
	b := NewBoundingBox([]float32{0, 2, 4}, []float32{2, 4, 8})
	assert.Equal(t, mgl32.Vec3{1, 3, 6}, b.Center())
	assert.Equal(t, mgl32.Vec3{}, EmptyBoundingBox().Size())
}
