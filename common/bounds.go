package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// BoundingBox is an axis-aligned box. An empty box has Min > Max on every axis.
type BoundingBox struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyBoundingBox returns a box that contains nothing; any Union with it returns the other box.
func EmptyBoundingBox() BoundingBox {
	inf := math32.Inf(1)
	return BoundingBox{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// NewBoundingBox builds a box from accessor-style min/max slices.
// Missing components default to zero.
//
// Parameters:
//   - min: at least three minimum components
//   - max: at least three maximum components
//
// Returns:
//   - BoundingBox: the box
func NewBoundingBox(min, max []float32) BoundingBox {
	var b BoundingBox
	for i := 0; i < 3; i++ {
		if i < len(min) {
			b.Min[i] = min[i]
		}
		if i < len(max) {
			b.Max[i] = max[i]
		}
	}
	return b
}

// IsEmpty reports whether the box contains no points.
func (b BoundingBox) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return BoundingBox{
		Min: mgl32.Vec3{math32.Min(b.Min[0], o.Min[0]), math32.Min(b.Min[1], o.Min[1]), math32.Min(b.Min[2], o.Min[2])},
		Max: mgl32.Vec3{math32.Max(b.Max[0], o.Max[0]), math32.Max(b.Max[1], o.Max[1]), math32.Max(b.Max[2], o.Max[2])},
	}
}

// Expand grows the box to contain p.
func (b BoundingBox) Expand(p mgl32.Vec3) BoundingBox {
	return b.Union(BoundingBox{Min: p, Max: p})
}

// Transform returns the axis-aligned box enclosing the eight corners of b after applying m.
//
// Parameters:
//   - m: the transform to apply
//
// Returns:
//   - BoundingBox: the transformed box, or an empty box if b is empty
func (b BoundingBox) Transform(m mgl32.Mat4) BoundingBox {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBoundingBox()
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		out = out.Expand(mgl32.TransformCoordinate(corner, m))
	}
	return out
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent of the box along each axis.
func (b BoundingBox) Size() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}
