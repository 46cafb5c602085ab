package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestIsIdentity(t *testing.T) {
	assert.True(t, IsIdentity(mgl32.Ident4()))
	assert.False(t, IsIdentity(mgl32.Translate3D(1, 0, 0)))
}

func TestDecomposeMatrixRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		t    mgl32.Vec3
		r    mgl32.Quat
		s    mgl32.Vec3
	}{
		{"identity", mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1}},
		{"translate", mgl32.Vec3{1, 2, 3}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1}},
		{"rotate", mgl32.Vec3{0, 0, 0}, mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}), mgl32.Vec3{1, 1, 1}},
		{"all", mgl32.Vec3{-4, 5, 0.5}, mgl32.QuatRotate(mgl32.DegToRad(30), mgl32.Vec3{1, 0, 0}), mgl32.Vec3{2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComposeMatrix(tt.t, tt.r, tt.s)
			gotT, gotR, gotS := DecomposeMatrix(m)

			assert.True(t, gotT.ApproxEqualThreshold(tt.t, 1e-5), "translation %v", gotT)
			assert.True(t, gotS.ApproxEqualThreshold(tt.s, 1e-5), "scale %v", gotS)
			assert.True(t, gotR.OrientationEqualThreshold(tt.r, 1e-4), "rotation %v", gotR)
		})
	}
}

func TestDecomposeMatrixNegativeScale(t *testing.T) {
	m := mgl32.Scale3D(-2, 1, 1)
	_, r, s := DecomposeMatrix(m)

	assert.InDelta(t, -2, s[0], 1e-6)
	assert.InDelta(t, 1, s[1], 1e-6)
	assert.True(t, r.OrientationEqualThreshold(mgl32.QuatIdent(), 1e-5))
}

func TestMatrixFromSlice(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), MatrixFromSlice(nil))

	v := make([]float32, 16)
	for i := range v {
		v[i] = float32(i)
	}
	m := MatrixFromSlice(v)
	assert.Equal(t, float32(12), m.Col(3)[0])
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(mgl32.DegToRad(60), 1, 0.5, 100)

	near := p.Mul4x1(mgl32.Vec4{0, 0, -0.5, 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, -100, 1})

	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}
