package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// scaleEpsilon is the smallest axis scale treated as non-degenerate when decomposing a matrix.
const scaleEpsilon = 1e-8

// IsIdentity reports whether m is exactly the identity matrix.
//
// Parameters:
//   - m: the matrix to test
//
// Returns:
//   - bool: true if every element matches the identity matrix
func IsIdentity(m mgl32.Mat4) bool {
	return m == mgl32.Ident4()
}

// DecomposeMatrix splits an affine column-major matrix into translation, rotation and scale.
// A negative determinant is folded into the X scale so the rotation stays proper.
//
// Parameters:
//   - m: the affine transform
//
// Returns:
//   - mgl32.Vec3: the translation (fourth column)
//   - mgl32.Quat: the normalized rotation
//   - mgl32.Vec3: the per-axis scale (column lengths)
func DecomposeMatrix(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	translation := m.Col(3).Vec3()

	c0, c1, c2 := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
	scale := mgl32.Vec3{c0.Len(), c1.Len(), c2.Len()}
	if m.Mat3().Det() < 0 {
		scale[0] = -scale[0]
	}

	if math32.Abs(scale[0]) < scaleEpsilon || math32.Abs(scale[1]) < scaleEpsilon || math32.Abs(scale[2]) < scaleEpsilon {
		return translation, mgl32.QuatIdent(), scale
	}

	c0 = c0.Mul(1 / scale[0])
	c1 = c1.Mul(1 / scale[1])
	c2 = c2.Mul(1 / scale[2])
	rot := mgl32.Mat4FromCols(c0.Vec4(0), c1.Vec4(0), c2.Vec4(0), mgl32.Vec4{0, 0, 0, 1})

	return translation, mgl32.Mat4ToQuat(rot).Normalize(), scale
}

// ComposeMatrix builds T * R * S from translation, rotation and scale.
//
// Parameters:
//   - t: translation
//   - r: rotation
//   - s: scale
//
// Returns:
//   - mgl32.Mat4: the composed column-major transform
func ComposeMatrix(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(r.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// MatrixFromSlice converts a 16-element column-major slice to a matrix.
// Shorter slices yield the identity matrix.
//
// Parameters:
//   - v: the matrix elements
//
// Returns:
//   - mgl32.Mat4: the matrix
func MatrixFromSlice(v []float32) mgl32.Mat4 {
	if len(v) < 16 {
		return mgl32.Ident4()
	}
	var m mgl32.Mat4
	copy(m[:], v[:16])
	return m
}

// Perspective builds a right-handed projection that maps view depth to [0, 1] clip depth,
// the WebGPU convention. mgl32.Perspective maps to OpenGL's [-1, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1 / math32.Tan(fovY/2)
	var m mgl32.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far / (near - far)
	m[11] = -1
	m[14] = (near * far) / (near - far)
	return m
}
