package loader

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

// maxZeroAccessorBytes caps the zero-filled storage of an accessor without a buffer view.
const maxZeroAccessorBytes = 1 << 28

// accessorView is a bounds-checked window over an accessor's elements.
// Bounds are validated once in newAccessorView; element reads index data without further checks.
type accessorView struct {
	index         int
	componentType int
	accessorType  string
	normalized    bool
	count         int

	// components is the number of scalars per element (16 for MAT4).
	components int
	// componentSize is the size of one scalar in bytes.
	componentSize int
	// columnSize is the padded byte size of one matrix column, 0 for vectors.
	columnSize int
	// elementSize includes matrix column padding.
	elementSize int
	stride      int

	// viewIndex is the buffer view index, -1 for accessors without one.
	viewIndex int
	// byteOffset is the accessor's offset within its buffer view.
	byteOffset int

	// data starts at the first element and ends at the end of the buffer view.
	data []byte

	min, max []float32
}

// componentSize returns the byte size of a glTF component type, 0 if unknown.
func componentSize(componentType int) int {
	switch componentType {
	case gltfComponentByte, gltfComponentUnsignedByte:
		return 1
	case gltfComponentShort, gltfComponentUnsignedShort:
		return 2
	case gltfComponentUnsignedInt, gltfComponentFloat:
		return 4
	default:
		return 0
	}
}

// componentCount returns the scalars per element of a glTF accessor type, 0 if unknown.
func componentCount(accessorType string) int {
	switch accessorType {
	case gltfTypeScalar:
		return 1
	case gltfTypeVec2:
		return 2
	case gltfTypeVec3:
		return 3
	case gltfTypeVec4, gltfTypeMat2:
		return 4
	case gltfTypeMat3:
		return 9
	case gltfTypeMat4:
		return 16
	default:
		return 0
	}
}

// matrixRows returns the row count of a matrix type, 0 for scalars and vectors.
func matrixRows(accessorType string) int {
	switch accessorType {
	case gltfTypeMat2:
		return 2
	case gltfTypeMat3:
		return 3
	case gltfTypeMat4:
		return 4
	default:
		return 0
	}
}

// elementLayout returns the padded column size and total element size of an accessor.
// Matrix columns start on 4-byte boundaries, which pads byte and short MAT2/MAT3 elements.
func elementLayout(componentType int, accessorType string) (columnSize, elementSize int) {
	size := componentSize(componentType)
	rows := matrixRows(accessorType)
	if rows == 0 {
		return 0, size * componentCount(accessorType)
	}
	columnSize = common.Align4(rows * size)
	return columnSize, columnSize * rows
}

// newAccessorView validates accessor index against the document and its buffers.
//
// Parameters:
//   - doc: the decoded document
//   - buffers: the loaded buffer payloads, index-aligned with doc.Buffers
//   - index: the accessor index
//
// Returns:
//   - *accessorView: the validated view
//   - error: ErrInvalidReference, ErrUnsupportedAccessorFormat or ErrAccessorOutOfRange
func newAccessorView(doc *gltfDocument, buffers [][]byte, index int) (*accessorView, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d: %w", index, ErrInvalidReference)
	}
	acc := &doc.Accessors[index]

	if acc.Sparse != nil {
		return nil, fmt.Errorf("accessor %d: sparse storage: %w", index, ErrUnsupportedAccessorFormat)
	}
	if componentSize(acc.ComponentType) == 0 || componentCount(acc.Type) == 0 {
		return nil, fmt.Errorf("accessor %d: component type %d, type %q: %w", index, acc.ComponentType, acc.Type, ErrUnsupportedAccessorFormat)
	}
	if acc.Count < 0 || acc.ByteOffset < 0 {
		return nil, fmt.Errorf("accessor %d: negative count or offset: %w", index, ErrAccessorOutOfRange)
	}

	columnSize, elementSize := elementLayout(acc.ComponentType, acc.Type)
	v := &accessorView{
		index:         index,
		componentType: acc.ComponentType,
		accessorType:  acc.Type,
		normalized:    acc.Normalized,
		count:         acc.Count,
		components:    componentCount(acc.Type),
		componentSize: componentSize(acc.ComponentType),
		columnSize:    columnSize,
		elementSize:   elementSize,
		stride:        elementSize,
		viewIndex:     -1,
		byteOffset:    acc.ByteOffset,
		min:           acc.Min,
		max:           acc.Max,
	}

	// Accessors without a buffer view read as zeros.
	if acc.BufferView == nil {
		if acc.Count > maxZeroAccessorBytes/elementSize {
			return nil, fmt.Errorf("accessor %d: %d zero-filled elements exceed %d bytes: %w",
				index, acc.Count, maxZeroAccessorBytes, ErrAccessorOutOfRange)
		}
		v.data = make([]byte, acc.Count*elementSize)
		return v, nil
	}

	viewIndex := *acc.BufferView
	if viewIndex < 0 || viewIndex >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor %d: buffer view %d: %w", index, viewIndex, ErrInvalidReference)
	}
	view := &doc.BufferViews[viewIndex]
	if view.Buffer < 0 || view.Buffer >= len(buffers) {
		return nil, fmt.Errorf("buffer view %d: buffer %d: %w", viewIndex, view.Buffer, ErrInvalidReference)
	}
	buf := buffers[view.Buffer]
	if view.ByteOffset < 0 || view.ByteLength < 0 || view.ByteOffset+view.ByteLength > len(buf) {
		return nil, fmt.Errorf("buffer view %d: [%d, %d) exceeds buffer %d of %d bytes: %w",
			viewIndex, view.ByteOffset, view.ByteOffset+view.ByteLength, view.Buffer, len(buf), ErrAccessorOutOfRange)
	}

	if s := view.stride(); s > 0 {
		if s < elementSize {
			return nil, fmt.Errorf("accessor %d: stride %d is smaller than element size %d: %w", index, s, elementSize, ErrAccessorOutOfRange)
		}
		v.stride = s
	}
	v.viewIndex = viewIndex

	if acc.Count > view.ByteLength || acc.ByteOffset > view.ByteLength ||
		(acc.Count > 0 && acc.Count-1 > (math.MaxInt-acc.ByteOffset-elementSize)/v.stride) {
		return nil, fmt.Errorf("accessor %d: %d elements at offset %d do not fit buffer view %d (%d bytes): %w",
			index, acc.Count, acc.ByteOffset, viewIndex, view.ByteLength, ErrAccessorOutOfRange)
	}
	if acc.Count > 0 {
		end := acc.ByteOffset + (acc.Count-1)*v.stride + elementSize
		if end > view.ByteLength {
			return nil, fmt.Errorf("accessor %d: needs %d bytes of buffer view %d (%d bytes): %w",
				index, end, viewIndex, view.ByteLength, ErrAccessorOutOfRange)
		}
	}

	start := view.ByteOffset + acc.ByteOffset
	if start > view.ByteOffset+view.ByteLength {
		return nil, fmt.Errorf("accessor %d: offset %d past buffer view %d: %w", index, acc.ByteOffset, viewIndex, ErrAccessorOutOfRange)
	}
	v.data = buf[start : view.ByteOffset+view.ByteLength]
	return v, nil
}

// element returns the bytes of element i.
func (v *accessorView) element(i int) []byte {
	off := i * v.stride
	return v.data[off : off+v.elementSize]
}

// componentOffset returns the byte offset of scalar c within an element, honoring column padding.
func (v *accessorView) componentOffset(c int) int {
	if v.columnSize == 0 {
		return c * v.componentSize
	}
	rows := matrixRows(v.accessorType)
	return (c/rows)*v.columnSize + (c%rows)*v.componentSize
}

// component reads scalar c of element i as a float, normalizing integer components when the
// accessor is normalized.
func (v *accessorView) component(i, c int) float32 {
	b := v.element(i)[v.componentOffset(c):]
	switch v.componentType {
	case gltfComponentFloat:
		return math32.Float32frombits(binary.LittleEndian.Uint32(b))
	case gltfComponentByte:
		return integerToFloat(int8(b[0]), v.normalized, 127)
	case gltfComponentUnsignedByte:
		return integerToFloat(b[0], v.normalized, 255)
	case gltfComponentShort:
		return integerToFloat(int16(binary.LittleEndian.Uint16(b)), v.normalized, 32767)
	case gltfComponentUnsignedShort:
		return integerToFloat(binary.LittleEndian.Uint16(b), v.normalized, 65535)
	case gltfComponentUnsignedInt:
		return integerToFloat(binary.LittleEndian.Uint32(b), v.normalized, 4294967295)
	}
	return 0
}

// integerToFloat converts an integer component, mapping normalized values into [-1, 1] or [0, 1].
func integerToFloat[T constraints.Integer](value T, normalized bool, max float32) float32 {
	f := float32(value)
	if !normalized {
		return f
	}
	return math32.Max(f/max, -1)
}

// Float reads the first scalar of element i.
func (v *accessorView) Float(i int) float32 {
	return v.component(i, 0)
}

// Vec3 reads element i as a 3-vector.
func (v *accessorView) Vec3(i int) mgl32.Vec3 {
	return mgl32.Vec3{v.component(i, 0), v.component(i, 1), v.component(i, 2)}
}

// Quat reads element i as an (x, y, z, w) quaternion.
func (v *accessorView) Quat(i int) mgl32.Quat {
	return mgl32.Quat{
		W: v.component(i, 3),
		V: mgl32.Vec3{v.component(i, 0), v.component(i, 1), v.component(i, 2)},
	}
}

// Mat4 reads element i as a column-major 4x4 matrix.
func (v *accessorView) Mat4(i int) mgl32.Mat4 {
	var m mgl32.Mat4
	for c := range m {
		m[c] = v.component(i, c)
	}
	return m
}

// FloatArray reads width consecutive scalars starting at scalar index first, spanning elements
// as needed. It is used for morph weight outputs, which are SCALAR accessors.
func (v *accessorView) FloatArray(first, width int) []float32 {
	out := make([]float32, width)
	for k := range out {
		n := first + k
		out[k] = v.component(n/v.components, n%v.components)
	}
	return out
}

// Index reads element i as an unsigned integer index.
func (v *accessorView) Index(i int) uint32 {
	b := v.element(i)
	switch v.componentType {
	case gltfComponentUnsignedByte:
		return uint32(b[0])
	case gltfComponentUnsignedShort, gltfComponentShort:
		return uint32(binary.LittleEndian.Uint16(b))
	case gltfComponentUnsignedInt:
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

// is reports whether the accessor has the given component type and accessor type.
func (v *accessorView) is(componentType int, accessorType string) bool {
	return v.componentType == componentType && v.accessorType == accessorType
}

// readAll reads every element of an accessor with read.
func readAll[T any](v *accessorView, read func(i int) T) []T {
	out := make([]T, v.count)
	for i := range out {
		out[i] = read(i)
	}
	return out
}
