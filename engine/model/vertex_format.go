package model

// ElementFormat is the concrete in-memory format of one vertex attribute.
type ElementFormat int

// Element formats, grouped by component type. The Normalized variants map integer
// components into [0, 1] (unsigned) or [-1, 1] (signed) when sampled.
const (
	ElementFormatUndefined ElementFormat = iota

	ElementFormatByte
	ElementFormatByte2
	ElementFormatByte3
	ElementFormatByte4
	ElementFormatByteNormalized
	ElementFormatByte2Normalized
	ElementFormatByte3Normalized
	ElementFormatByte4Normalized

	ElementFormatUByte
	ElementFormatUByte2
	ElementFormatUByte3
	ElementFormatUByte4
	ElementFormatUByteNormalized
	ElementFormatUByte2Normalized
	ElementFormatUByte3Normalized
	ElementFormatUByte4Normalized

	ElementFormatShort
	ElementFormatShort2
	ElementFormatShort3
	ElementFormatShort4
	ElementFormatShortNormalized
	ElementFormatShort2Normalized
	ElementFormatShort3Normalized
	ElementFormatShort4Normalized

	ElementFormatUShort
	ElementFormatUShort2
	ElementFormatUShort3
	ElementFormatUShort4
	ElementFormatUShortNormalized
	ElementFormatUShort2Normalized
	ElementFormatUShort3Normalized
	ElementFormatUShort4Normalized

	ElementFormatUInt
	ElementFormatUInt2
	ElementFormatUInt3
	ElementFormatUInt4

	ElementFormatFloat
	ElementFormatFloat2
	ElementFormatFloat3
	ElementFormatFloat4

	// ElementFormatFloat4x4 is a column-major matrix, used for instanced or skinning data.
	ElementFormatFloat4x4
)

var elementFormatNames = map[ElementFormat]string{
	ElementFormatByte: "byte", ElementFormatByte2: "byte2", ElementFormatByte3: "byte3", ElementFormatByte4: "byte4",
	ElementFormatByteNormalized: "byte-norm", ElementFormatByte2Normalized: "byte2-norm",
	ElementFormatByte3Normalized: "byte3-norm", ElementFormatByte4Normalized: "byte4-norm",
	ElementFormatUByte: "ubyte", ElementFormatUByte2: "ubyte2", ElementFormatUByte3: "ubyte3", ElementFormatUByte4: "ubyte4",
	ElementFormatUByteNormalized: "ubyte-norm", ElementFormatUByte2Normalized: "ubyte2-norm",
	ElementFormatUByte3Normalized: "ubyte3-norm", ElementFormatUByte4Normalized: "ubyte4-norm",
	ElementFormatShort: "short", ElementFormatShort2: "short2", ElementFormatShort3: "short3", ElementFormatShort4: "short4",
	ElementFormatShortNormalized: "short-norm", ElementFormatShort2Normalized: "short2-norm",
	ElementFormatShort3Normalized: "short3-norm", ElementFormatShort4Normalized: "short4-norm",
	ElementFormatUShort: "ushort", ElementFormatUShort2: "ushort2", ElementFormatUShort3: "ushort3", ElementFormatUShort4: "ushort4",
	ElementFormatUShortNormalized: "ushort-norm", ElementFormatUShort2Normalized: "ushort2-norm",
	ElementFormatUShort3Normalized: "ushort3-norm", ElementFormatUShort4Normalized: "ushort4-norm",
	ElementFormatUInt: "uint", ElementFormatUInt2: "uint2", ElementFormatUInt3: "uint3", ElementFormatUInt4: "uint4",
	ElementFormatFloat: "float", ElementFormatFloat2: "float2", ElementFormatFloat3: "float3", ElementFormatFloat4: "float4",
	ElementFormatFloat4x4: "float4x4",
}

// String returns a short readable name for the format.
func (f ElementFormat) String() string {
	if name, ok := elementFormatNames[f]; ok {
		return name
	}
	return "undefined"
}

// ComponentCount returns the number of scalar components in one element.
func (f ElementFormat) ComponentCount() int {
	switch f {
	case ElementFormatUndefined:
		return 0
	case ElementFormatFloat4x4:
		return 16
	case ElementFormatUInt, ElementFormatUInt2, ElementFormatUInt3, ElementFormatUInt4:
		return int(f-ElementFormatUInt) + 1
	case ElementFormatFloat, ElementFormatFloat2, ElementFormatFloat3, ElementFormatFloat4:
		return int(f-ElementFormatFloat) + 1
	}
	// 8- and 16-bit groups: 4 plain formats followed by 4 normalized formats.
	return int((f-ElementFormatByte)%4) + 1
}

// ComponentSize returns the size in bytes of a single component.
func (f ElementFormat) ComponentSize() int {
	switch {
	case f == ElementFormatUndefined:
		return 0
	case f < ElementFormatShort:
		return 1
	case f < ElementFormatUInt:
		return 2
	default:
		return 4
	}
}

// Normalized reports whether integer components are normalized when sampled.
func (f ElementFormat) Normalized() bool {
	if f == ElementFormatUndefined || f >= ElementFormatUInt {
		return false
	}
	return (f-ElementFormatByte)%8 >= 4
}

// Size returns the tightly packed size of one element in bytes.
func (f ElementFormat) Size() int {
	return f.ComponentCount() * f.ComponentSize()
}
