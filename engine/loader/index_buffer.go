package loader

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-glb/engine/model"
)

// topology maps a glTF primitive mode to a topology. Line loops and triangle fans have no
// renderer equivalent.
func topology(mode *int) (model.PrimitiveTopology, error) {
	m := gltfModeTriangles
	if mode != nil {
		m = *mode
	}
	switch m {
	case gltfModeTriangles:
		return model.TopologyTriangleList, nil
	case gltfModeTriangleStrip:
		return model.TopologyTriangleStrip, nil
	case gltfModeLines:
		return model.TopologyLineList, nil
	case gltfModeLineStrip:
		return model.TopologyLineStrip, nil
	case gltfModePoints:
		return model.TopologyPointList, nil
	case gltfModeLineLoop, gltfModeTriangleFan:
		return 0, fmt.Errorf("mode %d: %w", m, ErrUnsupportedTopology)
	default:
		return 0, fmt.Errorf("unknown mode %d: %w", m, ErrUnsupportedTopology)
	}
}

// indexWidth returns the index width for an index component type. Unsigned bytes are widened to 16 bits.
func indexWidth(componentType int) (model.IndexWidth, error) {
	switch componentType {
	case gltfComponentUnsignedByte, gltfComponentShort, gltfComponentUnsignedShort:
		return model.IndexWidth16, nil
	case gltfComponentUnsignedInt:
		return model.IndexWidth32, nil
	default:
		return 0, fmt.Errorf("index component type %d: %w", componentType, ErrUnsupportedAccessorFormat)
	}
}

// buildIndexBuffer reads a primitive's indices, or generates sequential ones for non-indexed
// primitives. When flip is set, each triangle of a triangle list is emitted as (a, c, b).
//
// Parameters:
//   - p: the parser owning the accessors
//   - prim: the glTF primitive
//   - vertexCount: the vertex count used for generated indices
//   - topo: the primitive topology
//   - flip: whether to reverse the winding of triangle lists
//
// Returns:
//   - *model.IndexBuffer: the index buffer
//   - error: accessor errors and ErrUnsupportedAccessorFormat
func buildIndexBuffer(p gltfParser, prim *gltfPrimitive, vertexCount int, topo model.PrimitiveTopology, flip bool) (*model.IndexBuffer, error) {
	var (
		count int
		width model.IndexWidth
		at    func(i int) uint32
	)

	if prim.Indices == nil {
		count = vertexCount
		width = model.IndexWidth16
		if vertexCount > math.MaxUint16 {
			width = model.IndexWidth32
		}
		at = func(i int) uint32 { return uint32(i) }
	} else {
		view, err := p.Accessor(*prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		if view.accessorType != gltfTypeScalar {
			return nil, fmt.Errorf("indices: type %s: %w", view.accessorType, ErrUnsupportedAccessorFormat)
		}
		if width, err = indexWidth(view.componentType); err != nil {
			return nil, err
		}
		count = view.count
		at = view.Index
	}

	flipped := flip && topo == model.TopologyTriangleList
	ib := &model.IndexBuffer{
		Data:        make([]byte, count*width.Bytes()),
		Count:       count,
		Width:       width,
		FlipWinding: flip,
	}

	for i := 0; i < count; i++ {
		src := i
		if flipped && i/3*3+2 < count {
			switch i % 3 {
			case 1:
				src = i + 1
			case 2:
				src = i - 1
			}
		}
		v := at(src)
		if width == model.IndexWidth16 {
			binary.LittleEndian.PutUint16(ib.Data[i*2:], uint16(v))
		} else {
			binary.LittleEndian.PutUint32(ib.Data[i*4:], v)
		}
	}
	return ib, nil
}

