package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrUnsupportedVertexFormat is returned for element formats WebGPU has no vertex format for
// (single and three component 8/16-bit formats, and matrices).
var ErrUnsupportedVertexFormat = errors.New("element format has no WebGPU vertex format")

var wgpuVertexFormats = map[model.ElementFormat]wgpu.VertexFormat{
	model.ElementFormatByte2:             wgpu.VertexFormatSint8x2,
	model.ElementFormatByte4:             wgpu.VertexFormatSint8x4,
	model.ElementFormatByte2Normalized:   wgpu.VertexFormatSnorm8x2,
	model.ElementFormatByte4Normalized:   wgpu.VertexFormatSnorm8x4,
	model.ElementFormatUByte2:            wgpu.VertexFormatUint8x2,
	model.ElementFormatUByte4:            wgpu.VertexFormatUint8x4,
	model.ElementFormatUByte2Normalized:  wgpu.VertexFormatUnorm8x2,
	model.ElementFormatUByte4Normalized:  wgpu.VertexFormatUnorm8x4,
	model.ElementFormatShort2:            wgpu.VertexFormatSint16x2,
	model.ElementFormatShort4:            wgpu.VertexFormatSint16x4,
	model.ElementFormatShort2Normalized:  wgpu.VertexFormatSnorm16x2,
	model.ElementFormatShort4Normalized:  wgpu.VertexFormatSnorm16x4,
	model.ElementFormatUShort2:           wgpu.VertexFormatUint16x2,
	model.ElementFormatUShort4:           wgpu.VertexFormatUint16x4,
	model.ElementFormatUShort2Normalized: wgpu.VertexFormatUnorm16x2,
	model.ElementFormatUShort4Normalized: wgpu.VertexFormatUnorm16x4,
	model.ElementFormatUInt:              wgpu.VertexFormatUint32,
	model.ElementFormatUInt2:             wgpu.VertexFormatUint32x2,
	model.ElementFormatUInt3:             wgpu.VertexFormatUint32x3,
	model.ElementFormatUInt4:             wgpu.VertexFormatUint32x4,
	model.ElementFormatFloat:             wgpu.VertexFormatFloat32,
	model.ElementFormatFloat2:            wgpu.VertexFormatFloat32x2,
	model.ElementFormatFloat3:            wgpu.VertexFormatFloat32x3,
	model.ElementFormatFloat4:            wgpu.VertexFormatFloat32x4,
}

// WGPUVertexFormat maps an element format to a WebGPU vertex format.
//
// Parameters:
//   - f: the element format
//
// Returns:
//   - wgpu.VertexFormat: the vertex format
//   - error: ErrUnsupportedVertexFormat if WebGPU has no equivalent
func WGPUVertexFormat(f model.ElementFormat) (wgpu.VertexFormat, error) {
	vf, ok := wgpuVertexFormats[f]
	if !ok {
		return wgpu.VertexFormatUndefined, fmt.Errorf("%s: %w", f, ErrUnsupportedVertexFormat)
	}
	return vf, nil
}

// WGPUIndexFormat maps an index width to a WebGPU index format.
func WGPUIndexFormat(w model.IndexWidth) wgpu.IndexFormat {
	if w == model.IndexWidth32 {
		return wgpu.IndexFormatUint32
	}
	return wgpu.IndexFormatUint16
}

// WGPUTopology maps a primitive topology to a WebGPU primitive topology.
func WGPUTopology(t model.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case model.TopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case model.TopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case model.TopologyLineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case model.TopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

// WGPUVertexBufferLayouts builds one vertex buffer layout per stream, assigning shader
// locations sequentially in stream then element order.
//
// Parameters:
//   - streams: the primitive's vertex streams
//   - firstLocation: the shader location of the first element
//
// Returns:
//   - []wgpu.VertexBufferLayout: the layouts, index-aligned with streams
//   - error: ErrUnsupportedVertexFormat if an element has no WebGPU format
func WGPUVertexBufferLayouts(streams []*model.VertexStream, firstLocation uint32) ([]wgpu.VertexBufferLayout, error) {
	layouts := make([]wgpu.VertexBufferLayout, 0, len(streams))
	location := firstLocation

	for _, s := range streams {
		attrs := make([]wgpu.VertexAttribute, 0, len(s.Layout))
		for _, e := range s.Layout {
			vf, err := WGPUVertexFormat(e.Format)
			if err != nil {
				return nil, fmt.Errorf("%s_%d: %w", e.Semantic, e.SemanticIndex, err)
			}
			attrs = append(attrs, wgpu.VertexAttribute{
				Format:         vf,
				Offset:         uint64(e.Offset),
				ShaderLocation: location,
			})
			location++
		}
		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: uint64(s.Stride),
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		})
	}
	return layouts, nil
}
