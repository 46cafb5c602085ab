package loader

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
)

// vertexAttribute is one primitive attribute paired with its accessor.
type vertexAttribute struct {
	name          string
	semantic      model.ElementSemantic
	semanticIndex int
	view          *accessorView
	format        model.ElementFormat
}

// vertexLayout is the result of synthesizing a primitive's vertex streams.
type vertexLayout struct {
	streams     []*model.VertexStream
	vertexColor bool
	bounds      common.BoundingBox
}

// openStream tracks the stream currently accepting interleaved attributes.
type openStream struct {
	stream     *model.VertexStream
	viewIndex  int
	baseOffset int
	// claimed is stride*count, the byte range owned by the stream within its buffer view.
	claimed int
}

// buildVertexStreams groups a primitive's attributes into vertex streams.
// Attributes are sorted by (buffer view, byte offset). A new stream opens when the buffer view
// changes or the attribute's offset falls outside the bytes claimed by the current stream;
// otherwise the attribute is interleaved into the current stream.
//
// Parameters:
//   - p: the parser owning the accessors
//   - prim: the glTF primitive
//
// Returns:
//   - vertexLayout: the streams, the vertex-color flag and the POSITION bounds
//   - error: accessor errors and ErrUnsupportedAccessorFormat
func buildVertexStreams(p gltfParser, prim *gltfPrimitive) (vertexLayout, error) {
	layout := vertexLayout{bounds: common.EmptyBoundingBox()}

	attrs := make([]vertexAttribute, 0, len(prim.Attributes))
	for name, index := range prim.Attributes {
		semantic, semanticIndex, ok := parseSemantic(name)
		if !ok {
			continue
		}
		view, err := p.Accessor(index)
		if err != nil {
			return layout, fmt.Errorf("attribute %s: %w", name, err)
		}
		format, err := elementFormat(view.componentType, view.accessorType, view.normalized)
		if err != nil {
			return layout, fmt.Errorf("attribute %s: %w", name, err)
		}
		attrs = append(attrs, vertexAttribute{
			name:          name,
			semantic:      semantic,
			semanticIndex: semanticIndex,
			view:          view,
			format:        format,
		})

		if strings.Contains(name, "COLOR") {
			layout.vertexColor = true
		}
		if semantic == model.SemanticPosition && semanticIndex == 0 {
			layout.bounds = positionBounds(view)
		}
	}

	slices.SortFunc(attrs, func(a, b vertexAttribute) int {
		return cmp.Or(
			cmp.Compare(a.view.viewIndex, b.view.viewIndex),
			cmp.Compare(a.view.byteOffset, b.view.byteOffset),
			cmp.Compare(a.name, b.name),
		)
	})

	var cur *openStream
	for _, a := range attrs {
		if cur == nil || !cur.accepts(a) {
			cur = &openStream{
				stream: &model.VertexStream{
					Data:   streamData(a.view),
					Stride: a.view.stride,
					Count:  a.view.count,
				},
				viewIndex:  a.view.viewIndex,
				baseOffset: a.view.byteOffset,
				claimed:    a.view.stride * a.view.count,
			}
			layout.streams = append(layout.streams, cur.stream)
		}

		cur.stream.Layout = append(cur.stream.Layout, model.ElementDescription{
			Semantic:      a.semantic,
			SemanticIndex: a.semanticIndex,
			Format:        a.format,
			Offset:        a.view.byteOffset - cur.baseOffset,
		})
	}
	return layout, nil
}

// accepts reports whether attribute a can be interleaved into the stream.
func (s *openStream) accepts(a vertexAttribute) bool {
	if a.view.viewIndex < 0 || a.view.viewIndex != s.viewIndex {
		return false
	}
	if a.view.byteOffset >= s.baseOffset+s.claimed {
		return false
	}
	rel := a.view.byteOffset - s.baseOffset
	if a.view.stride != s.stream.Stride || a.view.count != s.stream.Count || rel+a.view.elementSize > s.stream.Stride {
		return false
	}
	for _, e := range s.stream.Layout {
		if rel < e.Offset+e.Format.Size() && e.Offset < rel+a.view.elementSize {
			return false
		}
	}
	return true
}

// streamData copies stride*count bytes starting at the stream's first attribute. The last vertex
// may end before a full stride; the remainder is zero-filled.
func streamData(v *accessorView) []byte {
	data := make([]byte, v.stride*v.count)
	copy(data, v.data)
	return data
}

// positionBounds returns the POSITION accessor's declared min/max, or the bounds of its data when
// the file omits them.
func positionBounds(v *accessorView) common.BoundingBox {
	if len(v.min) >= 3 && len(v.max) >= 3 {
		return common.NewBoundingBox(v.min, v.max)
	}
	bounds := common.EmptyBoundingBox()
	if v.components < 3 {
		return bounds
	}
	for i := 0; i < v.count; i++ {
		bounds = bounds.Expand(v.Vec3(i))
	}
	return bounds
}
