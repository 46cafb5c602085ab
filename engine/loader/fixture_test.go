package loader

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

// glbBuilder assembles GLB files for tests: a document plus one BIN buffer.
type glbBuilder struct {
	doc gltfDocument
	bin bytes.Buffer
}

func newGLBBuilder() *glbBuilder {
	return &glbBuilder{doc: gltfDocument{Asset: gltfAsset{Version: "2.0"}}}
}

// view appends data to the BIN buffer on a 4-byte boundary and adds a buffer view over it.
func (b *glbBuilder) view(data []byte, stride int) int {
	for b.bin.Len()%4 != 0 {
		b.bin.WriteByte(0)
	}
	v := gltfBufferView{ByteOffset: b.bin.Len(), ByteLength: len(data)}
	if stride > 0 {
		v.ByteStride = ptr(stride)
	}
	b.bin.Write(data)
	b.doc.BufferViews = append(b.doc.BufferViews, v)
	return len(b.doc.BufferViews) - 1
}

func (b *glbBuilder) accessor(a gltfAccessor) int {
	b.doc.Accessors = append(b.doc.Accessors, a)
	return len(b.doc.Accessors) - 1
}

// floats adds a tightly packed FLOAT accessor with its own buffer view.
func (b *glbBuilder) floats(accessorType string, values ...float32) int {
	view := b.view(floatBytes(values...), 0)
	return b.accessor(gltfAccessor{
		BufferView:    ptr(view),
		ComponentType: gltfComponentFloat,
		Count:         len(values) / componentCount(accessorType),
		Type:          accessorType,
	})
}

func (b *glbBuilder) indices16(values ...uint16) int {
	data := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(data[i*2:], v)
	}
	return b.accessor(gltfAccessor{
		BufferView:    ptr(b.view(data, 0)),
		ComponentType: gltfComponentUnsignedShort,
		Count:         len(values),
		Type:          gltfTypeScalar,
	})
}

func (b *glbBuilder) indices32(values ...uint32) int {
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
	return b.accessor(gltfAccessor{
		BufferView:    ptr(b.view(data, 0)),
		ComponentType: gltfComponentUnsignedInt,
		Count:         len(values),
		Type:          gltfTypeScalar,
	})
}

func (b *glbBuilder) mesh(prims ...gltfPrimitive) int {
	b.doc.Meshes = append(b.doc.Meshes, gltfMesh{Primitives: prims})
	return len(b.doc.Meshes) - 1
}

func (b *glbBuilder) node(n gltfNode) int {
	b.doc.Nodes = append(b.doc.Nodes, n)
	return len(b.doc.Nodes) - 1
}

func (b *glbBuilder) scene(roots ...int) {
	b.doc.Scenes = append(b.doc.Scenes, gltfScene{Nodes: roots})
	b.doc.Scene = ptr(len(b.doc.Scenes) - 1)
}

// triangle adds the unit triangle with 16-bit indices and returns its primitive.
func (b *glbBuilder) triangle() gltfPrimitive {
	pos := b.floats(gltfTypeVec3,
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	)
	b.doc.Accessors[pos].Min = []float32{0, 0, 0}
	b.doc.Accessors[pos].Max = []float32{1, 1, 0}
	return gltfPrimitive{
		Attributes: map[string]int{"POSITION": pos},
		Indices:    ptr(b.indices16(0, 1, 2)),
	}
}

// build encodes the document and BIN buffer as a GLB file.
func (b *glbBuilder) build(t *testing.T) []byte {
	t.Helper()
	var bin []byte
	if b.bin.Len() > 0 {
		bin = b.bin.Bytes()
		b.doc.Buffers = []gltfBuffer{{ByteLength: len(bin)}}
	}
	data, err := json.Marshal(&b.doc)
	require.NoError(t, err)
	return EncodeContainer(data, bin)
}

// parse builds the file and returns a parsed parser over it.
func (b *glbBuilder) parse(t *testing.T) gltfParser {
	t.Helper()
	c, err := ParseContainer(b.build(t), true)
	require.NoError(t, err)
	p := newGLTFParser(c, "")
	require.NoError(t, p.Parse())
	return p
}

func floatBytes(values ...float32) []byte {
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math32.Float32bits(v))
	}
	return data
}

// triangleGLB is a scene with one node holding the unit triangle.
func triangleGLB(t *testing.T) []byte {
	b := newGLBBuilder()
	mesh := b.mesh(b.triangle())
	b.scene(b.node(gltfNode{Name: "Triangle", Mesh: ptr(mesh)}))
	return b.build(t)
}
