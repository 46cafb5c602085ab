package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-glb/engine/loader"
	"github.com/Carmen-Shannon/oxy-glb/engine/profiler"
	"github.com/Carmen-Shannon/oxy-glb/engine/renderer"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeQuad saves a two-node file whose nodes share one indexed mesh.
func writeQuad(t *testing.T, dir string) string {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 2, 1, 3})
	doc.Meshes = []*gltf.Mesh{{
		Name: "Quad",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{gltf.POSITION: uint32(pos)},
			Indices:    gltf.Index(uint32(idx)),
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "Left", Mesh: gltf.Index(0)},
		{Name: "Right", Mesh: gltf.Index(0), Translation: [3]float32{2, 0, 0}},
	}
	doc.Scenes[0].Nodes = []uint32{0, 1}

	path := filepath.Join(dir, "quad.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestSummarizeCountsSharedMeshOnce(t *testing.T) {
	path := writeQuad(t, t.TempDir())
	m, err := loader.NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	s := summarize(path, m)
	assert.Equal(t, "quad", s.Name)
	assert.Equal(t, 2, s.Nodes)
	assert.Equal(t, 2, s.Roots)
	assert.Equal(t, 1, s.Meshes)
	assert.Equal(t, 1, s.Primitives)
	assert.Equal(t, 4, s.Vertices)
	assert.Equal(t, 6, s.Indices)
	assert.Equal(t, 1, s.Materials, "primitives without a material use the default one")
	assert.Empty(t, s.Clips)
	assert.Equal(t, [3]float32{3, 1, 0}, s.BoundsMax)
}

func TestInspectReportsEveryFile(t *testing.T) {
	dir := t.TempDir()
	good := writeQuad(t, dir)
	bad := filepath.Join(dir, "bad.glb")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))

	backend := renderer.NewMemoryBackend()
	prof := profiler.NewProfiler(nil)
	l := loader.NewLoader(
		loader.WithImporter(loader.NewImporter(loader.WithBackend(backend))),
		loader.WithProfiler(prof),
	)
	defer l.Close()

	var out bytes.Buffer
	code := inspect(context.Background(), l, prof, []string{good, bad}, true, &out)
	assert.Equal(t, 1, code)

	var summaries []summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, good, summaries[0].Path)
	assert.Empty(t, summaries[0].Error)
	assert.Equal(t, bad, summaries[1].Path)
	assert.NotEmpty(t, summaries[1].Error)
	assert.Positive(t, backend.Stats().Live)
}

func TestWriteText(t *testing.T) {
	summaries := []summary{
		{Path: "b.glb", Error: "malformed GLB container"},
		{Path: "a.glb", Name: "a", Nodes: 3, Roots: 1, Meshes: 2, Clips: []string{"Idle", "Walk"}},
	}

	var out bytes.Buffer
	require.NoError(t, writeText(&out, summaries))

	text := out.String()
	assert.Less(t, bytes.Index(out.Bytes(), []byte("a.glb")), bytes.Index(out.Bytes(), []byte("b.glb")))
	assert.Contains(t, text, "Idle, Walk")
	assert.Contains(t, text, "malformed GLB container")
}

func TestNewBackend(t *testing.T) {
	b, err := newBackend("memory")
	require.NoError(t, err)
	assert.Implements(t, (*renderer.MemoryBackend)(nil), b)

	b, err = newBackend("none")
	require.NoError(t, err)
	assert.Nil(t, b)

	_, err = newBackend("vulkan")
	assert.Error(t, err)
}
