package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-glb/engine/loader"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTriangle(t *testing.T, path string) {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	doc.Meshes = []*gltf.Mesh{{
		Name: "Triangle",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{gltf.POSITION: uint32(pos)},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "Triangle", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = []uint32{0}
	require.NoError(t, gltf.SaveBinary(doc, path))
}

func next(t *testing.T, w Watcher) Event {
	t.Helper()
	select {
	case e := <-w.Events():
		return e
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for a watcher event")
		return nil
	}
}

func TestWatcherImportsNewFile(t *testing.T) {
	dir := t.TempDir()
	l := loader.NewLoader()
	defer l.Close()

	w, err := NewWatcher(dir, l, WithDebounce(100*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "tri.glb")
	writeTriangle(t, path)

	e := next(t, w)
	ready, ok := e.(EventReady)
	require.True(t, ok, "got %T", e)
	assert.Equal(t, path, ready.Path)
	assert.NotEmpty(t, ready.ID)
	assert.Same(t, ready.Model, l.Get(ready.Key))
}

func TestWatcherReportsFailedImport(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, loader.NewLoader(), WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "broken.glb")
	require.NoError(t, os.WriteFile(path, []byte("not a glb file"), 0o644))

	e := next(t, w)
	failed, ok := e.(EventFailed)
	require.True(t, ok, "got %T", e)
	assert.Equal(t, path, failed.Path)
	assert.Error(t, failed.Err)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	l := loader.NewLoader()
	w, err := NewWatcher(dir, l, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))

	select {
	case e := <-w.Events():
		assert.Failf(t, "unexpected event", "%T for %s", e, e.EventPath())
	case <-time.After(200 * time.Millisecond):
	}
	assert.Empty(t, l.Models())
}

func TestWatcherInitialScan(t *testing.T) {
	dir := t.TempDir()
	writeTriangle(t, filepath.Join(dir, "a.glb"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeTriangle(t, filepath.Join(dir, "nested", "b.glb"))

	l := loader.NewLoader()
	w, err := NewWatcher(dir, l, WithInitialScan(true))
	require.NoError(t, err)
	defer w.Close()

	e := next(t, w)
	assert.IsType(t, EventReady{}, e)
	assert.Equal(t, filepath.Join(dir, "a.glb"), e.EventPath())

	assert.Eventually(t, func() bool { return len(l.Models()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return len(l.Models()) > 1 }, 200*time.Millisecond, 20*time.Millisecond,
		"nested files are skipped without WithRecursive")
}

func TestWatcherRecursiveFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, loader.NewLoader(), WithRecursive(true), WithDebounce(100*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(nested, 0o755))
	// Give the watcher a moment to add the new directory before the file lands in it.
	time.Sleep(50 * time.Millisecond)
	writeTriangle(t, filepath.Join(nested, "deep.glb"))

	e := next(t, w)
	assert.IsType(t, EventReady{}, e)
	assert.Equal(t, filepath.Join(nested, "deep.glb"), e.EventPath())
}

func TestWatcherReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tri.glb")
	writeTriangle(t, path)

	w, err := NewWatcher(dir, loader.NewLoader())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.Remove(path))

	e := next(t, w)
	assert.Equal(t, EventRemoved{Path: path}, e)
}

func TestWatcherRejectsMissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), loader.NewLoader())
	assert.Error(t, err)
}

func TestWatcherCloseClosesChannels(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), loader.NewLoader())
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, open := <-w.Events()
	assert.False(t, open)
	_, open = <-w.Errors()
	assert.False(t, open)
}
