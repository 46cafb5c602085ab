package loader

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-glb/engine/profiler"
	"github.com/Carmen-Shannon/oxy-glb/engine/registry"
	"github.com/Carmen-Shannon/oxy-glb/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTriangle(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, triangleGLB(t), 0o644))
	return path
}

func TestLoaderCachesByPath(t *testing.T) {
	path := writeTriangle(t, t.TempDir(), "tri.glb")
	prof := profiler.NewProfiler(nil)
	l := NewLoader(WithProfiler(prof))

	first, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	second, err := l.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, l.Get(path))
	assert.Len(t, l.Models(), 1)
	assert.Len(t, prof.Imports(), 1, "cache hits are not imported again")
}

func TestLoaderRejectsUnknownExtension(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), "scene.gltf")
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestLoaderLoadAsKeepsVersionsApart(t *testing.T) {
	path := writeTriangle(t, t.TempDir(), "tri.glb")
	l := NewLoader()

	v1, err := l.LoadAs(context.Background(), path+"@1", path)
	require.NoError(t, err)
	v2, err := l.LoadAs(context.Background(), path+"@2", path)
	require.NoError(t, err)

	assert.NotSame(t, v1, v2)
	assert.Nil(t, l.Get(path))
	assert.Len(t, l.Models(), 2)
}

func TestLoaderLoadReader(t *testing.T) {
	l := NewLoader()
	m, err := l.LoadReader(context.Background(), "streamed", bytes.NewReader(triangleGLB(t)))
	require.NoError(t, err)

	cached, err := l.LoadReader(context.Background(), "streamed", bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Same(t, m, cached)
}

func TestLoaderLoadBatch(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeTriangle(t, dir, "a.glb"),
		writeTriangle(t, dir, "b.glb"),
		writeTriangle(t, dir, "c.glb"),
	}
	bad := filepath.Join(dir, "bad.glb")
	require.NoError(t, os.WriteFile(bad, []byte("not a model"), 0o644))

	l := NewLoader(WithWorkers(2))
	models, err := l.LoadBatch(context.Background(), append(paths, bad))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedContainer)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, bad, loadErr.Path)

	require.Len(t, models, 3)
	for _, p := range paths {
		assert.Same(t, l.Get(p), models[p])
	}
	assert.Equal(t, "b", models[paths[1]].Name())
}

func TestLoaderConcurrentLoadsShareOneModel(t *testing.T) {
	path := writeTriangle(t, t.TempDir(), "tri.glb")
	backend := renderer.NewMemoryBackend()
	l := NewLoader(WithImporter(NewImporter(WithBackend(backend))))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Load(context.Background(), path)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, l.Models(), 1)
	assert.Equal(t, 2, backend.Stats().Live, "duplicate imports are released")
}

func TestLoaderEvict(t *testing.T) {
	path := writeTriangle(t, t.TempDir(), "tri.glb")
	backend := renderer.NewMemoryBackend()
	reg := registry.NewAssetRegistry()
	l := NewLoader(
		WithAssetRegistry(reg),
		WithImporter(NewImporter(WithBackend(backend), WithRegistry(reg))),
	)

	m, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	assert.True(t, l.Evict(path))
	assert.False(t, l.Evict(path))
	assert.Nil(t, l.Get(path))
	assert.Zero(t, backend.Stats().Live)
	assert.Zero(t, reg.Len())
	assert.Empty(t, m.Resources())
}

func TestLoaderClose(t *testing.T) {
	backend := renderer.NewMemoryBackend()
	l := NewLoader(WithImporter(NewImporter(WithBackend(backend))))
	_, err := l.LoadReader(context.Background(), "a", bytes.NewReader(triangleGLB(t)))
	require.NoError(t, err)

	l.Close()
	assert.Empty(t, l.Models())
	assert.Zero(t, backend.Stats().Live)
}
