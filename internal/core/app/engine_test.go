package app

import (
	"compress/gzip"
	"context"
	"edgegraph/internal/core/errors"
	"edgegraph/internal/engine/graph"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func newTestEngine(opts EngineOptions) *Engine {
	if opts.CacheEntries == 0 {
		opts.CacheEntries = 16
	}
	return NewEngine(opts)
}

func TestEngine_ThreeEdgeScenario(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "edges.txt", "1 2", "2 3", "1 3")
	e := newTestEngine(EngineOptions{Verify: true})

	report, err := e.Load(context.Background(), path)
	require.NoError(t, err)
	assert.NotEmpty(t, report.LoadID)
	assert.Equal(t, 3, report.Nodes)
	assert.EqualValues(t, 3, report.Edges)
	assert.EqualValues(t, 3, report.Lines)

	assert.Equal(t, 3, e.NodeCount())
	assert.EqualValues(t, 3, e.EdgeCount())

	id, ok := e.MaxDegreeOutNode()
	require.True(t, ok)
	assert.EqualValues(t, 1, id)

	ctx := context.Background()
	assert.Equal(t, []graph.Edge{{From: 1, To: 2}, {From: 1, To: 3}}, e.Traverse(ctx, 1, 1))
	assert.Equal(t, []graph.Edge{{From: 1, To: 2}, {From: 1, To: 3}, {From: 2, To: 3}}, e.Traverse(ctx, 1, 2))
	assert.Empty(t, e.Traverse(ctx, 1, 0))
	assert.Empty(t, e.Traverse(ctx, 42, 5))
}

func TestEngine_CommentAndBlankLines(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "edges.txt", "# header", "", "5 7")
	e := newTestEngine(EngineOptions{})

	report, err := e.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, e.NodeCount())
	assert.EqualValues(t, 1, e.EdgeCount())
	assert.EqualValues(t, 1, report.Comments)
}

func TestEngine_BeforeFirstLoad(t *testing.T) {
	e := newTestEngine(EngineOptions{})

	assert.Equal(t, 0, e.NodeCount())
	assert.EqualValues(t, 0, e.EdgeCount())
	_, ok := e.MaxDegreeOutNode()
	assert.False(t, ok)
	assert.NotNil(t, e.Traverse(context.Background(), 1, 3))
	assert.Empty(t, e.Traverse(context.Background(), 1, 3))
	_, loaded := e.LastLoad()
	assert.False(t, loaded)
}

func TestEngine_LoadIsDeterministic(t *testing.T) {
	lines := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		lines = append(lines, fmt.Sprintf("%d %d", i%97*1000003, (i*31+7)%113*1000003))
	}
	path := writeDataset(t, t.TempDir(), "edges.txt", lines...)

	a := newTestEngine(EngineOptions{})
	b := newTestEngine(EngineOptions{})
	_, err := a.Load(context.Background(), path)
	require.NoError(t, err)
	_, err = b.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, a.NodeCount(), b.NodeCount())
	assert.Equal(t, a.EdgeCount(), b.EdgeCount())
	assert.Equal(t, a.MemoryUsageBytes(), b.MemoryUsageBytes())
	for _, depth := range []int{1, 2, 4} {
		assert.Equal(t,
			a.Traverse(context.Background(), 0, depth),
			b.Traverse(context.Background(), 0, depth),
			"depth %d", depth)
	}
}

func TestEngine_FailedLoadKeepsPreviousStore(t *testing.T) {
	dir := t.TempDir()
	good := writeDataset(t, dir, "good.txt", "1 2", "2 3", "1 3")
	bad := writeDataset(t, dir, "bad.txt", "1 2", "2 x", "3 4")

	e := newTestEngine(EngineOptions{})
	first, err := e.Load(context.Background(), good)
	require.NoError(t, err)
	before := e.Snapshot()

	_, err = e.Load(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFormat))
	assert.Contains(t, err.Error(), "line")

	_, err = e.Load(context.Background(), filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeIO))

	assert.Same(t, before, e.Snapshot())
	last, ok := e.LastLoad()
	require.True(t, ok)
	assert.Equal(t, first.LoadID, last.LoadID)
	assert.Equal(t, 3, e.NodeCount())
}

func TestEngine_EmptyPathIsValidationError(t *testing.T) {
	e := newTestEngine(EngineOptions{})
	_, err := e.Load(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestEngine_CanceledLoad(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "edges.txt", "1 2")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEngine(EngineOptions{})
	_, err := e.Load(ctx, path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeCanceled))
	assert.Equal(t, 0, e.NodeCount())
}

func TestEngine_GzipDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edges.txt.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("1 2\n2 3\n1 3\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	e := newTestEngine(EngineOptions{})
	_, err = e.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, e.NodeCount())
	assert.EqualValues(t, 3, e.EdgeCount())
}

func TestEngine_ReloadReplacesStoreAndInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeDataset(t, dir, "edges.txt", "1 2")
	e := newTestEngine(EngineOptions{})

	_, err := e.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []graph.Edge{{From: 1, To: 2}}, e.Traverse(context.Background(), 1, 3))
	assert.Equal(t, 1, e.cache.len())

	writeDataset(t, dir, "edges.txt", "1 2", "1 9")
	_, err = e.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, e.cache.len())
	assert.Equal(t, []graph.Edge{{From: 1, To: 2}, {From: 1, To: 9}}, e.Traverse(context.Background(), 1, 3))
}

func TestEngine_TraversalCacheHit(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "edges.txt", "1 2", "2 3")
	e := newTestEngine(EngineOptions{})
	_, err := e.Load(context.Background(), path)
	require.NoError(t, err)

	first := e.Traverse(context.Background(), 1, 2)
	second := e.Traverse(context.Background(), 1, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, e.cache.len())
}

func TestEngine_CacheDisabled(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "edges.txt", "1 2")
	e := NewEngine(EngineOptions{CacheEntries: -1})
	_, err := e.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []graph.Edge{{From: 1, To: 2}}, e.Traverse(context.Background(), 1, 1))
	assert.Equal(t, 0, e.cache.len())
}

func TestEngine_DepthClamp(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "edges.txt", "1 2", "2 3", "3 4")
	e := newTestEngine(EngineOptions{MaxDepth: 2})
	_, err := e.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, e.ClampDepth(10))
	assert.Equal(t, 1, e.ClampDepth(1))
	assert.Equal(t, []graph.Edge{{From: 1, To: 2}, {From: 2, To: 3}}, e.Traverse(context.Background(), 1, 10))
}

func TestEngine_ObserversSeeEveryAttempt(t *testing.T) {
	dir := t.TempDir()
	good := writeDataset(t, dir, "good.txt", "1 2")

	e := newTestEngine(EngineOptions{})
	var mu sync.Mutex
	var seen []error
	e.OnLoad(func(_ LoadReport, err error) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, err)
	})

	_, _ = e.Load(context.Background(), good)
	_, _ = e.Load(context.Background(), filepath.Join(dir, "nope.txt"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.NoError(t, seen[0])
	assert.Error(t, seen[1])
}

func TestEngine_ConcurrentReadersDuringReload(t *testing.T) {
	dir := t.TempDir()
	small := writeDataset(t, dir, "small.txt", "1 2", "2 3", "1 3")
	large := writeDataset(t, dir, "large.txt", "1 2", "2 3", "1 3", "3 4", "4 5")

	e := newTestEngine(EngineOptions{})
	_, err := e.Load(context.Background(), small)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := e.Snapshot()
				n, m := s.NodeCount(), s.EdgeCount()
				if !((n == 3 && m == 3) || (n == 5 && m == 5)) {
					t.Errorf("observed torn store: N=%d E=%d", n, m)
					return
				}
				_ = e.Traverse(context.Background(), 1, 3)
			}
		}()
	}

	for i := 0; i < 10; i++ {
		path := small
		if i%2 == 0 {
			path = large
		}
		_, err := e.Load(context.Background(), path)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}
