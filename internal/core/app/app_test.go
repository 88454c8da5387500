package app

import (
	"context"
	"edgegraph/internal/core/config"
	"edgegraph/internal/core/errors"
	"edgegraph/internal/data/history"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) (*App, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Paths.StateDir = filepath.Join(dir, "state")
	cfg.Watch.Debounce = 50 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}
	a, err := New(cfg, config.ResolvePaths(cfg, dir))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a, dir
}

func TestApp_LoadDatasetUsesConfiguredPath(t *testing.T) {
	dir := t.TempDir()
	path := writeDataset(t, dir, "edges.txt", "1 2", "2 3", "1 3")

	a, _ := newTestApp(t, func(cfg *config.Config) { cfg.Dataset.Path = path })
	assert.Equal(t, path, a.DatasetPath())

	report, err := a.LoadDataset(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, path, report.Path)
	assert.Equal(t, 3, a.Engine.NodeCount())
}

func TestApp_LoadDatasetWithoutPath(t *testing.T) {
	a, _ := newTestApp(t, nil)
	_, err := a.LoadDataset(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestApp_RecordsLoadHistory(t *testing.T) {
	a, dir := newTestApp(t, func(cfg *config.Config) { cfg.History.Enabled = true })
	require.True(t, a.HistoryEnabled())

	good := writeDataset(t, dir, "good.txt", "1 2", "2 3", "1 3")
	bad := writeDataset(t, dir, "bad.txt", "1 2 3")

	ok, err := a.LoadDataset(context.Background(), good)
	require.NoError(t, err)
	_, err = a.LoadDataset(context.Background(), bad)
	require.Error(t, err)

	// Closing drains the worker, so everything is on disk afterwards.
	historyPath := a.Paths.HistoryPath
	require.NoError(t, a.Close(context.Background()))

	store, err := history.Open(historyPath)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byID := make(map[string]history.LoadRecord)
	for _, r := range records {
		byID[r.LoadID] = r
	}
	rec, found := byID[ok.LoadID]
	require.True(t, found)
	assert.Equal(t, history.StatusOK, rec.Status)
	assert.EqualValues(t, 3, rec.Nodes)
	assert.EqualValues(t, 3, rec.Edges)
	assert.True(t, rec.HasMaxNode)
	assert.EqualValues(t, 1, rec.MaxNode)

	failed := 0
	for _, r := range records {
		if r.Status == history.StatusFailed {
			failed++
			assert.Equal(t, string(errors.CodeFormat), r.ErrorCode)
			assert.Equal(t, bad, r.DatasetPath)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestApp_RecentLoadsDisabled(t *testing.T) {
	a, _ := newTestApp(t, nil)
	assert.False(t, a.HistoryEnabled())
	_, err := a.RecentLoads(context.Background(), 5)
	assert.Error(t, err)
}

func TestApp_RecentLoadsEnabled(t *testing.T) {
	a, dir := newTestApp(t, func(cfg *config.Config) { cfg.History.Enabled = true })
	path := writeDataset(t, dir, "edges.txt", "1 2")
	_, err := a.LoadDataset(context.Background(), path)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		records, err := a.RecentLoads(context.Background(), 0)
		return err == nil && len(records) == 1
	}, 3*time.Second, 25*time.Millisecond)
}

func TestApp_WatcherReloadsDataset(t *testing.T) {
	a, dir := newTestApp(t, nil)
	path := writeDataset(t, dir, "edges.txt", "1 2")
	_, err := a.LoadDataset(context.Background(), path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.StartWatcher(ctx))
	assert.True(t, a.Watching())

	require.NoError(t, os.WriteFile(path, []byte("1 2\n2 3\n3 4\n"), 0o644))
	assert.Eventually(t, func() bool {
		return a.Engine.EdgeCount() == 3
	}, 3*time.Second, 25*time.Millisecond)

	// A broken rewrite keeps the last good graph.
	require.NoError(t, os.WriteFile(path, []byte("1 2\nnot an edge\n"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.EqualValues(t, 3, a.Engine.EdgeCount())

	a.StopWatcher()
	assert.False(t, a.Watching())
}

func TestApp_StartWatcherRequiresDataset(t *testing.T) {
	a, _ := newTestApp(t, nil)
	err := a.StartWatcher(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestHealthService_Check(t *testing.T) {
	a, dir := newTestApp(t, func(cfg *config.Config) { cfg.History.Enabled = true })
	health := NewHealthService(a)

	status := health.Check(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "no dataset loaded", status.Components["graph"])
	assert.Equal(t, "ok", status.Components["history"])
	assert.Equal(t, "disabled", status.Components["watcher"])

	path := writeDataset(t, dir, "edges.txt", "1 2")
	_, err := a.LoadDataset(context.Background(), path)
	require.NoError(t, err)

	status = health.Check(context.Background())
	assert.Equal(t, "up", status.Status)
	assert.Contains(t, status.Components["graph"], "2 nodes, 1 edges")
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, config.ResolvedPaths{})
	assert.Error(t, err)
}
