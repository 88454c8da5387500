package app

import (
	"context"
	"edgegraph/internal/core/config"
	"edgegraph/internal/core/errors"
	"edgegraph/internal/data/history"
	"edgegraph/internal/data/queue"
	"edgegraph/internal/watcher"
	"strings"
	"sync"
	"time"
)

// App wires the engine to its optional surroundings: the load history and the
// dataset watcher.
type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths
	Engine *Engine

	history      *history.Store
	historyQueue *queue.MemoryQueue[history.LoadRecord]
	workerCancel context.CancelFunc
	workerDone   chan struct{}

	watchMu       sync.Mutex
	activeWatcher *watcher.Watcher

	datasetMu   sync.RWMutex
	datasetPath string

	startedAt time.Time
}

func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}

	engine := NewEngine(EngineOptions{
		ScannerBufferBytes:   cfg.Load.ScannerBufferKB << 10,
		AllowPercentComments: cfg.Load.AllowPercentComments,
		Verify:               cfg.Load.Verify,
		BytesPerEdgeHint:     cfg.Load.BytesPerEdgeHint,
		MaxDepth:             cfg.Traversal.MaxDepth,
		CacheEntries:         cfg.Traversal.CacheEntries,
	})

	a := &App{
		Config:      cfg,
		Paths:       paths,
		Engine:      engine,
		datasetPath: paths.DatasetPath,
		startedAt:   time.Now().UTC(),
	}

	if cfg.History.Enabled {
		store, err := history.Open(paths.HistoryPath)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeIO, "cannot open load history"), errors.CtxPath, paths.HistoryPath)
		}
		a.history = store
		a.startHistoryWorker()
		engine.OnLoad(a.enqueueLoad)
	}
	return a, nil
}

// DatasetPath is the path of the last successful load, falling back to the
// configured dataset.
func (a *App) DatasetPath() string {
	a.datasetMu.RLock()
	defer a.datasetMu.RUnlock()
	return a.datasetPath
}

// LoadDataset loads path, or the current dataset path when path is blank.
func (a *App) LoadDataset(ctx context.Context, path string) (LoadReport, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = a.DatasetPath()
	}
	if path == "" {
		return LoadReport{}, errors.New(errors.CodeValidationError, "no dataset path given and none configured")
	}

	report, err := a.Engine.Load(ctx, path)
	if err != nil {
		return report, err
	}

	a.datasetMu.Lock()
	a.datasetPath = path
	a.datasetMu.Unlock()
	return report, nil
}

// HistoryEnabled reports whether load attempts are being recorded.
func (a *App) HistoryEnabled() bool {
	return a.history != nil
}

// RecentLoads lists recorded load attempts, newest first.
func (a *App) RecentLoads(ctx context.Context, limit int) ([]history.LoadRecord, error) {
	if a.history == nil {
		return nil, errors.New(errors.CodeValidationError, "load history is disabled")
	}
	if limit <= 0 {
		limit = a.Config.History.Limit
	}
	records, err := a.history.Recent(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "cannot read load history")
	}
	return records, nil
}

// Close stops the watcher, drains pending history writes and closes the
// history store.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	a.StopWatcher()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}
	if err := a.stopHistoryWorker(ctx); err != nil {
		return err
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			return err
		}
		a.history = nil
	}
	return nil
}
