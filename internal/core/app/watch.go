package app

import (
	"context"
	"edgegraph/internal/core/errors"
	"edgegraph/internal/watcher"
	"log/slog"
)

// StartWatcher reloads the dataset whenever it changes on disk. Reloads run on
// ctx; a failed reload keeps the previous graph.
func (a *App) StartWatcher(ctx context.Context) error {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()

	if a.activeWatcher != nil {
		return nil
	}
	path := a.DatasetPath()
	if path == "" {
		return errors.New(errors.CodeValidationError, "cannot watch without a dataset path")
	}

	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.Config.Watch.Ignore, func(paths []string) {
		a.handleDatasetChange(ctx, paths)
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "cannot create dataset watcher")
	}
	if err := w.Watch([]string{path}); err != nil {
		_ = w.Close()
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "cannot watch dataset"), errors.CtxPath, path)
	}
	a.activeWatcher = w
	slog.Info("watching dataset", "path", path, "debounce", a.Config.Watch.Debounce)
	return nil
}

func (a *App) handleDatasetChange(ctx context.Context, paths []string) {
	if ctx.Err() != nil {
		return
	}
	slog.Info("dataset changed, reloading", "paths", paths)
	if _, err := a.LoadDataset(ctx, paths[0]); err != nil {
		slog.Warn("reload failed, keeping previous graph", "error", err)
	}
}

func (a *App) StopWatcher() {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()

	if a.activeWatcher == nil {
		return
	}
	if err := a.activeWatcher.Close(); err != nil {
		slog.Warn("closing watcher", "error", err)
	}
	a.activeWatcher = nil
}

func (a *App) Watching() bool {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	return a.activeWatcher != nil
}
