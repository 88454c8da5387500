package app

import (
	"context"
	"edgegraph/internal/core/errors"
	"edgegraph/internal/data/history"
	"edgegraph/internal/data/queue"
	stderrors "errors"
	"io"
	"log/slog"
	"time"
)

const (
	historyQueueCapacity = 64
	historyBatchSize     = 16
	historyFlushInterval = 250 * time.Millisecond
)

func (a *App) startHistoryWorker() {
	if a.history == nil || a.workerCancel != nil {
		return
	}
	a.historyQueue = queue.NewMemoryQueue[history.LoadRecord](historyQueueCapacity)
	ctx, cancel := context.WithCancel(context.Background())
	a.workerCancel = cancel
	a.workerDone = make(chan struct{})
	go a.runHistoryWorker(ctx)
}

// enqueueLoad is the engine observer; it must not block a load.
func (a *App) enqueueLoad(report LoadReport, err error) {
	rec := loadRecord(report, err)
	if a.historyQueue.Enqueue(rec) == queue.EnqueueDropped {
		slog.Warn("history queue full, dropping load record", "load_id", rec.LoadID)
	}
}

func loadRecord(report LoadReport, err error) history.LoadRecord {
	rec := history.LoadRecord{
		LoadID:      report.LoadID,
		DatasetPath: report.Path,
		Status:      history.StatusOK,
		LinesRead:   report.Lines,
		Duration:    report.Duration,
		StartedAt:   report.StartedAt,
	}
	if err != nil {
		rec.Status = history.StatusFailed
		rec.ErrorCode = string(errors.CodeOf(err))
		rec.ErrorMessage = err.Error()
		return rec
	}
	rec.Nodes = int64(report.Nodes)
	rec.Edges = report.Edges
	rec.MemoryBytes = report.MemoryBytes
	rec.MaxNode = report.MaxNode
	rec.HasMaxNode = report.HasMaxNode
	rec.MaxOutDegree = report.MaxOutDegree
	return rec
}

func (a *App) runHistoryWorker(ctx context.Context) {
	defer close(a.workerDone)

	for {
		batch, err := a.historyQueue.DequeueBatch(ctx, historyBatchSize, historyFlushInterval)
		if stderrors.Is(err, context.Canceled) {
			return
		}
		if err != nil && !stderrors.Is(err, io.EOF) {
			slog.Warn("history queue dequeue failed", "error", err)
			continue
		}

		for _, rec := range batch {
			if writeErr := a.history.Record(context.Background(), rec); writeErr != nil {
				slog.Warn("failed to record load", "load_id", rec.LoadID, "error", writeErr)
			}
		}

		if stderrors.Is(err, io.EOF) {
			return
		}
	}
}

// stopHistoryWorker closes the queue and waits for the worker to write what
// is left, or cancels it when ctx expires first.
func (a *App) stopHistoryWorker(ctx context.Context) error {
	if a.workerCancel == nil {
		return nil
	}
	_ = a.historyQueue.Close()

	var err error
	select {
	case <-a.workerDone:
	case <-ctx.Done():
		err = ctx.Err()
		a.workerCancel()
		<-a.workerDone
	}
	a.workerCancel()
	a.workerCancel = nil
	if err != nil {
		return errors.Wrap(err, errors.CodeCanceled, "history writes did not drain")
	}
	return nil
}
