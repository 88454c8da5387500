package app

import (
	"context"
	"edgegraph/internal/core/errors"
	"edgegraph/internal/engine/edgelist"
	"edgegraph/internal/engine/graph"
	"edgegraph/internal/shared/observability"
	"edgegraph/internal/shared/util"
	stderrors "errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxEdgeHint caps the replay buffer pre-allocation derived from file size.
const maxEdgeHint = 1 << 27

type EngineOptions struct {
	ScannerBufferBytes   int
	AllowPercentComments bool
	Verify               bool
	BytesPerEdgeHint     int
	// MaxDepth clamps traversal depth; 0 means unlimited.
	MaxDepth int
	// CacheEntries sizes the traversal cache; <= 0 disables it.
	CacheEntries int
}

// LoadReport describes one load attempt. On failure only LoadID, Path,
// StartedAt and Duration are meaningful.
type LoadReport struct {
	LoadID       string        `json:"load_id" yaml:"load_id"`
	Path         string        `json:"path" yaml:"path"`
	Nodes        int           `json:"nodes" yaml:"nodes"`
	Edges        int64         `json:"edges" yaml:"edges"`
	MemoryBytes  int64         `json:"memory_bytes" yaml:"memory_bytes"`
	Lines        int64         `json:"lines" yaml:"lines"`
	Comments     int64         `json:"comments" yaml:"comments"`
	MaxNode      int64         `json:"max_node" yaml:"max_node"`
	MaxOutDegree int64         `json:"max_out_degree" yaml:"max_out_degree"`
	HasMaxNode   bool          `json:"has_max_node" yaml:"has_max_node"`
	HeapBytes    uint64        `json:"heap_bytes" yaml:"heap_bytes"`
	StartedAt    time.Time     `json:"started_at" yaml:"started_at"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}

// LoadObserver is told about every finished load attempt, successful or not.
type LoadObserver func(report LoadReport, err error)

type snapshot struct {
	store      *graph.Store
	generation uint64
	report     LoadReport
}

// Engine owns the active graph store. Loads are serialized and build a new
// store off to the side; readers always see either the old or the new store,
// never a partial one.
type Engine struct {
	opts EngineOptions

	loadMu     sync.Mutex
	current    atomic.Pointer[snapshot]
	generation uint64

	cache *traversalCache

	observerMu sync.RWMutex
	observers  []LoadObserver
}

func NewEngine(opts EngineOptions) *Engine {
	if opts.ScannerBufferBytes <= 0 {
		opts.ScannerBufferBytes = edgelist.DefaultBufferSize
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	e := &Engine{
		opts:  opts,
		cache: newTraversalCache(opts.CacheEntries),
	}
	e.current.Store(&snapshot{store: graph.Empty()})
	return e
}

// OnLoad registers an observer called after each load attempt.
func (e *Engine) OnLoad(fn LoadObserver) {
	if fn == nil {
		return
	}
	e.observerMu.Lock()
	defer e.observerMu.Unlock()
	e.observers = append(e.observers, fn)
}

// Load replaces the active store with one built from the edge list at path.
// On any error the previous store stays active.
func (e *Engine) Load(ctx context.Context, path string) (LoadReport, error) {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	report := LoadReport{
		LoadID:    uuid.NewString(),
		Path:      path,
		StartedAt: time.Now().UTC(),
	}

	ctx, span := observability.Tracer.Start(ctx, "Engine.Load", trace.WithAttributes(
		attribute.String("load.id", report.LoadID),
		attribute.String("load.path", path),
	))
	defer span.End()

	slog.Info("loading edge list", "load_id", report.LoadID, "path", path)

	store, stats, err := e.build(ctx, path)
	report.Duration = time.Since(report.StartedAt)
	report.Lines = stats.Lines
	report.Comments = stats.Comments
	observability.LoadDuration.Observe(report.Duration.Seconds())

	if err != nil {
		err = errors.AddContext(err, errors.CtxLoadID, report.LoadID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		observability.LoadsTotal.WithLabelValues(string(errors.CodeOf(err))).Inc()
		slog.Error("load failed",
			"load_id", report.LoadID,
			"path", path,
			"code", errors.CodeOf(err),
			"duration", report.Duration,
			"error", err,
		)
		e.notify(report, err)
		return report, err
	}

	sum := store.Summary()
	report.Nodes = sum.Nodes
	report.Edges = sum.Edges
	report.MemoryBytes = sum.MemoryBytes
	report.MaxNode = sum.MaxOutDegreeNode
	report.MaxOutDegree = sum.MaxOutDegree
	report.HasMaxNode = sum.HasMaxNode
	report.HeapBytes = util.ReadHeapStats().AllocBytes

	e.generation++
	e.current.Store(&snapshot{store: store, generation: e.generation, report: report})
	e.cache.purge()

	observability.LoadsTotal.WithLabelValues("ok").Inc()
	observability.GraphNodes.Set(float64(sum.Nodes))
	observability.GraphEdges.Set(float64(sum.Edges))
	observability.GraphMemoryBytes.Set(float64(sum.MemoryBytes))
	span.SetAttributes(
		attribute.Int("graph.nodes", sum.Nodes),
		attribute.Int64("graph.edges", sum.Edges),
	)

	slog.Info("load finished",
		"load_id", report.LoadID,
		"path", path,
		"nodes", report.Nodes,
		"edges", report.Edges,
		"memory_mb", float64(report.MemoryBytes)/(1<<20),
		"heap_mb", float64(report.HeapBytes)/(1<<20),
		"duration", report.Duration,
	)
	e.notify(report, nil)
	return report, nil
}

func (e *Engine) build(ctx context.Context, path string) (*graph.Store, edgelist.Stats, error) {
	if strings.TrimSpace(path) == "" {
		return nil, edgelist.Stats{}, errors.New(errors.CodeValidationError, "dataset path must not be empty")
	}

	rc, err := edgelist.Open(path)
	if err != nil {
		return nil, edgelist.Stats{}, errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "cannot open edge list"), errors.CtxPath, path)
	}
	defer rc.Close()

	b := graph.NewBuilderWithCapacity(0, e.edgeHint(path))
	stats, err := edgelist.Read(ctx, rc, edgelist.Options{
		BufferSize:           e.opts.ScannerBufferBytes,
		AllowPercentComments: e.opts.AllowPercentComments,
	}, b.Add)
	if err != nil {
		return nil, stats, classifyReadError(err, path)
	}

	store, err := b.Build()
	if err != nil {
		return nil, stats, errors.AddContext(
			errors.Wrap(err, errors.CodeInternal, "cannot build adjacency"), errors.CtxPath, path)
	}
	if e.opts.Verify {
		if err := store.Validate(); err != nil {
			return nil, stats, errors.AddContext(
				errors.Wrap(err, errors.CodeInternal, "built store failed validation"), errors.CtxPath, path)
		}
	}
	return store, stats, nil
}

// edgeHint guesses the edge count of an uncompressed file from its size.
func (e *Engine) edgeHint(path string) int {
	if e.opts.BytesPerEdgeHint <= 0 || strings.HasSuffix(strings.ToLower(path), ".gz") {
		return 0
	}
	hint := edgelist.SizeHint(path) / int64(e.opts.BytesPerEdgeHint)
	if hint > maxEdgeHint {
		hint = maxEdgeHint
	}
	return int(hint)
}

func classifyReadError(err error, path string) error {
	var fe *edgelist.FormatError
	switch {
	case stderrors.As(err, &fe):
		wrapped := errors.Wrap(err, errors.CodeFormat, "malformed edge list")
		wrapped = errors.AddContext(wrapped, errors.CtxLine, fe.Line)
		return errors.AddContext(wrapped, errors.CtxPath, path)
	case stderrors.Is(err, graph.ErrTooManyNodes):
		return errors.AddContext(
			errors.Wrap(err, errors.CodeValidationError, "edge list has too many distinct nodes"), errors.CtxPath, path)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.AddContext(
			errors.Wrap(err, errors.CodeCanceled, "load canceled"), errors.CtxPath, path)
	default:
		return errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "cannot read edge list"), errors.CtxPath, path)
	}
}

func (e *Engine) notify(report LoadReport, err error) {
	e.observerMu.RLock()
	observers := append([]LoadObserver(nil), e.observers...)
	e.observerMu.RUnlock()

	for _, fn := range observers {
		fn(report, err)
	}
}

// Snapshot returns the active store. It never changes, so several queries
// against it see one consistent graph.
func (e *Engine) Snapshot() *graph.Store {
	return e.current.Load().store
}

// LastLoad reports the load that produced the active store. ok is false
// before the first successful load.
func (e *Engine) LastLoad() (LoadReport, bool) {
	snap := e.current.Load()
	return snap.report, snap.generation > 0
}

func (e *Engine) NodeCount() int {
	return e.Snapshot().NodeCount()
}

func (e *Engine) EdgeCount() int64 {
	return e.Snapshot().EdgeCount()
}

func (e *Engine) MemoryUsageBytes() int64 {
	return e.Snapshot().MemoryUsage()
}

// MaxDegreeOutNode returns the external id with the highest out-degree; ok is
// false when the graph is empty.
func (e *Engine) MaxDegreeOutNode() (int64, bool) {
	id, _, ok := e.Snapshot().MaxOutDegreeNode()
	return id, ok
}

func (e *Engine) Summary() graph.Summary {
	return e.Snapshot().Summary()
}

func (e *Engine) TopOutDegree(k int) []graph.DegreeEntry {
	return e.Snapshot().TopOutDegree(k)
}

// Contains reports whether ext is a node of the active store.
func (e *Engine) Contains(ext int64) bool {
	return e.Snapshot().Contains(ext)
}

func (e *Engine) Neighbors(ext int64) ([]int64, bool) {
	return e.Snapshot().Neighbors(ext)
}

// ClampDepth applies the configured depth ceiling.
func (e *Engine) ClampDepth(depth int) int {
	if e.opts.MaxDepth > 0 && depth > e.opts.MaxDepth {
		return e.opts.MaxDepth
	}
	return depth
}

// Traverse runs a bounded breadth-first search on the active store. Results
// may be shared with other callers and must not be modified.
func (e *Engine) Traverse(ctx context.Context, start int64, depth int) []graph.Edge {
	depth = e.ClampDepth(depth)
	snap := e.current.Load()

	_, span := observability.Tracer.Start(ctx, "Engine.Traverse", trace.WithAttributes(
		attribute.Int64("traverse.start", start),
		attribute.Int("traverse.depth", depth),
	))
	defer span.End()

	key := traversalKey{generation: snap.generation, start: start, depth: depth}
	if edges, ok := e.cache.get(key); ok {
		span.SetAttributes(attribute.Bool("traverse.cached", true))
		return edges
	}

	began := time.Now()
	edges := snap.store.Traverse(start, depth)
	observability.TraversalDuration.Observe(time.Since(began).Seconds())
	observability.TraversalEdges.Observe(float64(len(edges)))
	span.SetAttributes(attribute.Int("traverse.edges", len(edges)))

	e.cache.add(key, edges)
	return edges
}
