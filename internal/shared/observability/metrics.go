package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	LoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "edgegraph_load_seconds",
		Help:    "Time spent building a graph store from an edge list.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 16),
	})

	LoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgegraph_loads_total",
		Help: "Total number of load attempts by outcome code.",
	}, []string{"code"})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edgegraph_graph_nodes",
		Help: "Number of nodes in the active graph store.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edgegraph_graph_edges",
		Help: "Number of edges in the active graph store.",
	})

	GraphMemoryBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edgegraph_graph_memory_bytes",
		Help: "Estimated bytes owned by the active graph store.",
	})

	TraversalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "edgegraph_traversal_seconds",
		Help:    "Time spent on bounded breadth-first traversals.",
		Buckets: prometheus.DefBuckets,
	})

	TraversalEdges = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "edgegraph_traversal_edges",
		Help:    "Number of edges returned per traversal.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	})

	TraversalCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgegraph_traversal_cache_total",
		Help: "Traversal cache lookups by result.",
	}, []string{"result"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgegraph_watcher_events_total",
		Help: "Total number of dataset change notifications received by the watcher.",
	})

	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgegraph_api_requests_total",
		Help: "HTTP API requests by route and status.",
	}, []string{"route", "status"})
)
