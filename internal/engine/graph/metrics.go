package graph

import (
	"container/heap"
	"sort"
)

const (
	offsetBytes = 8
	targetBytes = 4
)

// DegreeEntry is one node ranked by out-degree.
type DegreeEntry struct {
	ID        int64 `json:"id" yaml:"id"`
	OutDegree int64 `json:"out_degree" yaml:"out_degree"`
}

type Summary struct {
	Nodes            int     `json:"nodes" yaml:"nodes"`
	Edges            int64   `json:"edges" yaml:"edges"`
	MemoryBytes      int64   `json:"memory_bytes" yaml:"memory_bytes"`
	MaxOutDegreeNode int64   `json:"max_out_degree_node" yaml:"max_out_degree_node"`
	MaxOutDegree     int64   `json:"max_out_degree" yaml:"max_out_degree"`
	HasMaxNode       bool    `json:"has_max_node" yaml:"has_max_node"`
	AvgOutDegree     float64 `json:"avg_out_degree" yaml:"avg_out_degree"`
}

// MemoryUsage estimates the bytes owned by the store: offsets, targets and both
// directions of the identifier map. It depends only on N and E.
func (s *Store) MemoryUsage() int64 {
	return int64(s.nodes+1)*offsetBytes + s.edges*targetBytes + s.ids.Bytes()
}

// MaxOutDegreeNode returns the external id with the greatest out-degree.
// Ties go to the node discovered first. ok is false for an empty store.
func (s *Store) MaxOutDegreeNode() (id int64, degree int64, ok bool) {
	if s.nodes == 0 {
		return 0, 0, false
	}
	best := int32(0)
	bestDeg := s.degree(0)
	for i := int32(1); int(i) < s.nodes; i++ {
		if d := s.degree(i); d > bestDeg {
			best, bestDeg = i, d
		}
	}
	return s.ids.Reverse(best), bestDeg, true
}

// TopOutDegree returns up to k nodes ordered by out-degree descending, then by
// discovery order.
func (s *Store) TopOutDegree(k int) []DegreeEntry {
	if k <= 0 || s.nodes == 0 {
		return nil
	}
	h := make(degreeHeap, 0, k)
	for i := int32(0); int(i) < s.nodes; i++ {
		item := degreeItem{idx: i, deg: s.degree(i)}
		if len(h) < k {
			heap.Push(&h, item)
			continue
		}
		if h.less(h[0], item) {
			h[0] = item
			heap.Fix(&h, 0)
		}
	}

	items := []degreeItem(h)
	sort.Slice(items, func(a, b int) bool { return items[a].before(items[b]) })
	out := make([]DegreeEntry, len(items))
	for i, it := range items {
		out[i] = DegreeEntry{ID: s.ids.Reverse(it.idx), OutDegree: it.deg}
	}
	return out
}

func (s *Store) Summary() Summary {
	sum := Summary{
		Nodes:       s.nodes,
		Edges:       s.edges,
		MemoryBytes: s.MemoryUsage(),
	}
	if id, deg, ok := s.MaxOutDegreeNode(); ok {
		sum.MaxOutDegreeNode = id
		sum.MaxOutDegree = deg
		sum.HasMaxNode = true
		sum.AvgOutDegree = float64(s.edges) / float64(s.nodes)
	}
	return sum
}

type degreeItem struct {
	idx int32
	deg int64
}

// before reports whether a ranks ahead of b.
func (a degreeItem) before(b degreeItem) bool {
	if a.deg != b.deg {
		return a.deg > b.deg
	}
	return a.idx < b.idx
}

// degreeHeap keeps the k best items with the worst one at the root.
type degreeHeap []degreeItem

func (h degreeHeap) less(a, b degreeItem) bool { return b.before(a) }

func (h degreeHeap) Len() int           { return len(h) }
func (h degreeHeap) Less(i, j int) bool { return h.less(h[i], h[j]) }
func (h degreeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *degreeHeap) Push(x any) { *h = append(*h, x.(degreeItem)) }

func (h *degreeHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
