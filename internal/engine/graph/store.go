package graph

import (
	"fmt"
)

// Store is an immutable graph in compressed adjacency form. targets[offsets[i]:
// offsets[i+1]] holds the internal indices reachable from node i in input
// order. All methods are safe for concurrent use.
type Store struct {
	nodes   int
	edges   int64
	offsets []int64
	targets []int32
	ids     *IDMap
}

// Empty returns a store with no nodes and no edges.
func Empty() *Store {
	return &Store{
		offsets: []int64{0},
		targets: []int32{},
		ids:     NewIDMap(),
	}
}

func (s *Store) NodeCount() int {
	return s.nodes
}

func (s *Store) EdgeCount() int64 {
	return s.edges
}

// Contains reports whether ext appeared in the loaded input.
func (s *Store) Contains(ext int64) bool {
	_, ok := s.ids.Lookup(ext)
	return ok
}

// OutDegree returns the out-degree of ext, or false when ext is unknown.
func (s *Store) OutDegree(ext int64) (int64, bool) {
	idx, ok := s.ids.Lookup(ext)
	if !ok {
		return 0, false
	}
	return s.degree(idx), true
}

func (s *Store) degree(idx int32) int64 {
	return s.offsets[idx+1] - s.offsets[idx]
}

// Neighbors returns the direct successors of ext in input order, including
// duplicates. The slice is freshly allocated.
func (s *Store) Neighbors(ext int64) ([]int64, bool) {
	idx, ok := s.ids.Lookup(ext)
	if !ok {
		return nil, false
	}
	block := s.targets[s.offsets[idx]:s.offsets[idx+1]]
	out := make([]int64, len(block))
	for i, t := range block {
		out[i] = s.ids.Reverse(t)
	}
	return out, true
}

// Offsets returns a copy of the offsets array.
func (s *Store) Offsets() []int64 {
	return append([]int64(nil), s.offsets...)
}

// Targets returns a copy of the targets array.
func (s *Store) Targets() []int32 {
	return append([]int32(nil), s.targets...)
}

// ExternalID maps an internal index back to its external identifier.
func (s *Store) ExternalID(idx int32) (int64, bool) {
	if idx < 0 || int(idx) >= s.nodes {
		return 0, false
	}
	return s.ids.Reverse(idx), true
}

// Validate checks the structural invariants of the adjacency arrays and the
// identifier map. It is O(N+E).
func (s *Store) Validate() error {
	if len(s.offsets) != s.nodes+1 {
		return fmt.Errorf("offsets length %d, want %d", len(s.offsets), s.nodes+1)
	}
	if s.offsets[0] != 0 {
		return fmt.Errorf("offsets[0] = %d, want 0", s.offsets[0])
	}
	for i := 0; i < s.nodes; i++ {
		if s.offsets[i+1] < s.offsets[i] {
			return fmt.Errorf("offsets decrease at node %d: %d > %d", i, s.offsets[i], s.offsets[i+1])
		}
	}
	if s.offsets[s.nodes] != s.edges {
		return fmt.Errorf("offsets[N] = %d, want edge count %d", s.offsets[s.nodes], s.edges)
	}
	if int64(len(s.targets)) != s.edges {
		return fmt.Errorf("targets length %d, want %d", len(s.targets), s.edges)
	}
	for i, t := range s.targets {
		if t < 0 || int(t) >= s.nodes {
			return fmt.Errorf("targets[%d] = %d out of range [0, %d)", i, t, s.nodes)
		}
	}
	if s.ids.Len() != s.nodes {
		return fmt.Errorf("identifier map holds %d ids, want %d", s.ids.Len(), s.nodes)
	}
	if len(s.ids.forward) != s.nodes {
		return fmt.Errorf("forward map holds %d ids, want %d", len(s.ids.forward), s.nodes)
	}
	for i := 0; i < s.nodes; i++ {
		ext := s.ids.Reverse(int32(i))
		if back, ok := s.ids.Lookup(ext); !ok || back != int32(i) {
			return fmt.Errorf("identifier %d does not round-trip to index %d", ext, i)
		}
	}
	return nil
}
