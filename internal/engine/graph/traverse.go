package graph

// Edge is a directed pair of external identifiers.
type Edge struct {
	From int64 `json:"from" yaml:"from"`
	To   int64 `json:"to" yaml:"to"`
}

type queueItem struct {
	idx   int32
	depth int
}

// Traverse runs a breadth-first search from start that crosses at most
// maxDepth hops. Every node closer than maxDepth is expanded exactly once and
// all of its out-edges are reported, including edges back into already
// visited nodes. Edges come level by level and in adjacency order within a
// source.
//
// An unknown start, an empty store or maxDepth <= 0 yields an empty,
// non-nil result.
func (s *Store) Traverse(start int64, maxDepth int) []Edge {
	out := make([]Edge, 0)
	if maxDepth <= 0 || s.nodes == 0 {
		return out
	}
	root, ok := s.ids.Lookup(start)
	if !ok {
		return out
	}

	visited := newBitset(s.nodes)
	visited.set(root)

	queue := []queueItem{{idx: root, depth: 0}}
	for head := 0; head < len(queue); head++ {
		v := queue[head]
		if v.depth >= maxDepth {
			continue
		}
		from := s.ids.Reverse(v.idx)
		for _, t := range s.targets[s.offsets[v.idx]:s.offsets[v.idx+1]] {
			out = append(out, Edge{From: from, To: s.ids.Reverse(t)})
			if visited.has(t) {
				continue
			}
			visited.set(t)
			queue = append(queue, queueItem{idx: t, depth: v.depth + 1})
		}
	}
	return out
}

// bitset is a visited marker with one bit per internal index.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) set(i int32) {
	b[i>>6] |= 1 << (uint(i) & 63)
}

func (b bitset) has(i int32) bool {
	return b[i>>6]&(1<<(uint(i)&63)) != 0
}
