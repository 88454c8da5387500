package graph

import "math"

// MaxNodes is the largest number of distinct identifiers a single store can
// address with int32 internal indices.
const MaxNodes = math.MaxInt32

// Per-entry byte estimates used by Bytes. The forward figure approximates an
// int64 key plus an int32 value in a Go map bucket slot.
const (
	reverseEntryBytes = 8
	forwardEntryBytes = 16
)

// IDMap is a bijection between sparse external node identifiers and dense
// internal indices assigned in first-seen order.
type IDMap struct {
	forward map[int64]int32
	reverse []int64
}

func NewIDMap() *IDMap {
	return NewIDMapWithCapacity(0)
}

// NewIDMapWithCapacity pre-sizes both directions for hint identifiers.
func NewIDMapWithCapacity(hint int) *IDMap {
	if hint < 0 {
		hint = 0
	}
	return &IDMap{
		forward: make(map[int64]int32, hint),
		reverse: make([]int64, 0, hint),
	}
}

// Resolve returns the internal index for ext, allocating the next unused index
// on first sight. The second return is true when a new index was allocated.
func (m *IDMap) Resolve(ext int64) (int32, bool) {
	if idx, ok := m.forward[ext]; ok {
		return idx, false
	}
	idx := int32(len(m.reverse))
	m.forward[ext] = idx
	m.reverse = append(m.reverse, ext)
	return idx, true
}

// Lookup returns the internal index for ext without allocating.
func (m *IDMap) Lookup(ext int64) (int32, bool) {
	idx, ok := m.forward[ext]
	return idx, ok
}

// Reverse returns the external identifier for idx. idx must be in [0, Len()).
func (m *IDMap) Reverse(idx int32) int64 {
	return m.reverse[idx]
}

func (m *IDMap) Len() int {
	return len(m.reverse)
}

// Full reports whether another Resolve of an unseen id would overflow int32.
func (m *IDMap) Full() bool {
	return len(m.reverse) >= MaxNodes
}

// Bytes is a deterministic footprint estimate for Len() entries. It ignores
// slack capacity and allocator overhead so equal inputs report equal sizes.
func (m *IDMap) Bytes() int64 {
	n := int64(len(m.reverse))
	return n*reverseEntryBytes + n*forwardEntryBytes
}
