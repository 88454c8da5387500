package graph

import (
	"errors"
	"fmt"
)

var (
	ErrTooManyNodes = fmt.Errorf("graph exceeds %d distinct nodes", MaxNodes)
	ErrBuilderSpent = errors.New("builder already produced a store")
)

// Builder turns a stream of (src, dst) pairs into a Store in two passes:
// discovery (Add) records degrees and a replay buffer of resolved pairs, and
// Build lays out offsets and targets without any per-node lists.
//
// A Builder is single-use and not safe for concurrent use.
type Builder struct {
	ids     *IDMap
	degrees []int64
	srcs    []int32
	dsts    []int32
	spent   bool
}

func NewBuilder() *Builder {
	return NewBuilderWithCapacity(0, 0)
}

// NewBuilderWithCapacity pre-sizes the identifier map for nodeHint ids and the
// replay buffer for edgeHint pairs.
func NewBuilderWithCapacity(nodeHint, edgeHint int) *Builder {
	if nodeHint < 0 {
		nodeHint = 0
	}
	if edgeHint < 0 {
		edgeHint = 0
	}
	return &Builder{
		ids:     NewIDMapWithCapacity(nodeHint),
		degrees: make([]int64, 0, nodeHint),
		srcs:    make([]int32, 0, edgeHint),
		dsts:    make([]int32, 0, edgeHint),
	}
}

// Add records one directed edge. Duplicates and self-loops are kept as given.
func (b *Builder) Add(src, dst int64) error {
	if b.spent {
		return ErrBuilderSpent
	}
	s, err := b.resolve(src)
	if err != nil {
		return err
	}
	d, err := b.resolve(dst)
	if err != nil {
		return err
	}
	b.degrees[s]++
	b.srcs = append(b.srcs, s)
	b.dsts = append(b.dsts, d)
	return nil
}

func (b *Builder) resolve(ext int64) (int32, error) {
	if _, ok := b.ids.Lookup(ext); !ok && b.ids.Full() {
		return 0, ErrTooManyNodes
	}
	idx, added := b.ids.Resolve(ext)
	if added {
		b.degrees = append(b.degrees, 0)
	}
	return idx, nil
}

// NodeCount is the number of distinct ids seen so far.
func (b *Builder) NodeCount() int {
	return b.ids.Len()
}

// EdgeCount is the number of edges accepted so far.
func (b *Builder) EdgeCount() int64 {
	return int64(len(b.srcs))
}

// Build computes offsets as the exclusive prefix sum of the degree counters,
// then fills targets through a cursor per node so each node's block keeps
// input order. The builder releases its buffers and cannot be reused.
func (b *Builder) Build() (*Store, error) {
	if b.spent {
		return nil, ErrBuilderSpent
	}
	b.spent = true

	n := b.ids.Len()
	e := int64(len(b.srcs))

	offsets := make([]int64, n+1)
	for i := 0; i < n; i++ {
		offsets[i+1] = offsets[i] + b.degrees[i]
	}
	b.degrees = nil

	cursor := make([]int64, n)
	copy(cursor, offsets[:n])

	targets := make([]int32, e)
	for i, s := range b.srcs {
		targets[cursor[s]] = b.dsts[i]
		cursor[s]++
	}
	b.srcs = nil
	b.dsts = nil

	return &Store{
		nodes:   n,
		edges:   e,
		offsets: offsets,
		targets: targets,
		ids:     b.ids,
	}, nil
}
