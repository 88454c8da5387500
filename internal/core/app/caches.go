package app

import (
	"edgegraph/internal/engine/graph"
	"edgegraph/internal/shared/observability"

	lru "github.com/hashicorp/golang-lru/v2"
)

// traversalKey includes the store generation so entries from a replaced store
// can never be served.
type traversalKey struct {
	generation uint64
	start      int64
	depth      int
}

// traversalCache is a nil-safe wrapper; a nil cache never hits.
type traversalCache struct {
	lru *lru.Cache[traversalKey, []graph.Edge]
}

func newTraversalCache(size int) *traversalCache {
	if size <= 0 {
		return nil
	}
	c, err := lru.New[traversalKey, []graph.Edge](size)
	if err != nil {
		return nil
	}
	return &traversalCache{lru: c}
}

func (c *traversalCache) get(key traversalKey) ([]graph.Edge, bool) {
	if c == nil {
		return nil, false
	}
	edges, ok := c.lru.Get(key)
	if ok {
		observability.TraversalCacheTotal.WithLabelValues("hit").Inc()
	} else {
		observability.TraversalCacheTotal.WithLabelValues("miss").Inc()
	}
	return edges, ok
}

func (c *traversalCache) add(key traversalKey, edges []graph.Edge) {
	if c == nil {
		return
	}
	c.lru.Add(key, edges)
}

func (c *traversalCache) purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

func (c *traversalCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
