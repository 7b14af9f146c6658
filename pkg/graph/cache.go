package graph

import (
	"sync"
	"sync/atomic"

	"lintang/floodnav/pkg/store"

	"golang.org/x/exp/slog"
)

// Cache menyimpan graph terakhir, di-rebuild hanya kalau generation snapshot berubah.
type Cache struct {
	current atomic.Pointer[Graph]
	buildMu sync.Mutex
	log     *slog.Logger
}

func NewCache(log *slog.Logger) *Cache {
	return &Cache{log: log.With(slog.String("component", "graph"))}
}

func (c *Cache) Get(snap *store.Snapshot) *Graph {
	if g := c.current.Load(); g != nil && g.Generation == snap.Generation {
		return g
	}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()
	if g := c.current.Load(); g != nil && g.Generation == snap.Generation {
		return g
	}
	g := Build(snap.Generation, snap.Segments(), c.log)
	c.current.Store(g)
	return g
}
