package routing

import (
	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geo"
	"lintang/floodnav/pkg/graph"
)

// FloodLookupCache set id segment & koordinat (4 desimal) yang tergenang.
// Dibuat sekali per request route set dan hanya dibaca setelahnya.
type FloodLookupCache struct {
	ids    map[string]struct{}
	coords map[datastructure.Coordinate]struct{}
}

func NewFloodLookupCache(segments []datastructure.RoadSegment) *FloodLookupCache {
	c := &FloodLookupCache{
		ids:    make(map[string]struct{}),
		coords: make(map[datastructure.Coordinate]struct{}),
	}
	for i := range segments {
		if !segments[i].Flooded {
			continue
		}
		c.ids[segments[i].ID()] = struct{}{}
		for _, p := range segments[i].Points {
			c.coords[geo.Quantize(p, geo.FloodLookupPrecision)] = struct{}{}
		}
	}
	return c
}

func (c *FloodLookupCache) FloodedSegments() int {
	if c == nil {
		return 0
	}
	return len(c.ids)
}

func (c *FloodLookupCache) HasID(id string) bool {
	if c == nil {
		return false
	}
	_, ok := c.ids[id]
	return ok
}

func (c *FloodLookupCache) HasCoordinate(p datastructure.Coordinate) bool {
	if c == nil {
		return false
	}
	_, ok := c.coords[geo.Quantize(p, geo.FloodLookupPrecision)]
	return ok
}

// IsFlooded urutan cek: flag di segment, id di cache, lalu salah satu koordinat segment di cache.
// Yang pertama true langsung return.
func (c *FloodLookupCache) IsFlooded(seg *datastructure.RoadSegment) bool {
	if seg.Flooded {
		return true
	}
	if c.HasID(seg.ID()) {
		return true
	}
	for _, p := range seg.Points {
		if c.HasCoordinate(p) {
			return true
		}
	}
	return false
}

const (
	memoUnset int8 = iota
	memoDry
	memoFlooded
)

// FloodResolver memo status flood & multiplier per segment graph untuk satu pencarian.
// Tidak aman dipakai bersamaan oleh beberapa goroutine.
type FloodResolver struct {
	g       *graph.Graph
	cache   *FloodLookupCache
	mode    datastructure.TransportMode
	profile datastructure.RiskProfile

	flooded    []int8
	multiplier []float64
}

func NewFloodResolver(g *graph.Graph, cache *FloodLookupCache, mode datastructure.TransportMode,
	profile datastructure.RiskProfile) *FloodResolver {
	return &FloodResolver{
		g:          g,
		cache:      cache,
		mode:       mode,
		profile:    profile,
		flooded:    make([]int8, len(g.Segments)),
		multiplier: make([]float64, len(g.Segments)),
	}
}

// IsFlooded status flood segment graph ke-segIdx.
func (r *FloodResolver) IsFlooded(segIdx int32) bool {
	switch r.flooded[segIdx] {
	case memoFlooded:
		return true
	case memoDry:
		return false
	}
	if r.cache.IsFlooded(&r.g.Segments[segIdx]) {
		r.flooded[segIdx] = memoFlooded
		return true
	}
	r.flooded[segIdx] = memoDry
	return false
}

func (r *FloodResolver) Multiplier(segIdx int32) float64 {
	if m := r.multiplier[segIdx]; m > 0 {
		return m
	}
	m := Multiplier(&r.g.Segments[segIdx], r.mode, r.profile, r.IsFlooded(segIdx))
	r.multiplier[segIdx] = m
	return m
}

// EdgeCost panjang edge (great-circle antar node) * multiplier segment pemiliknya.
func (r *FloodResolver) EdgeCost(edgeID int32) float64 {
	e := r.g.Edge(edgeID)
	return e.LengthM * r.Multiplier(e.Segment)
}
