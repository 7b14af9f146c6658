package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/graph"
	"lintang/floodnav/pkg/server"
	"lintang/floodnav/pkg/store"

	"golang.org/x/exp/slog"
)

var ErrInvalidRequest = errors.New("invalid route request")

type SnapshotSource interface {
	Current() *store.Snapshot
}

type GraphProvider interface {
	Get(snap *store.Snapshot) *graph.Graph
}

type Options struct {
	MaxSnapDistanceM float64
	WalkingSpeedKmh  float64
}

func DefaultOptions() Options {
	return Options{MaxSnapDistanceM: 1000, WalkingSpeedKmh: 5}
}

// Generator menghitung rute safe, balanced, dan fastest untuk satu pasangan start/end.
type Generator struct {
	snapshots  SnapshotSource
	graphs     GraphProvider
	pathfinder Pathfinder
	opts       Options
	log        *slog.Logger
}

func NewGenerator(snapshots SnapshotSource, graphs GraphProvider, pathfinder Pathfinder, opts Options,
	log *slog.Logger) *Generator {
	if pathfinder == nil {
		pathfinder = NewAStar()
	}
	return &Generator{
		snapshots:  snapshots,
		graphs:     graphs,
		pathfinder: pathfinder,
		opts:       opts,
		log:        log.With(slog.String("component", "routing")),
	}
}

type slotResult struct {
	index int
	slot  datastructure.RouteSlot
}

// GenerateRoutes validasi input, snap start/end ke node terdekat, lalu jalankan tiga pencarian A* secara paralel.
// Gagal di satu slot tidak mempengaruhi slot lain.
func (gen *Generator) GenerateRoutes(ctx context.Context, start, end datastructure.Coordinate,
	mode datastructure.TransportMode) (*datastructure.RouteSet, error) {
	mode, err := validateRequest(start, end, mode)
	if err != nil {
		return nil, err
	}

	snap := gen.snapshots.Current()
	if snap == nil {
		return nil, server.WrapErrorf(store.ErrNoSnapshot, server.ErrNotReady, "road segments have not been ingested yet")
	}
	g := gen.graphs.Get(snap)

	from, err := gen.snap(g, start, "start")
	if err != nil {
		return nil, err
	}
	to, err := gen.snap(g, end, "end")
	if err != nil {
		return nil, err
	}

	cache := NewFloodLookupCache(snap.Segments())
	rs := &datastructure.RouteSet{
		Generation: snap.Generation,
		ComputedAt: time.Now().UTC(),
	}

	results := make(chan slotResult, len(datastructure.RiskProfiles))
	var wg sync.WaitGroup
	for i, profile := range datastructure.RiskProfiles {
		wg.Add(1)
		go func(idx int, profile datastructure.RiskProfile) {
			defer wg.Done()
			results <- slotResult{index: idx, slot: gen.computeSlot(ctx, g, from, to, mode, profile, cache)}
		}(i, profile)
	}
	wg.Wait()
	close(results)

	for res := range results {
		*rs.Slot(datastructure.RiskProfiles[res.index]) = res.slot
	}
	return rs, nil
}

func (gen *Generator) computeSlot(ctx context.Context, g *graph.Graph, from, to int32,
	mode datastructure.TransportMode, profile datastructure.RiskProfile, cache *FloodLookupCache) (slot datastructure.RouteSlot) {
	defer func() {
		if r := recover(); r != nil {
			gen.log.Error("route computation panicked",
				slog.String("profile", profile.String()),
				slog.Any("panic", r),
			)
			slot = datastructure.RouteSlot{Reason: "internal error while computing route"}
		}
	}()

	startTime := time.Now()
	path, err := gen.pathfinder.FindPath(ctx, g, from, to, mode, profile, cache)
	if err != nil {
		reason := err.Error()
		switch {
		case errors.Is(err, ErrNoRouteFound):
			reason = "no route found between start and end"
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			reason = "route computation cancelled: " + err.Error()
		}
		gen.log.Debug("route unavailable",
			slog.String("profile", profile.String()),
			slog.String("mode", mode.String()),
			slog.String("error", err.Error()),
		)
		return datastructure.RouteSlot{Reason: reason}
	}

	route := BuildRoute(g, path, mode, profile, cache, gen.opts.WalkingSpeedKmh)
	gen.log.Debug("route computed",
		slog.String("profile", profile.String()),
		slog.String("mode", mode.String()),
		slog.Float64("distance_m", route.DistanceM),
		slog.Float64("flood_percentage", route.FloodPercentage),
		slog.Duration("elapsed", time.Since(startTime)),
	)
	return datastructure.RouteSlot{Route: route}
}

func (gen *Generator) snap(g *graph.Graph, c datastructure.Coordinate, which string) (int32, error) {
	node, dist, err := g.Nearest(c)
	if err != nil {
		return -1, server.WrapErrorf(err, server.ErrNotReady, "road network graph is empty")
	}
	if gen.opts.MaxSnapDistanceM > 0 && dist > gen.opts.MaxSnapDistanceM {
		return -1, server.WrapErrorf(ErrInvalidRequest, server.ErrBadParamInput,
			"%s location is not covered by the road network (nearest road %.0f m away)", which, dist)
	}
	return node, nil
}

func validateRequest(start, end datastructure.Coordinate, mode datastructure.TransportMode) (datastructure.TransportMode, error) {
	for _, c := range []struct {
		name  string
		coord datastructure.Coordinate
	}{{"start", start}, {"end", end}} {
		if !validCoordinate(c.coord) {
			return "", server.WrapErrorf(ErrInvalidRequest, server.ErrBadParamInput,
				"%s coordinate (%v, %v) is out of range", c.name, c.coord.Lat, c.coord.Lon)
		}
	}
	m, err := datastructure.TransportModeFromString(string(mode))
	if err != nil {
		return "", server.WrapErrorf(fmt.Errorf("%w: %v", ErrInvalidRequest, err), server.ErrBadParamInput,
			"mode must be one of car, motorcycle, walking")
	}
	return m, nil
}

func validCoordinate(c datastructure.Coordinate) bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}
