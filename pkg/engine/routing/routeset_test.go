package routing_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/engine/routing"
	"lintang/floodnav/pkg/graph"
	"lintang/floodnav/pkg/logger"
	"lintang/floodnav/pkg/server"
	"lintang/floodnav/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSnapshots struct {
	snap *store.Snapshot
}

func (s staticSnapshots) Current() *store.Snapshot {
	return s.snap
}

// profilePathfinder gagal untuk risk-averse, panic untuk balanced, A* untuk risk-tolerant.
type profilePathfinder struct {
	astar *routing.AStar
}

func (p profilePathfinder) FindPath(ctx context.Context, g *graph.Graph, from, to int32, mode datastructure.TransportMode,
	profile datastructure.RiskProfile, cache *routing.FloodLookupCache) (routing.Path, error) {
	switch profile {
	case datastructure.RiskAverse:
		return routing.Path{}, routing.ErrNoRouteFound
	case datastructure.Balanced:
		panic("boom")
	default:
		return p.astar.FindPath(ctx, g, from, to, mode, profile, cache)
	}
}

func newGenerator(snap *store.Snapshot, pf routing.Pathfinder) *routing.Generator {
	return routing.NewGenerator(staticSnapshots{snap: snap}, graph.NewCache(logger.Discard()), pf,
		routing.DefaultOptions(), logger.Discard())
}

func requireCode(t *testing.T, err error, code error) {
	t.Helper()
	var serr *server.Error
	require.True(t, errors.As(err, &serr), "expected *server.Error, got %v", err)
	assert.Equal(t, code, serr.Code())
}

func TestGenerateRoutes(t *testing.T) {
	snap := store.NewSnapshot(3, time.Now(), 62, testNetwork())
	gen := newGenerator(snap, nil)

	t.Run("three profiles", func(t *testing.T) {
		// sedikit bergeser dari node, harus di-snap
		start := datastructure.NewCoordinate(ptA.Lat+0.00002, ptA.Lon-0.00001)
		rs, err := gen.GenerateRoutes(context.Background(), start, ptB, datastructure.Car)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), rs.Generation)

		require.True(t, rs.Safe.Available())
		require.True(t, rs.Balanced.Available())
		require.True(t, rs.Fastest.Available())

		assert.Equal(t, datastructure.RiskAverse, rs.Safe.Route.Profile)
		assert.Zero(t, rs.Safe.Route.FloodPercentage)
		assert.Zero(t, rs.Balanced.Route.FloodPercentage)
		assert.InDelta(t, 100.0, rs.Fastest.Route.FloodPercentage, 1e-9)
		assert.Less(t, rs.Fastest.Route.DistanceM, rs.Safe.Route.DistanceM)

		for _, slot := range []datastructure.RouteSlot{rs.Safe, rs.Balanced, rs.Fastest} {
			assert.Equal(t, ptA, slot.Route.Coordinates[0])
			assert.Equal(t, ptB, slot.Route.Coordinates[len(slot.Route.Coordinates)-1])
		}
	})

	t.Run("identical requests give identical coordinates", func(t *testing.T) {
		a, err := gen.GenerateRoutes(context.Background(), ptA, ptB, datastructure.Motorcycle)
		require.NoError(t, err)
		b, err := gen.GenerateRoutes(context.Background(), ptA, ptB, datastructure.Motorcycle)
		require.NoError(t, err)
		assert.Equal(t, a.Safe.Route.Coordinates, b.Safe.Route.Coordinates)
		assert.Equal(t, a.Balanced.Route.Coordinates, b.Balanced.Route.Coordinates)
		assert.Equal(t, a.Fastest.Route.Coordinates, b.Fastest.Route.Coordinates)
	})

	t.Run("unreachable end marks every slot unavailable", func(t *testing.T) {
		rs, err := gen.GenerateRoutes(context.Background(), ptA, ptE, datastructure.Car)
		require.NoError(t, err)
		for _, slot := range []datastructure.RouteSlot{rs.Safe, rs.Balanced, rs.Fastest} {
			assert.False(t, slot.Available())
			assert.Contains(t, slot.Reason, "no route found")
		}
	})

	t.Run("invalid requests are rejected", func(t *testing.T) {
		tests := []struct {
			name  string
			start datastructure.Coordinate
			end   datastructure.Coordinate
			mode  datastructure.TransportMode
		}{
			{"latitude out of range", datastructure.NewCoordinate(91, 110.82), ptB, datastructure.Car},
			{"longitude NaN", ptA, datastructure.NewCoordinate(-7.56, math.NaN()), datastructure.Car},
			{"unknown mode", ptA, ptB, datastructure.TransportMode("boat")},
			{"far from road network", ptA, datastructure.NewCoordinate(-6.2, 106.8), datastructure.Car},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := gen.GenerateRoutes(context.Background(), tt.start, tt.end, tt.mode)
				require.Error(t, err)
				assert.True(t, errors.Is(err, routing.ErrInvalidRequest))
				requireCode(t, err, server.ErrBadParamInput)
			})
		}
	})

	t.Run("mode is case insensitive", func(t *testing.T) {
		rs, err := gen.GenerateRoutes(context.Background(), ptA, ptB, datastructure.TransportMode("Walking"))
		require.NoError(t, err)
		assert.Equal(t, datastructure.Walking, rs.Safe.Route.Mode)
	})
}

func TestGenerateRoutesNotReady(t *testing.T) {
	gen := newGenerator(nil, nil)
	_, err := gen.GenerateRoutes(context.Background(), ptA, ptB, datastructure.Car)
	require.Error(t, err)
	requireCode(t, err, server.ErrNotReady)

	empty := newGenerator(store.NewSnapshot(1, time.Now(), 0, nil), nil)
	_, err = empty.GenerateRoutes(context.Background(), ptA, ptB, datastructure.Car)
	require.Error(t, err)
	requireCode(t, err, server.ErrNotReady)
}

func TestGenerateRoutesSlotsAreIndependent(t *testing.T) {
	snap := store.NewSnapshot(1, time.Now(), 0, testNetwork())
	gen := newGenerator(snap, profilePathfinder{astar: routing.NewAStar()})

	rs, err := gen.GenerateRoutes(context.Background(), ptA, ptB, datastructure.Car)
	require.NoError(t, err)

	assert.False(t, rs.Safe.Available())
	assert.Contains(t, rs.Safe.Reason, "no route found")

	assert.False(t, rs.Balanced.Available())
	assert.Contains(t, rs.Balanced.Reason, "internal error")

	require.True(t, rs.Fastest.Available())
	assert.Equal(t, datastructure.RiskTolerant, rs.Fastest.Route.Profile)
}
