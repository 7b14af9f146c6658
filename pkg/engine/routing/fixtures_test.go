package routing_test

import (
	"math"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/engine/routing"
	"lintang/floodnav/pkg/geo"
	"lintang/floodnav/pkg/graph"
	"lintang/floodnav/pkg/logger"
)

var (
	ptA = datastructure.NewCoordinate(-7.5600, 110.8200)
	ptB = datastructure.NewCoordinate(-7.5600, 110.8300)
	ptX = datastructure.NewCoordinate(-7.5600, 110.8233)
	ptY = datastructure.NewCoordinate(-7.5600, 110.8267)
	ptC = datastructure.NewCoordinate(-7.5550, 110.8200)
	ptD = datastructure.NewCoordinate(-7.5550, 110.8300)
	ptE = datastructure.NewCoordinate(-7.6000, 110.9000)
	ptF = datastructure.NewCoordinate(-7.6000, 110.9010)
)

func roadSegment(wayID int64, ordinal int, flooded bool, pts ...datastructure.Coordinate) datastructure.RoadSegment {
	return datastructure.RoadSegment{
		WayID:         wayID,
		Ordinal:       ordinal,
		Highway:       "residential",
		Points:        pts,
		LengthM:       geo.PolylineLength(pts),
		ElevationMean: 10,
		Flooded:       flooded,
	}
}

// testNetwork: jalan langsung A-X-Y-B dengan X-Y tergenang, jalan memutar A-C-D-B (kering), plus E-F yang terpisah.
// A-X dan Y-B ikut dianggap tergenang lewat koordinat X & Y di flood cache.
func testNetwork() []datastructure.RoadSegment {
	return []datastructure.RoadSegment{
		roadSegment(1, 0, false, ptA, ptX),
		roadSegment(1, 1, true, ptX, ptY),
		roadSegment(1, 2, false, ptY, ptB),
		roadSegment(2, 0, false, ptA, ptC),
		roadSegment(2, 1, false, ptC, ptD),
		roadSegment(2, 2, false, ptD, ptB),
		roadSegment(3, 0, false, ptE, ptF),
	}
}

func testGraph() *graph.Graph {
	return graph.Build(1, testNetwork(), logger.Discard())
}

func mustNode(g *graph.Graph, c datastructure.Coordinate) int32 {
	n, ok := g.NodeAt(c)
	if !ok {
		panic("node not found")
	}
	return n
}

// gridGraph n x n node berjarak 0.001 derajat. Sebagian segment tergenang dan sebagian di dataran rendah.
func gridGraph(n int) *graph.Graph {
	at := func(r, c int) datastructure.Coordinate {
		return datastructure.NewCoordinate(-7.5+float64(r)*0.001, 110.8+float64(c)*0.001)
	}
	segments := []datastructure.RoadSegment{}
	way := int64(1)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if c+1 < n {
				s := roadSegment(way, 0, (r+c)%5 == 0, at(r, c), at(r, c+1))
				if (r*c)%7 == 3 {
					s.ElevationMean = 2
				}
				segments = append(segments, s)
				way++
			}
			if r+1 < n {
				s := roadSegment(way, 0, (r*3+c)%4 == 1, at(r, c), at(r+1, c))
				segments = append(segments, s)
				way++
			}
		}
	}
	return graph.Build(1, segments, logger.Discard())
}

// dijkstra O(V^2) sebagai pembanding A*.
func dijkstra(g *graph.Graph, from int32, resolver *routing.FloodResolver) []float64 {
	n := g.NodeCount()
	dist := make([]float64, n)
	done := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[from] = 0
	for {
		u := int32(-1)
		for i := 0; i < n; i++ {
			if !done[i] && !math.IsInf(dist[i], 1) && (u < 0 || dist[i] < dist[u]) {
				u = int32(i)
			}
		}
		if u < 0 {
			return dist
		}
		done[u] = true
		for _, arc := range g.Neighbors(u) {
			if d := dist[u] + resolver.EdgeCost(arc.Edge); d < dist[arc.To] {
				dist[arc.To] = d
			}
		}
	}
}
