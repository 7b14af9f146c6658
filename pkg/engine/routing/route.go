package routing

import (
	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/graph"

	"github.com/twpayne/go-polyline"
)

const (
	ColorLow    = "green"
	ColorMedium = "orange"
	ColorHigh   = "red"
)

// Exposure statistik genangan sepanjang path.
type Exposure struct {
	TotalDistanceM   float64
	FloodedDistanceM float64
	FloodPercentage  float64
	RiskLevel        datastructure.RiskLevel
	Color            string
}

// ClassifyExposure bucket persentase: < 20 low, < 50 medium, selain itu high.
func ClassifyExposure(totalM, floodedM float64) Exposure {
	pct := 0.0
	if totalM > 0 {
		pct = floodedM / totalM * 100
	}
	ex := Exposure{
		TotalDistanceM:   totalM,
		FloodedDistanceM: floodedM,
		FloodPercentage:  pct,
	}
	switch {
	case pct < 20:
		ex.RiskLevel, ex.Color = datastructure.RiskLow, ColorLow
	case pct < 50:
		ex.RiskLevel, ex.Color = datastructure.RiskMedium, ColorMedium
	default:
		ex.RiskLevel, ex.Color = datastructure.RiskHigh, ColorHigh
	}
	return ex
}

// PathExposure jumlahkan panjang edge di path, yang tergenang menurut resolver dihitung terpisah.
func PathExposure(g *graph.Graph, path Path, resolver *FloodResolver) Exposure {
	total, flooded := 0.0, 0.0
	for _, e := range path.Edges {
		edge := g.Edge(e)
		total += edge.LengthM
		if resolver.IsFlooded(edge.Segment) {
			flooded += edge.LengthM
		}
	}
	return ClassifyExposure(total, flooded)
}

// EdgeDuration detik untuk melewati edge. Car & motorcycle pakai kecepatan highway class, walking pakai walkingKmh.
func EdgeDuration(g *graph.Graph, edgeID int32, mode datastructure.TransportMode, walkingKmh float64) float64 {
	edge := g.Edge(edgeID)
	speedKmh := walkingKmh
	if mode != datastructure.Walking {
		speedKmh = datastructure.RoadTypeMaxSpeed(g.SegmentOf(edgeID).Highway)
	}
	if speedKmh <= 0 {
		return 0
	}
	return edge.LengthM / (speedKmh * 1000 / 3600)
}

// BuildRoute ubah path jadi Route: koordinat, polyline, jarak, durasi, exposure, id segment yang dilewati.
func BuildRoute(g *graph.Graph, path Path, mode datastructure.TransportMode, profile datastructure.RiskProfile,
	cache *FloodLookupCache, walkingKmh float64) *datastructure.Route {
	resolver := NewFloodResolver(g, cache, mode, profile)
	exposure := PathExposure(g, path, resolver)

	coords := make([]datastructure.Coordinate, 0, len(path.Nodes))
	plCoords := make([][]float64, 0, len(path.Nodes))
	for _, n := range path.Nodes {
		c := g.Node(n).Coord
		coords = append(coords, c)
		plCoords = append(plCoords, []float64{c.Lat, c.Lon})
	}

	duration := 0.0
	segmentIDs := []string{}
	lastSeg := int32(-1)
	for _, e := range path.Edges {
		duration += EdgeDuration(g, e, mode, walkingKmh)
		if s := g.Edge(e).Segment; s != lastSeg {
			segmentIDs = append(segmentIDs, g.Segments[s].ID())
			lastSeg = s
		}
	}

	return &datastructure.Route{
		Profile:         profile,
		Mode:            mode,
		Coordinates:     coords,
		Polyline:        string(polyline.EncodeCoords(plCoords)),
		DistanceM:       exposure.TotalDistanceM,
		DurationS:       duration,
		FloodedDistance: exposure.FloodedDistanceM,
		FloodPercentage: exposure.FloodPercentage,
		RiskLevel:       exposure.RiskLevel,
		Color:           exposure.Color,
		TotalCost:       path.Cost,
		SegmentIDs:      segmentIDs,
	}
}
