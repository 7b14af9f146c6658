package osmparser

import (
	"context"
	"fmt"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geo"

	"github.com/paulmach/osm"
	"golang.org/x/exp/slog"
)

var ValidRoadType = map[string]bool{
	"motorway":       true,
	"trunk":          true,
	"primary":        true,
	"secondary":      true,
	"tertiary":       true,
	"unclassified":   true,
	"residential":    true,
	"motorway_link":  true,
	"trunk_link":     true,
	"primary_link":   true,
	"secondary_link": true,
	"tertiary_link":  true,
	"living_street":  true,
	"path":           true,
	"road":           true,
	"service":        true,
	"track":          true,
}

var waterwayTypes = map[string]bool{
	"river":  true,
	"stream": true,
	"canal":  true,
	"drain":  true,
	"ditch":  true,
}

type ParseResult struct {
	Roads []datastructure.Way
	Water []datastructure.WaterFeature
	// SkippedWays way yang tidak punya run >= 2 node ter-resolve.
	SkippedWays int
	// ClippedWays way yang terpotong karena sebagian node-nya tidak ter-resolve (di luar bbox).
	ClippedWays int
}

type OSMParser struct {
	bbox *datastructure.BoundingBox
	log  *slog.Logger
}

// NewOSMParser bbox opsional, kalau tidak nil node di luar bbox dibuang (dipakai untuk file pbf).
func NewOSMParser(bbox *datastructure.BoundingBox, log *slog.Logger) *OSMParser {
	return &OSMParser{bbox: bbox, log: log.With(slog.String("component", "osmparser"))}
}

// Parse baca semua node & way dari scanner (osmxml atau osmpbf) lalu pisahkan road way dan water feature.
func (p *OSMParser) Parse(ctx context.Context, scanner osm.Scanner) (*ParseResult, error) {
	nodes := make(map[osm.NodeID]datastructure.Coordinate)
	ways := []*osm.Way{}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch o := scanner.Object().(type) {
		case *osm.Node:
			c := datastructure.NewCoordinate(o.Lat, o.Lon)
			if p.bbox != nil && !p.bbox.Contains(c) {
				continue
			}
			nodes[o.ID] = c
		case *osm.Way:
			ways = append(ways, o)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan osm data: %w", err)
	}

	res := &ParseResult{}
	for _, way := range ways {
		tags := way.TagMap()
		highway := tags["highway"]
		isRoad := ValidRoadType[highway]
		waterKind := waterKindOf(tags)
		if !isRoad && waterKind == "" {
			continue
		}

		runs, clipped := resolveWayNodes(way, nodes)
		if len(runs) == 0 {
			res.SkippedWays++
			continue
		}
		if clipped {
			res.ClippedWays++
		}

		for _, wayNodes := range runs {
			if isRoad {
				res.Roads = append(res.Roads, datastructure.Way{
					ID:      int64(way.ID),
					Name:    tags["name"],
					Highway: highway,
					Nodes:   wayNodes,
				})
				continue
			}

			points := make([]datastructure.Coordinate, len(wayNodes))
			for i, n := range wayNodes {
				points[i] = n.Coordinate
			}
			res.Water = append(res.Water, datastructure.WaterFeature{
				ID:     int64(way.ID),
				Kind:   waterKind,
				Closed: !clipped && waterKind != "waterway" && wayNodes[0].ID == wayNodes[len(wayNodes)-1].ID,
				Points: points,
			})
		}
	}

	p.log.Info("parsed osm data",
		slog.Int("nodes", len(nodes)),
		slog.Int("ways", len(ways)),
		slog.Int("roads", len(res.Roads)),
		slog.Int("water_features", len(res.Water)),
		slog.Int("skipped_ways", res.SkippedWays),
		slog.Int("clipped_ways", res.ClippedWays),
	)
	return res, nil
}

func waterKindOf(tags map[string]string) string {
	if tags["natural"] == "water" {
		return "water"
	}
	if waterwayTypes[tags["waterway"]] {
		return "waterway"
	}
	if tags["landuse"] == "reservoir" || tags["landuse"] == "basin" {
		return "reservoir"
	}
	return ""
}

// resolveWayNodes koordinat way node diambil dari geometry inline (overpass "out geom") atau dari node map.
// Node yang tidak ter-resolve memotong way jadi beberapa run, dua node di sisi gap tidak pernah disambung.
// Run dengan < 2 node dibuang. clipped true kalau ada node yang tidak ter-resolve.
func resolveWayNodes(way *osm.Way, nodes map[osm.NodeID]datastructure.Coordinate) (runs [][]datastructure.WayNode, clipped bool) {
	current := make([]datastructure.WayNode, 0, len(way.Nodes))
	flush := func() {
		if len(current) >= 2 {
			runs = append(runs, current)
		}
		current = []datastructure.WayNode{}
	}
	for _, wn := range way.Nodes {
		c, ok := nodes[wn.ID]
		if !ok {
			if wn.Lat == 0 && wn.Lon == 0 {
				clipped = true
				flush()
				continue
			}
			c = datastructure.NewCoordinate(wn.Lat, wn.Lon)
		}
		current = append(current, datastructure.WayNode{ID: int64(wn.ID), Coordinate: c})
	}
	flush()
	return runs, clipped
}

// DistinctCoordinates semua koordinat vertex unik dari road ways, urut sesuai kemunculan pertama.
func DistinctCoordinates(ways []datastructure.Way) []datastructure.Coordinate {
	seen := make(map[datastructure.Coordinate]struct{})
	coords := []datastructure.Coordinate{}
	for _, w := range ways {
		for _, n := range w.Nodes {
			if _, ok := seen[n.Coordinate]; ok {
				continue
			}
			seen[n.Coordinate] = struct{}{}
			coords = append(coords, n.Coordinate)
		}
	}
	return coords
}

// SplitAtIntersections potong setiap way di node yang dipakai >= 2 road way (atau muncul 2x di way yang sama).
// Segment ke-i dari way mendapat Ordinal i, way yang terpotong jadi beberapa run tetap berbagi urutan ordinal.
func SplitAtIntersections(ways []datastructure.Way) []datastructure.RoadSegment {
	usedInRoad := make(map[int64]int)
	for _, w := range ways {
		for _, n := range w.Nodes {
			usedInRoad[n.ID]++
		}
	}

	segments := []datastructure.RoadSegment{}
	ordinals := make(map[int64]int)
	for _, w := range ways {
		ordinal := ordinals[w.ID]
		current := []datastructure.Coordinate{w.Nodes[0].Coordinate}
		for i := 1; i < len(w.Nodes); i++ {
			n := w.Nodes[i]
			current = append(current, n.Coordinate)
			isLast := i == len(w.Nodes)-1
			if !isLast && usedInRoad[n.ID] < 2 {
				continue
			}
			segments = append(segments, newSegment(w, ordinal, current))
			ordinal++
			current = []datastructure.Coordinate{n.Coordinate}
		}
		ordinals[w.ID] = ordinal
	}
	return segments
}

func newSegment(w datastructure.Way, ordinal int, points []datastructure.Coordinate) datastructure.RoadSegment {
	return datastructure.RoadSegment{
		WayID:   w.ID,
		Ordinal: ordinal,
		Name:    w.Name,
		Highway: w.Highway,
		Points:  points,
		LengthM: geo.PolylineLength(points),
	}
}
