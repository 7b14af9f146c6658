// Package graph builds the road network graph used by the pathfinder from a
// road segment snapshot. Nodes are keyed by quantized coordinates so segments
// that share an endpoint are connected.
package graph

import (
	"errors"
	"math"
	"sort"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geo"

	"github.com/dhconnelly/rtreego"
	"golang.org/x/exp/slog"
)

var ErrEmptyGraph = errors.New("graph: no nodes")

// tol setengah sisi rect node di rtree (derajat).
const tol = 0.00001

const snapCandidates = 8

type Node struct {
	ID    int32
	Coord datastructure.Coordinate
}

// Edge bagian segment antara point PointIdx dan PointIdx+1. Bisa dilewati dua arah.
type Edge struct {
	ID       int32
	From     int32
	To       int32
	Segment  int32
	PointIdx int32
	LengthM  float64
}

// Arc edge dilihat dari satu node.
type Arc struct {
	To   int32
	Edge int32
}

type nodeRect struct {
	id  int32
	loc rtreego.Point
}

func (n *nodeRect) Bounds() rtreego.Rect {
	return n.loc.ToRect(tol)
}

type Graph struct {
	Generation uint64
	Nodes      []Node
	Edges      []Edge
	Segments   []datastructure.RoadSegment

	adj     [][]Arc
	nodeIdx map[datastructure.Coordinate]int32
	rtree   *rtreego.Rtree

	SkippedSegments  int
	DroppedSelfLoops int
}

// Build graph dari segments. Segment diproses urut (way id, ordinal) supaya urutan adjacency deterministik.
// Segment dengan < 2 point atau panjang 0 dilewati dengan warning.
func Build(generation uint64, segments []datastructure.RoadSegment, log *slog.Logger) *Graph {
	sorted := make([]datastructure.RoadSegment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Less(&sorted[j])
	})

	g := &Graph{
		Generation: generation,
		nodeIdx:    make(map[datastructure.Coordinate]int32),
	}

	for _, s := range sorted {
		if err := s.Validate(); err != nil {
			g.SkippedSegments++
			log.Warn("data quality: skipping degenerate road segment",
				slog.String("error", err.Error()),
			)
			continue
		}

		segIdx := int32(len(g.Segments))
		g.Segments = append(g.Segments, s)
		for i := 0; i+1 < len(s.Points); i++ {
			from := g.addNode(s.Points[i])
			to := g.addNode(s.Points[i+1])
			if from == to {
				g.DroppedSelfLoops++
				continue
			}
			edgeID := int32(len(g.Edges))
			g.Edges = append(g.Edges, Edge{
				ID:       edgeID,
				From:     from,
				To:       to,
				Segment:  segIdx,
				PointIdx: int32(i),
				LengthM:  geo.DistanceMeters(g.Nodes[from].Coord, g.Nodes[to].Coord),
			})
			g.adj[from] = append(g.adj[from], Arc{To: to, Edge: edgeID})
			g.adj[to] = append(g.adj[to], Arc{To: from, Edge: edgeID})
		}
	}

	if g.DroppedSelfLoops > 0 {
		log.Warn("data quality: dropped edges collapsing onto a single node",
			slog.Int("edges", g.DroppedSelfLoops),
			slog.Int("precision", geo.NodePrecision),
		)
	}

	rects := make([]rtreego.Spatial, len(g.Nodes))
	for i, n := range g.Nodes {
		rects[i] = &nodeRect{id: n.ID, loc: rtreego.Point{n.Coord.Lat, n.Coord.Lon}}
	}
	g.rtree = rtreego.NewTree(2, 25, 50, rects...) // 2 dimension, 25 min entries dan 50 max entries

	log.Info("road network graph built",
		slog.Uint64("generation", generation),
		slog.Int("nodes", len(g.Nodes)),
		slog.Int("edges", len(g.Edges)),
		slog.Int("segments", len(g.Segments)),
		slog.Int("skipped_segments", g.SkippedSegments),
	)
	return g
}

func (g *Graph) addNode(c datastructure.Coordinate) int32 {
	key := geo.Quantize(c, geo.NodePrecision)
	if id, ok := g.nodeIdx[key]; ok {
		return id
	}
	id := int32(len(g.Nodes))
	g.Nodes = append(g.Nodes, Node{ID: id, Coord: key})
	g.nodeIdx[key] = id
	g.adj = append(g.adj, nil)
	return id
}

func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

func (g *Graph) EdgeCount() int {
	return len(g.Edges)
}

func (g *Graph) Neighbors(n int32) []Arc {
	return g.adj[n]
}

func (g *Graph) Node(n int32) Node {
	return g.Nodes[n]
}

func (g *Graph) Edge(e int32) Edge {
	return g.Edges[e]
}

func (g *Graph) SegmentOf(e int32) *datastructure.RoadSegment {
	return &g.Segments[g.Edges[e].Segment]
}

// NodeAt node dengan koordinat quantized yang sama dengan c.
func (g *Graph) NodeAt(c datastructure.Coordinate) (int32, bool) {
	id, ok := g.nodeIdx[geo.Quantize(c, geo.NodePrecision)]
	return id, ok
}

// Nearest node terdekat ke c (great-circle) beserta jaraknya dalam meter.
func (g *Graph) Nearest(c datastructure.Coordinate) (int32, float64, error) {
	if len(g.Nodes) == 0 {
		return -1, 0, ErrEmptyGraph
	}
	candidates := g.rtree.NearestNeighbors(snapCandidates, rtreego.Point{c.Lat, c.Lon})

	best := int32(-1)
	bestDist := math.Inf(1)
	for _, cand := range candidates {
		nr, ok := cand.(*nodeRect)
		if !ok || nr == nil {
			continue
		}
		d := geo.DistanceMeters(c, g.Nodes[nr.id].Coord)
		if d < bestDist || (d == bestDist && nr.id < best) {
			best = nr.id
			bestDist = d
		}
	}
	if best < 0 {
		return -1, 0, ErrEmptyGraph
	}
	return best, bestDist, nil
}
