package routing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geo"
	"lintang/floodnav/pkg/graph"
	"lintang/floodnav/pkg/util"
)

var ErrNoRouteFound = errors.New("no route found")

// cek ctx setiap sekian node di-pop.
const ctxCheckInterval = 1024

// Path hasil A*: urutan node dari start ke goal dan edge di antaranya (len(Edges) == len(Nodes)-1).
type Path struct {
	Nodes []int32
	Edges []int32
	Cost  float64
}

type cameFromPair struct {
	Edge int32
	Node int32
}

// Pathfinder mencari path termurah antara dua node graph untuk satu mode & profile.
type Pathfinder interface {
	FindPath(ctx context.Context, g *graph.Graph, from, to int32, mode datastructure.TransportMode,
		profile datastructure.RiskProfile, cache *FloodLookupCache) (Path, error)
}

type AStar struct{}

func NewAStar() *AStar {
	return &AStar{}
}

// FindPath A* dengan f = g + h, h = jarak great-circle ke goal * MinMultiplier(mode).
// Frontier kosong sebelum goal di-pop => ErrNoRouteFound.
func (a *AStar) FindPath(ctx context.Context, g *graph.Graph, from, to int32, mode datastructure.TransportMode,
	profile datastructure.RiskProfile, cache *FloodLookupCache) (Path, error) {
	n := g.NodeCount()
	if from < 0 || to < 0 || int(from) >= n || int(to) >= n {
		return Path{}, fmt.Errorf("%w: node out of range (%d, %d)", ErrNoRouteFound, from, to)
	}
	if from == to {
		return Path{Nodes: []int32{from}, Edges: []int32{}}, nil
	}

	resolver := NewFloodResolver(g, cache, mode, profile)
	hScale := MinMultiplier(mode)
	goal := g.Node(to).Coord
	heuristic := func(node int32) float64 {
		return geo.DistanceMeters(g.Node(node).Coord, goal) * hScale
	}

	gScore := make([]float64, n)
	for i := range gScore {
		gScore[i] = math.Inf(1)
	}
	cameFrom := make([]cameFromPair, n)
	closed := make([]bool, n)

	var seq uint64
	heap := NewMinHeap[int32]()
	gScore[from] = 0
	cameFrom[from] = cameFromPair{Edge: -1, Node: -1}
	heap.Insert(PriorityQueueNode[int32]{Rank: heuristic(from), Seq: seq, Item: from})
	seq++

	popped := 0
	for heap.Size() > 0 {
		if popped%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Path{}, err
			}
		}
		popped++

		current, _ := heap.ExtractMin()
		u := current.Item
		if u == to {
			return a.reconstruct(from, to, cameFrom, gScore[to]), nil
		}
		closed[u] = true

		for _, arc := range g.Neighbors(u) {
			v := arc.To
			if closed[v] {
				continue
			}
			tentative := gScore[u] + resolver.EdgeCost(arc.Edge)
			if tentative >= gScore[v] {
				continue
			}
			gScore[v] = tentative
			cameFrom[v] = cameFromPair{Edge: arc.Edge, Node: u}
			node := PriorityQueueNode[int32]{Rank: tentative + heuristic(v), Seq: seq, Item: v}
			seq++
			if heap.Contains(v) {
				heap.DecreaseKey(node)
			} else {
				heap.Insert(node)
			}
		}
	}
	return Path{}, fmt.Errorf("%w: goal node %d unreachable from node %d", ErrNoRouteFound, to, from)
}

func (a *AStar) reconstruct(from, to int32, cameFrom []cameFromPair, cost float64) Path {
	nodes := []int32{to}
	edges := []int32{}
	for curr := to; curr != from; {
		prev := cameFrom[curr]
		edges = append(edges, prev.Edge)
		nodes = append(nodes, prev.Node)
		curr = prev.Node
	}
	util.ReverseG(nodes)
	util.ReverseG(edges)
	return Path{Nodes: nodes, Edges: edges, Cost: cost}
}
