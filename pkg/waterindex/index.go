// Package waterindex answers "how far is the nearest river, canal or lake"
// for a coordinate using an h3 bucket index over s2 water geometries.
package waterindex

import (
	"math"

	"lintang/floodnav/pkg/datastructure"

	"github.com/golang/geo/s2"
	"github.com/uber/h3-go/v4"
)

const earthRadiusM = 6371000.0

type Options struct {
	Resolution int
	// SearchRadiusM radius pencarian kandidat water feature di sekitar titik.
	SearchRadiusM float64
	// DefaultDistanceM jarak yang dikembalikan kalau tidak ada water feature dalam radius pencarian.
	DefaultDistanceM float64
}

func DefaultOptions() Options {
	return Options{Resolution: 8, SearchRadiusM: 1500, DefaultDistanceM: 5000}
}

type waterShape struct {
	boundary s2.Polyline
	loop     *s2.Loop
	bound    s2.Rect
}

type Index struct {
	opts   Options
	cells  map[h3.Cell][]int32
	shapes []waterShape
	// areas index shape yang berupa polygon, dicek containment-nya langsung.
	areas []int32
}

func New(features []datastructure.WaterFeature, opts Options) *Index {
	idx := &Index{
		opts:  opts,
		cells: make(map[h3.Cell][]int32),
	}
	for _, f := range features {
		shape, ok := newWaterShape(f)
		if !ok {
			continue
		}
		id := int32(len(idx.shapes))
		idx.shapes = append(idx.shapes, shape)
		if shape.loop != nil {
			idx.areas = append(idx.areas, id)
		}
		idx.indexShape(id, shape)
	}
	return idx
}

func newWaterShape(f datastructure.WaterFeature) (waterShape, bool) {
	points := make([]s2.Point, 0, len(f.Points))
	for _, p := range f.Points {
		points = append(points, s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon)))
	}
	if len(points) == 0 {
		return waterShape{}, false
	}

	shape := waterShape{boundary: s2.Polyline(points)}
	if f.Closed && len(points) >= 4 {
		// vertex terakhir sama dengan vertex pertama
		loop := s2.LoopFromPoints(points[:len(points)-1])
		loop.Normalize()
		shape.loop = loop
		shape.bound = loop.RectBound()
	}
	return shape, true
}

// indexShape daftarkan shape ke semua cell yang dilewati boundary-nya (boundary di-densify per setengah edge cell).
func (idx *Index) indexShape(id int32, shape waterShape) {
	seen := make(map[h3.Cell]struct{})
	add := func(p s2.Point) {
		ll := s2.LatLngFromPoint(p)
		cell := h3.LatLngToCell(h3.NewLatLng(ll.Lat.Degrees(), ll.Lng.Degrees()), idx.opts.Resolution)
		if _, ok := seen[cell]; ok {
			return
		}
		seen[cell] = struct{}{}
		idx.cells[cell] = append(idx.cells[cell], id)
	}

	pts := shape.boundary
	add(pts[0])
	for i := 1; i < len(pts); i++ {
		step := idx.sampleStepM(pts[i-1])
		edgeLen := float64(pts[i-1].Distance(pts[i]).Radians()) * earthRadiusM
		n := int(math.Ceil(edgeLen / step))
		for j := 1; j <= n; j++ {
			add(s2.Interpolate(float64(j)/float64(n), pts[i-1], pts[i]))
		}
		add(pts[i])
	}
}

func (idx *Index) sampleStepM(p s2.Point) float64 {
	ll := s2.LatLngFromPoint(p)
	cell := h3.LatLngToCell(h3.NewLatLng(ll.Lat.Degrees(), ll.Lng.Degrees()), idx.opts.Resolution)
	return math.Max(10, math.Sqrt(h3.CellAreaKm2(cell))*1000/2)
}

// Len jumlah water feature yang terindex.
func (idx *Index) Len() int {
	return len(idx.shapes)
}

// DistanceTo jarak (meter) dari c ke water feature terdekat. 0 kalau c di dalam polygon air.
func (idx *Index) DistanceTo(c datastructure.Coordinate) float64 {
	if len(idx.shapes) == 0 {
		return idx.opts.DefaultDistanceM
	}
	ll := s2.LatLngFromDegrees(c.Lat, c.Lon)
	p := s2.PointFromLatLng(ll)

	for _, id := range idx.areas {
		shape := idx.shapes[id]
		if shape.bound.ContainsLatLng(ll) && shape.loop.ContainsPoint(p) {
			return 0
		}
	}

	candidates := make(map[int32]struct{})
	for _, cell := range idx.searchDisk(c) {
		for _, id := range idx.cells[cell] {
			candidates[id] = struct{}{}
		}
	}
	if len(candidates) == 0 {
		return idx.opts.DefaultDistanceM
	}

	best := math.Inf(1)
	for id := range candidates {
		if d := distanceToPolyline(p, idx.shapes[id].boundary); d < best {
			best = d
		}
	}
	return best
}

func distanceToPolyline(p s2.Point, line s2.Polyline) float64 {
	if len(line) == 1 {
		return float64(p.Distance(line[0]).Radians()) * earthRadiusM
	}
	projected, _ := line.Project(p)
	return float64(p.Distance(projected).Radians()) * earthRadiusM
}

// searchDisk grid disk di sekitar c yang luasnya minimal lingkaran SearchRadiusM.
func (idx *Index) searchDisk(c datastructure.Coordinate) []h3.Cell {
	origin := h3.LatLngToCell(h3.NewLatLng(c.Lat, c.Lon), idx.opts.Resolution)
	originArea := h3.CellAreaKm2(origin)
	searchRadiusKm := idx.opts.SearchRadiusM / 1000
	searchArea := math.Pi * searchRadiusKm * searchRadiusKm

	radius := 1
	diskArea := 7 * originArea
	for diskArea < searchArea {
		radius++
		cellCount := float64(3*radius*(radius+1) + 1)
		diskArea = cellCount * originArea
	}
	return h3.GridDisk(origin, radius)
}
