package datastructure

import "time"

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

// Route satu rute hasil pathfinding untuk satu risk profile.
type Route struct {
	Profile         RiskProfile
	Mode            TransportMode
	Coordinates     []Coordinate
	Polyline        string
	DistanceM       float64
	DurationS       float64
	FloodedDistance float64
	FloodPercentage float64
	RiskLevel       RiskLevel
	Color           string
	TotalCost       float64
	SegmentIDs      []string
}

// RouteSlot hasil untuk satu profile: Route terisi kalau rute ditemukan, selain itu Reason berisi alasan.
type RouteSlot struct {
	Route  *Route
	Reason string
}

func (s RouteSlot) Available() bool {
	return s.Route != nil
}

type RouteSet struct {
	Safe       RouteSlot
	Balanced   RouteSlot
	Fastest    RouteSlot
	Generation uint64
	ComputedAt time.Time
}

// Slot mengembalikan pointer ke slot milik profile p.
func (rs *RouteSet) Slot(p RiskProfile) *RouteSlot {
	switch p {
	case RiskAverse:
		return &rs.Safe
	case Balanced:
		return &rs.Balanced
	default:
		return &rs.Fastest
	}
}
