package datastructure

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

var ErrInvalidSegment = errors.New("invalid road segment")

// RoadSegment potongan dari satu osm way (dipotong di node intersection) beserta atribut flood risk.
// identity = WayID + Ordinal.
type RoadSegment struct {
	WayID            int64
	Ordinal          int
	Name             string
	Highway          string
	Points           []Coordinate
	LengthM          float64
	ElevationMean    float64
	ElevationMin     float64
	ElevationMax     float64
	DistanceToWaterM float64
	Rainfall         float64
	FloodScore       int
	Flooded          bool
	RiskLevel        RiskLevel
	LastUpdated      time.Time
}

func SegmentID(wayID int64, ordinal int) string {
	return strconv.FormatInt(wayID, 10) + ":" + strconv.Itoa(ordinal)
}

func (s *RoadSegment) ID() string {
	return SegmentID(s.WayID, s.Ordinal)
}

// Validate segment harus punya >= 2 point dan panjang positif supaya bisa jadi edge graph.
func (s *RoadSegment) Validate() error {
	if len(s.Points) < 2 {
		return fmt.Errorf("%w: %s has %d points", ErrInvalidSegment, s.ID(), len(s.Points))
	}
	if !(s.LengthM > 0) || math.IsInf(s.LengthM, 0) {
		return fmt.Errorf("%w: %s has length %v", ErrInvalidSegment, s.ID(), s.LengthM)
	}
	return nil
}

// Less urutan (way id, ordinal).
func (s *RoadSegment) Less(o *RoadSegment) bool {
	if s.WayID != o.WayID {
		return s.WayID < o.WayID
	}
	return s.Ordinal < o.Ordinal
}

type WayNode struct {
	ID int64
	Coordinate
}

// Way osm way yang sudah lolos filter highway.
type Way struct {
	ID      int64
	Name    string
	Highway string
	Nodes   []WayNode
}

// WaterFeature sungai/kanal (polyline) atau danau/reservoir (area, Closed=true).
type WaterFeature struct {
	ID     int64
	Kind   string
	Closed bool
	Points []Coordinate
}

type BoundingBox struct {
	MinLat float64 `yaml:"min_lat" json:"min_lat" validate:"gte=-90,lte=90"`
	MinLon float64 `yaml:"min_lon" json:"min_lon" validate:"gte=-180,lte=180"`
	MaxLat float64 `yaml:"max_lat" json:"max_lat" validate:"gte=-90,lte=90,gtfield=MinLat"`
	MaxLon float64 `yaml:"max_lon" json:"max_lon" validate:"gte=-180,lte=180,gtfield=MinLon"`
}

func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

func (b BoundingBox) Centroid() Coordinate {
	return Coordinate{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}

// RoadTypeMaxSpeed kecepatan (km/h) default per highway class.
func RoadTypeMaxSpeed(roadType string) float64 {
	switch roadType {
	case "motorway":
		return 95
	case "trunk":
		return 85
	case "primary":
		return 75
	case "secondary":
		return 65
	case "tertiary":
		return 50
	case "unclassified":
		return 50
	case "residential":
		return 30
	case "service":
		return 20
	case "motorway_link":
		return 90
	case "trunk_link":
		return 80
	case "primary_link":
		return 70
	case "secondary_link":
		return 60
	case "tertiary_link":
		return 50
	case "living_street":
		return 20
	default:
		return 40
	}
}
