package kv

import (
	"time"

	"lintang/floodnav/pkg/datastructure"

	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

// SegmentRecord bentuk RoadSegment yang disimpan di pebble. Waktu disimpan sebagai unix nano.
type SegmentRecord struct {
	WayID            int64
	Ordinal          int32
	Name             string
	Highway          string
	Lats             []float64
	Lons             []float64
	LengthM          float64
	ElevationMean    float64
	ElevationMin     float64
	ElevationMax     float64
	DistanceToWaterM float64
	Rainfall         float64
	FloodScore       int32
	Flooded          bool
	RiskLevel        string
	LastUpdated      int64
}

type SnapshotMeta struct {
	Generation      uint64
	GeneratedAt     int64
	TotalRoads      int64
	FloodedRoads    int64
	CurrentRainfall float64
	ChunkCount      int64
}

func ToSegmentRecord(s datastructure.RoadSegment) SegmentRecord {
	r := SegmentRecord{
		WayID:            s.WayID,
		Ordinal:          int32(s.Ordinal),
		Name:             s.Name,
		Highway:          s.Highway,
		Lats:             make([]float64, len(s.Points)),
		Lons:             make([]float64, len(s.Points)),
		LengthM:          s.LengthM,
		ElevationMean:    s.ElevationMean,
		ElevationMin:     s.ElevationMin,
		ElevationMax:     s.ElevationMax,
		DistanceToWaterM: s.DistanceToWaterM,
		Rainfall:         s.Rainfall,
		FloodScore:       int32(s.FloodScore),
		Flooded:          s.Flooded,
		RiskLevel:        string(s.RiskLevel),
		LastUpdated:      s.LastUpdated.UnixNano(),
	}
	for i, p := range s.Points {
		r.Lats[i] = p.Lat
		r.Lons[i] = p.Lon
	}
	return r
}

func (r SegmentRecord) ToRoadSegment() datastructure.RoadSegment {
	points := make([]datastructure.Coordinate, len(r.Lats))
	for i := range r.Lats {
		points[i] = datastructure.NewCoordinate(r.Lats[i], r.Lons[i])
	}
	return datastructure.RoadSegment{
		WayID:            r.WayID,
		Ordinal:          int(r.Ordinal),
		Name:             r.Name,
		Highway:          r.Highway,
		Points:           points,
		LengthM:          r.LengthM,
		ElevationMean:    r.ElevationMean,
		ElevationMin:     r.ElevationMin,
		ElevationMax:     r.ElevationMax,
		DistanceToWaterM: r.DistanceToWaterM,
		Rainfall:         r.Rainfall,
		FloodScore:       int(r.FloodScore),
		Flooded:          r.Flooded,
		RiskLevel:        datastructure.RiskLevel(r.RiskLevel),
		LastUpdated:      time.Unix(0, r.LastUpdated).UTC(),
	}
}

func encodeCompressed(v interface{}) ([]byte, error) {
	bb, err := binary.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Compress(bb)
}

func decodeCompressed(bbCompressed []byte, v interface{}) error {
	bb, err := Decompress(bbCompressed)
	if err != nil {
		return err
	}
	return binary.Unmarshal(bb, v)
}

func Compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func Decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}

	return bb, nil
}
