package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lintang/floodnav/pkg/datastructure"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ToFeatureCollection satu feature LineString per segment, metadata di member "metadata".
func ToFeatureCollection(snap *Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range snap.Segments() {
		line := make(orb.LineString, len(s.Points))
		for i, p := range s.Points {
			line[i] = orb.Point{p.Lon, p.Lat}
		}
		f := geojson.NewFeature(line)
		f.ID = s.ID()
		f.Properties = geojson.Properties{
			"way_id":              s.WayID,
			"ordinal":             s.Ordinal,
			"name":                s.Name,
			"highway":             s.Highway,
			"length_m":            s.LengthM,
			"elevation_mean":      s.ElevationMean,
			"elevation_min":       s.ElevationMin,
			"elevation_max":       s.ElevationMax,
			"distance_to_water_m": s.DistanceToWaterM,
			"rainfall":            s.Rainfall,
			"flood_score":         s.FloodScore,
			"flooded":             s.Flooded,
			"risk_level":          string(s.RiskLevel),
			"last_updated":        s.LastUpdated.Format(time.RFC3339Nano),
		}
		fc.Append(f)
	}
	fc.ExtraMembers = geojson.Properties{
		"metadata": map[string]interface{}{
			"generation":       snap.Generation,
			"generated_at":     snap.GeneratedAt.Format(time.RFC3339Nano),
			"total_roads":      snap.TotalRoads,
			"flooded_roads":    snap.FloodedRoads,
			"current_rainfall": snap.CurrentRainfall,
		},
	}
	return fc
}

// FromFeatureCollection kebalikan ToFeatureCollection. Feature yang bukan LineString dilewati.
func FromFeatureCollection(fc *geojson.FeatureCollection) (*Snapshot, error) {
	rawMeta, ok := fc.ExtraMembers["metadata"].(map[string]interface{})
	if !ok {
		return nil, errors.New("geojson snapshot: missing metadata member")
	}
	meta := geojson.Properties(rawMeta)
	generatedAt, err := time.Parse(time.RFC3339Nano, meta.MustString("generated_at", ""))
	if err != nil {
		return nil, fmt.Errorf("geojson snapshot: generated_at: %w", err)
	}

	segments := make([]datastructure.RoadSegment, 0, len(fc.Features))
	for _, f := range fc.Features {
		line, ok := f.Geometry.(orb.LineString)
		if !ok {
			continue
		}
		points := make([]datastructure.Coordinate, len(line))
		for i, p := range line {
			points[i] = datastructure.NewCoordinate(p.Lat(), p.Lon())
		}
		lastUpdated, _ := time.Parse(time.RFC3339Nano, f.Properties.MustString("last_updated", ""))
		segments = append(segments, datastructure.RoadSegment{
			WayID:            int64(f.Properties.MustFloat64("way_id", 0)),
			Ordinal:          f.Properties.MustInt("ordinal", 0),
			Name:             f.Properties.MustString("name", ""),
			Highway:          f.Properties.MustString("highway", ""),
			Points:           points,
			LengthM:          f.Properties.MustFloat64("length_m", 0),
			ElevationMean:    f.Properties.MustFloat64("elevation_mean", 0),
			ElevationMin:     f.Properties.MustFloat64("elevation_min", 0),
			ElevationMax:     f.Properties.MustFloat64("elevation_max", 0),
			DistanceToWaterM: f.Properties.MustFloat64("distance_to_water_m", 0),
			Rainfall:         f.Properties.MustFloat64("rainfall", 0),
			FloodScore:       f.Properties.MustInt("flood_score", 0),
			Flooded:          f.Properties.MustBool("flooded", false),
			RiskLevel:        datastructure.RiskLevel(f.Properties.MustString("risk_level", string(datastructure.RiskNone))),
			LastUpdated:      lastUpdated,
		})
	}

	return NewSnapshot(uint64(meta.MustFloat64("generation", 0)), generatedAt, meta.MustFloat64("current_rainfall", 0), segments), nil
}

// GeoJSONPersister satu FeatureCollection per generation di satu file. Ditulis ke file sementara lalu rename.
type GeoJSONPersister struct {
	path string
}

func NewGeoJSONPersister(path string) *GeoJSONPersister {
	return &GeoJSONPersister{path: path}
}

func (p *GeoJSONPersister) Save(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := ToFeatureCollection(snap).MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), filepath.Base(p.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p.path)
}

func (p *GeoJSONPersister) Load(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal geojson %s: %w", p.path, err)
	}
	return FromFeatureCollection(fc)
}

func (p *GeoJSONPersister) Close() error {
	return nil
}
