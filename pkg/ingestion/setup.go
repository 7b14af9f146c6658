package ingestion

import (
	"fmt"

	"lintang/floodnav/pkg/config"
	"lintang/floodnav/pkg/fetcher"
	"lintang/floodnav/pkg/floodrisk"
	"lintang/floodnav/pkg/kv"
	"lintang/floodnav/pkg/waterindex"

	"golang.org/x/exp/slog"
)

// NewPipelineFromConfig rakit fetcher (heimdall client per provider) dan pipeline dari config.
// kvDB boleh nil, cache elevation permanen hanya aktif kalau kvDB ada dan elevation.cache_permanent true.
func NewPipelineFromConfig(cfg config.Config, writer SegmentWriter, kvDB *kv.KVDB, metrics *Metrics,
	log *slog.Logger) (*Pipeline, error) {
	var roads RoadNetworkFetcher
	switch cfg.RoadNetwork.Source {
	case "overpass":
		client := fetcher.NewHTTPClient(cfg.RoadNetwork.Timeout, cfg.RoadNetwork.Retries)
		roads = fetcher.NewOverpassFetcher(client, cfg.RoadNetwork.OverpassURL, cfg.RoadNetwork.Timeout, log)
	case "pbf":
		roads = fetcher.NewPBFFetcher(cfg.RoadNetwork.PBFFile, log)
	default:
		return nil, fmt.Errorf("unknown road network source %q", cfg.RoadNetwork.Source)
	}

	elevation := fetcher.NewOpenElevationFetcher(
		fetcher.NewHTTPClient(cfg.Elevation.Timeout, cfg.Elevation.Retries), cfg.Elevation.URL)
	weather := fetcher.NewOpenMeteoFetcher(
		fetcher.NewHTTPClient(cfg.Weather.Timeout, cfg.Weather.Retries), cfg.Weather.URL)

	var elevCache ElevationCache
	if cfg.Elevation.CachePermanent && kvDB != nil {
		elevCache = kvDB
	}

	opts := Options{
		BBox:           cfg.BBox,
		BatchSize:      cfg.Elevation.BatchSize,
		BatchDelay:     cfg.Elevation.BatchDelay,
		MaxDuration:    cfg.Ingestion.MaxDuration,
		Workers:        cfg.Ingestion.Workers,
		WaterEnabled:   cfg.Water.Enabled,
		CachePermanent: cfg.Elevation.CachePermanent,
		Water: waterindex.Options{
			Resolution:       cfg.Water.H3Resolution,
			SearchRadiusM:    cfg.Water.SearchRadiusM,
			DefaultDistanceM: cfg.Water.DefaultDistance,
		},
	}
	return NewPipeline(roads, elevation, weather, elevCache, writer,
		floodrisk.NewScorer(cfg.Flood.Thresholds), opts, metrics, log), nil
}
