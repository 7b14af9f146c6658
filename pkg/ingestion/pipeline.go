// Package ingestion refreshes the road segment store: it fetches the road
// network, elevations and precipitation, scores every segment for flood risk
// and atomically publishes the result as a new snapshot.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"lintang/floodnav/pkg/concurrent"
	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/floodrisk"
	"lintang/floodnav/pkg/osmparser"
	"lintang/floodnav/pkg/store"
	"lintang/floodnav/pkg/util"
	"lintang/floodnav/pkg/waterindex"

	"golang.org/x/exp/slog"
)

var ErrIngestionAborted = errors.New("ingestion aborted")

type RoadNetworkFetcher interface {
	FetchRoadNetwork(ctx context.Context, bbox datastructure.BoundingBox) (*osmparser.ParseResult, error)
}

type ElevationFetcher interface {
	FetchElevations(ctx context.Context, coords []datastructure.Coordinate) ([]float64, error)
}

type WeatherFetcher interface {
	FetchPrecipitation(ctx context.Context, c datastructure.Coordinate) (float64, error)
}

// ElevationCache cache elevation permanen (kv pebble).
type ElevationCache interface {
	GetElevations(coords []datastructure.Coordinate) (map[datastructure.Coordinate]float64, error)
	SaveElevations(elevations map[datastructure.Coordinate]float64) error
}

type SegmentWriter interface {
	ReplaceAll(ctx context.Context, segments []datastructure.RoadSegment, rainfall float64, generatedAt time.Time) (*store.Snapshot, error)
}

type Options struct {
	BBox           datastructure.BoundingBox
	BatchSize      int
	BatchDelay     time.Duration
	MaxDuration    time.Duration
	Workers        int
	WaterEnabled   bool
	Water          waterindex.Options
	CachePermanent bool
}

// Result ringkasan satu siklus yang berhasil.
type Result struct {
	Generation        uint64        `json:"generation"`
	Ways              int           `json:"ways"`
	Segments          int           `json:"segments"`
	FloodedSegments   int           `json:"flooded_segments"`
	WaterFeatures     int           `json:"water_features"`
	Coordinates       int           `json:"coordinates"`
	CachedElevations  int           `json:"cached_elevations"`
	ElevationBatches  int           `json:"elevation_batches"`
	FailedBatches     int           `json:"failed_batches"`
	MissingElevations int           `json:"missing_elevations"`
	Rainfall          float64       `json:"rainfall"`
	WeatherFailed     bool          `json:"weather_failed"`
	Elapsed           time.Duration `json:"elapsed"`
}

type Pipeline struct {
	roads     RoadNetworkFetcher
	elevation ElevationFetcher
	weather   WeatherFetcher
	elevCache ElevationCache
	writer    SegmentWriter
	scorer    *floodrisk.Scorer
	opts      Options
	metrics   *Metrics
	log       *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
}

// NewPipeline elevCache & metrics boleh nil.
func NewPipeline(roads RoadNetworkFetcher, elevation ElevationFetcher, weather WeatherFetcher, elevCache ElevationCache,
	writer SegmentWriter, scorer *floodrisk.Scorer, opts Options, metrics *Metrics, log *slog.Logger) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Water.DefaultDistanceM <= 0 {
		opts.Water.DefaultDistanceM = waterindex.DefaultOptions().DefaultDistanceM
	}
	return &Pipeline{
		roads:     roads,
		elevation: elevation,
		weather:   weather,
		elevCache: elevCache,
		writer:    writer,
		scorer:    scorer,
		opts:      opts,
		metrics:   metrics,
		log:       log.With(slog.String("component", "ingestion")),
		sleep:     sleepContext,
		now:       time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run satu siklus ingestion. Gagal fetch road network => ErrIngestionAborted dan store tidak disentuh.
// Gagal elevation batch / weather tidak menggagalkan siklus.
func (p *Pipeline) Run(ctx context.Context, progress Progress) (Result, error) {
	if progress == nil {
		progress = noopProgress{}
	}
	start := p.now()
	stopWatchdog := p.watchdog(start)
	defer stopWatchdog()

	res, err := p.run(ctx, progress)
	res.Elapsed = time.Since(start)
	if err != nil {
		p.metrics.observeRun(JobFailed, res.Elapsed.Seconds())
		p.log.Error("ingestion cycle aborted, store left untouched",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", res.Elapsed),
		)
		return res, err
	}

	p.metrics.observeRun(JobSucceeded, res.Elapsed.Seconds())
	p.log.Info("ingestion cycle finished",
		slog.Uint64("generation", res.Generation),
		slog.Int("segments", res.Segments),
		slog.Int("flooded_segments", res.FloodedSegments),
		slog.Float64("rainfall_mm_hr", res.Rainfall),
		slog.Int("failed_elevation_batches", res.FailedBatches),
		slog.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, progress Progress) (Result, error) {
	var res Result

	// 1. road network
	stepStart := time.Now()
	progress.StepStarted(StepRoadNetwork, 1)
	network, err := p.roads.FetchRoadNetwork(ctx, p.opts.BBox)
	if err != nil {
		return res, fmt.Errorf("%w: fetch road network: %w", ErrIngestionAborted, err)
	}
	if len(network.Roads) == 0 {
		return res, fmt.Errorf("%w: no routable roads inside bbox", ErrIngestionAborted)
	}
	segments := osmparser.SplitAtIntersections(network.Roads)
	res.Ways = len(network.Roads)
	res.Segments = len(segments)
	res.WaterFeatures = len(network.Water)
	progress.StepAdvanced(StepRoadNetwork, 1)
	progress.StepFinished(StepRoadNetwork)
	p.finishStep(StepRoadNetwork, stepStart,
		slog.Int("ways", res.Ways),
		slog.Int("segments", res.Segments),
		slog.Int("water_features", res.WaterFeatures),
		slog.Int("skipped_ways", network.SkippedWays),
	)

	// 2 & 3. elevation semua koordinat unik
	stepStart = time.Now()
	coords := osmparser.DistinctCoordinates(network.Roads)
	res.Coordinates = len(coords)
	elevations, stats, err := p.fetchElevations(ctx, coords, progress)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrIngestionAborted, err)
	}
	res.CachedElevations = stats.cached
	res.ElevationBatches = stats.batches
	res.FailedBatches = stats.failed
	res.MissingElevations = stats.missing
	p.finishStep(StepElevation, stepStart,
		slog.Int("coordinates", res.Coordinates),
		slog.Int("cached", stats.cached),
		slog.Int("batches", stats.batches),
		slog.Int("failed_batches", stats.failed),
		slog.Int("missing_points", stats.missing),
	)

	// 4. curah hujan di centroid bbox
	stepStart = time.Now()
	progress.StepStarted(StepWeather, 1)
	rainfall, err := p.weather.FetchPrecipitation(ctx, p.opts.BBox.Centroid())
	if err != nil || math.IsNaN(rainfall) || rainfall < 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("%w: %w", ErrIngestionAborted, ctxErr)
		}
		p.log.Warn("precipitation fetch failed, assuming 0 mm/h", slog.Any("error", err))
		rainfall = 0
		res.WeatherFailed = true
	}
	res.Rainfall = rainfall
	progress.StepAdvanced(StepWeather, 1)
	progress.StepFinished(StepWeather)
	p.finishStep(StepWeather, stepStart, slog.Float64("rainfall_mm_hr", rainfall))

	// 5. scoring
	stepStart = time.Now()
	water := p.buildWaterIndex(network.Water)
	now := p.now().UTC()
	progress.StepStarted(StepScoring, len(segments))
	scored := concurrent.Run(p.opts.Workers, segments, func(_ int, seg datastructure.RoadSegment) datastructure.RoadSegment {
		return p.scoreSegment(seg, elevations, water, rainfall, now)
	})
	for _, s := range scored {
		if s.Flooded {
			res.FloodedSegments++
		}
	}
	progress.StepAdvanced(StepScoring, len(segments))
	progress.StepFinished(StepScoring)
	p.finishStep(StepScoring, stepStart,
		slog.Int("segments", len(scored)),
		slog.Int("flooded", res.FloodedSegments),
	)

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("%w: %w", ErrIngestionAborted, err)
	}

	// 6. publish
	stepStart = time.Now()
	progress.StepStarted(StepPublish, 1)
	snap, err := p.writer.ReplaceAll(ctx, scored, rainfall, now)
	if err != nil {
		return res, fmt.Errorf("%w: publish snapshot: %w", ErrIngestionAborted, err)
	}
	res.Generation = snap.Generation
	p.metrics.observeSnapshot(snap.Generation, snap.TotalRoads, snap.FloodedRoads, snap.CurrentRainfall)
	progress.StepAdvanced(StepPublish, 1)
	progress.StepFinished(StepPublish)
	p.finishStep(StepPublish, stepStart, slog.Uint64("generation", snap.Generation))
	return res, nil
}

func (p *Pipeline) finishStep(step Step, start time.Time, attrs ...any) {
	elapsed := time.Since(start)
	p.metrics.observeStep(step, elapsed.Seconds())
	attrs = append([]any{slog.String("step", string(step)), slog.Duration("elapsed", elapsed)}, attrs...)
	p.log.Info("ingestion step done", attrs...)
}

func (p *Pipeline) buildWaterIndex(features []datastructure.WaterFeature) *waterindex.Index {
	if !p.opts.WaterEnabled {
		return nil
	}
	return waterindex.New(features, p.opts.Water)
}

func (p *Pipeline) scoreSegment(seg datastructure.RoadSegment, elevations map[datastructure.Coordinate]float64,
	water *waterindex.Index, rainfall float64, now time.Time) datastructure.RoadSegment {
	vals := make([]float64, len(seg.Points))
	for i, pt := range seg.Points {
		vals[i] = elevations[pt]
	}
	seg.ElevationMin, seg.ElevationMax, seg.ElevationMean = util.MinMaxMean(vals)

	seg.DistanceToWaterM = p.opts.Water.DefaultDistanceM
	if water != nil {
		best := math.Inf(1)
		for _, pt := range seg.Points {
			if d := water.DistanceTo(pt); d < best {
				best = d
			}
		}
		if !math.IsInf(best, 1) {
			seg.DistanceToWaterM = best
		}
	}

	r := p.scorer.Score(seg.ElevationMean, rainfall, seg.DistanceToWaterM)
	seg.Rainfall = rainfall
	seg.FloodScore = r.Score
	seg.Flooded = r.Flooded
	seg.RiskLevel = r.Level
	seg.LastUpdated = now
	return seg
}

// watchdog log warning kalau siklus melewati MaxDuration, siklus tetap dibiarkan selesai.
func (p *Pipeline) watchdog(start time.Time) func() {
	if p.opts.MaxDuration <= 0 {
		return func() {}
	}
	t := time.AfterFunc(p.opts.MaxDuration, func() {
		p.metrics.overrun()
		p.log.Warn("ingestion cycle is running past max duration",
			slog.Duration("max_duration", p.opts.MaxDuration),
			slog.Time("started_at", start),
		)
	})
	return func() { t.Stop() }
}
