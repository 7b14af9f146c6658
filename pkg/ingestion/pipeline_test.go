package ingestion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/fetcher"
	"lintang/floodnav/pkg/floodrisk"
	"lintang/floodnav/pkg/logger"
	"lintang/floodnav/pkg/osmparser"
	"lintang/floodnav/pkg/store"
	"lintang/floodnav/pkg/waterindex"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue nilai counter dari registry. labelValue kosong berarti counter tanpa label.
func counterValue(t *testing.T, reg *prometheus.Registry, name, labelValue string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelValue == "" && len(metric.GetLabel()) == 0 {
				return metric.GetCounter().GetValue()
			}
			for _, l := range metric.GetLabel() {
				if l.GetValue() == labelValue {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

type fakeRoads struct {
	result *osmparser.ParseResult
	err    error
	delay  time.Duration
}

func (f *fakeRoads) FetchRoadNetwork(ctx context.Context, bbox datastructure.BoundingBox) (*osmparser.ParseResult, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result, f.err
}

type fakeElevation struct {
	mu      sync.Mutex
	value   float64
	failOn  map[int]bool
	// missing batch ke-n -> index point yang tidak dijawab API (NaN)
	missing map[int][]int
	batches [][]datastructure.Coordinate
}

func (f *fakeElevation) FetchElevations(ctx context.Context, coords []datastructure.Coordinate) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]datastructure.Coordinate(nil), coords...))
	if f.failOn[len(f.batches)] {
		return nil, fmt.Errorf("%w: status 429", fetcher.ErrFetchFailure)
	}
	out := make([]float64, len(coords))
	for i := range out {
		out[i] = f.value
	}
	for _, idx := range f.missing[len(f.batches)] {
		out[idx] = math.NaN()
	}
	return out, nil
}

type fakeWeather struct {
	rain float64
	err  error
}

func (f *fakeWeather) FetchPrecipitation(ctx context.Context, c datastructure.Coordinate) (float64, error) {
	return f.rain, f.err
}

type fakeElevationCache struct {
	stored map[datastructure.Coordinate]float64
	saved  map[datastructure.Coordinate]float64
}

func (f *fakeElevationCache) GetElevations(coords []datastructure.Coordinate) (map[datastructure.Coordinate]float64, error) {
	out := map[datastructure.Coordinate]float64{}
	for _, c := range coords {
		if v, ok := f.stored[c]; ok {
			out[c] = v
		}
	}
	return out, nil
}

func (f *fakeElevationCache) SaveElevations(e map[datastructure.Coordinate]float64) error {
	f.saved = e
	return nil
}

func wn(id int64, lat, lon float64) datastructure.WayNode {
	return datastructure.WayNode{ID: id, Coordinate: datastructure.NewCoordinate(lat, lon)}
}

// dua way bersilangan di node 2, sungai tepat di sampingnya.
func sampleNetwork() *osmparser.ParseResult {
	return &osmparser.ParseResult{
		Roads: []datastructure.Way{
			{ID: 1, Name: "Jalan Slamet Riyadi", Highway: "primary", Nodes: []datastructure.WayNode{
				wn(1, -7.5670, 110.8100), wn(2, -7.5670, 110.8110), wn(3, -7.5670, 110.8120),
			}},
			{ID: 2, Name: "Jalan Gatot Subroto", Highway: "secondary", Nodes: []datastructure.WayNode{
				wn(4, -7.5660, 110.8110), wn(2, -7.5670, 110.8110), wn(5, -7.5680, 110.8110),
			}},
		},
		Water: []datastructure.WaterFeature{
			{ID: 100, Kind: "river", Points: []datastructure.Coordinate{
				datastructure.NewCoordinate(-7.5672, 110.8090),
				datastructure.NewCoordinate(-7.5672, 110.8130),
			}},
		},
	}
}

type pipelineFixture struct {
	roads    *fakeRoads
	elev     *fakeElevation
	weather  *fakeWeather
	cache    *fakeElevationCache
	store    *store.SegmentStore
	sleeps   []time.Duration
	pipeline *Pipeline
}

func newPipelineFixture(opts Options, metrics *Metrics) *pipelineFixture {
	f := &pipelineFixture{
		roads:   &fakeRoads{result: sampleNetwork()},
		elev:    &fakeElevation{value: 1.2, failOn: map[int]bool{}},
		weather: &fakeWeather{rain: 62},
		cache:   &fakeElevationCache{stored: map[datastructure.Coordinate]float64{}},
		store:   store.NewSegmentStore(nil, logger.Discard()),
	}
	f.pipeline = NewPipeline(f.roads, f.elev, f.weather, f.cache, f.store,
		floodrisk.NewScorer(floodrisk.DefaultThresholds()), opts, metrics, logger.Discard())
	f.pipeline.sleep = func(ctx context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return ctx.Err()
	}
	return f
}

func defaultTestOptions() Options {
	return Options{
		BBox:         datastructure.BoundingBox{MinLat: -7.60, MinLon: 110.75, MaxLat: -7.52, MaxLon: 110.87},
		BatchSize:    2,
		BatchDelay:   time.Second,
		Workers:      3,
		WaterEnabled: true,
		Water:        waterindex.DefaultOptions(),
	}
}

func TestPipelineRun(t *testing.T) {
	f := newPipelineFixture(defaultTestOptions(), nil)

	res, err := f.pipeline.Run(context.Background(), nil)
	require.NoError(t, err)

	t.Run("result summary", func(t *testing.T) {
		assert.Equal(t, uint64(1), res.Generation)
		assert.Equal(t, 2, res.Ways)
		assert.Equal(t, 4, res.Segments)
		assert.Equal(t, 5, res.Coordinates)
		assert.Equal(t, 3, res.ElevationBatches)
		assert.Equal(t, 0, res.FailedBatches)
		assert.Equal(t, 4, res.FloodedSegments)
		assert.Equal(t, 62.0, res.Rainfall)
	})

	t.Run("elevation batches are serialized with delay", func(t *testing.T) {
		require.Len(t, f.elev.batches, 3)
		assert.Len(t, f.elev.batches[0], 2)
		assert.Len(t, f.elev.batches[2], 1)
		assert.Equal(t, []time.Duration{time.Second, time.Second}, f.sleeps)
	})

	t.Run("store holds scored segments", func(t *testing.T) {
		snap := f.store.Current()
		require.NotNil(t, snap)
		assert.Equal(t, 4, snap.TotalRoads)
		assert.Equal(t, 4, snap.FloodedRoads)
		assert.Equal(t, 62.0, snap.CurrentRainfall)

		seg, ok := snap.Segment("1:0")
		require.True(t, ok)
		assert.Equal(t, "Jalan Slamet Riyadi", seg.Name)
		assert.InDelta(t, 1.2, seg.ElevationMean, 1e-9)
		assert.Less(t, seg.DistanceToWaterM, 100.0)
		assert.Equal(t, floodrisk.MaxScore, seg.FloodScore)
		assert.Equal(t, datastructure.RiskHigh, seg.RiskLevel)
		assert.True(t, seg.Flooded)
		assert.False(t, seg.LastUpdated.IsZero())
	})
}

func TestPipelineRoadFetchFailureLeavesStoreUntouched(t *testing.T) {
	f := newPipelineFixture(defaultTestOptions(), nil)
	f.roads.err = fmt.Errorf("%w: status 504", fetcher.ErrFetchFailure)

	_, err := f.pipeline.Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIngestionAborted))
	assert.True(t, errors.Is(err, fetcher.ErrFetchFailure))
	assert.Nil(t, f.store.Current())
	assert.Empty(t, f.elev.batches)
}

func TestPipelineEmptyRoadNetworkAborts(t *testing.T) {
	f := newPipelineFixture(defaultTestOptions(), nil)
	f.roads.result = &osmparser.ParseResult{}

	_, err := f.pipeline.Run(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrIngestionAborted))
	assert.Nil(t, f.store.Current())
}

func TestPipelineDegradedFetches(t *testing.T) {
	t.Run("failed elevation batch defaults to 0 m", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := NewMetrics(reg)
		f := newPipelineFixture(defaultTestOptions(), m)
		f.elev.value = 30
		f.elev.failOn[1] = true

		res, err := f.pipeline.Run(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.FailedBatches)
		assert.Equal(t, 3, res.ElevationBatches)
		assert.Equal(t, 1.0, counterValue(t, reg, "floodnav_elevation_batch_failures_total", ""))

		// batch pertama berisi node 1 & 2, keduanya di segment 1:0
		seg, ok := f.store.Current().Segment("1:0")
		require.True(t, ok)
		assert.Equal(t, 0.0, seg.ElevationMean)
		seg, ok = f.store.Current().Segment("1:1")
		require.True(t, ok)
		assert.Equal(t, 0.0, seg.ElevationMin)
		assert.Equal(t, 30.0, seg.ElevationMax)
	})

	t.Run("weather failure means no rain", func(t *testing.T) {
		f := newPipelineFixture(defaultTestOptions(), nil)
		f.weather.err = fmt.Errorf("%w: timeout", fetcher.ErrFetchFailure)

		res, err := f.pipeline.Run(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, res.WeatherFailed)
		assert.Equal(t, 0.0, res.Rainfall)
		assert.Equal(t, 0.0, f.store.Current().CurrentRainfall)
	})
}

func TestPipelinePermanentElevationCache(t *testing.T) {
	opts := defaultTestOptions()
	opts.CachePermanent = true
	f := newPipelineFixture(opts, nil)
	net := sampleNetwork()
	f.cache.stored[net.Roads[0].Nodes[0].Coordinate] = 3
	f.cache.stored[net.Roads[0].Nodes[1].Coordinate] = 3

	res, err := f.pipeline.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.CachedElevations)
	assert.Equal(t, 2, res.ElevationBatches)

	fetched := 0
	for _, b := range f.elev.batches {
		fetched += len(b)
	}
	assert.Equal(t, 3, fetched)
	assert.Len(t, f.cache.saved, 3)

	seg, ok := f.store.Current().Segment("1:0")
	require.True(t, ok)
	assert.Equal(t, 3.0, seg.ElevationMean)
}

func TestPipelinePartialElevationNotCached(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := defaultTestOptions()
	opts.CachePermanent = true
	f := newPipelineFixture(opts, NewMetrics(reg))
	net := sampleNetwork()
	n1 := net.Roads[0].Nodes[0].Coordinate
	n2 := net.Roads[0].Nodes[1].Coordinate
	n3 := net.Roads[0].Nodes[2].Coordinate
	n4 := net.Roads[1].Nodes[0].Coordinate
	n5 := net.Roads[1].Nodes[2].Coordinate
	// batch 1 = [n1 n2], batch 2 = [n3 n4], batch 3 = [n5]
	f.elev.missing = map[int][]int{1: {1}, 2: {0, 1}}

	res, err := f.pipeline.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.FailedBatches)
	assert.Equal(t, 3, res.MissingElevations)
	assert.Equal(t, 3.0, counterValue(t, reg, "floodnav_elevation_missing_points_total", ""))

	t.Run("only answered points are cached", func(t *testing.T) {
		assert.Equal(t, map[datastructure.Coordinate]float64{n1: 1.2, n5: 1.2}, f.cache.saved)
	})

	t.Run("missing points score as 0 m", func(t *testing.T) {
		seg, ok := f.store.Current().Segment("1:0")
		require.True(t, ok)
		assert.Equal(t, 0.0, seg.ElevationMin)
		assert.Equal(t, 1.2, seg.ElevationMax)
	})

	t.Run("missing points are fetched again next cycle", func(t *testing.T) {
		for c, v := range f.cache.saved {
			f.cache.stored[c] = v
		}
		before := len(f.elev.batches)

		res, err := f.pipeline.Run(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, 2, res.CachedElevations)
		assert.Equal(t, 0, res.MissingElevations)

		refetched := []datastructure.Coordinate{}
		for _, b := range f.elev.batches[before:] {
			refetched = append(refetched, b...)
		}
		assert.ElementsMatch(t, []datastructure.Coordinate{n2, n3, n4}, refetched)
	})
}

func TestPipelineCancelledDuringElevation(t *testing.T) {
	f := newPipelineFixture(defaultTestOptions(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	f.pipeline.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := f.pipeline.Run(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIngestionAborted))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, f.store.Current())
}

func TestPipelineWatchdog(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	opts := defaultTestOptions()
	opts.MaxDuration = 10 * time.Millisecond
	f := newPipelineFixture(opts, m)
	f.roads.delay = 100 * time.Millisecond

	_, err := f.pipeline.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, reg, "floodnav_ingestion_overruns_total", ""))
	assert.Equal(t, 1.0, counterValue(t, reg, "floodnav_ingestion_runs_total", JobSucceeded))
}

type recordingProgress struct {
	mu       sync.Mutex
	started  []Step
	advanced map[Step]int
}

func (r *recordingProgress) StepStarted(step Step, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, step)
}

func (r *recordingProgress) StepAdvanced(step Step, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advanced[step] += n
}

func (r *recordingProgress) StepFinished(step Step) {}

func TestPipelineReportsProgress(t *testing.T) {
	f := newPipelineFixture(defaultTestOptions(), nil)
	p := &recordingProgress{advanced: map[Step]int{}}

	_, err := f.pipeline.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []Step{StepRoadNetwork, StepElevation, StepWeather, StepScoring, StepPublish}, p.started)
	assert.Equal(t, 5, p.advanced[StepElevation])
	assert.Equal(t, 4, p.advanced[StepScoring])
}
