package ingestion

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics prometheus metrics untuk siklus ingestion.
type Metrics struct {
	runs                *prometheus.CounterVec
	duration            prometheus.Histogram
	stepDuration        *prometheus.HistogramVec
	segments            prometheus.Gauge
	floodedSegments     prometheus.Gauge
	rainfall            prometheus.Gauge
	generation          prometheus.Gauge
	elevationBatchFails prometheus.Counter
	elevationMissing    prometheus.Counter
	overruns            prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodnav",
			Name:      "ingestion_runs_total",
			Help:      "The total number of ingestion cycles by outcome",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "floodnav",
			Name:      "ingestion_duration_seconds",
			Help:      "The duration of a full ingestion cycle",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 1800},
		}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "floodnav",
			Name:      "ingestion_step_duration_seconds",
			Help:      "The duration of each ingestion step",
			Buckets:   prometheus.ExponentialBuckets(0.05, 3, 10),
		}, []string{"step"}),
		segments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodnav",
			Name:      "road_segments",
			Help:      "The number of road segments in the current snapshot",
		}),
		floodedSegments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodnav",
			Name:      "flooded_road_segments",
			Help:      "The number of flooded road segments in the current snapshot",
		}),
		rainfall: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodnav",
			Name:      "current_rainfall_mm_per_hour",
			Help:      "The precipitation used by the current snapshot",
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodnav",
			Name:      "snapshot_generation",
			Help:      "The generation of the current snapshot",
		}),
		elevationBatchFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodnav",
			Name:      "elevation_batch_failures_total",
			Help:      "The total number of elevation batches defaulted to 0 m",
		}),
		elevationMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodnav",
			Name:      "elevation_missing_points_total",
			Help:      "The total number of coordinates missing from elevation responses, defaulted to 0 m",
		}),
		overruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodnav",
			Name:      "ingestion_overruns_total",
			Help:      "The total number of ingestion cycles that ran past max duration",
		}),
	}
	reg.MustRegister(m.runs, m.duration, m.stepDuration, m.segments, m.floodedSegments, m.rainfall,
		m.generation, m.elevationBatchFails, m.elevationMissing, m.overruns)
	return m
}

// semua method aman dipanggil dengan receiver nil.

func (m *Metrics) observeStep(step Step, seconds float64) {
	if m == nil {
		return
	}
	m.stepDuration.With(prometheus.Labels{"step": string(step)}).Observe(seconds)
}

func (m *Metrics) observeRun(status string, seconds float64) {
	if m == nil {
		return
	}
	m.runs.With(prometheus.Labels{"status": status}).Inc()
	if status == JobSucceeded {
		m.duration.Observe(seconds)
	}
}

func (m *Metrics) observeSnapshot(generation uint64, total, flooded int, rainfall float64) {
	if m == nil {
		return
	}
	m.generation.Set(float64(generation))
	m.segments.Set(float64(total))
	m.floodedSegments.Set(float64(flooded))
	m.rainfall.Set(rainfall)
}

func (m *Metrics) elevationBatchFailed() {
	if m == nil {
		return
	}
	m.elevationBatchFails.Inc()
}

func (m *Metrics) elevationPointsMissing(n int) {
	if m == nil {
		return
	}
	m.elevationMissing.Add(float64(n))
}

func (m *Metrics) overrun() {
	if m == nil {
		return
	}
	m.overruns.Inc()
}
