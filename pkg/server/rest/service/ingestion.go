package service

import (
	"context"
	"time"

	"lintang/floodnav/pkg/ingestion"
	"lintang/floodnav/pkg/server"
	"lintang/floodnav/pkg/store"

	"github.com/paulmach/orb/geojson"
)

type IngestionScheduler interface {
	Trigger(ctx context.Context, force, wait bool) (ingestion.Job, error)
	Job(id string) (ingestion.Job, error)
	LastJob() (ingestion.Job, bool)
	Running() bool
}

type SnapshotStore interface {
	Current() *store.Snapshot
}

type IngestionStatus struct {
	Ready           bool           `json:"ready"`
	Generation      uint64         `json:"generation"`
	GeneratedAt     *time.Time     `json:"generated_at,omitempty"`
	TotalRoads      int            `json:"total_roads"`
	FloodedRoads    int            `json:"flooded_roads"`
	CurrentRainfall float64        `json:"current_rainfall"`
	Running         bool           `json:"running"`
	LastJob         *ingestion.Job `json:"last_job,omitempty"`
}

type IngestionService struct {
	scheduler IngestionScheduler
	store     SnapshotStore
}

func NewIngestionService(scheduler IngestionScheduler, store SnapshotStore) *IngestionService {
	return &IngestionService{scheduler: scheduler, store: store}
}

func (s *IngestionService) TriggerIngestion(ctx context.Context, force, wait bool) (ingestion.Job, error) {
	return s.scheduler.Trigger(ctx, force, wait)
}

func (s *IngestionService) GetJob(ctx context.Context, id string) (ingestion.Job, error) {
	return s.scheduler.Job(id)
}

func (s *IngestionService) Status(ctx context.Context) IngestionStatus {
	status := IngestionStatus{Running: s.scheduler.Running()}
	if job, ok := s.scheduler.LastJob(); ok {
		status.LastJob = &job
	}
	snap := s.store.Current()
	if snap == nil {
		return status
	}
	generatedAt := snap.GeneratedAt
	status.Ready = true
	status.Generation = snap.Generation
	status.GeneratedAt = &generatedAt
	status.TotalRoads = snap.TotalRoads
	status.FloodedRoads = snap.FloodedRoads
	status.CurrentRainfall = snap.CurrentRainfall
	return status
}

// SegmentsGeoJSON snapshot saat ini sebagai FeatureCollection. floodedOnly hanya segment yang tergenang.
func (s *IngestionService) SegmentsGeoJSON(ctx context.Context, floodedOnly bool) (*geojson.FeatureCollection, error) {
	snap := s.store.Current()
	if snap == nil {
		return nil, server.WrapErrorf(store.ErrNoSnapshot, server.ErrNotReady, "road segments have not been ingested yet")
	}
	fc := store.ToFeatureCollection(snap)
	if !floodedOnly {
		return fc, nil
	}
	filtered := fc.Features[:0]
	for _, f := range fc.Features {
		if f.Properties.MustBool("flooded", false) {
			filtered = append(filtered, f)
		}
	}
	fc.Features = filtered
	return fc, nil
}
