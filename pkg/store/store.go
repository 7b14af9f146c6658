// Package store holds the current road segment snapshot. Ingestion publishes
// a complete new snapshot with ReplaceAll and readers never observe a partial one.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"lintang/floodnav/pkg/datastructure"

	"golang.org/x/exp/slog"
)

// ErrNoSnapshot persister belum punya snapshot tersimpan.
var ErrNoSnapshot = errors.New("store: no snapshot")

type Metadata struct {
	Generation      uint64    `json:"generation"`
	GeneratedAt     time.Time `json:"generated_at"`
	TotalRoads      int       `json:"total_roads"`
	FloodedRoads    int       `json:"flooded_roads"`
	CurrentRainfall float64   `json:"current_rainfall"`
}

// Snapshot immutable setelah dibuat.
type Snapshot struct {
	Metadata
	segments []datastructure.RoadSegment
	byID     map[string]int
}

// NewSnapshot copy segments (termasuk points) urut (way id, ordinal) dan hitung metadata.
func NewSnapshot(generation uint64, generatedAt time.Time, rainfall float64, segments []datastructure.RoadSegment) *Snapshot {
	copied := make([]datastructure.RoadSegment, len(segments))
	for i, s := range segments {
		s.Points = append([]datastructure.Coordinate(nil), s.Points...)
		copied[i] = s
	}
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Less(&copied[j])
	})

	snap := &Snapshot{
		Metadata: Metadata{
			Generation:      generation,
			GeneratedAt:     generatedAt,
			TotalRoads:      len(copied),
			CurrentRainfall: rainfall,
		},
		segments: copied,
		byID:     make(map[string]int, len(copied)),
	}
	for i := range copied {
		if copied[i].Flooded {
			snap.FloodedRoads++
		}
		snap.byID[copied[i].ID()] = i
	}
	return snap
}

// Segments read-only, jangan dimodifikasi.
func (s *Snapshot) Segments() []datastructure.RoadSegment {
	return s.segments
}

func (s *Snapshot) Segment(id string) (datastructure.RoadSegment, bool) {
	i, ok := s.byID[id]
	if !ok {
		return datastructure.RoadSegment{}, false
	}
	return s.segments[i], true
}

// Persister penyimpanan durable untuk snapshot (pebble, geojson file, postgres).
type Persister interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
	Close() error
}

type SegmentStore struct {
	current   atomic.Pointer[Snapshot]
	writeMu   sync.Mutex
	persister Persister
	log       *slog.Logger
}

// NewSegmentStore persister boleh nil (in-memory saja).
func NewSegmentStore(persister Persister, log *slog.Logger) *SegmentStore {
	return &SegmentStore{persister: persister, log: log.With(slog.String("component", "store"))}
}

// Restore load snapshot terakhir dari persister. Tidak ada snapshot bukan error.
func (s *SegmentStore) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snap, err := s.persister.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		s.log.Info("no persisted snapshot found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	s.current.Store(snap)
	s.log.Info("restored snapshot",
		slog.Uint64("generation", snap.Generation),
		slog.Int("total_roads", snap.TotalRoads),
		slog.Time("generated_at", snap.GeneratedAt),
	)
	return nil
}

// Current snapshot saat ini, nil kalau belum ada ingestion.
func (s *SegmentStore) Current() *Snapshot {
	return s.current.Load()
}

func (s *SegmentStore) GetAllSegments() []datastructure.RoadSegment {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.Segments()
}

func (s *SegmentStore) LastUpdated() time.Time {
	snap := s.current.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.GeneratedAt
}

// ReplaceAll bangun snapshot baru, simpan ke persister, lalu publish lewat satu atomic store.
// Kalau persister gagal snapshot lama tetap dipakai.
func (s *SegmentStore) ReplaceAll(ctx context.Context, segments []datastructure.RoadSegment, rainfall float64, generatedAt time.Time) (*Snapshot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var generation uint64 = 1
	if prev := s.current.Load(); prev != nil {
		generation = prev.Generation + 1
	}
	snap := NewSnapshot(generation, generatedAt, rainfall, segments)

	if s.persister != nil {
		if err := s.persister.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("persist snapshot generation %d: %w", generation, err)
		}
	}
	s.current.Store(snap)
	return snap, nil
}

func (s *SegmentStore) Close() error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Close()
}
