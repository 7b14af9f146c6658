package store

import (
	"context"
	"errors"
	"time"

	"lintang/floodnav/pkg/kv"
)

// PebblePersister snapshot disimpan sebagai chunk zstd di pebble.
type PebblePersister struct {
	db *kv.KVDB
}

func NewPebblePersister(db *kv.KVDB) *PebblePersister {
	return &PebblePersister{db: db}
}

func (p *PebblePersister) Save(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.db.SaveSnapshot(kv.SnapshotMeta{
		Generation:      snap.Generation,
		GeneratedAt:     snap.GeneratedAt.UnixNano(),
		TotalRoads:      int64(snap.TotalRoads),
		FloodedRoads:    int64(snap.FloodedRoads),
		CurrentRainfall: snap.CurrentRainfall,
	}, snap.Segments())
}

func (p *PebblePersister) Load(ctx context.Context) (*Snapshot, error) {
	meta, segments, err := p.db.LoadSnapshot()
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return NewSnapshot(meta.Generation, time.Unix(0, meta.GeneratedAt).UTC(), meta.CurrentRainfall, segments), nil
}

// Close pebble db dimiliki caller (juga dipakai elevation cache), jadi tidak ditutup di sini.
func (p *PebblePersister) Close() error {
	return nil
}
