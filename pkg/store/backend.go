package store

import (
	"context"
	"fmt"

	"lintang/floodnav/pkg/config"
	"lintang/floodnav/pkg/kv"
)

// Backend persister yang dipilih dari config beserta kv db (nil kalau tidak dibuka).
// KV dipakai juga sebagai cache elevation permanen.
type Backend struct {
	Persister Persister
	KV        *kv.KVDB
}

// OpenBackend buka persister sesuai cfg.Backend. withKV memaksa kv pebble dibuka walaupun backend bukan pebble.
func OpenBackend(ctx context.Context, cfg config.StoreConfig, withKV bool) (*Backend, error) {
	b := &Backend{}
	if cfg.Backend == "pebble" || withKV {
		db, err := kv.Open(cfg.PebbleDir)
		if err != nil {
			return nil, fmt.Errorf("open pebble at %s: %w", cfg.PebbleDir, err)
		}
		b.KV = db
	}

	switch cfg.Backend {
	case "memory":
	case "pebble":
		b.Persister = NewPebblePersister(b.KV)
	case "geojson":
		b.Persister = NewGeoJSONPersister(cfg.GeoJSONFile)
	case "postgres":
		pg, err := NewPostgresPersister(ctx, cfg.PostgresDSN)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Persister = pg
	default:
		b.Close()
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	return b, nil
}

func (b *Backend) Close() error {
	var firstErr error
	if b.Persister != nil {
		firstErr = b.Persister.Close()
	}
	if b.KV != nil {
		if err := b.KV.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
