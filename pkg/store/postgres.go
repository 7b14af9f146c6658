package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lintang/floodnav/pkg/datastructure"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var segmentColumns = []string{
	"way_id", "ordinal", "name", "highway", "lats", "lons", "length_m",
	"elevation_mean", "elevation_min", "elevation_max", "distance_to_water_m",
	"rainfall", "flood_score", "flooded", "risk_level", "last_updated",
}

// PostgresPersister snapshot disimpan di tabel road_segments, diganti dalam satu transaction.
type PostgresPersister struct {
	pool *pgxpool.Pool
}

func NewPostgresPersister(ctx context.Context, databaseURL string) (*PostgresPersister, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	p := &PostgresPersister{pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return p, nil
}

func (p *PostgresPersister) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS road_segments (
			way_id              BIGINT NOT NULL,
			ordinal             INTEGER NOT NULL,
			name                TEXT NOT NULL DEFAULT '',
			highway             TEXT NOT NULL DEFAULT '',
			lats                DOUBLE PRECISION[] NOT NULL,
			lons                DOUBLE PRECISION[] NOT NULL,
			length_m            DOUBLE PRECISION NOT NULL,
			elevation_mean      DOUBLE PRECISION NOT NULL,
			elevation_min       DOUBLE PRECISION NOT NULL,
			elevation_max       DOUBLE PRECISION NOT NULL,
			distance_to_water_m DOUBLE PRECISION NOT NULL,
			rainfall            DOUBLE PRECISION NOT NULL,
			flood_score         INTEGER NOT NULL,
			flooded             BOOLEAN NOT NULL,
			risk_level          TEXT NOT NULL,
			last_updated        TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (way_id, ordinal)
		);
		CREATE INDEX IF NOT EXISTS road_segments_flooded_idx ON road_segments (flooded);
		CREATE TABLE IF NOT EXISTS snapshot_metadata (
			id               INTEGER PRIMARY KEY,
			generation       BIGINT NOT NULL,
			generated_at     TIMESTAMPTZ NOT NULL,
			total_roads      INTEGER NOT NULL,
			flooded_roads    INTEGER NOT NULL,
			current_rainfall DOUBLE PRECISION NOT NULL
		);
	`)
	return err
}

func (p *PostgresPersister) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM road_segments`); err != nil {
		return fmt.Errorf("failed to clear road segments: %w", err)
	}

	segments := snap.Segments()
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"road_segments"}, segmentColumns,
		pgx.CopyFromSlice(len(segments), func(i int) ([]any, error) {
			s := segments[i]
			lats := make([]float64, len(s.Points))
			lons := make([]float64, len(s.Points))
			for j, pt := range s.Points {
				lats[j] = pt.Lat
				lons[j] = pt.Lon
			}
			return []any{
				s.WayID, int32(s.Ordinal), s.Name, s.Highway, lats, lons, s.LengthM,
				s.ElevationMean, s.ElevationMin, s.ElevationMax, s.DistanceToWaterM,
				s.Rainfall, int32(s.FloodScore), s.Flooded, string(s.RiskLevel), s.LastUpdated,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to copy road segments: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO snapshot_metadata (id, generation, generated_at, total_roads, flooded_roads, current_rainfall)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			generation = EXCLUDED.generation,
			generated_at = EXCLUDED.generated_at,
			total_roads = EXCLUDED.total_roads,
			flooded_roads = EXCLUDED.flooded_roads,
			current_rainfall = EXCLUDED.current_rainfall
	`, int64(snap.Generation), snap.GeneratedAt, snap.TotalRoads, snap.FloodedRoads, snap.CurrentRainfall)
	if err != nil {
		return fmt.Errorf("failed to write snapshot metadata: %w", err)
	}

	return tx.Commit(ctx)
}

func (p *PostgresPersister) Load(ctx context.Context) (*Snapshot, error) {
	var (
		generation  int64
		generatedAt time.Time
		rainfall    float64
	)
	err := p.pool.QueryRow(ctx, `SELECT generation, generated_at, current_rainfall FROM snapshot_metadata WHERE id = 1`).
		Scan(&generation, &generatedAt, &rainfall)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot metadata: %w", err)
	}

	rows, err := p.pool.Query(ctx, `SELECT `+strings.Join(segmentColumns, ", ")+` FROM road_segments ORDER BY way_id, ordinal`)
	if err != nil {
		return nil, fmt.Errorf("failed to query road segments: %w", err)
	}
	defer rows.Close()

	segments := []datastructure.RoadSegment{}
	for rows.Next() {
		var (
			s          datastructure.RoadSegment
			ordinal    int32
			floodScore int32
			riskLevel  string
			lats, lons []float64
		)
		if err := rows.Scan(&s.WayID, &ordinal, &s.Name, &s.Highway, &lats, &lons, &s.LengthM,
			&s.ElevationMean, &s.ElevationMin, &s.ElevationMax, &s.DistanceToWaterM,
			&s.Rainfall, &floodScore, &s.Flooded, &riskLevel, &s.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan road segment: %w", err)
		}
		s.Ordinal = int(ordinal)
		s.FloodScore = int(floodScore)
		s.RiskLevel = datastructure.RiskLevel(riskLevel)
		s.Points = make([]datastructure.Coordinate, len(lats))
		for i := range lats {
			s.Points[i] = datastructure.NewCoordinate(lats[i], lons[i])
		}
		segments = append(segments, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return NewSnapshot(uint64(generation), generatedAt.UTC(), rainfall, segments), nil
}

func (p *PostgresPersister) Close() error {
	p.pool.Close()
	return nil
}
