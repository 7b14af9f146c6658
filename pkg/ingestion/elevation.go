package ingestion

import (
	"context"
	"fmt"
	"math"

	"lintang/floodnav/pkg/datastructure"

	"golang.org/x/exp/slog"
)

type elevationStats struct {
	cached  int
	batches int
	failed  int
	missing int
}

// fetchElevations elevation untuk semua coords. Batch diproses serial dengan jeda BatchDelay di antaranya.
// Batch yang gagal atau point yang tidak ada di response diisi 0 m untuk scoring saja, tidak masuk cache.
// Error hanya dikembalikan kalau ctx dibatalkan.
func (p *Pipeline) fetchElevations(ctx context.Context, coords []datastructure.Coordinate,
	progress Progress) (map[datastructure.Coordinate]float64, elevationStats, error) {
	var stats elevationStats
	elevations := make(map[datastructure.Coordinate]float64, len(coords))

	missing := coords
	if p.opts.CachePermanent && p.elevCache != nil {
		cached, err := p.elevCache.GetElevations(coords)
		if err != nil {
			p.log.Warn("elevation cache read failed, fetching every coordinate", slog.String("error", err.Error()))
		} else {
			missing = make([]datastructure.Coordinate, 0, len(coords)-len(cached))
			for _, c := range coords {
				if elev, ok := cached[c]; ok {
					elevations[c] = elev
					continue
				}
				missing = append(missing, c)
			}
			stats.cached = len(coords) - len(missing)
		}
	}

	progress.StepStarted(StepElevation, len(missing))
	defer progress.StepFinished(StepElevation)

	fetched := make(map[datastructure.Coordinate]float64, len(missing))
	for start := 0; start < len(missing); start += p.opts.BatchSize {
		if start > 0 {
			if err := p.sleep(ctx, p.opts.BatchDelay); err != nil {
				return nil, stats, fmt.Errorf("elevation batches interrupted: %w", err)
			}
		}
		end := start + p.opts.BatchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]
		stats.batches++

		vals, err := p.elevation.FetchElevations(ctx, batch)
		if err == nil && len(vals) != len(batch) {
			err = fmt.Errorf("elevation batch returned %d values for %d coordinates", len(vals), len(batch))
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, stats, fmt.Errorf("elevation batches interrupted: %w", ctxErr)
			}
			stats.failed++
			p.metrics.elevationBatchFailed()
			p.log.Warn("elevation batch failed, defaulting to 0 m",
				slog.Int("batch", stats.batches),
				slog.Int("size", len(batch)),
				slog.String("error", err.Error()),
			)
			for _, c := range batch {
				elevations[c] = 0
			}
		} else {
			missingInBatch := 0
			for i, c := range batch {
				if math.IsNaN(vals[i]) || math.IsInf(vals[i], 0) {
					elevations[c] = 0
					missingInBatch++
					continue
				}
				elevations[c] = vals[i]
				fetched[c] = vals[i]
			}
			if missingInBatch > 0 {
				stats.missing += missingInBatch
				p.metrics.elevationPointsMissing(missingInBatch)
				p.log.Warn("elevation batch partially answered, defaulting missing points to 0 m",
					slog.Int("batch", stats.batches),
					slog.Int("size", len(batch)),
					slog.Int("missing", missingInBatch),
				)
			}
		}
		progress.StepAdvanced(StepElevation, len(batch))
	}

	if p.opts.CachePermanent && p.elevCache != nil && len(fetched) > 0 {
		if err := p.elevCache.SaveElevations(fetched); err != nil {
			p.log.Warn("elevation cache write failed", slog.String("error", err.Error()))
		}
	}
	return elevations, stats, nil
}
