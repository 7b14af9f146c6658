package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lintang/floodnav/pkg/config"
	"lintang/floodnav/pkg/ingestion"
	"lintang/floodnav/pkg/logger"
	"lintang/floodnav/pkg/store"

	"golang.org/x/exp/slog"
)

var (
	configFile = flag.String("config", "", "path file config yaml (kosong = default Surakarta)")
	pbfFile    = flag.String("f", "", "file openstreetmap .osm.pbf, kalau diisi road network dibaca dari file bukan overpass")
	storeDir   = flag.String("store", "", "override store.backend ke pebble dengan direktori ini")
)

// satu kali siklus ingestion tanpa http server. hasilnya disimpan ke store yang sama dengan cmd/server,
// jadi server bisa restore snapshot ini waktu startup.
func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *pbfFile != "" {
		cfg.RoadNetwork.Source = "pbf"
		cfg.RoadNetwork.PBFFile = *pbfFile
	}
	if *storeDir != "" {
		cfg.Store.Backend = "pebble"
		cfg.Store.PebbleDir = *storeDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	// progressbar nulis ke stdout, log ke stderr biar tidak tabrakan.
	log := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("ingestion failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	backend, err := store.OpenBackend(ctx, cfg.Store, cfg.Elevation.CachePermanent)
	if err != nil {
		return err
	}
	defer backend.Close()

	segmentStore := store.NewSegmentStore(backend.Persister, log)
	if err := segmentStore.Restore(ctx); err != nil {
		log.Warn("failed to restore snapshot", slog.String("error", err.Error()))
	}

	pipeline, err := ingestion.NewPipelineFromConfig(cfg, segmentStore, backend.KV, nil, log)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(ctx, newBarProgress())
	if err != nil {
		return err
	}

	fmt.Printf("\nsnapshot generation %d: %d segments, %d flooded, rainfall %.1f mm/h, took %s\n",
		res.Generation, res.Segments, res.FloodedSegments, res.Rainfall, res.Elapsed)
	if res.FailedBatches > 0 || res.WeatherFailed {
		fmt.Printf("degraded: %d/%d elevation batch gagal, weather failed=%v\n",
			res.FailedBatches, res.ElevationBatches, res.WeatherFailed)
	}
	return nil
}
