package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "lintang/floodnav/docs"
	"lintang/floodnav/pkg/config"
	"lintang/floodnav/pkg/engine/routing"
	"lintang/floodnav/pkg/graph"
	"lintang/floodnav/pkg/ingestion"
	"lintang/floodnav/pkg/logger"
	"lintang/floodnav/pkg/server/rest"
	"lintang/floodnav/pkg/server/rest/service"
	"lintang/floodnav/pkg/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/exp/slog"
)

var (
	configFile = flag.String("config", "", "path file config yaml (kosong = default Surakarta)")
	listenAddr = flag.String("listenaddr", "", "server listen address, override server.listen_addr")
)

//	@title			floodnav API
//	@version		1.0
//	@description	flood-risk-aware routing engine. Setiap query mengembalikan rute safe, balanced, dan fastest.

//	@license.name	GNU Affero General Public License v3.0
//	@license.url	https://www.gnu.org/licenses/gpl-3.0.en.html

// @host		localhost:5000
// @BasePath	/api
// @schemes	http
func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	// os.Exit di main saja supaya semua defer di run (pebble, scheduler) sempat jalan.
	if err := run(cfg, log); err != nil {
		log.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := store.OpenBackend(ctx, cfg.Store, cfg.Elevation.CachePermanent)
	if err != nil {
		return fmt.Errorf("open segment store: %w", err)
	}
	defer backend.Close()

	segmentStore := store.NewSegmentStore(backend.Persister, log)
	if err := segmentStore.Restore(ctx); err != nil {
		// snapshot lama rusak bukan alasan untuk tidak start, ingestion berikutnya akan menggantinya.
		log.Warn("failed to restore snapshot", slog.String("error", err.Error()))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := rest.NewMetrics(reg)
	ingestionMetrics := ingestion.NewMetrics(reg)

	pipeline, err := ingestion.NewPipelineFromConfig(cfg, segmentStore, backend.KV, ingestionMetrics, log)
	if err != nil {
		return fmt.Errorf("build ingestion pipeline: %w", err)
	}
	scheduler := ingestion.NewScheduler(pipeline, segmentStore, ingestion.SchedulerOptions{
		Interval:      cfg.Ingestion.Interval,
		RunOnStartup:  cfg.Ingestion.RunOnStartup,
		MinRefreshGap: cfg.Ingestion.MinRefreshGap,
	}, log)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	generator := routing.NewGenerator(segmentStore, graph.NewCache(log), routing.NewAStar(), routing.Options{
		MaxSnapDistanceM: cfg.Routing.MaxSnapDistanceM,
		WalkingSpeedKmh:  cfg.Routing.WalkingSpeedKmh,
	}, log)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Mount("/debug", middleware.Profiler())

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(cfg.Server.SwaggerURL), //The url pointing to API definition
	))

	rest.NavigatorRouter(r, service.NewNavigationService(generator), m, log)
	rest.IngestionRouter(r, service.NewIngestionService(scheduler, segmentStore))

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", cfg.Server.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen %s: %w", cfg.Server.ListenAddr, err)
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
