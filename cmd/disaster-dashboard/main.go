package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/disaster-dashboard/internal/api"
	"github.com/mr1hm/disaster-dashboard/internal/config"
	"github.com/mr1hm/disaster-dashboard/internal/dataset"
	"github.com/mr1hm/disaster-dashboard/internal/geocode"
	"github.com/mr1hm/disaster-dashboard/internal/logging"
	"github.com/mr1hm/disaster-dashboard/internal/models"
	"github.com/mr1hm/disaster-dashboard/internal/observability"
	"github.com/mr1hm/disaster-dashboard/internal/repository"
	"github.com/mr1hm/disaster-dashboard/internal/views"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logger := logging.Setup("disaster-dashboard", cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	clock := clockwork.NewRealClock()

	ds, err := dataset.NewLoader(clock, logger).Load(cfg.Dataset.Path)
	if err != nil {
		var loadErr *dataset.LoadError
		if errors.As(err, &loadErr) && len(loadErr.Missing) > 0 {
			logging.Fatalf("Dataset %s is missing required columns %v", loadErr.Path, loadErr.Missing)
		}
		logging.Fatalf("Failed to load dataset: %v", err)
	}

	metrics := observability.NewMetrics()
	metrics.DatasetRecords.Set(float64(ds.Len()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeRepo := openRepository(ctx, cfg.Store, ds)
	defer closeRepo()

	provider, err := geocode.NewProvider(geocode.ProviderOptions{
		Kind:      cfg.Geocoder.Provider,
		URL:       cfg.Geocoder.URL,
		UserAgent: cfg.Geocoder.UserAgent,
		Token:     cfg.Geocoder.MapboxToken,
		Timeout:   cfg.Geocoder.Timeout,
	})
	if err != nil {
		logging.Fatalf("Failed to initialize geocoder: %v", err)
	}

	var resolver views.Resolver
	if provider != nil {
		resolver = geocode.NewAdapter(provider, cfg.Geocoder.Timeout, clock, logger, metrics)
		slog.Info("geocoding enabled", "provider", provider.Name(), "workers", cfg.Geocoder.Workers)
	} else {
		slog.Info("geocoding disabled")
	}

	density := views.NewDensityBuilder(resolver, views.NewGeocodeCache(), views.DensityConfig{
		Workers:   cfg.Geocoder.Workers,
		CellLevel: cfg.Heatmap.CellLevel,
	}, logger, metrics)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(repo, ds, density, metrics, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	// Abort in-flight geocoding before draining connections.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}

// openRepository picks the record store. The SQLite store is filled from the
// loaded dataset on every start.
func openRepository(ctx context.Context, cfg config.StoreConfig, ds *models.Dataset) (repository.RecordRepository, func()) {
	if cfg.Backend != "sqlite" {
		return repository.NewMemoryRepository(ds), func() {}
	}

	db, err := repository.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	if err := db.Import(ctx, ds); err != nil {
		db.Close()
		logging.Fatalf("Failed to import dataset into %s: %v", cfg.DBPath, err)
	}
	slog.Info("dataset imported", "backend", "sqlite", "path", cfg.DBPath, "records", ds.Len())

	return db, func() {
		if err := db.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}
}
