package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/mr1hm/disaster-dashboard/internal/config"
	"github.com/mr1hm/disaster-dashboard/internal/dataset"
	"github.com/mr1hm/disaster-dashboard/internal/logging"
	"github.com/mr1hm/disaster-dashboard/internal/repository"
	"github.com/mr1hm/disaster-dashboard/internal/views"
)

// dataset-check loads the configured dataset, reports its summary and
// exits non-zero when the file cannot be used by the dashboard.
func main() {
	_ = godotenv.Load()

	path := flag.String("path", "", "dataset file (defaults to DATASET_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logger := logging.Setup("dataset-check", cfg.Logging.Level)

	if *path != "" {
		cfg.Dataset.Path = *path
	}

	ds, err := dataset.NewLoader(nil, logger).Load(cfg.Dataset.Path)
	if err != nil {
		var loadErr *dataset.LoadError
		if errors.As(err, &loadErr) {
			slog.Error("dataset rejected", "path", loadErr.Path, "missing", loadErr.Missing, "error", loadErr.Err)
		} else {
			slog.Error("dataset rejected", "error", err)
		}
		os.Exit(1)
	}

	summary, err := repository.NewMemoryRepository(ds).Summary(context.Background())
	if err != nil {
		logging.Fatalf("Failed to summarize dataset: %v", err)
	}

	malformed := 0
	for _, r := range ds.Records() {
		if r.ExtractedLocations == "" {
			continue
		}
		if _, err := dataset.DecodeLocationMentions(r.ExtractedLocations); err != nil {
			malformed++
		}
	}

	slog.Info("dataset ok",
		"path", ds.Path,
		"records", summary.Total,
		"relevance", summary.RelevanceCounts,
		"labels", len(summary.LabelCounts),
		"categories", views.Categories(ds),
		"malformed_location_rows", malformed,
	)
}
