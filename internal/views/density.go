package views

import (
	"context"
	"log/slog"
	"sort"

	"github.com/golang/geo/s2"

	"github.com/mr1hm/disaster-dashboard/internal/dataset"
	"github.com/mr1hm/disaster-dashboard/internal/models"
	"github.com/mr1hm/disaster-dashboard/internal/observability"
	"github.com/mr1hm/disaster-dashboard/internal/worker"
)

const (
	DefaultCellLevel = 8
	DefaultWorkers   = 4

	MessageNoLocationData = "Location data not available in the dataset."
	MessageNoPoints       = "No geocoded location data available."
)

type DensityMode string

const (
	ModeNone      DensityMode = "none"
	ModeExtracted DensityMode = "extracted"
	ModeGeocoded  DensityMode = "geocoded"
	ModeMixed     DensityMode = "mixed"
)

// DensityCell aggregates the points falling into one s2 cell.
type DensityCell struct {
	Token     string  `json:"cell"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Count     int     `json:"count"`
}

type Density struct {
	Category      string         `json:"category,omitempty"`
	Mode          DensityMode    `json:"mode"`
	Points        []models.Point `json:"points"`
	Rows          []int          `json:"-"` // source row index per point
	Cells         []DensityCell  `json:"cells"`
	Unresolved    int            `json:"unresolved"`
	MalformedRows int            `json:"malformed_rows"`
	Empty         bool           `json:"empty"`
	Message       string         `json:"message,omitempty"`
}

type DensityConfig struct {
	Workers   int
	CellLevel int
}

type DensityBuilder struct {
	resolver  Resolver
	cache     *GeocodeCache
	workers   int
	cellLevel int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewDensityBuilder wires the heatmap computation. A nil resolver disables
// geocoding of free-text locations.
func NewDensityBuilder(resolver Resolver, cache *GeocodeCache, cfg DensityConfig, logger *slog.Logger, metrics *observability.Metrics) *DensityBuilder {
	if cache == nil {
		cache = NewGeocodeCache()
	}
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.CellLevel < 0 || cfg.CellLevel > s2.MaxLevel {
		cfg.CellLevel = DefaultCellLevel
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewUnregisteredMetrics()
	}
	return &DensityBuilder{
		resolver:  resolver,
		cache:     cache,
		workers:   cfg.Workers,
		cellLevel: cfg.CellLevel,
		logger:    logger,
		metrics:   metrics,
	}
}

// Build flattens the dataset into density points. Rows with extracted
// locations contribute every valid mention; other rows with a location string
// contribute its geocoded coordinates when resolvable. A non-empty category
// keeps only rows whose disaster type matches exactly.
func (b *DensityBuilder) Build(ctx context.Context, ds *models.Dataset, category string) Density {
	records := ds.Records()
	out := Density{
		Category: category,
		Points:   []models.Point{},
		Rows:     []int{},
	}

	var places []string
	seen := make(map[string]bool)
	usedExtracted, usedGeocoded := false, false

	for _, r := range records {
		if !matchesCategory(r, category) || r.ExtractedLocations != "" {
			continue
		}
		if r.Location == "" || b.resolver == nil || seen[r.Location] {
			continue
		}
		seen[r.Location] = true
		places = append(places, r.Location)
	}

	resolved := b.resolvePlaces(ctx, places)

	for i, r := range records {
		if !matchesCategory(r, category) {
			continue
		}

		if r.ExtractedLocations != "" {
			usedExtracted = true
			mentions, err := dataset.DecodeLocationMentions(r.ExtractedLocations)
			if err != nil {
				out.MalformedRows++
				b.metrics.MalformedLocationRows.Inc()
				b.logger.Debug("skipping malformed extracted locations", "row", i, "error", err)
				continue
			}
			for _, m := range mentions {
				out.Points = append(out.Points, models.Point{Latitude: m.Latitude, Longitude: m.Longitude})
				out.Rows = append(out.Rows, i)
			}
			continue
		}

		if r.Location == "" || b.resolver == nil {
			continue
		}
		usedGeocoded = true
		res, ok := resolved[r.Location]
		if !ok || !res.IsResolved() {
			out.Unresolved++
			continue
		}
		out.Points = append(out.Points, models.Point{
			Latitude:  res.Coordinates.Latitude,
			Longitude: res.Coordinates.Longitude,
		})
		out.Rows = append(out.Rows, i)
	}

	switch {
	case usedExtracted && usedGeocoded:
		out.Mode = ModeMixed
	case usedExtracted:
		out.Mode = ModeExtracted
	case usedGeocoded:
		out.Mode = ModeGeocoded
	default:
		out.Mode = ModeNone
	}

	out.Cells = aggregateCells(out.Points, b.cellLevel)
	b.metrics.HeatmapPoints.Observe(float64(len(out.Points)))

	if len(out.Points) == 0 {
		out.Empty = true
		out.Message = MessageNoPoints
		if !ds.Columns.Location && !ds.Columns.ExtractedLocations {
			out.Message = MessageNoLocationData
		}
	}

	return out
}

// resolvePlaces geocodes the distinct places in parallel. Only places with a
// known outcome appear in the returned map.
func (b *DensityBuilder) resolvePlaces(ctx context.Context, places []string) map[string]models.GeocodeResult {
	results := make(map[string]models.GeocodeResult, len(places))
	if len(places) == 0 {
		return results
	}

	type outcome struct {
		place string
		res   models.GeocodeResult
	}
	done := make(chan outcome, len(places))

	jobs := make([]worker.Job, len(places))
	for i, p := range places {
		jobs[i] = p
	}

	err := worker.Run(ctx, b.workers, jobs, func(ctx context.Context, job worker.Job) error {
		place := job.(string)
		res, hit := b.cache.Resolve(ctx, place, b.resolver)
		if hit {
			b.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		} else {
			b.metrics.GeocodeCache.WithLabelValues("miss").Inc()
		}
		if ctx.Err() == nil {
			done <- outcome{place: place, res: res}
		}
		return nil
	})
	if err != nil {
		b.logger.Warn("geocoding interrupted", "error", err, "places", len(places))
	}
	close(done)

	for o := range done {
		results[o.place] = o.res
	}
	return results
}

func matchesCategory(r models.Record, category string) bool {
	return category == "" || r.DisasterType == category
}

func aggregateCells(points []models.Point, level int) []DensityCell {
	cells := []DensityCell{}
	index := make(map[s2.CellID]int)

	for _, p := range points {
		id := s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Latitude, p.Longitude)).Parent(level)
		if i, ok := index[id]; ok {
			cells[i].Count++
			continue
		}
		center := id.LatLng()
		index[id] = len(cells)
		cells = append(cells, DensityCell{
			Token:     id.ToToken(),
			Latitude:  center.Lat.Degrees(),
			Longitude: center.Lng.Degrees(),
			Count:     1,
		})
	}

	return cells
}

// Categories lists the distinct disaster types, sorted.
func Categories(ds *models.Dataset) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range ds.Records() {
		if r.DisasterType == "" || seen[r.DisasterType] {
			continue
		}
		seen[r.DisasterType] = true
		out = append(out, r.DisasterType)
	}
	sort.Strings(out)
	return out
}
