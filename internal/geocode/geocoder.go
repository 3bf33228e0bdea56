package geocode

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/disaster-dashboard/internal/models"
	"github.com/mr1hm/disaster-dashboard/internal/observability"
)

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 5 * time.Second

// Provider is an external forward-geocoding service. found=false with a nil
// error means the service had no match.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, place string) (coords models.Coordinates, found bool, err error)
}

// Adapter turns provider lookups into GeocodeResults. It never returns an
// error, never retries and keeps no state between calls.
type Adapter struct {
	provider Provider
	timeout  time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewAdapter(provider Provider, timeout time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewUnregisteredMetrics()
	}
	return &Adapter{
		provider: provider,
		timeout:  timeout,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

func (a *Adapter) Resolve(ctx context.Context, place string) (result models.GeocodeResult) {
	place = strings.TrimSpace(place)
	if place == "" || a.provider == nil {
		return models.Unresolved()
	}

	name := a.provider.Name()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("geocoder panicked", "provider", name, "place", place, "panic", r)
			a.metrics.GeocodeRequests.WithLabelValues(name, "error").Inc()
			result = models.Unresolved()
		}
	}()

	start := a.clock.Now()
	coords, found, err := a.provider.Lookup(ctx, place)
	a.metrics.GeocodeDuration.WithLabelValues(name).Observe(a.clock.Since(start).Seconds())

	switch {
	case err != nil:
		a.logger.Warn("geocoding failed", "provider", name, "place", place, "error", err)
		a.metrics.GeocodeRequests.WithLabelValues(name, "error").Inc()
		return models.Unresolved()
	case !found:
		a.logger.Debug("geocoding found no match", "provider", name, "place", place)
		a.metrics.GeocodeRequests.WithLabelValues(name, "unresolved").Inc()
		return models.Unresolved()
	case !coords.Valid():
		a.logger.Warn("geocoder returned out-of-range coordinates",
			"provider", name,
			"place", place,
			"lat", coords.Latitude,
			"lon", coords.Longitude,
		)
		a.metrics.GeocodeRequests.WithLabelValues(name, "error").Inc()
		return models.Unresolved()
	}

	a.metrics.GeocodeRequests.WithLabelValues(name, "resolved").Inc()
	return models.Resolved(coords.Latitude, coords.Longitude)
}
