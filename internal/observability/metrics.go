package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disaster_dashboard"

// Metrics holds the Prometheus collectors for the dashboard.
type Metrics struct {
	DatasetRecords prometheus.Gauge
	ViewRequests   *prometheus.CounterVec // labels: view

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: provider, outcome={resolved,unresolved,error}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeDuration *prometheus.HistogramVec

	MalformedLocationRows prometheus.Counter
	HeatmapPoints         prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DatasetRecords,
		m.ViewRequests,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeDuration,
		m.MalformedLocationRows,
		m.HeatmapPoints,
	)
	return m
}

// NewUnregisteredMetrics returns collectors outside any registry. Components
// built without metrics use it, and any number of instances can coexist.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DatasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Number of records in the loaded dataset.",
		}),
		ViewRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_requests_total",
			Help:      "View computations by view name.",
		}, []string{"view"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding lookups by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Session geocode cache lookups by result.",
		}, []string{"result"}),
		GeocodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_duration_seconds",
			Help:      "Geocoding provider call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		MalformedLocationRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_location_rows_total",
			Help:      "Rows whose extracted_locations could not be parsed.",
		}),
		HeatmapPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "heatmap_points",
			Help:      "Number of points produced per heatmap computation.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}
