package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// advisor service.
type Metrics struct {
	ScoringPasses   prometheus.Counter
	CropsScored     prometheus.Counter
	CropsSkipped    prometheus.Counter // crops absent from the model schema
	ScoringDuration prometheus.Histogram

	// Weather resolution metrics.
	WeatherResolutions *prometheus.CounterVec // labels: tier={live,climatology,default}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	WeatherAPIDuration prometheus.Histogram

	// Model metrics.
	Predictions    prometheus.Counter
	NegativeYields prometheus.Counter
	BundleReloads  *prometheus.CounterVec // labels: outcome={success,error}
	BundleLoaded   prometheus.Gauge

	// Sink metrics.
	EventsPublished prometheus.Counter
	FeedbackRows    *prometheus.CounterVec // labels: outcome={appended,duplicate}
}

// NewMetrics creates and registers all advisor metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ScoringPasses,
		m.CropsScored,
		m.CropsSkipped,
		m.ScoringDuration,
		m.WeatherResolutions,
		m.GeocodeCache,
		m.WeatherAPIDuration,
		m.Predictions,
		m.NegativeYields,
		m.BundleReloads,
		m.BundleLoaded,
		m.EventsPublished,
		m.FeedbackRows,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ScoringPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agri_advisor",
			Name:      "scoring_passes_total",
			Help:      "Total completed scoring passes.",
		}),
		CropsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agri_advisor",
			Name:      "crops_scored_total",
			Help:      "Total crops scored across all passes.",
		}),
		CropsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agri_advisor",
			Name:      "crops_skipped_total",
			Help:      "Crops skipped because the model schema has no column for them.",
		}),
		ScoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agri_advisor",
			Name:      "scoring_duration_seconds",
			Help:      "Duration of a complete scoring pass.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		WeatherResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agri_advisor",
			Name:      "weather_resolutions_total",
			Help:      "Weather resolutions by fallback tier.",
		}, []string{"tier"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agri_advisor",
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agri_advisor",
			Name:      "weather_api_duration_seconds",
			Help:      "Weather history API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		Predictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agri_advisor",
			Name:      "model_predictions_total",
			Help:      "Total model predictions served.",
		}),
		NegativeYields: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agri_advisor",
			Name:      "model_negative_yields_total",
			Help:      "Yield predictions corrected from negative values.",
		}),
		BundleReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agri_advisor",
			Name:      "bundle_reloads_total",
			Help:      "Model bundle reload attempts by outcome.",
		}, []string{"outcome"}),
		BundleLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "agri_advisor",
			Name:      "bundle_loaded",
			Help:      "1 when a model bundle is published, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agri_advisor",
			Name:      "recommendation_events_total",
			Help:      "Scoring results published to the recommendation sink.",
		}),
		FeedbackRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agri_advisor",
			Name:      "feedback_rows_total",
			Help:      "Feedback CSV rows by outcome.",
		}, []string{"outcome"}),
	}
}
