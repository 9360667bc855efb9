package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// digest pipeline.
type Metrics struct {
	RecordsFetched    *prometheus.CounterVec // labels: source={permits,appeals}
	FetchErrors       *prometheus.CounterVec // labels: source={permits,appeals}
	DuplicatesRemoved *prometheus.CounterVec // labels: source={permits,appeals}
	UnitsOutcomes     *prometheus.CounterVec // labels: outcome={field,extracted,zoning_multifamily,unknown}

	// Geographic matching metrics.
	MatchAttempts prometheus.Counter
	MatchHits     prometheus.Counter

	// Digest build metrics.
	DigestBuildDuration prometheus.Histogram
	DigestsDelivered    *prometheus.CounterVec // labels: channel={email,kafka,postgres,file}
	FreshnessAgeDays    *prometheus.GaugeVec   // labels: source={permits,appeals}
	PipelineRunning     prometheus.Gauge
}

// NewMetrics creates and registers all digest metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsFetched,
		m.FetchErrors,
		m.DuplicatesRemoved,
		m.UnitsOutcomes,
		m.MatchAttempts,
		m.MatchHits,
		m.DigestBuildDuration,
		m.DigestsDelivered,
		m.FreshnessAgeDays,
		m.PipelineRunning,
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
		RecordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devdigest",
			Name:      "records_fetched_total",
			Help:      "Raw records fetched from the open-data backend by source.",
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devdigest",
			Name:      "fetch_errors_total",
			Help:      "Failed source fetches that degraded to an empty record list.",
		}, []string{"source"}),
		DuplicatesRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devdigest",
			Name:      "duplicates_removed_total",
			Help:      "Records dropped by identifier-based deduplication.",
		}, []string{"source"}),
		UnitsOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devdigest",
			Name:      "units_outcomes_total",
			Help:      "Unit-count derivation outcomes by units_source.",
		}, []string{"outcome"}),
		MatchAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "devdigest",
			Name:      "match_attempts_total",
			Help:      "Records with coordinates submitted for neighborhood matching.",
		}),
		MatchHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "devdigest",
			Name:      "match_hits_total",
			Help:      "Records matched to a neighborhood polygon.",
		}),
		DigestBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "devdigest",
			Name:      "digest_build_duration_seconds",
			Help:      "Duration of a complete fetch-dedup-enrich-group cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		DigestsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devdigest",
			Name:      "digests_delivered_total",
			Help:      "Digest deliveries by channel.",
		}, []string{"channel"}),
		FreshnessAgeDays: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "devdigest",
			Name:      "source_age_days",
			Help:      "Whole-day age of the most recent record per source feed.",
		}, []string{"source"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "devdigest",
			Name:      "pipeline_running",
			Help:      "1 when a digest build is in progress, 0 otherwise.",
		}),
	}
}
