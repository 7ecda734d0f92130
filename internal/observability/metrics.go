package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// trajectory pipeline.
type Metrics struct {
	RunsTotal   *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration prometheus.Histogram

	// Per-stage timings.
	StageDuration *prometheus.HistogramVec // labels: stage={fetch,parse,resample,consensus,ribbon,hull,frames,publish}

	// Data quality counters.
	ZeroFilledTokens prometheus.Counter
	HullFallbacks    prometheus.Counter
	OriginFallbacks  prometheus.Counter

	// Model source metrics.
	SourceFetches *prometheus.CounterVec // labels: source={local,http}, outcome={success,error}
	SourceCache   *prometheus.CounterVec // labels: result={hit,miss}

	PayloadsPublished prometheus.Counter
	ServiceReady      prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plume_traj",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plume_traj",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-parse-build pipeline run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "plume_traj",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"stage"}),
		ZeroFilledTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plume_traj",
			Name:      "parse_zero_filled_tokens_total",
			Help:      "Grid slots filled with zero because the model file was short or malformed.",
		}),
		HullFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plume_traj",
			Name:      "hull_fallbacks_total",
			Help:      "Time steps whose swept-area hull degenerated to the origin diamond.",
		}),
		OriginFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plume_traj",
			Name:      "origin_fallbacks_total",
			Help:      "Runs whose origin came from the member centroid instead of the file header.",
		}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plume_traj",
			Name:      "source_fetch_total",
			Help:      "Model file fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		SourceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plume_traj",
			Name:      "source_cache_total",
			Help:      "Model source cache lookups by result.",
		}, []string{"result"}),
		PayloadsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plume_traj",
			Name:      "payloads_published_total",
			Help:      "Run payloads successfully written to the sink topic.",
		}),
		ServiceReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plume_traj",
			Name:      "service_ready",
			Help:      "1 when the service can reach its model source, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.StageDuration,
		m.ZeroFilledTokens,
		m.HullFallbacks,
		m.OriginFallbacks,
		m.SourceFetches,
		m.SourceCache,
		m.PayloadsPublished,
		m.ServiceReady,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "plume_traj", Name: "runs_total"}, []string{"outcome"}),
		RunDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "plume_traj", Name: "run_duration_seconds"}),
		StageDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "plume_traj", Name: "stage_duration_seconds"}, []string{"stage"}),
		ZeroFilledTokens:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "plume_traj", Name: "parse_zero_filled_tokens_total"}),
		HullFallbacks:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "plume_traj", Name: "hull_fallbacks_total"}),
		OriginFallbacks:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "plume_traj", Name: "origin_fallbacks_total"}),
		SourceFetches:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "plume_traj", Name: "source_fetch_total"}, []string{"source", "outcome"}),
		SourceCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "plume_traj", Name: "source_cache_total"}, []string{"result"}),
		PayloadsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "plume_traj", Name: "payloads_published_total"}),
		ServiceReady:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "plume_traj", Name: "service_ready"}),
	}
}
