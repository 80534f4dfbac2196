package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the welfare pipeline Prometheus metrics.
type Metrics struct {
	SyncRecords       *prometheus.CounterVec
	SyncRuns          *prometheus.CounterVec
	SyncDuration      *prometheus.HistogramVec
	SyncRetries       *prometheus.CounterVec
	StaleRecords      prometheus.Counter
	CriteriaGenerated *prometheus.CounterVec
	LLMLatency        prometheus.Histogram
	Recommendations   *prometheus.CounterVec
	RecommendLatency  prometheus.Histogram
	LifecycleEvents   *prometheus.CounterVec
}

// New registers on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SyncRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "welfarehub_catalog_sync_records_total",
			Help: "Catalog records processed during sync by source and outcome",
		}, []string{"source", "outcome"}),
		SyncRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "welfarehub_catalog_sync_runs_total",
			Help: "Catalog sync runs by source and status",
		}, []string{"source", "status"}),
		SyncDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "welfarehub_catalog_sync_duration_seconds",
			Help:    "Duration of catalog sync runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"source"}),
		SyncRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "welfarehub_catalog_sync_retries_total",
			Help: "Page fetch retries by source and error category",
		}, []string{"source", "category"}),
		StaleRecords: f.NewCounter(prometheus.CounterOpts{
			Name: "welfarehub_catalog_records_marked_stale_total",
			Help: "Catalog records moved to STALE",
		}),
		CriteriaGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "welfarehub_criteria_generated_total",
			Help: "Filter criteria produced by source (AI, CACHE, FALLBACK)",
		}, []string{"source"}),
		LLMLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "welfarehub_criteria_llm_latency_seconds",
			Help:    "Latency of language model calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16},
		}),
		Recommendations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "welfarehub_recommendations_total",
			Help: "Recommendation pages served by criteria source and widening",
		}, []string{"criteria_source", "widened"}),
		RecommendLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "welfarehub_recommendation_duration_seconds",
			Help:    "End-to-end recommendation latency",
			Buckets: prometheus.DefBuckets,
		}),
		LifecycleEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "welfarehub_lifecycle_events_total",
			Help: "Lifecycle events by outcome (recorded, duplicate, processed, failed)",
		}, []string{"outcome"}),
	}
}

// The helpers below tolerate a nil receiver so services can run unmetered.

func (m *Metrics) ObserveSyncRecord(source, outcome string) {
	if m == nil {
		return
	}
	m.SyncRecords.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) ObserveSyncRun(source, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.SyncRuns.WithLabelValues(source, status).Inc()
	m.SyncDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) IncrementSyncRetry(source, category string) {
	if m == nil {
		return
	}
	m.SyncRetries.WithLabelValues(source, category).Inc()
}

func (m *Metrics) AddStale(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StaleRecords.Add(float64(n))
}

func (m *Metrics) IncrementCriteria(source string) {
	if m == nil {
		return
	}
	m.CriteriaGenerated.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveLLMLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.LLMLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveRecommendation(criteriaSource string, widened bool, d time.Duration) {
	if m == nil {
		return
	}
	w := "false"
	if widened {
		w = "true"
	}
	m.Recommendations.WithLabelValues(criteriaSource, w).Inc()
	m.RecommendLatency.Observe(d.Seconds())
}

func (m *Metrics) IncrementLifecycle(outcome string) {
	if m == nil {
		return
	}
	m.LifecycleEvents.WithLabelValues(outcome).Inc()
}
