package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the attribution service.
type Metrics struct {
	// Ingestion metrics
	Visits          *prometheus.CounterVec
	UnmatchedVisits prometheus.Counter
	DedupedVisits   prometheus.Counter
	Touchpoints     *prometheus.CounterVec
	IngestLatency   *prometheus.HistogramVec

	// Conversion metrics
	Conversions *prometheus.CounterVec
	Revenue     *prometheus.CounterVec

	// Reporting metrics
	ReportRequests *prometheus.CounterVec
	ReportLatency  *prometheus.HistogramVec
	ReportTimeouts *prometheus.CounterVec
	CacheHits      *prometheus.CounterVec

	// System metrics
	DBConnections *prometheus.GaugeVec
	RateLimitHits *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Visits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "visits_total",
				Help:      "Total visit events ingested",
			},
			[]string{"channel_id"},
		),
		UnmatchedVisits: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unmatched_visits_total",
				Help:      "Visits that resolved to no channel",
			},
		),
		DedupedVisits: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deduped_visits_total",
				Help:      "Visits dropped by idempotency key dedupe",
			},
		),
		Touchpoints: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "touchpoints_total",
				Help:      "Touchpoints appended to journeys",
			},
			[]string{"channel_id"},
		),
		IngestLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ingest_latency_seconds",
				Help:      "Visit/conversion ingest latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
			},
			[]string{"operation"},
		),

		Conversions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Total conversions recorded",
			},
			[]string{"event_type"},
		),
		Revenue: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "revenue_dollars_total",
				Help:      "Total conversion value recorded",
			},
			[]string{"event_type"},
		),

		ReportRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_requests_total",
				Help:      "Analytics report requests by operation",
			},
			[]string{"operation", "status"},
		),
		ReportLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_latency_seconds",
				Help:      "Analytics aggregation latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
			},
			[]string{"operation"},
		),
		ReportTimeouts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_timeouts_total",
				Help:      "Aggregations that exceeded the query timeout",
			},
			[]string{"operation"},
		),
		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_cache_hits_total",
				Help:      "Report cache lookups by outcome",
			},
			[]string{"operation", "outcome"},
		),

		DBConnections: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections",
				Help:      "Database connection pool stats",
			},
			[]string{"state"}, // idle, in_use, total
		),
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Rate limit rejections",
			},
			[]string{"endpoint"},
		),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordVisit records an ingested visit.
func (m *Metrics) RecordVisit(channelID string, latency time.Duration) {
	if channelID == "" {
		m.UnmatchedVisits.Inc()
		channelID = "none"
	}
	m.Visits.WithLabelValues(channelID).Inc()
	m.IngestLatency.WithLabelValues("visit").Observe(latency.Seconds())
}

// RecordDedupedVisit records a visit dropped by the idempotency key.
func (m *Metrics) RecordDedupedVisit() {
	m.DedupedVisits.Inc()
}

// RecordTouchpoint records an appended touchpoint.
func (m *Metrics) RecordTouchpoint(channelID string) {
	m.Touchpoints.WithLabelValues(channelID).Inc()
}

// RecordConversion records a conversion and its value.
func (m *Metrics) RecordConversion(eventType string, value float64, latency time.Duration) {
	m.Conversions.WithLabelValues(eventType).Inc()
	if value > 0 {
		m.Revenue.WithLabelValues(eventType).Add(value)
	}
	m.IngestLatency.WithLabelValues("conversion").Observe(latency.Seconds())
}

// RecordReport records an analytics request outcome.
func (m *Metrics) RecordReport(operation, status string, latency time.Duration) {
	m.ReportRequests.WithLabelValues(operation, status).Inc()
	m.ReportLatency.WithLabelValues(operation).Observe(latency.Seconds())
}

// RecordReportTimeout records an aggregation timeout.
func (m *Metrics) RecordReportTimeout(operation string) {
	m.ReportTimeouts.WithLabelValues(operation).Inc()
}

// RecordCacheLookup records a report cache hit or miss.
func (m *Metrics) RecordCacheLookup(operation string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.CacheHits.WithLabelValues(operation, outcome).Inc()
}

// UpdateDBStats updates database connection metrics.
func (m *Metrics) UpdateDBStats(idle, inUse, total int) {
	m.DBConnections.WithLabelValues("idle").Set(float64(idle))
	m.DBConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnections.WithLabelValues("total").Set(float64(total))
}

// RecordRateLimitHit records a rate limit hit.
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.RateLimitHits.WithLabelValues(endpoint).Inc()
}
