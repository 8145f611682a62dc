// Package metrics provides Prometheus metrics for the talentbridge reputation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Proposal lifecycle
	proposalsCreated    prometheus.Counter
	proposalsResponded  *prometheus.CounterVec
	proposalsTimedOut   prometheus.Counter
	transitionConflicts prometheus.Counter
	sweepRuns           prometheus.Counter
	sweepDuration       prometheus.Histogram

	// Reputation aggregation
	outcomesRecorded  prometheus.Counter
	recalculations    prometheus.Counter
	changeEvents      prometheus.Counter
	publishErrors     prometheus.Counter
	publishRetries    prometheus.Counter
	publisherQueue    prometheus.Gauge
	trackedRecruiters prometheus.Gauge

	// Store performance
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "talentbridge",
		subsystem:        "reputation",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.proposalsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "proposals_created_total",
		Help:      "Total number of proposals created",
	})

	m.proposalsResponded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "proposals_responded_total",
		Help:      "Total number of proposals answered by a human, by decision",
	}, []string{"decision"})

	m.proposalsTimedOut = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "proposals_timed_out_total",
		Help:      "Total number of proposals force-expired by the sweep",
	})

	m.transitionConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "transition_conflicts_total",
		Help:      "Total number of conditional writes that lost a transition race",
	})

	m.sweepRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sweep_runs_total",
		Help:      "Total number of expiry sweep passes",
	})

	m.sweepDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sweep_duration_milliseconds",
		Help:      "Histogram of sweep pass duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.outcomesRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "outcomes_recorded_total",
		Help:      "Total number of outcome events applied to recruiter aggregates",
	})

	m.recalculations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recalculations_total",
		Help:      "Total number of reputation score recalculations",
	})

	m.changeEvents = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "change_events_published_total",
		Help:      "Total number of reputation.updated events published",
	})

	m.publishErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_errors_total",
		Help:      "Total number of event publish failures (events are best-effort)",
	})

	m.publishRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_retries_total",
		Help:      "Total number of event delivery retries",
	})

	m.publisherQueue = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publisher_queue_size",
		Help:      "Current number of events buffered for delivery",
	})

	m.trackedRecruiters = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_recruiters",
		Help:      "Number of recruiter aggregates in the reputation store",
	})

	m.storeUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_update_latency_milliseconds",
		Help:      "Histogram of store write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Histogram of store read latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordProposalCreated increments the proposals created counter.
func RecordProposalCreated() {
	globalManager.proposalsCreated.Inc()
}

// RecordProposalResponse increments the responded counter for a decision.
func RecordProposalResponse(decision string) {
	globalManager.proposalsResponded.WithLabelValues(decision).Inc()
}

// RecordProposalTimedOut increments the timed-out counter.
func RecordProposalTimedOut() {
	globalManager.proposalsTimedOut.Inc()
}

// RecordTransitionConflict increments the lost-race counter.
func RecordTransitionConflict() {
	globalManager.transitionConflicts.Inc()
}

// RecordSweepRun records one sweep pass and its duration.
func RecordSweepRun(durationMs float64) {
	globalManager.sweepRuns.Inc()
	globalManager.sweepDuration.Observe(durationMs)
}

// RecordOutcome increments the outcomes recorded counter.
func RecordOutcome() {
	globalManager.outcomesRecorded.Inc()
}

// RecordRecalculation increments the recalculation counter.
func RecordRecalculation() {
	globalManager.recalculations.Inc()
}

// RecordChangeEventPublished increments the published events counter.
func RecordChangeEventPublished() {
	globalManager.changeEvents.Inc()
}

// RecordPublishError increments the publish error counter.
func RecordPublishError() {
	globalManager.publishErrors.Inc()
}

// RecordPublishRetry increments the delivery retry counter.
func RecordPublishRetry() {
	globalManager.publishRetries.Inc()
}

// UpdatePublisherQueueSize sets the publisher buffer gauge.
func UpdatePublisherQueueSize(size int) {
	globalManager.publisherQueue.Set(float64(size))
}

// UpdateTrackedRecruiters sets the tracked recruiters gauge.
func UpdateTrackedRecruiters(count int) {
	globalManager.trackedRecruiters.Set(float64(count))
}

// RecordStoreUpdateLatency records a store write latency sample.
func RecordStoreUpdateLatency(latencyMs float64) {
	globalManager.storeUpdateLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records a store read latency sample.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration sample.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry for serving /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
