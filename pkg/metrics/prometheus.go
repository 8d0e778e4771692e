// Package metrics provides Prometheus metrics for the judgeboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var latencyBucketsMs = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Aggregation
	aggregationPasses   prometheus.Counter
	aggregationDuration prometheus.Histogram
	recordsFolded       prometheus.Counter
	entriesSkipped      *prometheus.CounterVec
	projectsRanked      prometheus.Gauge

	// Refresh pipeline
	invalidations      *prometheus.CounterVec
	refreshErrors      *prometheus.CounterVec
	snapshotsPublished prometheus.Counter
	snapshotsStale     prometheus.Counter
	trackedEvents      prometheus.Gauge
	feedSubscribers    prometheus.Gauge
	listenerReconnects prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Write path
	submissions *prometheus.CounterVec

	// Exports
	exports        *prometheus.CounterVec
	exportFiles    *prometheus.CounterVec
	exportFailures *prometheus.CounterVec
	exportEmpty    *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "judgeboard",
		subsystem:        "scores",
		histogramBuckets: latencyBucketsMs,
		customLabels:     map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.aggregationPasses = m.counter("aggregation_passes_total", "Total number of completed aggregation passes")
	m.aggregationDuration = m.histogram("aggregation_duration_milliseconds", "Time spent folding one snapshot into leaderboards", m.histogramBuckets)
	m.recordsFolded = m.counter("records_folded_total", "Total number of score records folded by aggregation passes")
	m.entriesSkipped = m.counterVec("entries_skipped_total", "Score entries dropped during aggregation", "reason")
	m.projectsRanked = m.gauge("projects_ranked", "Number of project rows in the most recent aggregation pass")

	m.invalidations = m.counterVec("invalidations_total", "Change signals received, by source", "source")
	m.refreshErrors = m.counterVec("refresh_errors_total", "Refresh passes abandoned, by failing stage", "stage")
	m.snapshotsPublished = m.counter("snapshots_published_total", "Leaderboard snapshots swapped in")
	m.snapshotsStale = m.counter("snapshots_stale_total", "Snapshots discarded because a newer one was already published")
	m.trackedEvents = m.gauge("tracked_events", "Events with a published leaderboard snapshot")
	m.feedSubscribers = m.gauge("feed_subscribers", "Active change feed subscriptions")
	m.listenerReconnects = m.counter("listener_reconnects_total", "Database notification listener reconnects")

	m.queueSize = m.gauge("queue_size", "Invalidations waiting for a refresh worker")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued invalidations")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Invalidations accepted by the queue")
	m.queueDequeued = m.counter("queue_dequeued_total", "Invalidations handed to workers")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Invalidations rejected by the queue", "reason")

	m.workerCount = m.gauge("worker_count", "Number of refresh workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Fetch plus aggregate latency of one refresh pass", m.histogramBuckets)

	m.submissions = m.counterVec("submissions_total", "Judge score submissions, by result", "result")

	m.exports = m.counterVec("exports_total", "Export requests, by kind", "kind")
	m.exportFiles = m.counterVec("export_files_total", "CSV files handed to the download sink", "kind")
	m.exportFailures = m.counterVec("export_failures_total", "CSV files the download sink failed to store", "kind")
	m.exportEmpty = m.counterVec("export_empty_total", "Export requests refused for lack of data", "kind")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.customLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordAggregationPass records one completed aggregation pass.
func RecordAggregationPass(durationMs float64, records, projects int, skipped map[string]int) {
	globalManager.aggregationPasses.Inc()
	globalManager.aggregationDuration.Observe(durationMs)
	globalManager.recordsFolded.Add(float64(records))
	globalManager.projectsRanked.Set(float64(projects))
	for reason, n := range skipped {
		globalManager.entriesSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordInvalidation counts a change signal from source.
func RecordInvalidation(source string) {
	globalManager.invalidations.WithLabelValues(source).Inc()
}

// RecordRefreshError counts a refresh pass abandoned at stage.
func RecordRefreshError(stage string) {
	globalManager.refreshErrors.WithLabelValues(stage).Inc()
}

// RecordSnapshotPublished counts a snapshot swap.
func RecordSnapshotPublished() {
	globalManager.snapshotsPublished.Inc()
}

// RecordSnapshotStale counts a snapshot dropped in favor of a newer one.
func RecordSnapshotStale() {
	globalManager.snapshotsStale.Inc()
}

// UpdateTrackedEvents sets the number of events with a snapshot.
func UpdateTrackedEvents(n int) {
	globalManager.trackedEvents.Set(float64(n))
}

// AddFeedSubscribers adjusts the subscription gauge by delta.
func AddFeedSubscribers(delta int) {
	globalManager.feedSubscribers.Add(float64(delta))
}

// RecordListenerReconnect counts a notification listener reconnect.
func RecordListenerReconnect() {
	globalManager.listenerReconnects.Inc()
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an accepted invalidation.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts an invalidation handed to a worker.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected invalidation.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of refresh workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records one refresh pass latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordSubmission counts a judge submission by result.
func RecordSubmission(result string) {
	globalManager.submissions.WithLabelValues(result).Inc()
}

// RecordExport counts an export request and the files it produced.
func RecordExport(kind string, files int) {
	globalManager.exports.WithLabelValues(kind).Inc()
	globalManager.exportFiles.WithLabelValues(kind).Add(float64(files))
}

// RecordExportFailure counts a file the sink could not store.
func RecordExportFailure(kind string) {
	globalManager.exportFailures.WithLabelValues(kind).Inc()
}

// RecordExportEmpty counts an export refused for lack of data.
func RecordExportEmpty(kind string) {
	globalManager.exportEmpty.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
