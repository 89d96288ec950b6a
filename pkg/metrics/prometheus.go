// Package metrics provides Prometheus metrics for the pitchcast prediction service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Prediction metrics
	predictions       *prometheus.CounterVec
	predictionTiers   *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	predictionErrors  prometheus.Counter

	// Training metrics
	trainingRuns          *prometheus.CounterVec
	trainingRecords       *prometheus.CounterVec
	trainingDuration      prometheus.Histogram
	trainingLastUnix      prometheus.Gauge
	ratingTeams           prometheus.Gauge
	ratingSnapshotPublish prometheus.Counter

	// Storage metrics
	storageLatency  *prometheus.HistogramVec
	storageErrors   *prometheus.CounterVec
	storageDegraded prometheus.Gauge

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     *prometheus.CounterVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pitchcast",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(
		m.counterOpts("predictions_total", "Total number of predictions produced by sport"),
		[]string{"sport"},
	)
	m.predictionTiers = auto.NewCounterVec(
		m.counterOpts("prediction_tiers_total", "Total number of predictions by confidence tier"),
		[]string{"tier"},
	)
	m.predictionLatency = auto.NewHistogram(
		m.histogramOpts("prediction_latency_milliseconds", "Prediction pipeline latency in milliseconds"),
	)
	m.predictionErrors = auto.NewCounter(
		m.counterOpts("prediction_errors_total", "Total number of rejected prediction requests"),
	)

	m.trainingRuns = auto.NewCounterVec(
		m.counterOpts("training_runs_total", "Training invocations by outcome"),
		[]string{"outcome"},
	)
	m.trainingRecords = auto.NewCounterVec(
		m.counterOpts("training_records_total", "Match records seen by training, by result"),
		[]string{"result"},
	)
	m.trainingDuration = auto.NewHistogram(
		m.histogramOpts("training_duration_milliseconds", "Duration of effective training batches in milliseconds"),
	)
	m.trainingLastUnix = auto.NewGauge(
		m.gaugeOpts("training_last_unix", "Unix timestamp of the last effective training batch"),
	)
	m.ratingTeams = auto.NewGauge(
		m.gaugeOpts("rating_teams", "Number of teams held by the rating store"),
	)
	m.ratingSnapshotPublish = auto.NewCounter(
		m.counterOpts("rating_snapshots_published_total", "Total number of rating snapshots published"),
	)

	m.storageLatency = auto.NewHistogramVec(
		m.histogramOpts("storage_latency_milliseconds", "Rating storage operation latency in milliseconds"),
		[]string{"driver", "op"},
	)
	m.storageErrors = auto.NewCounterVec(
		m.counterOpts("storage_errors_total", "Rating storage failures by driver and operation"),
		[]string{"driver", "op"},
	)
	m.storageDegraded = auto.NewGauge(
		m.gaugeOpts("storage_degraded", "1 when the rating store runs in memory only after a storage fault"),
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of pending training jobs"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum training queue capacity"))
	m.queueUtilization = auto.NewGauge(
		m.gaugeOpts("queue_utilization_ratio", "Training queue utilization ratio (size / capacity)"),
	)
	m.queueEnqueue = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of jobs enqueued"))
	m.queueDequeue = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(
		m.counterOpts("queue_enqueue_errors_total", "Total number of rejected enqueues"),
	)

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of prediction workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of workers currently busy"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Worker task latency in milliseconds"),
	)
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of failed worker tasks"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRateLimited = auto.NewCounterVec(
		m.counterOpts("http_rate_limited_total", "Requests rejected by the rate limiter"),
		[]string{"endpoint"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// Prediction metrics.

// RecordPrediction counts a produced prediction and its confidence tier.
func RecordPrediction(sport, tier string) {
	globalManager.predictions.WithLabelValues(sport).Inc()
	globalManager.predictionTiers.WithLabelValues(tier).Inc()
}

// RecordPredictionLatency records pipeline latency in milliseconds.
func RecordPredictionLatency(latencyMs float64) {
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordPredictionError counts a rejected prediction request.
func RecordPredictionError() {
	globalManager.predictionErrors.Inc()
}

// Training metrics.

// RecordTrainingRun counts a TrainBatch call by outcome
// (applied, cooldown, empty, failed).
func RecordTrainingRun(outcome string) {
	globalManager.trainingRuns.WithLabelValues(outcome).Inc()
}

// RecordTrainingRecords adds n records with the given result
// (applied, bad_score, bad_date, duplicate).
func RecordTrainingRecords(result string, n int) {
	if n <= 0 {
		return
	}
	globalManager.trainingRecords.WithLabelValues(result).Add(float64(n))
}

// RecordTrainingDuration records an effective batch duration in milliseconds.
func RecordTrainingDuration(durationMs float64) {
	globalManager.trainingDuration.Observe(durationMs)
}

// UpdateTrainingLastUnix sets the timestamp of the last effective batch.
func UpdateTrainingLastUnix(ts int64) {
	globalManager.trainingLastUnix.Set(float64(ts))
}

// UpdateRatingTeams sets the number of rated teams.
func UpdateRatingTeams(count int) {
	globalManager.ratingTeams.Set(float64(count))
}

// RecordRatingSnapshotPublish counts a published rating snapshot.
func RecordRatingSnapshotPublish() {
	globalManager.ratingSnapshotPublish.Inc()
}

// Storage metrics.

// RecordStorageLatency records a storage operation latency.
func RecordStorageLatency(driver, op string, latencyMs float64) {
	globalManager.storageLatency.WithLabelValues(driver, op).Observe(latencyMs)
}

// RecordStorageError counts a failed storage operation.
func RecordStorageError(driver, op string) {
	globalManager.storageErrors.WithLabelValues(driver, op).Inc()
}

// UpdateStorageDegraded flags whether the store fell back to memory only.
func UpdateStorageDegraded(degraded bool) {
	v := 0.0
	if degraded {
		v = 1
	}
	globalManager.storageDegraded.Set(v)
}

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker metrics.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive moves the busy-worker gauge by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records worker task latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited(endpoint string) {
	globalManager.httpRateLimited.WithLabelValues(endpoint).Inc()
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
