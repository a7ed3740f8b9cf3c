package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the application metrics
type Metrics struct {
	// HTTP request metrics
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Console call metrics
	ConsoleRequestTotal    *prometheus.CounterVec
	ConsoleRequestDuration *prometheus.HistogramVec

	// Inference payload decode metrics
	PayloadDecodeTotal    *prometheus.CounterVec
	PayloadDecodeDuration *prometheus.HistogramVec

	// Retrieval batch metrics
	RetrievalTotal     *prometheus.CounterVec
	RetrievalBatchSize prometheus.Histogram
}

// Global metrics instance with mutex for thread safety
var (
	globalMetrics *Metrics
	metricsMutex  sync.Mutex
)

// NewMetrics creates a new Metrics instance with all required metrics
func NewMetrics() *Metrics {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	// Return existing instance if already created
	if globalMetrics != nil {
		return globalMetrics
	}

	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),

		ConsoleRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_requests_total",
			Help: "Total number of management console API calls",
		}, []string{"operation", "status"}),

		ConsoleRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_request_duration_seconds",
			Help:    "Management console API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),

		PayloadDecodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payload_decode_total",
			Help: "Total number of binary inference payload decodes",
		}, []string{"status"}),

		PayloadDecodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payload_decode_duration_seconds",
			Help:    "Binary inference payload decode duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),

		RetrievalTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retrieval_total",
			Help: "Total number of image retrieval batches",
		}, []string{"status"}),

		RetrievalBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "retrieval_batch_size",
			Help:    "Number of images returned per retrieval batch",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		}),
	}

	// Register metrics with the default registry
	registerMetrics(m)

	// Store as global instance
	globalMetrics = m

	return m
}

// registerMetrics registers all metrics with the default registry
func registerMetrics(m *Metrics) {
	registerOrGet(m.HTTPRequestTotal)
	registerOrGet(m.HTTPRequestDuration)
	registerOrGet(m.ConsoleRequestTotal)
	registerOrGet(m.ConsoleRequestDuration)
	registerOrGet(m.PayloadDecodeTotal)
	registerOrGet(m.PayloadDecodeDuration)
	registerOrGet(m.RetrievalTotal)
	registerOrGet(m.RetrievalBatchSize)
}

// registerOrGet tries to register a metric, returns the existing one if already registered
func registerOrGet(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		// If already registered, return the existing collector
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}
