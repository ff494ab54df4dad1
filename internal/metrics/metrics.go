// Package metrics exposes the engine's Prometheus collectors.
//
// Every recorder method is nil-safe, so components built without metrics
// (tests, the MCP stdio mode) can call them unconditionally.
//
// Usage:
//
//	m := metrics.New()
//	m.MemoryOp("add", "redis", metrics.ResultOK, time.Since(start))
//	mux.Handle("/metrics", m.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "motherbrain"

const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultTimeout = "timeout"
	ResultSkipped = "skipped"
)

type Metrics struct {
	registry *prometheus.Registry

	// MemoryOps counts facade operations.
	// Labels: op (add|retrieve), backend (simple|semantic), result
	MemoryOps *prometheus.CounterVec

	// MemoryOpDuration measures facade operations in seconds.
	// Labels: op
	MemoryOpDuration *prometheus.HistogramVec

	// Evictions counts short-term records removed by capacity cleanup.
	Evictions prometheus.Counter

	// CorruptRecords counts stored records skipped on read.
	CorruptRecords prometheus.Counter

	// RedisConnects counts connect cycles.
	// Labels: result (ok|error)
	RedisConnects *prometheus.CounterVec

	// RedisState is the numeric connection state.
	RedisState prometheus.Gauge

	// AnalyzerResults counts interaction analyses.
	// Labels: result (ok|error|skipped)
	AnalyzerResults *prometheus.CounterVec

	// Mood holds the current value of every mood dimension.
	// Labels: dimension
	Mood *prometheus.GaugeVec

	// EmbeddingCache counts encoder cache lookups.
	// Labels: result (hit|miss)
	EmbeddingCache *prometheus.CounterVec

	// HTTPRequests counts API requests.
	// Labels: method, path, status_code
	HTTPRequests *prometheus.CounterVec

	// HTTPRequestDuration measures API latency in seconds.
	// Labels: method, path
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		MemoryOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_operations_total",
			Help:      "Memory facade operations by op, backend and result",
		}, []string{"op", "backend", "result"}),

		MemoryOpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "memory_operation_duration_seconds",
			Help:      "Duration of memory facade operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1, 5},
		}, []string{"op"}),

		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_evictions_total",
			Help:      "Short-term memories removed by capacity cleanup",
		}),

		CorruptRecords: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_corrupt_records_total",
			Help:      "Stored memories skipped because they could not be decoded",
		}),

		RedisConnects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_connects_total",
			Help:      "Redis connect cycles by result",
		}, []string{"result"}),

		RedisState: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "redis_connection_state",
			Help:      "0 disconnected, 1 connecting, 2 connected, 3 degraded",
		}),

		AnalyzerResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyzer_results_total",
			Help:      "Interaction analyses by result",
		}, []string{"result"}),

		Mood: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mood",
			Help:      "Current mood value per dimension",
		}, []string{"dimension"}),

		EmbeddingCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_lookups_total",
			Help:      "Embedding cache lookups by result",
		}, []string{"result"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status code",
		}, []string{"method", "path", "status_code"}),

		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "path"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) MemoryOp(op, backend, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.MemoryOps.WithLabelValues(op, backend, result).Inc()
	m.MemoryOpDuration.WithLabelValues(op).Observe(took.Seconds())
}

func (m *Metrics) Evicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Evictions.Add(float64(n))
}

func (m *Metrics) CorruptRecord() {
	if m == nil {
		return
	}
	m.CorruptRecords.Inc()
}

func (m *Metrics) RedisConnect(result string) {
	if m == nil {
		return
	}
	m.RedisConnects.WithLabelValues(result).Inc()
}

func (m *Metrics) SetRedisState(state int) {
	if m == nil {
		return
	}
	m.RedisState.Set(float64(state))
}

func (m *Metrics) AnalyzerResult(result string) {
	if m == nil {
		return
	}
	m.AnalyzerResults.WithLabelValues(result).Inc()
}

func (m *Metrics) SetMood(mood map[string]float64) {
	if m == nil {
		return
	}
	for dim, v := range mood {
		m.Mood.WithLabelValues(dim).Set(v)
	}
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.EmbeddingCache.WithLabelValues("hit").Inc()
		return
	}
	m.EmbeddingCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) HTTPRequest(method, path string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(took.Seconds())
}
