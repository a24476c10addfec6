package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "plantops"

// Collector holds the Prometheus metrics of one process. All methods are safe on a nil receiver.
type Collector struct {
	registry *prometheus.Registry

	submissions     *prometheus.CounterVec
	engineDuration  *prometheus.HistogramVec
	healthScore     prometheus.Histogram
	chatSessions    prometheus.Counter
	chatFallbacks   prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	storeReadErrors prometheus.Counter
}

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observation_submissions_total",
			Help:      "Observation submissions by outcome",
		}, []string{"outcome"}),
		engineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_call_duration_seconds",
			Help:      "Reasoning engine call latency",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"operation", "status"}),
		healthScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "entry_health_score",
			Help:      "Health score of committed entries",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		chatSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_sessions_total",
			Help:      "Chat sessions opened",
		}),
		chatFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_fallbacks_total",
			Help:      "Chat replies replaced by the fallback notice",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		storeReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_read_errors_total",
			Help:      "Entity store reads that degraded to an empty collection",
		}),
	}

	c.registry.MustRegister(
		c.submissions,
		c.engineDuration,
		c.healthScore,
		c.chatSessions,
		c.chatFallbacks,
		c.httpRequests,
		c.httpDuration,
		c.storeReadErrors,
	)
	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveSubmission(outcome string) {
	if c == nil {
		return
	}
	c.submissions.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveEngineCall(operation string, err error, d time.Duration) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.engineDuration.WithLabelValues(operation, status).Observe(d.Seconds())
}

func (c *Collector) ObserveHealthScore(score int) {
	if c == nil {
		return
	}
	c.healthScore.Observe(float64(score))
}

func (c *Collector) ObserveChatSession() {
	if c == nil {
		return
	}
	c.chatSessions.Inc()
}

func (c *Collector) ObserveChatFallback() {
	if c == nil {
		return
	}
	c.chatFallbacks.Inc()
}

func (c *Collector) ObserveStoreReadError() {
	if c == nil {
		return
	}
	c.storeReadErrors.Inc()
}

func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, httpStatusClass(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func httpStatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
