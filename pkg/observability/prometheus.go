package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records business, query and HTTP metrics into a Prometheus registry.
// It satisfies ports.Metrics and the query bus Metrics interface.
type Collector struct {
	registry *prometheus.Registry

	commentsSubmitted  *prometheus.CounterVec
	commentsReconciled *prometheus.CounterVec
	roadmapSaves       *prometheus.HistogramVec
	remoteCalls        *prometheus.HistogramVec
	queries            *prometheus.HistogramVec
	httpRequests       *prometheus.HistogramVec
}

// NewCollector registers the metrics under namespace in a fresh registry
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		commentsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_submitted_total",
			Help:      "Comment submissions by outcome",
		}, []string{"outcome"}),
		commentsReconciled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_reconciled_total",
			Help:      "Background comment reconciliations by outcome",
		}, []string{"outcome"}),
		roadmapSaves: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "roadmap_save_duration_seconds",
			Help:      "Remote roadmap writes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		remoteCalls: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "Calls to remote stores",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation", "outcome"}),
		queries: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query handler latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query", "outcome"}),
		httpRequests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (c *Collector) CommentSubmitted(outcome string) {
	c.commentsSubmitted.WithLabelValues(outcome).Inc()
}

func (c *Collector) CommentsReconciled(outcome string) {
	c.commentsReconciled.WithLabelValues(outcome).Inc()
}

func (c *Collector) RoadmapSaved(outcome string, duration time.Duration) {
	c.roadmapSaves.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (c *Collector) RemoteCall(store, operation, outcome string, duration time.Duration) {
	c.remoteCalls.WithLabelValues(store, operation, outcome).Observe(duration.Seconds())
}

func (c *Collector) QueryCompleted(queryType, outcome string, duration time.Duration) {
	c.queries.WithLabelValues(queryType, outcome).Observe(duration.Seconds())
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
