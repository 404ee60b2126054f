package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the Prometheus collectors exported by the backend.
type Registry struct {
	reg              *prometheus.Registry
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	readingsRecorded prometheus.Counter
	publishFailures  *prometheus.CounterVec
}

// NewRegistry registers every collector on a private registry so tests can
// build as many as they like.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aduba_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aduba_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		readingsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aduba_readings_recorded_total",
			Help: "Readings persisted through the API.",
		}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aduba_reading_publish_failures_total",
			Help: "Reading notifications that could not be delivered, by publisher.",
		}, []string{"publisher"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpRequests,
		r.httpDuration,
		r.readingsRecorded,
		r.publishFailures,
	)
	return r
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveRequest records one served HTTP request.
func (r *Registry) ObserveRequest(route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ReadingRecorded counts a persisted reading.
func (r *Registry) ReadingRecorded() {
	if r == nil {
		return
	}
	r.readingsRecorded.Inc()
}

// PublishFailed counts a failed notification.
func (r *Registry) PublishFailed(publisher string) {
	if r == nil {
		return
	}
	r.publishFailures.WithLabelValues(publisher).Inc()
}

// Registerer lets other components add collectors to the same registry.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}
