package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// OpenWeatherMap fetch rate per endpoint. Watch for: error vs success ratio.
	FetchesTotal *prometheus.CounterVec

	// Upstream latency per fetch. Watch for: p95 > 2s (upstream degradation).
	FetchDuration *prometheus.HistogramVec

	// Presenter state writes per command.
	PresenterAppliedTotal *prometheus.CounterVec

	// Completions discarded because a newer invocation of the same command
	// was already issued. High values mean users are outrunning the upstream.
	PresenterStaleDroppedTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherFetchesTotal",
			Help: "Total number of OpenWeatherMap fetches by endpoint",
		},
		[]string{"endpoint", "status"},
	)
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherFetchDurationSeconds",
			Help:    "OpenWeatherMap fetch latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)
	PresenterAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presenterAppliedTotal",
			Help: "Fetch completions applied to presentation state, by command and result",
		},
		[]string{"command", "result"},
	)
	PresenterStaleDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presenterStaleDroppedTotal",
			Help: "Fetch completions discarded because a newer command invocation superseded them",
		},
		[]string{"command"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		FetchesTotal, FetchDuration,
		PresenterAppliedTotal, PresenterStaleDroppedTotal,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
