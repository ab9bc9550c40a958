package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registry holds only this process's collectors; the global default registry is left alone.
var registry = newRegistry()

var factory = promauto.With(registry)

// Proxy surface.
var (
	// HTTPRequestsTotal is labelled by mux route template, never the raw path.
	HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "httpRequestsTotal",
		Help: "HTTP requests served, by method, route template and status code",
	}, []string{"method", "route", "statusCode"})

	HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "httpRequestDurationSeconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	HTTPRequestsInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Name: "httpRequestsInFlight",
		Help: "HTTP requests currently being served",
	})

	// WeatherLookupsTotal outcome is one of success, invalid, rejected, failed.
	WeatherLookupsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "weatherLookupsTotal",
		Help: "Proxy lookups by search mode and outcome",
	}, []string{"mode", "outcome"})
)

// Upstream provider.
var (
	WeatherAPICallsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "weatherApiCallsTotal",
		Help: "OpenWeatherMap calls by search mode and status class",
	}, []string{"mode", "status"})

	// Upstream p95 above 2s usually means the provider is degraded.
	WeatherAPIDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "weatherApiDurationSeconds",
		Help:    "OpenWeatherMap call latency in seconds",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"mode", "status"})

	WeatherAPIErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "weatherApiErrorsTotal",
		Help: "OpenWeatherMap failures by category",
	}, []string{"category"})
)

// PanelSearchesTotal outcome is the settled panel status, or invalid / stale.
var PanelSearchesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Name: "panelSearchesTotal",
	Help: "Web panel searches by search mode and outcome",
}, []string{"mode", "outcome"})

func newRegistry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return r
}

// RecordLookup counts one proxy lookup.
func RecordLookup(mode, outcome string) {
	WeatherLookupsTotal.WithLabelValues(mode, outcome).Inc()
}

// RecordUpstreamCall counts one provider call and observes its latency.
func RecordUpstreamCall(mode, status string, seconds float64) {
	WeatherAPICallsTotal.WithLabelValues(mode, status).Inc()
	WeatherAPIDuration.WithLabelValues(mode, status).Observe(seconds)
}

// MetricsHandler serves the application and runtime collectors in exposition format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
