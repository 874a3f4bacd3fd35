package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several instances (tests, the CLI) never
// collide on the global default registerer.
type Metrics struct {
	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	insightsTotal   *prometheus.CounterVec
	insightDuration prometheus.Histogram
	recordsLoaded   *prometheus.GaugeVec
	loadDuration    prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		insightsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insight_computations_total",
			Help: "Insight computations by outcome (ok, no_data).",
		}, []string{"outcome"}),
		insightDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "insight_computation_duration_seconds",
			Help:    "Histogram of insight computation durations.",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		recordsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sales_records_loaded",
			Help: "Number of sales records in the loaded record set, by load source.",
		}, []string{"source"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sales_records_load_duration_seconds",
			Help:    "Histogram of record set load durations.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.insightsTotal,
		m.insightDuration,
		m.recordsLoaded,
		m.loadDuration,
	)

	return m
}

func (m *Metrics) ObserveLoad(source string, records int, duration time.Duration) {
	if m == nil {
		return
	}
	m.recordsLoaded.Reset()
	m.recordsLoaded.WithLabelValues(source).Set(float64(records))
	m.loadDuration.Observe(duration.Seconds())
}

func (m *Metrics) ObserveInsights(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.insightsTotal.WithLabelValues(outcome).Inc()
	m.insightDuration.Observe(duration.Seconds())
}

func (m *Metrics) ObserveRequest(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
