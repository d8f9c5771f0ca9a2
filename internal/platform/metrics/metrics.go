// Package metrics holds the prometheus collectors for the http surface and the pipeline
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

// Pipeline stages observed by StageDuration
const (
	StageLoad      = "load"
	StageAggregate = "aggregate"
	StageForecast  = "forecast"
	StageSummary   = "summary"
)

// Metrics owns a registry and the collectors registered on it
// a nil *Metrics is valid and records nothing
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	StageDuration     *prometheus.HistogramVec
	RowsLoaded        prometheus.Counter
	RowsDropped       prometheus.Counter
	ForecastLabels    *prometheus.CounterVec
	ForecastFailures  *prometheus.CounterVec
	DatasetsResident  prometheus.Gauge
	DatasetsEvicted   *prometheus.CounterVec
	SourceBreakerOpen *prometheus.GaugeVec
}

// New builds a fresh registry with go and process collectors plus the crimedash collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crimedash_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crimedash_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crimedash_pipeline_stage_duration_seconds",
			Help:    "Duration of load, aggregate, forecast and summary stages",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		RowsLoaded: f.NewCounter(prometheus.CounterOpts{
			Name: "crimedash_rows_loaded_total",
			Help: "Records produced by the loader",
		}),
		RowsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "crimedash_rows_dropped_total",
			Help: "Rows excluded under the drop policy",
		}),
		ForecastLabels: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crimedash_forecast_confidence_total",
			Help: "Forecasts produced by confidence label",
		}, []string{"label"}),
		ForecastFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crimedash_forecast_failures_total",
			Help: "Per key forecast failures by error code",
		}, []string{"code"}),
		DatasetsResident: f.NewGauge(prometheus.GaugeOpts{
			Name: "crimedash_datasets_resident",
			Help: "Dataset sessions held in memory",
		}),
		DatasetsEvicted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crimedash_datasets_evicted_total",
			Help: "Dataset sessions removed by reason",
		}, []string{"reason"}),
		SourceBreakerOpen: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crimedash_source_breaker_open",
			Help: "1 while the remote source circuit breaker is open",
		}, []string{"name"}),
	}
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveRequest records one finished http request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveStage records the time since start for a pipeline stage
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// ObserveLoad records loader row counts
func (m *Metrics) ObserveLoad(loaded, dropped int) {
	if m == nil {
		return
	}
	m.RowsLoaded.Add(float64(loaded))
	m.RowsDropped.Add(float64(dropped))
}

// ObserveForecast counts one forecast by its confidence label
func (m *Metrics) ObserveForecast(label string) {
	if m == nil {
		return
	}
	m.ForecastLabels.WithLabelValues(label).Inc()
}

// ObserveForecastFailure counts one per key failure by error code name
func (m *Metrics) ObserveForecastFailure(code string) {
	if m == nil {
		return
	}
	m.ForecastFailures.WithLabelValues(code).Inc()
}

// SetDatasets sets the resident session gauge
func (m *Metrics) SetDatasets(n int) {
	if m == nil {
		return
	}
	m.DatasetsResident.Set(float64(n))
}

// ObserveEviction counts one removed session, reason is expired, capacity or deleted
func (m *Metrics) ObserveEviction(reason string) {
	if m == nil {
		return
	}
	m.DatasetsEvicted.WithLabelValues(reason).Inc()
}

// SetBreakerOpen flags a named breaker as open or closed
func (m *Metrics) SetBreakerOpen(name string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.SourceBreakerOpen.WithLabelValues(name).Set(v)
}
