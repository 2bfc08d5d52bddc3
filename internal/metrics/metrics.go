// Package metrics exposes Prometheus instrumentation for analyses, the
// assistant bridge and the HTTP API.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the application
type Registry struct {
	// Analysis Metrics
	AnalysesTotal       *prometheus.CounterVec
	AnalysisDuration    prometheus.Histogram
	VlansAnalyzed       prometheus.Counter
	UnhealthyVlansTotal prometheus.Counter
	IslandsDetected     prometheus.Counter
	ComponentsPerVlan   prometheus.Histogram
	LastUnhealthyVlans  prometheus.Gauge

	// Assistant Metrics
	AssistantRequestsTotal   *prometheus.CounterVec
	AssistantRequestDuration prometheus.Histogram

	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initAnalysisMetrics()
	r.initAssistantMetrics()
	r.initHTTPMetrics()

	return r
}

func (r *Registry) initAnalysisMetrics() {
	r.AnalysesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "vlanislands_analyses_total",
			Help: "Total number of topology analyses by outcome",
		},
		[]string{"status"},
	)

	r.AnalysisDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vlanislands_analysis_duration_seconds",
			Help:    "Time from parsed input to finished report",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	r.VlansAnalyzed = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "vlanislands_vlans_analyzed_total",
			Help: "Total number of VLANs analyzed",
		},
	)

	r.UnhealthyVlansTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "vlanislands_unhealthy_vlans_total",
			Help: "Total number of fragmented VLANs found",
		},
	)

	r.IslandsDetected = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "vlanislands_islands_total",
			Help: "Total number of islands found outside main segments",
		},
	)

	r.ComponentsPerVlan = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vlanislands_components_per_vlan",
			Help:    "Connected components per analyzed VLAN",
			Buckets: []float64{1, 2, 3, 5, 10, 25, 100},
		},
	)

	r.LastUnhealthyVlans = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "vlanislands_last_unhealthy_vlans",
			Help: "Unhealthy VLAN count of the most recent analysis",
		},
	)
}

func (r *Registry) initAssistantMetrics() {
	r.AssistantRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "vlanislands_assistant_requests_total",
			Help: "Total number of assistant questions by outcome",
		},
		[]string{"outcome"},
	)

	r.AssistantRequestDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vlanislands_assistant_request_duration_seconds",
			Help:    "Assistant round-trip duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "vlanislands_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vlanislands_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordAnalysis records one finished analysis. componentCounts holds the
// component count of each analyzed VLAN.
func (r *Registry) RecordAnalysis(duration time.Duration, componentCounts []int, unhealthy, islands int) {
	r.AnalysesTotal.WithLabelValues("success").Inc()
	r.AnalysisDuration.Observe(duration.Seconds())
	r.VlansAnalyzed.Add(float64(len(componentCounts)))
	for _, c := range componentCounts {
		r.ComponentsPerVlan.Observe(float64(c))
	}
	r.UnhealthyVlansTotal.Add(float64(unhealthy))
	r.IslandsDetected.Add(float64(islands))
	r.LastUnhealthyVlans.Set(float64(unhealthy))
}

// RecordAnalysisFailure counts an analysis rejected before a report was built
func (r *Registry) RecordAnalysisFailure(status string) {
	r.AnalysesTotal.WithLabelValues(status).Inc()
}

// RecordAssistantRequest records an assistant round trip
func (r *Registry) RecordAssistantRequest(outcome string, duration time.Duration) {
	r.AssistantRequestsTotal.WithLabelValues(outcome).Inc()
	r.AssistantRequestDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
