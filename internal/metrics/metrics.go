// Package metrics provides Prometheus metrics for the chat service.
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

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	TurnsTotal   *prometheus.CounterVec
	TurnDuration prometheus.Histogram

	SlotExtractionsTotal *prometheus.CounterVec

	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	StoredContexts prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tripchat_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripchat_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		TurnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tripchat_turns_total",
			Help: "Conversation turns by resulting state",
		}, []string{"state"}),

		TurnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripchat_turn_duration_seconds",
			Help:    "Duration of a conversation turn in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),

		SlotExtractionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tripchat_slot_extractions_total",
			Help: "Slot extraction strategy outcomes",
		}, []string{"slot", "strategy", "outcome"}),

		ProviderRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tripchat_provider_requests_total",
			Help: "Outbound provider calls by status",
		}, []string{"provider", "status"}),

		ProviderRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripchat_provider_request_duration_seconds",
			Help:    "Duration of outbound provider calls in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),

		StoredContexts: f.NewGauge(prometheus.GaugeOpts{
			Name: "tripchat_stored_contexts",
			Help: "Conversation contexts held in memory",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveTurn(state string, d time.Duration) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(state).Inc()
	m.TurnDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveExtraction(slot, strategy, outcome string) {
	if m == nil {
		return
	}
	m.SlotExtractionsTotal.WithLabelValues(slot, strategy, outcome).Inc()
}

func (m *Metrics) ObserveProvider(provider, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) SetStoredContexts(n int) {
	if m == nil {
		return
	}
	m.StoredContexts.Set(float64(n))
}
