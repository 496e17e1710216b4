package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers in one
// process never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	ProxyRequests    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	LLMCalls         *prometheus.CounterVec
	QueryIntents     *prometheus.CounterVec
	EventsConsumed   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ProxyRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_proxy_requests_total",
				Help: "Commerce proxy requests by method and response status",
			},
			[]string{"method", "status"},
		),
		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpulse_upstream_duration_seconds",
				Help:    "Latency of calls to commerce platforms",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"platform"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_cache_hits_total",
				Help: "Snapshot cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_cache_misses_total",
				Help: "Snapshot cache misses",
			},
			[]string{"cache_type"},
		),
		LLMCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_llm_calls_total",
				Help: "LLM completions by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		QueryIntents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_query_intents_total",
				Help: "Classified inventory questions by intent",
			},
			[]string{"intent"},
		),
		EventsConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_events_consumed_total",
				Help: "Inventory events processed by the worker",
			},
			[]string{"topic", "status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ProxyRequests,
		m.UpstreamDuration,
		m.CacheHits,
		m.CacheMisses,
		m.LLMCalls,
		m.QueryIntents,
		m.EventsConsumed,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
