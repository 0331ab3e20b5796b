package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the process-wide Prometheus registry and the instruments
// handed out to subsystems. Construct once in New and inject; never a
// package-level default registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec

	WSAccepted prometheus.Counter
	WSActive   prometheus.Gauge

	FeedEvents *prometheus.CounterVec

	// LegacyMigrations counts lazy plaintext-to-bcrypt credential upgrades.
	// When this stops moving, the legacy path is exhausted.
	LegacyMigrations prometheus.Counter
}

// NewMetrics builds the registry and all instruments.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opsboard_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		WSAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opsboard_ws_connections_total",
			Help: "Accepted websocket connections.",
		}),
		WSActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "opsboard_ws_active_connections",
			Help: "Currently open websocket connections.",
		}),
		FeedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opsboard_changefeed_events_total",
			Help: "Change-feed events broadcast by type.",
		}, []string{"type"}),
		LegacyMigrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opsboard_legacy_credential_migrations_total",
			Help: "Plaintext credentials upgraded to bcrypt at login.",
		}),
	}

	reg.MustRegister(m.HTTPRequests, m.WSAccepted, m.WSActive, m.FeedEvents, m.LegacyMigrations)
	return m
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
