// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Journal metrics
	TradesCreated prometheus.Counter
	TradesClosed  prometheus.Counter
	TradesDeleted prometheus.Counter

	// Quote metrics
	QuoteFetchesTotal *prometheus.CounterVec
	QuoteFetchErrors  *prometheus.CounterVec
	QuoteCacheHits    prometheus.Counter
	QuoteCacheMisses  prometheus.Counter

	// Session metrics
	ActiveWSClients prometheus.Gauge
	SessionsIssued  *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trade_journal"
	}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		TradesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "trades_created_total",
			Help:      "Total number of trades created",
		}),
		TradesClosed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "trades_closed_total",
			Help:      "Total number of trades closed",
		}),
		TradesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "trades_deleted_total",
			Help:      "Total number of trades deleted",
		}),

		QuoteFetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quotes",
			Name:      "fetches_total",
			Help:      "Total number of upstream quote fetches by provider",
		}, []string{"provider"}),
		QuoteFetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quotes",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed upstream quote fetches by provider",
		}, []string{"provider"}),
		QuoteCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quotes",
			Name:      "cache_hits_total",
			Help:      "Total number of quote cache hits",
		}),
		QuoteCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quotes",
			Name:      "cache_misses_total",
			Help:      "Total number of quote cache misses",
		}),

		ActiveWSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "active_clients",
			Help:      "Number of connected websocket quote subscribers",
		}),
		SessionsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "sessions_issued_total",
			Help:      "Total number of sessions issued by scope",
		}, []string{"scope"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
