// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus collectors shared across packages.
type Metrics struct {
	registry *prometheus.Registry

	FXCacheHits      prometheus.Counter
	FXCacheMisses    prometheus.Counter
	FXStoreHits      prometheus.Counter
	FXProviderCalls  prometheus.Counter
	FXProviderErrors prometheus.Counter
	FXCatalogFailed  prometheus.Counter

	CommandsTotal *prometheus.CounterVec
	AlertsTotal   *prometheus.CounterVec
}

// New creates a Metrics instance backed by a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FXCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "budgetbot_fx_cache_hits_total",
			Help: "FX rate lookups served from the in-memory cache",
		}),
		FXCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "budgetbot_fx_cache_misses_total",
			Help: "FX rate lookups that missed the in-memory cache",
		}),
		FXStoreHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "budgetbot_fx_store_hits_total",
			Help: "FX rate lookups served from the persistent store",
		}),
		FXProviderCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "budgetbot_fx_provider_calls_total",
			Help: "Calls made to the external rate provider",
		}),
		FXProviderErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "budgetbot_fx_provider_errors_total",
			Help: "Failed calls to the external rate provider",
		}),
		FXCatalogFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "budgetbot_fx_catalog_fetch_failures_total",
			Help: "Failed currency catalog fetches (fail-open)",
		}),

		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "budgetbot_commands_total",
			Help: "Bot commands processed, by command name and result",
		}, []string{"command", "result"}),
		AlertsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "budgetbot_alerts_total",
			Help: "Budget alerts fired, by kind",
		}, []string{"kind"}),
	}
}

// Handler returns an HTTP handler serving the registry in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
