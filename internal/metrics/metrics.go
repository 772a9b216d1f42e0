package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Update metrics
var (
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unibans_updates_total",
		Help: "Total number of Telegram updates processed",
	}, []string{"kind"})

	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unibans_commands_total",
		Help: "Total number of commands dispatched",
	}, []string{"command"})

	HandlerErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unibans_handler_errors_total",
		Help: "Total number of update handlers that returned an error",
	})
)

// Reconciliation metrics
var (
	ReconcilePassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unibans_reconcile_passes_total",
		Help: "Total number of reconciliation passes",
	}, []string{"pass", "outcome"})

	ReconcileActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unibans_reconcile_actions_total",
		Help: "Total number of ban and unban actions issued by reconciliation",
	}, []string{"kind", "outcome"})
)

// Record store metrics
var (
	StoreRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unibans_store_requests_total",
		Help: "Total number of record store requests",
	}, []string{"collection", "method", "code"})

	GuildsCached = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "unibans_guilds_cached",
		Help: "Number of guild records in the local cache",
	})
)

// NewServer serves the default registry on addr at /metrics
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
