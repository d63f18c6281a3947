package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolve outcomes.
const (
	OutcomeResolved  = "resolved"
	OutcomeNotFound  = "not_found"
	OutcomeNotLoaded = "not_loaded"
)

var (
	ResolveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votermap_resolve_total",
		Help: "District lookups by chamber and outcome",
	}, []string{"chamber", "outcome"})
	TableLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votermap_table_loads_total",
		Help: "Table load attempts by table and status",
	}, []string{"table", "status"})
	TableLoadDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "votermap_table_load_duration_ms",
		Help:    "Table fetch + index duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"table"})
	TableRecords = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "votermap_table_records",
		Help: "Indexed records per table after the last successful load",
	}, []string{"table"})
	PopupCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votermap_popup_cache_hits_total",
		Help: "Rendered popups served from redis",
	})
	PopupCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votermap_popup_cache_misses_total",
		Help: "Popups rendered because redis had no entry",
	})
)

func init() {
	prometheus.MustRegister(ResolveTotal)
	prometheus.MustRegister(TableLoadsTotal)
	prometheus.MustRegister(TableLoadDurationMs)
	prometheus.MustRegister(TableRecords)
	prometheus.MustRegister(PopupCacheHitsTotal)
	prometheus.MustRegister(PopupCacheMissesTotal)
}

// Handler exposes every registered metric for /metrics.
func Handler() http.Handler { return promhttp.Handler() }
