package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	SyncRuns        *prometheus.CounterVec
	RecordsUpserted *prometheus.CounterVec
	ParseErrors     *prometheus.CounterVec
	SyncDuration    *prometheus.HistogramVec
	SyncMode        *prometheus.GaugeVec
	LastSuccess     *prometheus.GaugeVec
	SwapsDetected   *prometheus.CounterVec
	CrewByLevel     *prometheus.GaugeVec
	ErrorsCount     *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics registered on reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SyncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "The total number of sync runs by kind and status",
		}, []string{"kind", "status"}),
		RecordsUpserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_upserted_total",
			Help:      "The total number of reconciled records by kind and outcome",
		}, []string{"kind", "outcome"}),
		ParseErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "The total number of skipped malformed records",
		}, []string{"kind"}),
		SyncDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Time taken by one sync run",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		SyncMode: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_mode",
			Help:      "1 for the current data mode, 0 otherwise",
		}, []string{"mode"}),
		LastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_sync_timestamp_seconds",
			Help:      "Unix time of the last completed sync run per kind",
		}, []string{"kind"}),
		SwapsDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swaps_detected_total",
			Help:      "The total number of aircraft swaps detected by category",
		}, []string{"category"}),
		CrewByLevel: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "crew_by_warning_level",
			Help:      "Crew members per FTL warning level at the last recompute",
		}, []string{"level"}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
