package services

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/syncresult"
)

// Trigger sources used as the "source" label.
const (
	SourceScheduler = "scheduler"
	SourceManual    = "manual"
	SourceCLI       = "cli"
)

type SyncMetrics struct {
	requests    *prometheus.CounterVec
	success     *prometheus.CounterVec
	failure     *prometheus.CounterVec
	errors      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	entities    *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	factory := promauto.With(reg)
	return &SyncMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "provider_sync",
			Name:      "requests_total",
			Help:      "Reconciliation runs requested.",
		}, []string{"source"}),
		success: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "provider_sync",
			Name:      "success_total",
			Help:      "Runs that finished without entity errors.",
		}, []string{"source"}),
		failure: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "provider_sync",
			Name:      "failure_total",
			Help:      "Runs that failed or finished with entity errors.",
		}, []string{"source"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "provider_sync",
			Name:      "errors_total",
			Help:      "Errors reported by runs.",
		}, []string{"source"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "provider_sync",
			Name:      "duration_seconds",
			Help:      "Wall time of a run including lane wait.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"source"}),
		entities: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "provider_sync",
			Name:      "entities_total",
			Help:      "Firms and offices touched by runs, by action.",
		}, []string{"source", "entity", "action"}),
		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "provider_sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run without errors.",
		}, []string{"source"}),
	}
}

var defaultSyncMetrics = sync.OnceValue(func() *SyncMetrics {
	return NewSyncMetrics(prometheus.DefaultRegisterer)
})

func DefaultSyncMetrics() *SyncMetrics {
	return defaultSyncMetrics()
}

func (m *SyncMetrics) Requested(source string) {
	m.requests.WithLabelValues(source).Inc()
}

// Observe records the outcome of one run. A non-nil err counts as a single
// failure with a single error regardless of res.
func (m *SyncMetrics) Observe(source string, res *syncresult.Result, err error, elapsed time.Duration) {
	m.duration.WithLabelValues(source).Observe(elapsed.Seconds())
	if err != nil || res == nil {
		m.failure.WithLabelValues(source).Inc()
		m.errors.WithLabelValues(source).Inc()
		return
	}

	if res.HasErrors() {
		m.failure.WithLabelValues(source).Inc()
		m.errors.WithLabelValues(source).Add(float64(len(res.Errors)))
	} else {
		m.success.WithLabelValues(source).Inc()
		m.lastSuccess.WithLabelValues(source).SetToCurrentTime()
	}

	for _, c := range []struct {
		entity, action string
		n              int
	}{
		{"firm", "created", res.FirmsCreated},
		{"firm", "updated", res.FirmsUpdated},
		{"firm", "reactivated", res.FirmsReactivated},
		{"firm", "deactivated", res.FirmsDeactivated},
		{"office", "created", res.OfficesCreated},
		{"office", "updated", res.OfficesUpdated},
		{"office", "reactivated", res.OfficesReactivated},
		{"office", "deactivated", res.OfficesDeactivated},
	} {
		m.entities.WithLabelValues(source, c.entity, c.action).Add(float64(c.n))
	}
}
