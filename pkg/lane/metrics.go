package lane

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	submittedTotal *prometheus.CounterVec
	rejectedTotal  *prometheus.CounterVec
	completedTotal *prometheus.CounterVec

	queueDepth *prometheus.GaugeVec
	busy       *prometheus.GaugeVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		submittedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lane",
			Name:      "submitted_total",
			Help:      "Total number of jobs accepted by a lane.",
		}, []string{"lane"}),
		rejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lane",
			Name:      "rejected_total",
			Help:      "Total number of jobs rejected because the lane was saturated or closed.",
		}, []string{"lane", "reason"}),
		completedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lane",
			Name:      "completed_total",
			Help:      "Total number of jobs finished by a lane worker.",
		}, []string{"lane", "result"}),
		queueDepth: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lane",
			Name:      "queue_depth",
			Help:      "Jobs accepted but not yet picked up by a worker.",
		}, []string{"lane"}),
		busy: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lane",
			Name:      "busy_workers",
			Help:      "Workers currently running a job.",
		}, []string{"lane"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
