package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PublisherMetrics is the agent's own observability: how the publishing loop
// is doing, exposed on the debug /metrics endpoint. These are prometheus
// series about the agent, not the cluster measurements it forwards.
type PublisherMetrics struct {
	Cycles                prometheus.Counter
	CycleErrors           *prometheus.CounterVec
	CycleDuration         prometheus.Histogram
	MeasurementsPublished prometheus.Counter
	LastCycleMeasurements prometheus.Gauge
}

// NewPublisherMetrics creates and registers the publisher self-metrics.
func NewPublisherMetrics(reg Registers) *PublisherMetrics {
	m := &PublisherMetrics{
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agent_publish_cycles_total",
			Help: "Completed collect-transform-publish cycles.",
		}),
		CycleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_publish_cycle_errors_total",
			Help: "Failed cycles by stage (collect or publish).",
		}, []string{"stage"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agent_publish_cycle_duration_seconds",
			Help:    "Wall time of one publish cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		MeasurementsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agent_measurements_published_total",
			Help: "Measurements accepted by the sink.",
		}),
		LastCycleMeasurements: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agent_last_cycle_measurements",
			Help: "Measurements published by the most recent cycle.",
		}),
	}
	reg.MustRegister(m.Cycles, m.CycleErrors, m.CycleDuration, m.MeasurementsPublished, m.LastCycleMeasurements)
	return m
}
