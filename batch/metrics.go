package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts batch evaluations. A nil *Metrics records nothing.
type Metrics struct {
	Contracts *prometheus.CounterVec
	Events    *prometheus.CounterVec
	Duration  prometheus.Histogram
}

// NewMetrics registers the batch collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Contracts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "actus",
				Subsystem: "batch",
				Name:      "contracts_total",
				Help:      "Contracts evaluated, by outcome",
			},
			[]string{"status"},
		),
		Events: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "actus",
				Subsystem: "batch",
				Name:      "events_total",
				Help:      "Events applied, by event type",
			},
			[]string{"type"},
		),
		Duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "actus",
				Subsystem: "batch",
				Name:      "contract_duration_seconds",
				Help:      "Time spent evaluating one contract",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
	}
}

func (m *Metrics) observe(r Result) {
	if m == nil {
		return
	}
	m.Duration.Observe(r.Duration.Seconds())
	if r.Err != nil {
		m.Contracts.WithLabelValues("failed").Inc()
		return
	}
	m.Contracts.WithLabelValues("ok").Inc()
	for _, ev := range r.Events {
		m.Events.WithLabelValues(string(ev.Type)).Inc()
	}
}
