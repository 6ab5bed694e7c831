package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics counts retries and tracks breaker state for calls to the
// analysis backend, the model server and the broker.
type UpstreamMetrics struct {
	service string

	retries *prometheus.CounterVec
	circuit *prometheus.GaugeVec
}

func NewUpstreamMetrics(service string, registerer prometheus.Registerer) *UpstreamMetrics {
	retries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Retried upstream calls by operation.",
		},
		[]string{"service", "operation"},
	)
	circuit := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "circuit_state",
			Help:      "Breaker state by operation: 0 closed, 1 half-open, 2 open.",
		},
		[]string{"service", "operation"},
	)
	if registerer != nil {
		registerer.MustRegister(retries, circuit)
	}
	return &UpstreamMetrics{service: service, retries: retries, circuit: circuit}
}

func (m *UpstreamMetrics) ObserveRetry(operation string) {
	m.retries.WithLabelValues(m.service, labelOrUnknown(operation)).Inc()
}

func (m *UpstreamMetrics) ObserveBreakerState(operation, state string) {
	var value float64
	switch state {
	case "half-open":
		value = 1
	case "open":
		value = 2
	}
	m.circuit.WithLabelValues(m.service, labelOrUnknown(operation)).Set(value)
}
