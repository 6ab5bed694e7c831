package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/ports"
)

const namespace = "scout"

// ViewMetrics records view controller activity. It implements
// ports.ViewObserver and is shared by every controller of a process.
type ViewMetrics struct {
	service string

	transitions      *prometheus.CounterVec
	analysisTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	ingestTotal      *prometheus.CounterVec
	chatTotal        *prometheus.CounterVec
}

func NewViewMetrics(service string, registerer prometheus.Registerer) *ViewMetrics {
	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "transitions_total",
			Help:      "View state transitions.",
		},
		[]string{"service", "from", "to"},
	)
	analysisTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Settled analysis launches by status.",
		},
		[]string{"service", "status"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis duration from launch to settle.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 90, 120, 180},
		},
		[]string{"service", "status"},
	)
	ingestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "files_total",
			Help:      "File ingestions by status.",
		},
		[]string{"service", "status"},
	)
	chatTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "replies_total",
			Help:      "Chat replies by status.",
		},
		[]string{"service", "status"},
	)

	if registerer != nil {
		registerer.MustRegister(transitions, analysisTotal, analysisDuration, ingestTotal, chatTotal)
	}

	return &ViewMetrics{
		service:          service,
		transitions:      transitions,
		analysisTotal:    analysisTotal,
		analysisDuration: analysisDuration,
		ingestTotal:      ingestTotal,
		chatTotal:        chatTotal,
	}
}

func (m *ViewMetrics) ObserveTransition(from, to domain.ViewState) {
	m.transitions.WithLabelValues(m.service, from.String(), to.String()).Inc()
}

func (m *ViewMetrics) ObserveAnalysis(status domain.EvaluationStatus, duration time.Duration) {
	m.analysisTotal.WithLabelValues(m.service, string(status)).Inc()
	if duration > 0 {
		m.analysisDuration.WithLabelValues(m.service, string(status)).Observe(duration.Seconds())
	}
}

func (m *ViewMetrics) ObserveIngest(status string) {
	m.ingestTotal.WithLabelValues(m.service, labelOrUnknown(status)).Inc()
}

func (m *ViewMetrics) ObserveChat(status string) {
	m.chatTotal.WithLabelValues(m.service, labelOrUnknown(status)).Inc()
}

func labelOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

var _ ports.ViewObserver = (*ViewMetrics)(nil)
