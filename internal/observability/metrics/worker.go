package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type WorkerMetrics struct {
	auditTotal    *prometheus.CounterVec
	auditDuration *prometheus.HistogramVec
	auditInFlight prometheus.Gauge
}

func NewWorkerMetrics(registry *prometheus.Registry, service string) *WorkerMetrics {
	auditTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "audit_requests_total",
			Help:      "Audit requests handled by the worker by status.",
		},
		[]string{"service", "status"},
	)
	auditDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "audit_request_duration_seconds",
			Help:      "Audit request handling duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	auditInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "audit_requests_in_flight",
			Help:      "Number of audit requests being handled.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(auditTotal, auditDuration, auditInFlight)

	return &WorkerMetrics{
		auditTotal:    auditTotal,
		auditDuration: auditDuration,
		auditInFlight: auditInFlight,
	}
}

func (m *WorkerMetrics) StartAudit() {
	m.auditInFlight.Inc()
}

// FinishAudit records one handled request. status is success, skipped or
// error.
func (m *WorkerMetrics) FinishAudit(service, status string, duration time.Duration) {
	m.auditInFlight.Dec()
	m.auditTotal.WithLabelValues(service, status).Inc()
	m.auditDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}
