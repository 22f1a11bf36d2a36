package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

// GovernanceMetrics implements ports.EngineObserver.
type GovernanceMetrics struct {
	service string

	auditsTotal    *prometheus.CounterVec
	auditScore     *prometheus.HistogramVec
	anomaliesTotal *prometheus.CounterVec
	decisionsTotal *prometheus.CounterVec
	breakerState   *prometheus.GaugeVec
}

func NewGovernanceMetrics(registry *prometheus.Registry, service string) *GovernanceMetrics {
	auditsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "runs_total",
			Help:      "Audit reports produced by risk level and blocking verdict.",
		},
		[]string{"service", "risk_level", "blocking"},
	)
	auditScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "score",
			Help:      "Distribution of audit risk scores.",
			Buckets:   []float64{0, 20, 40, 60, 80, 90, 100},
		},
		[]string{"service"},
	)
	anomaliesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "anomalies_total",
			Help:      "Unresolved anomalies reported by severity.",
		},
		[]string{"service", "severity"},
	)
	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "decisions_total",
			Help:      "Decisions by kind and outcome (applied, replayed, blocked, rejected).",
		},
		[]string{"service", "decision", "outcome"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "breaker_open",
			Help:      "1 while the publish circuit breaker for an operation is not closed.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(auditsTotal, auditScore, anomaliesTotal, decisionsTotal, breakerState)

	return &GovernanceMetrics{
		service:        service,
		auditsTotal:    auditsTotal,
		auditScore:     auditScore,
		anomaliesTotal: anomaliesTotal,
		decisionsTotal: decisionsTotal,
		breakerState:   breakerState,
	}
}

func (m *GovernanceMetrics) ObserveAudit(report *domain.AuditReport) {
	if report == nil {
		return
	}
	m.auditsTotal.WithLabelValues(m.service, string(report.RiskLevel), strconv.FormatBool(report.Blocking)).Inc()
	m.auditScore.WithLabelValues(m.service).Observe(float64(report.Score))
	for _, a := range report.UnresolvedAnomalies() {
		m.anomaliesTotal.WithLabelValues(m.service, string(a.Severity)).Inc()
	}
}

func (m *GovernanceMetrics) ObserveDecision(decision domain.Decision, outcome string) {
	d := string(decision)
	if !decision.Valid() {
		d = "unknown"
	}
	m.decisionsTotal.WithLabelValues(m.service, d, outcome).Inc()
}

// ObserveBreaker records whether the breaker of operation is closed.
func (m *GovernanceMetrics) ObserveBreaker(operation string, closed bool) {
	v := 1.0
	if closed {
		v = 0
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(v)
}
