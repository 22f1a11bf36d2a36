package governance

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

const (
	codeMissingRequiredFields   = "missing_required_fields"
	reasonMissingRequiredFields = "missing required fields"
)

// Engine bundles the pure evaluators. It holds no mutable state; every
// method is safe for concurrent use.
type Engine struct {
	rules     Rules
	clock     Clock
	escalator *EscalationAnalyzer
}

func NewEngine(rules Rules, clock Clock, extra ...EscalationRule) *Engine {
	if clock == nil {
		clock = SystemClock
	}
	if rules.BlockingScore <= 0 {
		rules.BlockingScore = DefaultRules().BlockingScore
	}
	return &Engine{
		rules:     rules,
		clock:     clock,
		escalator: NewEscalationAnalyzer(rules).With(extra...),
	}
}

func (e *Engine) Rules() Rules { return e.rules }

func (e *Engine) Now() time.Time { return e.clock() }

// EscalationReasons explains why the document needed bureau review.
func (e *Engine) EscalationReasons(doc *domain.Document) []string {
	return e.escalator.Analyze(doc, e.clock())
}

// Audit runs the check battery and returns a fresh report. It never fails:
// documents missing required fields get the most conservative verdict.
// Resolution state is carried over from doc.AuditReport for anomalies that
// are detected again.
func (e *Engine) Audit(doc *domain.Document) *domain.AuditReport {
	now := e.clock()
	report := &domain.AuditReport{
		ID:              uuid.NewString(),
		EvaluationDay:   evaluationDay(now),
		Checks:          make([]domain.CheckResult, 0, len(checkBattery)),
		Anomalies:       make([]domain.Anomaly, 0),
		BlockingReasons: make([]string, 0),
		Recommendations: make([]domain.ReportRecommendation, 0),
		GeneratedAt:     now,
	}
	if doc != nil {
		report.DocumentID = doc.ID
	}

	if missing := missingFields(doc); len(missing) > 0 {
		return e.degraded(report, doc, missing, now)
	}
	report.Fingerprint = fingerprintOrEmpty(doc)

	previous := doc.AuditReport

	for _, c := range checkBattery {
		findings := c.Run(doc, e.rules, now)
		report.Checks = append(report.Checks, domain.CheckResult{
			ID:     c.ID,
			Label:  c.Label,
			Passed: len(findings) == 0,
		})
		for _, f := range findings {
			report.Anomalies = append(report.Anomalies, materialize(c.ID, f, previous, now))
		}
	}

	e.finalize(report)
	return report
}

// Rescore recomputes score, risk and blocking for a report whose anomaly
// resolution state changed. The input is not modified.
func (e *Engine) Rescore(report *domain.AuditReport) *domain.AuditReport {
	out := report.Clone()
	out.ID = uuid.NewString()
	out.GeneratedAt = e.clock()
	if isDegraded(out) {
		return out
	}
	e.finalize(out)
	return out
}

// IsFresh reports whether report was computed from the document's current
// auditable fields on the current evaluation day.
func (e *Engine) IsFresh(doc *domain.Document, report *domain.AuditReport) bool {
	if doc == nil || report == nil {
		return false
	}
	if report.EvaluationDay != evaluationDay(e.clock()) {
		return false
	}
	if isDegraded(report) {
		return len(missingFields(doc)) > 0
	}
	fp, err := Fingerprint(doc)
	if err != nil {
		return false
	}
	return fp == report.Fingerprint
}

func (e *Engine) finalize(report *domain.AuditReport) {
	penalty := 0
	report.BlockingReasons = make([]string, 0)
	report.Recommendations = make([]domain.ReportRecommendation, 0)
	seen := make(map[string]struct{})
	hasCritical := false
	for _, a := range report.Anomalies {
		if a.Resolved {
			continue
		}
		penalty += a.Severity.Weight()
		if a.Severity == domain.SeverityCritical {
			hasCritical = true
			report.BlockingReasons = append(report.BlockingReasons, a.Message)
		}
		if _, ok := seen[a.Code]; ok {
			continue
		}
		seen[a.Code] = struct{}{}
		if rec, ok := remediations[a.Code]; ok {
			rec.ID = "rec:" + a.Code
			report.Recommendations = append(report.Recommendations, rec)
		}
	}
	report.Score = Score(penalty)
	report.RiskLevel = RiskFromScore(report.Score)
	lowScore := report.Score < e.rules.BlockingScore
	if lowScore {
		report.BlockingReasons = append(report.BlockingReasons,
			fmt.Sprintf("risk score %d is below %d", report.Score, e.rules.BlockingScore))
	}
	report.Blocking = hasCritical || lowScore
}

func (e *Engine) degraded(report *domain.AuditReport, doc *domain.Document, missing []string, now time.Time) *domain.AuditReport {
	for _, c := range checkBattery {
		report.Checks = append(report.Checks, domain.CheckResult{ID: c.ID, Label: c.Label, Passed: false})
	}
	report.Anomalies = append(report.Anomalies, domain.Anomaly{
		ID:         "integrity:" + codeMissingRequiredFields,
		Field:      strings.Join(missing, ","),
		Type:       domain.AnomalyCompleteness,
		Code:       codeMissingRequiredFields,
		Severity:   domain.SeverityCritical,
		Message:    reasonMissingRequiredFields,
		DetectedAt: now,
	})
	report.Score = 0
	report.RiskLevel = domain.RiskCritical
	report.Blocking = true
	report.BlockingReasons = append(report.BlockingReasons, reasonMissingRequiredFields)
	rec := remediations[codeMissingRequiredFields]
	rec.ID = "rec:" + codeMissingRequiredFields
	report.Recommendations = append(report.Recommendations, rec)
	return report
}

func isDegraded(report *domain.AuditReport) bool {
	_, ok := report.FindAnomaly("integrity:" + codeMissingRequiredFields)
	return ok
}

// Score maps the summed severity weights of unresolved anomalies to [0,100].
func Score(penalty int) int {
	if penalty < 0 {
		penalty = 0
	}
	if penalty >= 100 {
		return 0
	}
	return 100 - penalty
}

func RiskFromScore(score int) domain.RiskLevel {
	switch {
	case score >= 80:
		return domain.RiskLow
	case score >= 60:
		return domain.RiskMedium
	case score >= 40:
		return domain.RiskHigh
	default:
		return domain.RiskCritical
	}
}

func materialize(checkID string, f finding, previous *domain.AuditReport, now time.Time) domain.Anomaly {
	id := checkID + ":" + f.Code
	if f.Code == "missing_attachment" {
		id += ":" + f.Field
	}
	a := domain.Anomaly{
		ID:         id,
		Field:      f.Field,
		Type:       f.Type,
		Code:       f.Code,
		Severity:   f.Severity,
		Message:    f.Message,
		DetectedAt: now,
	}
	if prior, ok := previous.FindAnomaly(id); ok {
		a.DetectedAt = prior.DetectedAt
		if prior.Resolved {
			a.Resolved = true
			a.ResolvedAt = prior.ResolvedAt
			a.ResolvedBy = prior.ResolvedBy
		}
	}
	return a
}

// missingFields lists what prevents the checks from running at all.
func missingFields(doc *domain.Document) []string {
	if doc == nil {
		return []string{"document"}
	}
	var missing []string
	if strings.TrimSpace(doc.ID) == "" {
		missing = append(missing, "id")
	}
	switch doc.Kind {
	case domain.KindPurchaseOrder:
		if doc.PurchaseOrder == nil {
			missing = append(missing, "purchase_order")
		}
	case domain.KindInvoice:
		if doc.Invoice == nil {
			missing = append(missing, "invoice")
		}
	case domain.KindAmendment:
		if doc.Amendment == nil {
			missing = append(missing, "amendment")
		}
	default:
		missing = append(missing, "kind")
	}
	if doc.Amounts.TTC <= 0 || doc.Amounts.HT < 0 || doc.Amounts.VAT < 0 {
		missing = append(missing, "amounts")
	}
	if doc.Supplier == nil || strings.TrimSpace(doc.Supplier.ID) == "" {
		missing = append(missing, "supplier")
	} else if r := doc.Supplier.Rating; math.IsNaN(r) || math.IsInf(r, 0) || r < 0 || r > 5 || doc.Supplier.OrderHistory < 0 {
		missing = append(missing, "supplier")
	}
	if doc.Project == nil || strings.TrimSpace(doc.Project.ID) == "" {
		missing = append(missing, "project")
	}
	if doc.EmittedAt.IsZero() {
		missing = append(missing, "emitted_at")
	}
	return missing
}
