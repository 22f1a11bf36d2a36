package governance

import (
	"fmt"
	"strings"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

var reasonPhrases = map[string]string{
	ReasonAmountHigh:          "the amount exceeds the bureau threshold",
	ReasonUnusualSupplier:     "the supplier has no order history",
	ReasonDeadlineImminent:    "the payment deadline has passed or is imminent",
	ReasonHighFinancialImpact: "the amendment has a high financial impact",
	ReasonScheduleImpact:      "the amendment delays the schedule significantly",
	ReasonStrategicDecision:   "the project is flagged as strategic",
}

// Recommend derives the advisory decision. Reject is never suggested. When
// report is nil the document is audited on the fly.
func (e *Engine) Recommend(doc *domain.Document, report *domain.AuditReport) domain.Recommendation {
	if report == nil {
		report = e.Audit(doc)
	}
	reasons := e.EscalationReasons(doc)

	var strategic []string
	for _, r := range reasons {
		if e.rules.isStrategic(r) {
			strategic = append(strategic, r)
		}
	}
	var completeness []domain.Anomaly
	for _, a := range report.UnresolvedAnomalies() {
		if a.Type == domain.AnomalyCompleteness {
			completeness = append(completeness, a)
		}
	}

	rec := domain.Recommendation{
		RiskLevel:         report.RiskLevel,
		EscalationReasons: reasons,
		BlockingReasons:   append([]string(nil), report.BlockingReasons...),
	}

	var b strings.Builder
	writeContext(&b, report, reasons)

	switch {
	case report.RiskLevel == domain.RiskCritical || len(strategic) > 0:
		rec.Decision = domain.DecisionEscalate
		if report.RiskLevel == domain.RiskCritical {
			fmt.Fprintf(&b, " Escalation is recommended because the risk level is critical (score %d).", report.Score)
		} else {
			fmt.Fprintf(&b, " Escalation is recommended because %s.", phraseList(strategic))
		}
	case len(completeness) > 0:
		rec.Decision = domain.DecisionRequestComplement
		fmt.Fprintf(&b, " A complement should be requested: %s.", messageList(completeness))
	case !report.Blocking && (report.RiskLevel == domain.RiskLow || report.RiskLevel == domain.RiskMedium):
		rec.Decision = domain.DecisionApprove
		b.WriteString(" No blocking anomaly remains, approval can proceed.")
	default:
		rec.Decision = domain.DecisionEscalate
		if report.Blocking {
			fmt.Fprintf(&b, " Approval is blocked: %s. Escalation is recommended.", strings.Join(report.BlockingReasons, "; "))
		} else {
			b.WriteString(" The risk level is high, a higher authority should decide.")
		}
	}
	rec.Rationale = strings.TrimSpace(b.String())
	return rec
}

func writeContext(b *strings.Builder, report *domain.AuditReport, reasons []string) {
	if len(reasons) == 0 {
		b.WriteString("The document reached the bureau without a specific escalation trigger.")
	} else {
		fmt.Fprintf(b, "The document reached the bureau because %s.", phraseList(reasons))
	}

	failed := make([]string, 0, len(report.Checks))
	for _, c := range report.Checks {
		if !c.Passed {
			failed = append(failed, strings.ToLower(c.Label))
		}
	}
	fmt.Fprintf(b, " Audit score is %d/100 (%s risk)", report.Score, report.RiskLevel)
	if len(failed) > 0 {
		fmt.Fprintf(b, "; failed checks: %s.", strings.Join(failed, ", "))
	} else {
		b.WriteString("; all checks passed.")
	}
}

func phraseList(codes []string) string {
	parts := make([]string, 0, len(codes))
	for _, c := range codes {
		if p, ok := reasonPhrases[c]; ok {
			parts = append(parts, p)
			continue
		}
		parts = append(parts, "rule "+c+" matched")
	}
	return joinAnd(parts)
}

func messageList(anomalies []domain.Anomaly) string {
	parts := make([]string, 0, len(anomalies))
	for _, a := range anomalies {
		parts = append(parts, a.Message)
	}
	return strings.Join(parts, "; ")
}

func joinAnd(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}
