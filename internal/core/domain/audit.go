package domain

import "time"

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Weight is the score penalty of one unresolved anomaly of this severity.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 40
	case SeverityError:
		return 25
	case SeverityWarning:
		return 10
	case SeverityInfo:
		return 3
	default:
		return 0
	}
}

// Rank orders severities from info (0) to critical (3).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

type AnomalyType string

const (
	AnomalyBudget       AnomalyType = "budget"
	AnomalySupplier     AnomalyType = "supplier"
	AnomalyCompleteness AnomalyType = "completeness"
	AnomalyDeadline     AnomalyType = "deadline"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type Anomaly struct {
	ID         string      `json:"id"`
	Field      string      `json:"field,omitempty"`
	Type       AnomalyType `json:"type"`
	Code       string      `json:"code"`
	Severity   Severity    `json:"severity"`
	Message    string      `json:"message"`
	DetectedAt time.Time   `json:"detected_at"`
	Resolved   bool        `json:"resolved"`
	ResolvedAt *time.Time  `json:"resolved_at,omitempty"`
	ResolvedBy string      `json:"resolved_by,omitempty"`
}

type CheckResult struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Passed bool   `json:"passed"`
}

type ReportRecommendation struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AuditReport is immutable once produced. Re-audits and resolutions replace
// the whole report.
type AuditReport struct {
	ID              string                 `json:"id"`
	DocumentID      string                 `json:"document_id"`
	Fingerprint     string                 `json:"fingerprint"`
	EvaluationDay   string                 `json:"evaluation_day"`
	Score           int                    `json:"score"`
	RiskLevel       RiskLevel              `json:"risk_level"`
	Checks          []CheckResult          `json:"checks"`
	Anomalies       []Anomaly              `json:"anomalies"`
	Blocking        bool                   `json:"blocking"`
	BlockingReasons []string               `json:"blocking_reasons"`
	Recommendations []ReportRecommendation `json:"recommendations"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

func (r *AuditReport) FindAnomaly(id string) (Anomaly, bool) {
	if r == nil {
		return Anomaly{}, false
	}
	for _, a := range r.Anomalies {
		if a.ID == id {
			return a, true
		}
	}
	return Anomaly{}, false
}

func (r *AuditReport) UnresolvedAnomalies() []Anomaly {
	if r == nil {
		return nil
	}
	out := make([]Anomaly, 0, len(r.Anomalies))
	for _, a := range r.Anomalies {
		if !a.Resolved {
			out = append(out, a)
		}
	}
	return out
}

func (r *AuditReport) Clone() *AuditReport {
	if r == nil {
		return nil
	}
	out := *r
	out.Checks = append([]CheckResult(nil), r.Checks...)
	out.Anomalies = make([]Anomaly, len(r.Anomalies))
	for i, a := range r.Anomalies {
		if a.ResolvedAt != nil {
			t := *a.ResolvedAt
			a.ResolvedAt = &t
		}
		out.Anomalies[i] = a
	}
	out.BlockingReasons = append([]string(nil), r.BlockingReasons...)
	out.Recommendations = append([]ReportRecommendation(nil), r.Recommendations...)
	return &out
}
