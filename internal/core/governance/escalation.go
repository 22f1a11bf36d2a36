package governance

import (
	"time"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

const (
	ReasonAmountHigh          = "amount_high"
	ReasonUnusualSupplier     = "unusual_supplier"
	ReasonDeadlineImminent    = "deadline_imminent"
	ReasonHighFinancialImpact = "high_financial_impact"
	ReasonScheduleImpact      = "schedule_impact"
	ReasonStrategicDecision   = "strategic_decision"
)

// EscalationPredicate reports whether a document needs bureau review for one
// reason. Predicates must be side-effect free and tolerate partial documents.
type EscalationPredicate func(doc *domain.Document, now time.Time) bool

type EscalationRule struct {
	Code    string
	Matches EscalationPredicate
}

// EscalationAnalyzer explains why a document reached the bureau. It is
// immutable after construction and safe for concurrent use.
type EscalationAnalyzer struct {
	rules []EscalationRule
}

func NewEscalationAnalyzer(rules Rules) *EscalationAnalyzer {
	return &EscalationAnalyzer{rules: builtinEscalations(rules)}
}

// With returns a new analyzer evaluating extra rules after the existing ones.
func (a *EscalationAnalyzer) With(extra ...EscalationRule) *EscalationAnalyzer {
	rules := make([]EscalationRule, 0, len(a.rules)+len(extra))
	rules = append(rules, a.rules...)
	for _, r := range extra {
		if r.Code == "" || r.Matches == nil {
			continue
		}
		rules = append(rules, r)
	}
	return &EscalationAnalyzer{rules: rules}
}

// Analyze returns matching reason codes in registration order, without
// duplicates. A document matching nothing yields an empty, non-nil list.
func (a *EscalationAnalyzer) Analyze(doc *domain.Document, now time.Time) []string {
	reasons := make([]string, 0, 4)
	if doc == nil {
		return reasons
	}
	seen := make(map[string]struct{}, len(a.rules))
	for _, rule := range a.rules {
		if _, dup := seen[rule.Code]; dup {
			continue
		}
		if safeMatch(rule.Matches, doc, now) {
			seen[rule.Code] = struct{}{}
			reasons = append(reasons, rule.Code)
		}
	}
	return reasons
}

func safeMatch(p EscalationPredicate, doc *domain.Document, now time.Time) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()
	return p(doc, now)
}

func builtinEscalations(rules Rules) []EscalationRule {
	return []EscalationRule{
		{
			Code: ReasonAmountHigh,
			Matches: func(doc *domain.Document, _ time.Time) bool {
				return doc.Amounts.TTC > rules.BureauThreshold
			},
		},
		{
			Code: ReasonUnusualSupplier,
			Matches: func(doc *domain.Document, _ time.Time) bool {
				return doc.Supplier != nil && doc.Supplier.OrderHistory == 0
			},
		},
		{
			Code: ReasonDeadlineImminent,
			Matches: func(doc *domain.Document, now time.Time) bool {
				if doc.Kind != domain.KindInvoice || doc.DeadlineAt == nil {
					return false
				}
				return daysUntil(now, *doc.DeadlineAt) < rules.DeadlineImminentDays
			},
		},
		{
			Code: ReasonHighFinancialImpact,
			Matches: func(doc *domain.Document, _ time.Time) bool {
				return doc.Kind == domain.KindAmendment && doc.Amendment != nil &&
					doc.Amendment.FinancialImpact > rules.FinancialImpactThreshold
			},
		},
		{
			Code: ReasonScheduleImpact,
			Matches: func(doc *domain.Document, _ time.Time) bool {
				return doc.Kind == domain.KindAmendment && doc.Amendment != nil &&
					doc.Amendment.DelayDays > rules.ScheduleImpactDays
			},
		},
		{
			Code: ReasonStrategicDecision,
			Matches: func(doc *domain.Document, _ time.Time) bool {
				return doc.Project != nil && doc.Project.Strategic
			},
		},
	}
}
