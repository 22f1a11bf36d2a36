package governance

import "github.com/kirillkom/doc-governance/internal/core/domain"

// Rules holds every threshold the engine consults. A zero Rules is not
// usable; start from DefaultRules.
type Rules struct {
	BureauThreshold          int64
	FinancialImpactThreshold int64
	ScheduleImpactDays       int
	DeadlineImminentDays     int
	DueSoonDays              int
	MinSupplierRating        float64
	BlockingScore            int

	RequiredAttachments map[domain.DocumentKind][]string
	StrategicReasons    []string
	CustomEscalations   []CELRule
}

// CELRule is an escalation reason declared as a CEL expression over the
// document view (see documentView).
type CELRule struct {
	Code       string
	Expression string
}

func DefaultRules() Rules {
	return Rules{
		BureauThreshold:          10_000_000,
		FinancialImpactThreshold: 5_000_000,
		ScheduleImpactDays:       30,
		DeadlineImminentDays:     0,
		DueSoonDays:              5,
		MinSupplierRating:        2.5,
		BlockingScore:            40,
		RequiredAttachments: map[domain.DocumentKind][]string{
			domain.KindPurchaseOrder: {"quote"},
			domain.KindInvoice:       {"invoice_scan", "delivery_note"},
			domain.KindAmendment:     {"amendment_draft"},
		},
		StrategicReasons: []string{ReasonStrategicDecision, ReasonHighFinancialImpact},
	}
}

func (r Rules) isStrategic(code string) bool {
	for _, s := range r.StrategicReasons {
		if s == code {
			return true
		}
	}
	return false
}
