package governance

import (
	"fmt"
	"time"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

const (
	CheckBudgetConformity     = "budget_conformity"
	CheckSupplierReliability  = "supplier_reliability"
	CheckDocumentCompleteness = "document_completeness"
	CheckDeadlineConformity   = "deadline_conformity"
)

// finding is one anomaly before identity and timestamps are assigned.
type finding struct {
	Field    string
	Type     domain.AnomalyType
	Code     string
	Severity domain.Severity
	Message  string
}

type check struct {
	ID    string
	Label string
	Run   func(doc *domain.Document, rules Rules, now time.Time) []finding
}

// checkBattery is the fixed, ordered rule set. Order is part of the report
// contract.
var checkBattery = []check{
	{ID: CheckBudgetConformity, Label: "Budget conformity", Run: budgetConformity},
	{ID: CheckSupplierReliability, Label: "Supplier reliability", Run: supplierReliability},
	{ID: CheckDocumentCompleteness, Label: "Document completeness", Run: documentCompleteness},
	{ID: CheckDeadlineConformity, Label: "Deadline conformity", Run: deadlineConformity},
}

func budgetConformity(doc *domain.Document, _ Rules, _ time.Time) []finding {
	var out []finding
	remaining := doc.Project.RemainingBudget()
	switch {
	case remaining <= 0:
		out = append(out, finding{
			Field:    "project.budget",
			Type:     domain.AnomalyBudget,
			Code:     "budget_exhausted",
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("project %s has no remaining budget", doc.Project.ID),
		})
	case doc.Amounts.TTC > remaining:
		out = append(out, finding{
			Field:    "amounts.ttc",
			Type:     domain.AnomalyBudget,
			Code:     "budget_overrun",
			Severity: domain.SeverityError,
			Message: fmt.Sprintf("amount %d exceeds remaining project budget %d by %d",
				doc.Amounts.TTC, remaining, doc.Amounts.TTC-remaining),
		})
	}
	if doc.Amounts.HT+doc.Amounts.VAT != doc.Amounts.TTC {
		out = append(out, finding{
			Field:    "amounts",
			Type:     domain.AnomalyBudget,
			Code:     "amount_mismatch",
			Severity: domain.SeverityWarning,
			Message: fmt.Sprintf("HT %d + VAT %d does not equal TTC %d",
				doc.Amounts.HT, doc.Amounts.VAT, doc.Amounts.TTC),
		})
	}
	return out
}

func supplierReliability(doc *domain.Document, rules Rules, _ time.Time) []finding {
	s := doc.Supplier
	if s.Blacklisted {
		return []finding{{
			Field:    "supplier.id",
			Type:     domain.AnomalySupplier,
			Code:     "supplier_blacklisted",
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("supplier %s is blacklisted", supplierLabel(s)),
		}}
	}
	var out []finding
	if s.OrderHistory > 0 && s.Rating < rules.MinSupplierRating {
		out = append(out, finding{
			Field:    "supplier.rating",
			Type:     domain.AnomalySupplier,
			Code:     "low_supplier_rating",
			Severity: domain.SeverityWarning,
			Message: fmt.Sprintf("supplier %s rating %.1f is below %.1f",
				supplierLabel(s), s.Rating, rules.MinSupplierRating),
		})
	}
	if s.OrderHistory == 0 {
		out = append(out, finding{
			Field:    "supplier.order_history",
			Type:     domain.AnomalySupplier,
			Code:     "new_supplier",
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("supplier %s has no order history", supplierLabel(s)),
		})
	}
	return out
}

func documentCompleteness(doc *domain.Document, rules Rules, _ time.Time) []finding {
	var out []finding
	for _, required := range rules.RequiredAttachments[doc.Kind] {
		if doc.HasAttachment(required) {
			continue
		}
		out = append(out, finding{
			Field:    "attachments." + required,
			Type:     domain.AnomalyCompleteness,
			Code:     "missing_attachment",
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("required attachment %s is missing", required),
		})
	}
	switch doc.Kind {
	case domain.KindInvoice:
		if doc.Invoice.PurchaseOrderRef == "" {
			out = append(out, finding{
				Field:    "invoice.purchase_order_ref",
				Type:     domain.AnomalyCompleteness,
				Code:     "missing_purchase_order_ref",
				Severity: domain.SeverityError,
				Message:  "invoice does not reference a purchase order",
			})
		}
		if doc.DeadlineAt == nil {
			out = append(out, finding{
				Field:    "deadline_at",
				Type:     domain.AnomalyCompleteness,
				Code:     "missing_due_date",
				Severity: domain.SeverityWarning,
				Message:  "invoice has no due date",
			})
		}
	case domain.KindAmendment:
		if doc.Amendment.Justification == "" {
			out = append(out, finding{
				Field:    "amendment.justification",
				Type:     domain.AnomalyCompleteness,
				Code:     "missing_justification",
				Severity: domain.SeverityError,
				Message:  "amendment has no justification",
			})
		}
	}
	return out
}

func deadlineConformity(doc *domain.Document, rules Rules, now time.Time) []finding {
	if doc.DeadlineAt == nil {
		return nil
	}
	deadline := *doc.DeadlineAt
	if startOfDay(deadline).Before(startOfDay(doc.EmittedAt)) {
		return []finding{{
			Field:    "deadline_at",
			Type:     domain.AnomalyDeadline,
			Code:     "deadline_before_emission",
			Severity: domain.SeverityError,
			Message:  "deadline precedes the emission date",
		}}
	}
	if doc.Kind != domain.KindInvoice {
		return nil
	}
	days := daysUntil(now, deadline)
	switch {
	case days < 0:
		return []finding{{
			Field:    "deadline_at",
			Type:     domain.AnomalyDeadline,
			Code:     "overdue",
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("invoice is %d days past due", -days),
		}}
	case days <= rules.DueSoonDays:
		return []finding{{
			Field:    "deadline_at",
			Type:     domain.AnomalyDeadline,
			Code:     "due_soon",
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("invoice is due in %d days", days),
		}}
	}
	return nil
}

func supplierLabel(s *domain.Supplier) string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

var remediations = map[string]domain.ReportRecommendation{
	"budget_exhausted": {
		Title:       "Secure additional budget",
		Description: "Obtain a budget revision for the project before committing further spend.",
	},
	"budget_overrun": {
		Title:       "Review budget allocation",
		Description: "Confirm funding for the overrun or reduce the committed amount.",
	},
	"amount_mismatch": {
		Title:       "Reconcile amounts",
		Description: "Ask the issuer to correct HT, VAT and TTC so they add up.",
	},
	"supplier_blacklisted": {
		Title:       "Replace supplier",
		Description: "Blacklisted suppliers cannot be contracted; select another supplier.",
	},
	"low_supplier_rating": {
		Title:       "Check supplier performance",
		Description: "Review past deliveries and consider performance guarantees.",
	},
	"new_supplier": {
		Title:       "Verify new supplier",
		Description: "Check registration, tax status and references of the supplier.",
	},
	"missing_attachment": {
		Title:       "Request missing documents",
		Description: "Ask the submitting bureau for the required supporting documents.",
	},
	"missing_purchase_order_ref": {
		Title:       "Link purchase order",
		Description: "Invoices must reference the purchase order they settle.",
	},
	"missing_due_date": {
		Title:       "Set due date",
		Description: "Record the contractual payment due date.",
	},
	"missing_justification": {
		Title:       "Provide justification",
		Description: "Amendments require a written justification of the change.",
	},
	"overdue": {
		Title:       "Settle overdue invoice",
		Description: "Prioritise the invoice and assess late payment penalties.",
	},
	"due_soon": {
		Title:       "Prioritise review",
		Description: "The invoice is close to its due date.",
	},
	"deadline_before_emission": {
		Title:       "Correct dates",
		Description: "The deadline cannot precede the emission date.",
	},
	codeMissingRequiredFields: {
		Title:       "Complete the document",
		Description: "Required fields are missing; the document cannot be assessed.",
	},
}
