package governance

import (
	"time"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(DefaultRules(), FixedClock(testNow))
}

func timePtr(t time.Time) *time.Time { return &t }

// scenarioPurchaseOrder is above the bureau threshold and over the remaining
// project budget, otherwise clean.
func scenarioPurchaseOrder() *domain.Document {
	return &domain.Document{
		ID:          "po-1",
		Kind:        domain.KindPurchaseOrder,
		Reference:   "BC-2026-001",
		Amounts:     domain.Amounts{HT: 12_711_864, VAT: 2_288_136, TTC: 15_000_000, Currency: "XOF"},
		Supplier:    &domain.Supplier{ID: "sup-1", Name: "Sahel BTP", OrderHistory: 12, Rating: 4.2},
		Project:     &domain.Project{ID: "prj-1", Budget: 20_000_000, Committed: 15_000_000},
		Bureau:      "BA",
		EmittedAt:   testNow.AddDate(0, 0, -3),
		DeadlineAt:  timePtr(testNow.AddDate(0, 1, 0)),
		Attachments: []string{"quote"},
		Status:      domain.StatusPendingReview,

		PurchaseOrder: &domain.PurchaseOrderDetails{DeliveryAddress: "site A"},
	}
}

func overdueInvoice() *domain.Document {
	return &domain.Document{
		ID:          "inv-1",
		Kind:        domain.KindInvoice,
		Amounts:     domain.Amounts{HT: 1_000_000, VAT: 180_000, TTC: 1_180_000},
		Supplier:    &domain.Supplier{ID: "sup-1", OrderHistory: 4, Rating: 4},
		Project:     &domain.Project{ID: "prj-1", Budget: 50_000_000, Committed: 10_000_000},
		EmittedAt:   testNow.AddDate(0, -2, 0),
		DeadlineAt:  timePtr(testNow.AddDate(0, 0, -10)),
		Attachments: []string{"invoice_scan", "delivery_note"},
		Status:      domain.StatusPendingReview,

		Invoice: &domain.InvoiceDetails{PurchaseOrderRef: "BC-2026-001"},
	}
}

func costlyAmendment() *domain.Document {
	return &domain.Document{
		ID:          "am-1",
		Kind:        domain.KindAmendment,
		Amounts:     domain.Amounts{HT: 6_000_000, VAT: 0, TTC: 6_000_000},
		Supplier:    &domain.Supplier{ID: "sup-2", OrderHistory: 3, Rating: 3.5},
		Project:     &domain.Project{ID: "prj-2", Budget: 100_000_000, Committed: 20_000_000},
		EmittedAt:   testNow.AddDate(0, 0, -1),
		Attachments: []string{"amendment_draft"},
		Status:      domain.StatusPendingReview,

		Amendment: &domain.AmendmentDetails{
			ContractRef:     "CT-9",
			FinancialImpact: 8_000_000,
			Justification:   "additional earthworks",
		},
	}
}
