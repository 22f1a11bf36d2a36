package domain

import "time"

type DocumentKind string

const (
	KindPurchaseOrder DocumentKind = "purchase_order"
	KindInvoice       DocumentKind = "invoice"
	KindAmendment     DocumentKind = "amendment"
)

func (k DocumentKind) Valid() bool {
	switch k {
	case KindPurchaseOrder, KindInvoice, KindAmendment:
		return true
	default:
		return false
	}
}

// Amounts are expressed in whole currency units.
type Amounts struct {
	HT       int64  `json:"ht"`
	VAT      int64  `json:"vat"`
	TTC      int64  `json:"ttc"`
	Currency string `json:"currency,omitempty"`
}

type Supplier struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	OrderHistory int     `json:"order_history"`
	Rating       float64 `json:"rating"`
	Blacklisted  bool    `json:"blacklisted,omitempty"`
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Budget    int64  `json:"budget"`
	Committed int64  `json:"committed"`
	Strategic bool   `json:"strategic,omitempty"`
}

func (p Project) RemainingBudget() int64 {
	return p.Budget - p.Committed
}

type PurchaseOrderDetails struct {
	DeliveryAddress string `json:"delivery_address,omitempty"`
}

type InvoiceDetails struct {
	PurchaseOrderRef string `json:"purchase_order_ref,omitempty"`
}

type AmendmentDetails struct {
	ContractRef     string `json:"contract_ref,omitempty"`
	FinancialImpact int64  `json:"financial_impact"`
	DelayDays       int    `json:"delay_days,omitempty"`
	Justification   string `json:"justification,omitempty"`
}

// Document is a tagged union over purchase orders, invoices and amendments:
// Kind selects which one of the detail blocks is populated.
type Document struct {
	ID          string       `json:"id"`
	Kind        DocumentKind `json:"kind"`
	Reference   string       `json:"reference,omitempty"`
	Amounts     Amounts      `json:"amounts"`
	Supplier    *Supplier    `json:"supplier,omitempty"`
	Project     *Project     `json:"project,omitempty"`
	Bureau      string       `json:"bureau,omitempty"`
	EmittedAt   time.Time    `json:"emitted_at"`
	DeadlineAt  *time.Time   `json:"deadline_at,omitempty"`
	Attachments []string     `json:"attachments,omitempty"`
	Status      Status       `json:"status"`

	PurchaseOrder *PurchaseOrderDetails `json:"purchase_order,omitempty"`
	Invoice       *InvoiceDetails       `json:"invoice,omitempty"`
	Amendment     *AmendmentDetails     `json:"amendment,omitempty"`

	AuditReport *AuditReport `json:"audit_report,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Document) HasAttachment(kind string) bool {
	for _, a := range d.Attachments {
		if a == kind {
			return true
		}
	}
	return false
}

// Clone returns a deep enough copy for the engine to mutate status and report
// without touching the caller's value.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	if d.Supplier != nil {
		s := *d.Supplier
		out.Supplier = &s
	}
	if d.Project != nil {
		p := *d.Project
		out.Project = &p
	}
	if d.DeadlineAt != nil {
		t := *d.DeadlineAt
		out.DeadlineAt = &t
	}
	if d.Attachments != nil {
		out.Attachments = append([]string(nil), d.Attachments...)
	}
	if d.PurchaseOrder != nil {
		po := *d.PurchaseOrder
		out.PurchaseOrder = &po
	}
	if d.Invoice != nil {
		inv := *d.Invoice
		out.Invoice = &inv
	}
	if d.Amendment != nil {
		am := *d.Amendment
		out.Amendment = &am
	}
	out.AuditReport = d.AuditReport.Clone()
	return &out
}
