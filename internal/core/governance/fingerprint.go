package governance

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

// auditableView is the subset of a document the checks read. Status,
// version, timestamps and the attached report are deliberately absent.
type auditableView struct {
	ID            string                       `json:"id"`
	Kind          domain.DocumentKind          `json:"kind"`
	Amounts       domain.Amounts               `json:"amounts"`
	Supplier      *domain.Supplier             `json:"supplier"`
	Project       *domain.Project              `json:"project"`
	Bureau        string                       `json:"bureau"`
	EmittedAt     time.Time                    `json:"emitted_at"`
	DeadlineAt    *time.Time                   `json:"deadline_at"`
	Attachments   []string                     `json:"attachments"`
	PurchaseOrder *domain.PurchaseOrderDetails `json:"purchase_order"`
	Invoice       *domain.InvoiceDetails       `json:"invoice"`
	Amendment     *domain.AmendmentDetails     `json:"amendment"`
}

// Fingerprint is the SHA-256 of the RFC 8785 canonical JSON of the
// document's auditable fields.
func Fingerprint(doc *domain.Document) (string, error) {
	if doc == nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "fingerprint", fmt.Errorf("nil document"))
	}
	view := auditableView{
		ID:            doc.ID,
		Kind:          doc.Kind,
		Amounts:       doc.Amounts,
		Supplier:      doc.Supplier,
		Project:       doc.Project,
		Bureau:        doc.Bureau,
		EmittedAt:     doc.EmittedAt.UTC(),
		Attachments:   doc.Attachments,
		PurchaseOrder: doc.PurchaseOrder,
		Invoice:       doc.Invoice,
		Amendment:     doc.Amendment,
	}
	if doc.DeadlineAt != nil {
		d := doc.DeadlineAt.UTC()
		view.DeadlineAt = &d
	}
	return CanonicalHash(view)
}

// CanonicalHash hashes the canonical JSON encoding of v.
func CanonicalHash(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal for canonical hash: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize json: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func fingerprintOrEmpty(doc *domain.Document) string {
	fp, err := Fingerprint(doc)
	if err != nil {
		return ""
	}
	return fp
}
