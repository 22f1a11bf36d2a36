package domain

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingReview   Status = "pending_review"
	StatusAuditRequired   Status = "audit_required"
	StatusInAudit         Status = "in_audit"
	StatusNeedsComplement Status = "needs_complement"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusSentDownstream  Status = "sent_downstream"
)

func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusSentDownstream:
		return true
	default:
		return false
	}
}

// statusAliases folds the legacy (pending/validated/rejected) and workflow
// (draft_ba/pending_bmo/...) vocabularies into the canonical set. The mapping
// is one-way: canonical statuses are never rendered back into aliases.
var statusAliases = map[string]Status{
	"draft":                StatusDraft,
	"draft_ba":             StatusDraft,
	"pending":              StatusPendingReview,
	"pending_bmo":          StatusPendingReview,
	"submitted":            StatusPendingReview,
	"pending_review":       StatusPendingReview,
	"audit_required":       StatusAuditRequired,
	"in_audit":             StatusInAudit,
	"auditing":             StatusInAudit,
	"needs_complement":     StatusNeedsComplement,
	"complement_requested": StatusNeedsComplement,
	"pending_complement":   StatusNeedsComplement,
	"validated":            StatusApproved,
	"approved":             StatusApproved,
	"approved_bmo":         StatusApproved,
	"rejected":             StatusRejected,
	"rejected_bmo":         StatusRejected,
	"sent":                 StatusSentDownstream,
	"sent_supplier":        StatusSentDownstream,
	"sent_downstream":      StatusSentDownstream,
}

// ParseStatus maps any observed status spelling to its canonical value.
func ParseStatus(raw string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := statusAliases[key]; ok {
		return s, nil
	}
	return "", WrapError(ErrInvalidInput, "parse status", fmt.Errorf("unknown status %q", raw))
}
