package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/doc-governance/internal/core/domain"
	"github.com/kirillkom/doc-governance/internal/core/ports"
)

const (
	auditStatusSuccess = "success"
	auditStatusSkipped = "skipped"
	auditStatusError   = "error"
)

type auditRecorder interface {
	StartAudit()
	FinishAudit(service, status string, duration time.Duration)
}

// newAuditHandler runs one audit per request. Requests for documents that
// vanished or are no longer auditable are acknowledged and skipped, since
// redelivery cannot change their outcome.
func newAuditHandler(audit ports.AuditService, recorder auditRecorder, timeout time.Duration, logger *slog.Logger) func(context.Context, string) error {
	return func(ctx context.Context, documentID string) error {
		recorder.StartAudit()
		start := time.Now()

		auditCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		doc, err := audit.RunAudit(auditCtx, documentID)
		switch {
		case err == nil:
			recorder.FinishAudit(serviceName, auditStatusSuccess, time.Since(start))
			attrs := []any{"document_id", documentID, "status", doc.Status}
			if doc.AuditReport != nil {
				attrs = append(attrs, "score", doc.AuditReport.Score, "blocking", doc.AuditReport.Blocking)
			}
			logger.Info("audit_completed", attrs...)
			return nil
		case domain.IsKind(err, domain.ErrDocumentNotFound), domain.IsKind(err, domain.ErrInvalidTransition):
			recorder.FinishAudit(serviceName, auditStatusSkipped, time.Since(start))
			logger.Warn("audit_skipped", "document_id", documentID, "reason", err.Error())
			return nil
		default:
			recorder.FinishAudit(serviceName, auditStatusError, time.Since(start))
			return err
		}
	}
}
