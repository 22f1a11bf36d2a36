package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/kirillkom/doc-governance/internal/core/domain"
	"github.com/kirillkom/doc-governance/internal/core/governance"
	"github.com/kirillkom/doc-governance/internal/core/ports"
)

// IntakeUseCase registers documents produced by the upstream intake system.
type IntakeUseCase struct {
	repo   ports.DocumentRepository
	queue  ports.AuditRequestQueue
	engine *governance.Engine
	logger *slog.Logger
}

func NewIntakeUseCase(
	repo ports.DocumentRepository,
	queue ports.AuditRequestQueue,
	engine *governance.Engine,
	logger *slog.Logger,
) *IntakeUseCase {
	return &IntakeUseCase{
		repo:   repo,
		queue:  queue,
		engine: engine,
		logger: loggerOrDefault(logger),
	}
}

// Register stores doc with its status collapsed into the canonical set.
// Any report sent along is discarded; reports come from the engine only.
func (uc *IntakeUseCase) Register(ctx context.Context, doc *domain.Document, rawStatus string) (*domain.Document, error) {
	if doc == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "register document", fmt.Errorf("document is required"))
	}
	if rawStatus == "" {
		rawStatus = string(domain.StatusDraft)
	}
	status, err := entryStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	if !doc.Kind.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "register document", fmt.Errorf("unknown kind %q", doc.Kind))
	}

	now := uc.engine.Now()
	out := doc.Clone()
	if strings.TrimSpace(out.ID) == "" {
		out.ID = uuid.NewString()
	}
	if out.Attachments == nil {
		out.Attachments = []string{}
	}
	out.Status = status
	out.AuditReport = nil
	out.Version = 0
	out.CreatedAt = now
	out.UpdatedAt = now

	if err := uc.repo.Create(ctx, out); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if status == domain.StatusPendingReview && uc.queue != nil {
		if err := uc.queue.PublishAuditRequested(ctx, out.ID); err != nil {
			uc.logger.Warn("audit_request_publish_failed", "document_id", out.ID, "error", err)
		}
	}
	uc.logger.Info("document_registered", "document_id", out.ID, "kind", out.Kind, "status", out.Status)
	return out, nil
}

// entryStatus parses the intake status. An audit in flight upstream is
// queued again as pending_review since in_audit is never stored. Terminal
// documents are outside the engine's responsibility and are refused.
func entryStatus(raw string) (domain.Status, error) {
	status, err := domain.ParseStatus(raw)
	if err != nil {
		return "", err
	}
	if status == domain.StatusInAudit {
		return domain.StatusPendingReview, nil
	}
	if status.IsTerminal() {
		return "", domain.WrapError(domain.ErrInvalidInput, "register document",
			fmt.Errorf("status %q is terminal and cannot enter review", raw))
	}
	return status, nil
}
