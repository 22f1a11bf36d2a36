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
	"github.com/kirillkom/doc-governance/internal/core/workflow"
)

type AuditUseCase struct {
	repo        ports.DocumentRepository
	annotations ports.AnnotationStore
	engine      *governance.Engine
	locks       *DocumentLocks
	observer    ports.EngineObserver
	logger      *slog.Logger
}

func NewAuditUseCase(
	repo ports.DocumentRepository,
	annotations ports.AnnotationStore,
	engine *governance.Engine,
	locks *DocumentLocks,
	observer ports.EngineObserver,
	logger *slog.Logger,
) *AuditUseCase {
	if locks == nil {
		locks = NewDocumentLocks()
	}
	return &AuditUseCase{
		repo:        repo,
		annotations: annotations,
		engine:      engine,
		locks:       locks,
		observer:    observerOrNoop(observer),
		logger:      loggerOrDefault(logger),
	}
}

func (uc *AuditUseCase) GetByID(ctx context.Context, documentID string) (*domain.Document, error) {
	return uc.repo.GetByID(ctx, documentID)
}

// RunAudit evaluates the document and stores the new report. The document
// passes through in_audit and lands on audit_required when the report blocks,
// otherwise back on the status it started from.
func (uc *AuditUseCase) RunAudit(ctx context.Context, documentID string) (*domain.Document, error) {
	unlock := uc.locks.Lock(documentID)
	defer unlock()

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	origin := doc.Status
	if _, err := workflow.Transition(origin, workflow.ActionRunAudit); err != nil {
		return nil, err
	}

	report := uc.engine.Audit(doc)
	expected := doc.Version
	doc.AuditReport = report
	doc.Status = workflow.AuditOutcome(origin, report.Blocking)
	doc.UpdatedAt = report.GeneratedAt
	if err := uc.repo.Save(ctx, doc, expected); err != nil {
		return nil, fmt.Errorf("save audited document: %w", err)
	}

	uc.observer.ObserveAudit(report)
	uc.logger.Info("audit_completed",
		"document_id", doc.ID,
		"score", report.Score,
		"risk_level", report.RiskLevel,
		"blocking", report.Blocking,
		"status", doc.Status,
	)
	return doc, nil
}

func (uc *AuditUseCase) EscalationReasons(ctx context.Context, documentID string) ([]string, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return uc.engine.EscalationReasons(doc), nil
}

// Recommend is advisory. It uses the stored report when it is still fresh.
func (uc *AuditUseCase) Recommend(ctx context.Context, documentID string) (*domain.Recommendation, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	report := doc.AuditReport
	if report != nil && !uc.engine.IsFresh(doc, report) {
		report = nil
	}
	rec := uc.engine.Recommend(doc, report)
	return &rec, nil
}

// ResolveAnomaly marks an anomaly of the current report resolved and replaces
// the report with a rescored copy. Repeated calls keep the first resolution.
func (uc *AuditUseCase) ResolveAnomaly(
	ctx context.Context,
	documentID, anomalyID, comment string,
	actor domain.Actor,
) (*domain.Document, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	unlock := uc.locks.Lock(documentID)
	defer unlock()

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status.IsTerminal() {
		return nil, &domain.InvalidTransitionError{From: doc.Status, Action: "resolve_anomaly"}
	}
	anomaly, ok := doc.AuditReport.FindAnomaly(anomalyID)
	if !ok {
		return nil, &domain.AnomalyNotFoundError{DocumentID: documentID, AnomalyID: anomalyID}
	}

	now := uc.engine.Now()
	stored, err := uc.annotations.MarkResolved(ctx, domain.AnomalyResolution{
		DocumentID: documentID,
		AnomalyID:  anomalyID,
		ResolvedBy: actor.ID,
		ResolvedAt: now,
		Comment:    strings.TrimSpace(comment),
	})
	if err != nil {
		return nil, fmt.Errorf("mark anomaly resolved: %w", err)
	}
	if anomaly.Resolved {
		return doc, nil
	}

	report := doc.AuditReport.Clone()
	for i := range report.Anomalies {
		if report.Anomalies[i].ID != anomalyID {
			continue
		}
		resolvedAt := stored.ResolvedAt
		report.Anomalies[i].Resolved = true
		report.Anomalies[i].ResolvedAt = &resolvedAt
		report.Anomalies[i].ResolvedBy = stored.ResolvedBy
	}
	report = uc.engine.Rescore(report)

	expected := doc.Version
	doc.AuditReport = report
	doc.UpdatedAt = now
	if err := uc.repo.Save(ctx, doc, expected); err != nil {
		return nil, fmt.Errorf("save rescored document: %w", err)
	}

	if stored.Comment != "" {
		note := &domain.Annotation{
			ID:              uuid.NewString(),
			DocumentID:      documentID,
			Field:           anomaly.Field,
			Comment:         stored.Comment,
			Type:            domain.AnnotationCorrection,
			LinkedAnomalyID: anomalyID,
			Author:          actor.ID,
			CreatedAt:       now,
		}
		if err := uc.annotations.Append(ctx, note); err != nil {
			uc.logger.Warn("resolution_annotation_failed", "document_id", documentID, "anomaly_id", anomalyID, "error", err)
		}
	}

	uc.logger.Info("anomaly_resolved",
		"document_id", documentID,
		"anomaly_id", anomalyID,
		"resolved_by", stored.ResolvedBy,
		"score", report.Score,
		"blocking", report.Blocking,
	)
	return doc, nil
}

func requireActor(actor domain.Actor) error {
	if strings.TrimSpace(actor.ID) == "" {
		return domain.WrapError(domain.ErrUnauthorized, "resolve actor", fmt.Errorf("actor id is required"))
	}
	return nil
}
