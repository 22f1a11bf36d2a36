package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/doc-governance/internal/core/domain"
	"github.com/kirillkom/doc-governance/internal/core/governance"
	"github.com/kirillkom/doc-governance/internal/core/ports"
	"github.com/kirillkom/doc-governance/internal/core/workflow"
)

const (
	outcomeApplied  = "applied"
	outcomeReplayed = "replayed"
	outcomeBlocked  = "blocked"
	outcomeRejected = "rejected"
)

type WorkflowUseCase struct {
	repo        ports.DocumentRepository
	store       ports.WorkflowStore
	corrections ports.CorrectionRepository
	decisions   ports.DecisionLog
	publisher   ports.EventPublisher
	auditQueue  ports.AuditRequestQueue
	engine      *governance.Engine
	locks       *DocumentLocks
	observer    ports.EngineObserver
	logger      *slog.Logger
}

type WorkflowDeps struct {
	Repo        ports.DocumentRepository
	Store       ports.WorkflowStore
	Corrections ports.CorrectionRepository
	Decisions   ports.DecisionLog
	Publisher   ports.EventPublisher
	AuditQueue  ports.AuditRequestQueue
	Engine      *governance.Engine
	Locks       *DocumentLocks
	Observer    ports.EngineObserver
	Logger      *slog.Logger
}

func NewWorkflowUseCase(deps WorkflowDeps) *WorkflowUseCase {
	locks := deps.Locks
	if locks == nil {
		locks = NewDocumentLocks()
	}
	return &WorkflowUseCase{
		repo:        deps.Repo,
		store:       deps.Store,
		corrections: deps.Corrections,
		decisions:   deps.Decisions,
		publisher:   deps.Publisher,
		auditQueue:  deps.AuditQueue,
		engine:      deps.Engine,
		locks:       locks,
		observer:    observerOrNoop(deps.Observer),
		logger:      loggerOrDefault(deps.Logger),
	}
}

// Submit moves a draft into the review queue and asks for an audit run.
func (uc *WorkflowUseCase) Submit(ctx context.Context, documentID string, actor domain.Actor) (*domain.Document, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	doc, err := uc.move(ctx, documentID, workflow.ActionSubmit, nil)
	if err != nil {
		return nil, err
	}
	uc.requestAudit(ctx, doc.ID)
	uc.logger.Info("document_submitted", "document_id", doc.ID, "actor_id", actor.ID)
	return doc, nil
}

// CompleteCorrection closes open correction requests and sends the document
// back to review.
func (uc *WorkflowUseCase) CompleteCorrection(ctx context.Context, documentID string, actor domain.Actor) (*domain.Document, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	doc, err := uc.move(ctx, documentID, workflow.ActionCompleteCorrection, func(ctx context.Context, commit *ports.WorkflowCommit) error {
		requests, err := uc.corrections.ListByDocument(ctx, documentID)
		if err != nil {
			return fmt.Errorf("list corrections: %w", err)
		}
		for _, req := range requests {
			if req.Status == domain.CorrectionOpen {
				commit.CompletedCorrections = append(commit.CompletedCorrections, req.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.requestAudit(ctx, doc.ID)
	uc.logger.Info("correction_completed", "document_id", doc.ID, "actor_id", actor.ID)
	return doc, nil
}

func (uc *WorkflowUseCase) move(
	ctx context.Context,
	documentID string,
	action workflow.Action,
	prepare func(context.Context, *ports.WorkflowCommit) error,
) (*domain.Document, error) {
	unlock := uc.locks.Lock(documentID)
	defer unlock()

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	next, err := workflow.Transition(doc.Status, action)
	if err != nil {
		return nil, err
	}
	commit := ports.WorkflowCommit{Document: doc, ExpectedVersion: doc.Version}
	if prepare != nil {
		if err := prepare(ctx, &commit); err != nil {
			return nil, err
		}
	}
	doc.Status = next
	doc.UpdatedAt = uc.engine.Now()
	if err := uc.store.Commit(ctx, commit); err != nil {
		return nil, fmt.Errorf("commit %s: %w", action, err)
	}
	return doc, nil
}

// Decide applies an actor decision. Validation happens before any state is
// touched so a rejected call leaves the document as it was.
func (uc *WorkflowUseCase) Decide(
	ctx context.Context,
	documentID string,
	payload domain.DecisionPayload,
	actor domain.Actor,
) (*domain.Document, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validatePayload(payload); err != nil {
		uc.observer.ObserveDecision(payload.Decision, outcomeRejected)
		return nil, err
	}
	action, _ := workflow.ActionFor(payload.Decision)

	unlock := uc.locks.Lock(documentID)
	defer unlock()

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if key := strings.TrimSpace(payload.IdempotencyKey); key != "" {
		prior, err := uc.decisions.FindByIdempotencyKey(ctx, documentID, key)
		if err != nil {
			return nil, fmt.Errorf("lookup idempotency key: %w", err)
		}
		if prior != nil {
			if prior.Decision != payload.Decision {
				return nil, domain.WrapError(domain.ErrInvalidInput, "decide",
					fmt.Errorf("idempotency key %q already used for %s", key, prior.Decision))
			}
			uc.observer.ObserveDecision(payload.Decision, outcomeReplayed)
			uc.logger.Info("decision_replayed", "document_id", documentID, "decision", payload.Decision, "idempotency_key", key)
			return doc, nil
		}
	}

	from := doc.Status
	next, err := workflow.Transition(from, action)
	if err != nil {
		uc.observer.ObserveDecision(payload.Decision, outcomeRejected)
		return nil, err
	}

	now := uc.engine.Now()
	commit := ports.WorkflowCommit{Document: doc}

	switch payload.Decision {
	case domain.DecisionApprove:
		if err := uc.gateApproval(ctx, doc); err != nil {
			uc.observer.ObserveDecision(payload.Decision, outcomeBlocked)
			return nil, err
		}
		commit.Signature, err = uc.sign(doc, actor, now)
		if err != nil {
			return nil, err
		}
	case domain.DecisionRequestComplement:
		commit.Correction, err = buildCorrection(doc, payload, actor, now)
		if err != nil {
			uc.observer.ObserveDecision(payload.Decision, outcomeRejected)
			return nil, err
		}
	}

	record := &domain.DecisionRecord{
		ID:             uuid.NewString(),
		DocumentID:     doc.ID,
		Decision:       payload.Decision,
		IdempotencyKey: strings.TrimSpace(payload.IdempotencyKey),
		FromStatus:     from,
		ToStatus:       next,
		ActorID:        actor.ID,
		Reason:         strings.TrimSpace(payload.Reason),
		Target:         strings.TrimSpace(payload.Target),
		CreatedAt:      now,
	}
	commit.Record = record
	commit.Annotation = decisionNote(doc.ID, payload, actor, now)

	// gateApproval may have persisted a refreshed report, so the expected
	// version is read only now.
	commit.ExpectedVersion = doc.Version
	doc.Status = next
	doc.UpdatedAt = now
	if err := uc.store.Commit(ctx, commit); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			uc.observer.ObserveDecision(payload.Decision, outcomeRejected)
		}
		return nil, fmt.Errorf("commit decision: %w", err)
	}

	if payload.Decision == domain.DecisionEscalate {
		uc.routeEscalation(ctx, doc, payload, actor, now)
	}
	uc.publish(ctx, doc, record)
	uc.observer.ObserveDecision(payload.Decision, outcomeApplied)
	uc.logger.Info("decision_applied",
		"document_id", doc.ID,
		"decision", payload.Decision,
		"from_status", from,
		"to_status", next,
		"actor_id", actor.ID,
	)
	return doc, nil
}

// gateApproval refuses approval without a report or with a blocking one. A
// stale report is recomputed and persisted first.
func (uc *WorkflowUseCase) gateApproval(ctx context.Context, doc *domain.Document) error {
	report := doc.AuditReport
	if report == nil {
		return &domain.ValidationBlockedError{DocumentID: doc.ID}
	}
	if !uc.engine.IsFresh(doc, report) {
		report = uc.engine.Audit(doc)
		expected := doc.Version
		doc.AuditReport = report
		doc.UpdatedAt = report.GeneratedAt
		if err := uc.repo.Save(ctx, doc, expected); err != nil {
			return fmt.Errorf("save refreshed report: %w", err)
		}
		uc.observer.ObserveAudit(report)
		uc.logger.Info("report_refreshed", "document_id", doc.ID, "score", report.Score, "blocking", report.Blocking)
	}
	if report.Blocking {
		return &domain.ValidationBlockedError{
			DocumentID: doc.ID,
			Reasons:    append([]string(nil), report.BlockingReasons...),
		}
	}
	return nil
}

func validatePayload(p domain.DecisionPayload) error {
	if !p.Decision.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "decide", fmt.Errorf("unknown decision %q", p.Decision))
	}
	switch p.Decision {
	case domain.DecisionReject, domain.DecisionRequestComplement:
		if strings.TrimSpace(p.Reason) == "" {
			return &domain.MissingReasonError{Decision: p.Decision, Field: "reason"}
		}
	case domain.DecisionEscalate:
		if strings.TrimSpace(p.Reason) == "" {
			return &domain.MissingReasonError{Decision: p.Decision, Field: "reason"}
		}
		if strings.TrimSpace(p.Target) == "" {
			return &domain.MissingReasonError{Decision: p.Decision, Field: "target"}
		}
	}
	return nil
}

// buildCorrection validates the anomaly ids against the current report.
// Without explicit ids every unresolved anomaly is referenced.
func buildCorrection(doc *domain.Document, p domain.DecisionPayload, actor domain.Actor, now time.Time) (*domain.CorrectionRequest, error) {
	ids := make([]string, 0, len(p.AnomalyIDs))
	for _, id := range p.AnomalyIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := doc.AuditReport.FindAnomaly(id); !ok {
			return nil, &domain.AnomalyNotFoundError{DocumentID: doc.ID, AnomalyID: id}
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		for _, a := range doc.AuditReport.UnresolvedAnomalies() {
			ids = append(ids, a.ID)
		}
	}
	var deadline *time.Time
	if p.Deadline != nil {
		d := p.Deadline.UTC()
		deadline = &d
	}
	return &domain.CorrectionRequest{
		ID:           uuid.NewString(),
		DocumentID:   doc.ID,
		Message:      strings.TrimSpace(p.Reason),
		AnomalyIDs:   ids,
		ExpectedDocs: append([]string(nil), p.ExpectedDocs...),
		Deadline:     deadline,
		RequestedBy:  actor.ID,
		Status:       domain.CorrectionOpen,
		CreatedAt:    now,
	}, nil
}

// decisionNote is the annotation every applied decision leaves on the trail.
func decisionNote(documentID string, p domain.DecisionPayload, actor domain.Actor, now time.Time) *domain.Annotation {
	note := &domain.Annotation{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Comment:    strings.TrimSpace(p.Reason),
		Author:     actor.ID,
		CreatedAt:  now,
	}
	switch p.Decision {
	case domain.DecisionApprove:
		note.Type = domain.AnnotationApproval
		note.Comment = approvalComment(p)
	case domain.DecisionReject:
		note.Type = domain.AnnotationRejection
	case domain.DecisionRequestComplement:
		note.Type = domain.AnnotationCorrection
	case domain.DecisionEscalate:
		note.Type = domain.AnnotationComment
		note.Comment = fmt.Sprintf("escalated to %s: %s", strings.TrimSpace(p.Target), note.Comment)
	}
	return note
}

func approvalComment(p domain.DecisionPayload) string {
	parts := make([]string, 0, 2)
	if r := strings.TrimSpace(p.Reason); r != "" {
		parts = append(parts, r)
	}
	if len(p.Conditions) > 0 {
		parts = append(parts, "conditions: "+strings.Join(p.Conditions, "; "))
	}
	if len(parts) == 0 {
		return "approved"
	}
	return strings.Join(parts, " | ")
}

type signedContent struct {
	DocumentID    string    `json:"document_id"`
	Reference     string    `json:"reference"`
	ReportID      string    `json:"report_id"`
	Fingerprint   string    `json:"fingerprint"`
	Score         int       `json:"score"`
	Signatory     string    `json:"signatory"`
	FunctionTitle string    `json:"function_title"`
	SignedAt      time.Time `json:"signed_at"`
}

func (uc *WorkflowUseCase) sign(doc *domain.Document, actor domain.Actor, now time.Time) (*domain.Signature, error) {
	signatory := actor.Name
	if strings.TrimSpace(signatory) == "" {
		signatory = actor.ID
	}
	content := signedContent{
		DocumentID:    doc.ID,
		Reference:     doc.Reference,
		Signatory:     signatory,
		FunctionTitle: actor.FunctionTitle,
		SignedAt:      now,
	}
	if doc.AuditReport != nil {
		content.ReportID = doc.AuditReport.ID
		content.Fingerprint = doc.AuditReport.Fingerprint
		content.Score = doc.AuditReport.Score
	}
	hash, err := governance.CanonicalHash(content)
	if err != nil {
		return nil, fmt.Errorf("hash signature: %w", err)
	}
	return &domain.Signature{
		ID:            uuid.NewString(),
		DocumentID:    doc.ID,
		Signatory:     signatory,
		FunctionTitle: actor.FunctionTitle,
		SignedAt:      now,
		Hash:          hash,
	}, nil
}

func (uc *WorkflowUseCase) routeEscalation(ctx context.Context, doc *domain.Document, p domain.DecisionPayload, actor domain.Actor, now time.Time) {
	if uc.publisher == nil {
		return
	}
	event := domain.EscalationEvent{
		DocumentID:        doc.ID,
		Target:            strings.TrimSpace(p.Target),
		Reason:            strings.TrimSpace(p.Reason),
		EscalationReasons: uc.engine.EscalationReasons(doc),
		RequestedBy:       actor.ID,
		OccurredAt:        now,
	}
	if err := uc.publisher.RouteEscalation(ctx, event); err != nil {
		uc.logger.Error("escalation_routing_failed", "document_id", doc.ID, "target", event.Target, "error", err)
	}
}

func (uc *WorkflowUseCase) publish(ctx context.Context, doc *domain.Document, record *domain.DecisionRecord) {
	if uc.publisher == nil {
		return
	}
	event := domain.DecisionEvent{
		DocumentID: doc.ID,
		Decision:   record.Decision,
		FromStatus: record.FromStatus,
		ToStatus:   record.ToStatus,
		ActorID:    record.ActorID,
		Reason:     record.Reason,
		OccurredAt: record.CreatedAt,
	}
	if doc.AuditReport != nil {
		event.Score = doc.AuditReport.Score
		event.RiskLevel = doc.AuditReport.RiskLevel
	}
	if err := uc.publisher.PublishDecision(ctx, event); err != nil {
		uc.logger.Error("decision_publish_failed", "document_id", doc.ID, "decision", record.Decision, "error", err)
	}
}

func (uc *WorkflowUseCase) requestAudit(ctx context.Context, documentID string) {
	if uc.auditQueue == nil {
		return
	}
	if err := uc.auditQueue.PublishAuditRequested(ctx, documentID); err != nil {
		uc.logger.Warn("audit_request_publish_failed", "document_id", documentID, "error", err)
	}
}
