package ports

import (
	"context"
	"io"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

// DocumentRepository persists and reads governed documents.
// Save fails with domain.ErrConflict when the stored version differs from
// expectedVersion; on success doc.Version is advanced.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	Save(ctx context.Context, doc *domain.Document, expectedVersion int64) error
}

// AnnotationStore is the append-only annotation and resolution log.
type AnnotationStore interface {
	Append(ctx context.Context, annotation *domain.Annotation) error
	FindByID(ctx context.Context, id string) (*domain.Annotation, error)
	ListByDocument(ctx context.Context, documentID string) ([]domain.Annotation, error)
	Update(ctx context.Context, annotation *domain.Annotation) error
	Delete(ctx context.Context, id string) error
	// MarkResolved records the first resolution of an anomaly and returns the
	// stored record. Later calls return the original record unchanged.
	MarkResolved(ctx context.Context, resolution domain.AnomalyResolution) (domain.AnomalyResolution, error)
}

// CorrectionRepository persists correction requests.
type CorrectionRepository interface {
	Create(ctx context.Context, req *domain.CorrectionRequest) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.CorrectionRequest, error)
	Complete(ctx context.Context, id string) error
}

// SignatureRepository persists approval signatures.
type SignatureRepository interface {
	Create(ctx context.Context, sig *domain.Signature) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.Signature, error)
}

// DecisionLog records applied decisions and serves idempotency lookups.
type DecisionLog interface {
	Append(ctx context.Context, record *domain.DecisionRecord) error
	FindByIdempotencyKey(ctx context.Context, documentID, key string) (*domain.DecisionRecord, error)
}

// WorkflowCommit is one workflow step: the document status change and the
// trail records it produces. Nil parts are skipped.
type WorkflowCommit struct {
	Document             *domain.Document
	ExpectedVersion      int64
	Record               *domain.DecisionRecord
	Annotation           *domain.Annotation
	Signature            *domain.Signature
	Correction           *domain.CorrectionRequest
	CompletedCorrections []string
}

// WorkflowStore writes a WorkflowCommit atomically: every part lands or none
// does. It fails with domain.ErrConflict like DocumentRepository.Save and
// advances Document.Version on success.
type WorkflowStore interface {
	Commit(ctx context.Context, commit WorkflowCommit) error
}

// EventPublisher emits audit-trail events and delegates escalation routing.
type EventPublisher interface {
	PublishDecision(ctx context.Context, event domain.DecisionEvent) error
	RouteEscalation(ctx context.Context, event domain.EscalationEvent) error
}

// AuditRequestQueue delivers document ids that need an audit run.
type AuditRequestQueue interface {
	PublishAuditRequested(ctx context.Context, documentID string) error
	SubscribeAuditRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// ObjectStorage stores exported artifacts.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
}

// ReportRenderer renders an audit trail into a downloadable workbook.
type ReportRenderer interface {
	Render(trail domain.AuditTrail) ([]byte, error)
}

// EngineObserver receives engine outcomes for metrics.
type EngineObserver interface {
	ObserveAudit(report *domain.AuditReport)
	ObserveDecision(decision domain.Decision, outcome string)
}
