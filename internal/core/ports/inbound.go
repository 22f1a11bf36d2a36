package ports

import (
	"context"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

// DocumentReader is the inbound read model for governed documents.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentIntake registers documents handed over by the intake system.
// rawStatus may use either legacy or workflow vocabulary.
type DocumentIntake interface {
	Register(ctx context.Context, doc *domain.Document, rawStatus string) (*domain.Document, error)
}

// AuditService runs the rule battery and serves advisory outputs.
type AuditService interface {
	RunAudit(ctx context.Context, documentID string) (*domain.Document, error)
	EscalationReasons(ctx context.Context, documentID string) ([]string, error)
	Recommend(ctx context.Context, documentID string) (*domain.Recommendation, error)
	ResolveAnomaly(ctx context.Context, documentID, anomalyID, comment string, actor domain.Actor) (*domain.Document, error)
}

// WorkflowService applies actor decisions to documents.
type WorkflowService interface {
	Submit(ctx context.Context, documentID string, actor domain.Actor) (*domain.Document, error)
	Decide(ctx context.Context, documentID string, payload domain.DecisionPayload, actor domain.Actor) (*domain.Document, error)
	CompleteCorrection(ctx context.Context, documentID string, actor domain.Actor) (*domain.Document, error)
}

// AnnotationService manages reviewer annotations.
type AnnotationService interface {
	Annotate(ctx context.Context, documentID string, input domain.AnnotationInput, actor domain.Actor) (*domain.Annotation, error)
	List(ctx context.Context, documentID string) ([]domain.Annotation, error)
	Edit(ctx context.Context, annotationID, comment string, actor domain.Actor) (*domain.Annotation, error)
	Remove(ctx context.Context, annotationID string, actor domain.Actor) error
}

// AuditExporter renders the audit trail of a document.
type AuditExporter interface {
	ExportAudit(ctx context.Context, documentID string) (filename string, content []byte, err error)
}
