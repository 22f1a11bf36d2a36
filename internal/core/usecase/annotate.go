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

type AnnotationUseCase struct {
	repo        ports.DocumentRepository
	annotations ports.AnnotationStore
	engine      *governance.Engine
	logger      *slog.Logger
}

func NewAnnotationUseCase(
	repo ports.DocumentRepository,
	annotations ports.AnnotationStore,
	engine *governance.Engine,
	logger *slog.Logger,
) *AnnotationUseCase {
	return &AnnotationUseCase{
		repo:        repo,
		annotations: annotations,
		engine:      engine,
		logger:      loggerOrDefault(logger),
	}
}

// Annotate appends a reviewer comment or correction note. Approval and
// rejection annotations are written only by decisions.
func (uc *AnnotationUseCase) Annotate(
	ctx context.Context,
	documentID string,
	input domain.AnnotationInput,
	actor domain.Actor,
) (*domain.Annotation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input.Type == "" {
		input.Type = domain.AnnotationComment
	}
	if input.Type != domain.AnnotationComment && input.Type != domain.AnnotationCorrection {
		return nil, domain.WrapError(domain.ErrInvalidInput, "annotate", fmt.Errorf("annotation type %q is not accepted", input.Type))
	}
	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "annotate", fmt.Errorf("comment is required"))
	}

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if input.LinkedAnomalyID != "" {
		if _, ok := doc.AuditReport.FindAnomaly(input.LinkedAnomalyID); !ok {
			return nil, &domain.AnomalyNotFoundError{DocumentID: documentID, AnomalyID: input.LinkedAnomalyID}
		}
	}

	note := &domain.Annotation{
		ID:              uuid.NewString(),
		DocumentID:      doc.ID,
		Field:           strings.TrimSpace(input.Field),
		Comment:         comment,
		Type:            input.Type,
		LinkedAnomalyID: input.LinkedAnomalyID,
		Author:          actor.ID,
		CreatedAt:       uc.engine.Now(),
	}
	if err := uc.annotations.Append(ctx, note); err != nil {
		return nil, fmt.Errorf("append annotation: %w", err)
	}
	uc.logger.Info("annotation_added", "document_id", doc.ID, "annotation_id", note.ID, "type", note.Type)
	return note, nil
}

func (uc *AnnotationUseCase) List(ctx context.Context, documentID string) ([]domain.Annotation, error) {
	if _, err := uc.repo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	notes, err := uc.annotations.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	return notes, nil
}

// Edit rewrites the comment of an annotation owned by actor.
func (uc *AnnotationUseCase) Edit(ctx context.Context, annotationID, comment string, actor domain.Actor) (*domain.Annotation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "edit annotation", fmt.Errorf("comment is required"))
	}
	note, err := uc.owned(ctx, annotationID, actor)
	if err != nil {
		return nil, err
	}
	now := uc.engine.Now()
	note.Comment = comment
	note.UpdatedAt = &now
	if err := uc.annotations.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("update annotation: %w", err)
	}
	return note, nil
}

func (uc *AnnotationUseCase) Remove(ctx context.Context, annotationID string, actor domain.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if _, err := uc.owned(ctx, annotationID, actor); err != nil {
		return err
	}
	if err := uc.annotations.Delete(ctx, annotationID); err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	uc.logger.Info("annotation_removed", "annotation_id", annotationID, "actor_id", actor.ID)
	return nil
}

// owned loads an annotation the actor may change. Decision annotations are
// part of the audit trail and stay as written.
func (uc *AnnotationUseCase) owned(ctx context.Context, annotationID string, actor domain.Actor) (*domain.Annotation, error) {
	note, err := uc.annotations.FindByID(ctx, annotationID)
	if err != nil {
		return nil, err
	}
	if note.Author != actor.ID {
		return nil, domain.WrapError(domain.ErrForbidden, "change annotation", fmt.Errorf("annotation %s belongs to %s", note.ID, note.Author))
	}
	if note.Type == domain.AnnotationApproval || note.Type == domain.AnnotationRejection {
		return nil, domain.WrapError(domain.ErrForbidden, "change annotation", fmt.Errorf("decision annotations are immutable"))
	}
	return note, nil
}
