package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/doc-governance/internal/core/domain"
	"github.com/kirillkom/doc-governance/internal/core/governance"
	"github.com/kirillkom/doc-governance/internal/core/ports"
)

type ExportUseCase struct {
	repo        ports.DocumentRepository
	annotations ports.AnnotationStore
	signatures  ports.SignatureRepository
	corrections ports.CorrectionRepository
	renderer    ports.ReportRenderer
	storage     ports.ObjectStorage
	engine      *governance.Engine
	logger      *slog.Logger
}

func NewExportUseCase(
	repo ports.DocumentRepository,
	annotations ports.AnnotationStore,
	signatures ports.SignatureRepository,
	corrections ports.CorrectionRepository,
	renderer ports.ReportRenderer,
	storage ports.ObjectStorage,
	engine *governance.Engine,
	logger *slog.Logger,
) *ExportUseCase {
	return &ExportUseCase{
		repo:        repo,
		annotations: annotations,
		signatures:  signatures,
		corrections: corrections,
		renderer:    renderer,
		storage:     storage,
		engine:      engine,
		logger:      loggerOrDefault(logger),
	}
}

// ExportAudit renders the audit trail, keeps a copy in object storage and
// returns the workbook.
func (uc *ExportUseCase) ExportAudit(ctx context.Context, documentID string) (string, []byte, error) {
	trail, err := uc.collect(ctx, documentID)
	if err != nil {
		return "", nil, err
	}
	content, err := uc.renderer.Render(trail)
	if err != nil {
		return "", nil, fmt.Errorf("render audit trail: %w", err)
	}

	name := exportName(trail.Document)
	key := fmt.Sprintf("exports/%s/%s_%s", trail.Document.ID, uc.engine.Now().Format("20060102T150405Z"), name)
	if uc.storage != nil {
		if err := uc.storage.Save(ctx, key, bytes.NewReader(content)); err != nil {
			return "", nil, fmt.Errorf("store export: %w", err)
		}
	}
	uc.logger.Info("audit_exported", "document_id", documentID, "storage_key", key, "bytes", len(content))
	return name, content, nil
}

func (uc *ExportUseCase) collect(ctx context.Context, documentID string) (domain.AuditTrail, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return domain.AuditTrail{}, err
	}
	notes, err := uc.annotations.ListByDocument(ctx, documentID)
	if err != nil {
		return domain.AuditTrail{}, fmt.Errorf("list annotations: %w", err)
	}
	sigs, err := uc.signatures.ListByDocument(ctx, documentID)
	if err != nil {
		return domain.AuditTrail{}, fmt.Errorf("list signatures: %w", err)
	}
	corrections, err := uc.corrections.ListByDocument(ctx, documentID)
	if err != nil {
		return domain.AuditTrail{}, fmt.Errorf("list corrections: %w", err)
	}
	return domain.AuditTrail{
		Document:    doc,
		Annotations: notes,
		Signatures:  sigs,
		Corrections: corrections,
	}, nil
}

func exportName(doc *domain.Document) string {
	ref := doc.Reference
	if ref == "" {
		ref = doc.ID
	}
	return "audit_" + sanitizeFilename(ref) + ".xlsx"
}

// sanitizeFilename keeps every segment of a reference; path separators
// become underscores like any other character outside [A-Za-z0-9._-].
func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(name))
	if name == "" {
		return "document"
	}
	return name
}
