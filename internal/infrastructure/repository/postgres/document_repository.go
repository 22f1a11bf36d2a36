package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

type DocumentRepository struct {
	db queryer
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// payload is the document body without the columns stored separately.
func payload(doc *domain.Document) ([]byte, error) {
	body := doc.Clone()
	body.AuditReport = nil
	body.Version = 0
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return raw, nil
}

func marshalReport(report *domain.AuditReport) ([]byte, error) {
	if report == nil {
		return nil, nil
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal audit report: %w", err)
	}
	return raw, nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	body, err := payload(doc)
	if err != nil {
		return err
	}
	report, err := marshalReport(doc.AuditReport)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
INSERT INTO documents (id, kind, reference, status, payload, audit_report, version, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO NOTHING
`,
		doc.ID, string(doc.Kind), doc.Reference, string(doc.Status), body, report,
		doc.Version, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert document rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrConflict, "create document", fmt.Errorf("id %s already exists", doc.ID))
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT payload, audit_report, status, version, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var body, reportRaw []byte
	var status string
	var doc domain.Document
	var version int64
	if err := row.Scan(&body, &reportRaw, &status, &version, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	createdAt, updatedAt := doc.CreatedAt, doc.UpdatedAt
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	doc.CreatedAt, doc.UpdatedAt = createdAt, updatedAt
	doc.Status = domain.Status(status)
	doc.Version = version
	doc.AuditReport = nil
	if len(reportRaw) > 0 {
		var report domain.AuditReport
		if err := json.Unmarshal(reportRaw, &report); err != nil {
			return nil, fmt.Errorf("unmarshal audit report: %w", err)
		}
		doc.AuditReport = &report
	}
	return &doc, nil
}

// Save writes doc only if the stored version still equals expectedVersion.
func (r *DocumentRepository) Save(ctx context.Context, doc *domain.Document, expectedVersion int64) error {
	body, err := payload(doc)
	if err != nil {
		return err
	}
	report, err := marshalReport(doc.AuditReport)
	if err != nil {
		return err
	}

	row := r.db.QueryRowContext(ctx, `
UPDATE documents
SET reference = $3, status = $4, payload = $5, audit_report = $6, version = version + 1, updated_at = $7
WHERE id = $1 AND version = $2
RETURNING version
`, doc.ID, expectedVersion, doc.Reference, string(doc.Status), body, report, doc.UpdatedAt)

	var next int64
	if err := row.Scan(&next); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.saveMiss(ctx, doc.ID, expectedVersion)
		}
		return fmt.Errorf("update document: %w", err)
	}
	doc.Version = next
	return nil
}

func (r *DocumentRepository) saveMiss(ctx context.Context, id string, expectedVersion int64) error {
	var current int64
	err := r.db.QueryRowContext(ctx, `SELECT version FROM documents WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(domain.ErrDocumentNotFound, "save document", fmt.Errorf("id=%s", id))
	}
	if err != nil {
		return fmt.Errorf("read document version: %w", err)
	}
	return domain.WrapError(domain.ErrConflict, "save document",
		fmt.Errorf("id=%s expected version %d, stored %d", id, expectedVersion, current))
}
