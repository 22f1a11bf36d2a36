package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

type AnnotationRepository struct {
	db queryer
}

func NewAnnotationRepository(db *sql.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

const annotationColumns = `id, document_id, field, comment, type, linked_anomaly_id, author, created_at, updated_at`

func (r *AnnotationRepository) Append(ctx context.Context, a *domain.Annotation) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO annotations (`+annotationColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, a.ID, a.DocumentID, a.Field, a.Comment, string(a.Type), a.LinkedAnomalyID, a.Author, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert annotation: %w", err)
	}
	return nil
}

func (r *AnnotationRepository) FindByID(ctx context.Context, id string) (*domain.Annotation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+annotationColumns+` FROM annotations WHERE id = $1`, id)
	a, err := scanAnnotation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrAnnotationNotFound, "find annotation", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan annotation: %w", err)
	}
	return &a, nil
}

func (r *AnnotationRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.Annotation, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+annotationColumns+`
FROM annotations
WHERE document_id = $1
ORDER BY created_at, id
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Annotation, 0)
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annotations: %w", err)
	}
	return out, nil
}

func (r *AnnotationRepository) Update(ctx context.Context, a *domain.Annotation) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE annotations
SET comment = $2, updated_at = $3
WHERE id = $1
`, a.ID, a.Comment, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update annotation: %w", err)
	}
	return affectedOrNotFound(result, "update annotation", a.ID)
}

func (r *AnnotationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM annotations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	return affectedOrNotFound(result, "delete annotation", id)
}

// MarkResolved keeps the first resolution of an anomaly; the returned record
// is always the stored one.
func (r *AnnotationRepository) MarkResolved(ctx context.Context, res domain.AnomalyResolution) (domain.AnomalyResolution, error) {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO anomaly_resolutions (document_id, anomaly_id, resolved_by, resolved_at, comment)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (document_id, anomaly_id) DO NOTHING
`, res.DocumentID, res.AnomalyID, res.ResolvedBy, res.ResolvedAt, res.Comment); err != nil {
		return domain.AnomalyResolution{}, fmt.Errorf("insert anomaly resolution: %w", err)
	}

	var stored domain.AnomalyResolution
	err := r.db.QueryRowContext(ctx, `
SELECT document_id, anomaly_id, resolved_by, resolved_at, comment
FROM anomaly_resolutions
WHERE document_id = $1 AND anomaly_id = $2
`, res.DocumentID, res.AnomalyID).Scan(&stored.DocumentID, &stored.AnomalyID, &stored.ResolvedBy, &stored.ResolvedAt, &stored.Comment)
	if err != nil {
		return domain.AnomalyResolution{}, fmt.Errorf("read anomaly resolution: %w", err)
	}
	stored.ResolvedAt = stored.ResolvedAt.UTC()
	return stored, nil
}

func scanAnnotation(row rowScanner) (domain.Annotation, error) {
	var a domain.Annotation
	var typ string
	var updatedAt sql.NullTime
	err := row.Scan(&a.ID, &a.DocumentID, &a.Field, &a.Comment, &typ, &a.LinkedAnomalyID, &a.Author, &a.CreatedAt, &updatedAt)
	if err != nil {
		return domain.Annotation{}, err
	}
	a.Type = domain.AnnotationType(typ)
	if updatedAt.Valid {
		t := updatedAt.Time
		a.UpdatedAt = &t
	}
	return a, nil
}

func affectedOrNotFound(result sql.Result, op, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrAnnotationNotFound, op, fmt.Errorf("id=%s", id))
	}
	return nil
}
