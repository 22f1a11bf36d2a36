package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

type CorrectionRepository struct {
	db  queryer
	now func() time.Time
}

func NewCorrectionRepository(db *sql.DB) *CorrectionRepository {
	return &CorrectionRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *CorrectionRepository) Create(ctx context.Context, req *domain.CorrectionRequest) error {
	anomalies, err := json.Marshal(nonNil(req.AnomalyIDs))
	if err != nil {
		return fmt.Errorf("marshal anomaly ids: %w", err)
	}
	expected, err := json.Marshal(nonNil(req.ExpectedDocs))
	if err != nil {
		return fmt.Errorf("marshal expected docs: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO correction_requests (id, document_id, message, anomaly_ids, expected_docs, deadline, requested_by, status, created_at, completed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, req.ID, req.DocumentID, req.Message, anomalies, expected, req.Deadline, req.RequestedBy, string(req.Status), req.CreatedAt, req.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert correction request: %w", err)
	}
	return nil
}

func (r *CorrectionRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.CorrectionRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, message, anomaly_ids, expected_docs, deadline, requested_by, status, created_at, completed_at
FROM correction_requests
WHERE document_id = $1
ORDER BY created_at, id
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list correction requests: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CorrectionRequest, 0)
	for rows.Next() {
		var req domain.CorrectionRequest
		var anomalies, expected []byte
		var status string
		var deadline, completedAt sql.NullTime
		if err := rows.Scan(&req.ID, &req.DocumentID, &req.Message, &anomalies, &expected, &deadline,
			&req.RequestedBy, &status, &req.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan correction request: %w", err)
		}
		if err := json.Unmarshal(anomalies, &req.AnomalyIDs); err != nil {
			return nil, fmt.Errorf("unmarshal anomaly ids: %w", err)
		}
		if err := json.Unmarshal(expected, &req.ExpectedDocs); err != nil {
			return nil, fmt.Errorf("unmarshal expected docs: %w", err)
		}
		req.Status = domain.CorrectionStatus(status)
		req.Deadline = timePtr(deadline)
		req.CompletedAt = timePtr(completedAt)
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate correction requests: %w", err)
	}
	return out, nil
}

func (r *CorrectionRepository) Complete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE correction_requests
SET status = $2, completed_at = $3
WHERE id = $1 AND status = $4
`, id, string(domain.CorrectionCompleted), r.now(), string(domain.CorrectionOpen))
	if err != nil {
		return fmt.Errorf("complete correction request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete correction rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "complete correction", fmt.Errorf("no open correction request id=%s", id))
	}
	return nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
