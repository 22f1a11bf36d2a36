package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

type DecisionLog struct {
	db queryer
}

func NewDecisionLog(db *sql.DB) *DecisionLog {
	return &DecisionLog{db: db}
}

func (l *DecisionLog) Append(ctx context.Context, rec *domain.DecisionRecord) error {
	var key sql.NullString
	if rec.IdempotencyKey != "" {
		key = sql.NullString{String: rec.IdempotencyKey, Valid: true}
	}
	_, err := l.db.ExecContext(ctx, `
INSERT INTO decision_log (id, document_id, decision, idempotency_key, from_status, to_status, actor_id, reason, target, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, rec.ID, rec.DocumentID, string(rec.Decision), key, string(rec.FromStatus), string(rec.ToStatus),
		rec.ActorID, rec.Reason, rec.Target, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert decision record: %w", err)
	}
	return nil
}

// FindByIdempotencyKey returns nil without error when the key is unused.
func (l *DecisionLog) FindByIdempotencyKey(ctx context.Context, documentID, key string) (*domain.DecisionRecord, error) {
	row := l.db.QueryRowContext(ctx, `
SELECT id, document_id, decision, idempotency_key, from_status, to_status, actor_id, reason, target, created_at
FROM decision_log
WHERE document_id = $1 AND idempotency_key = $2
`, documentID, key)

	var rec domain.DecisionRecord
	var decision, from, to string
	var storedKey sql.NullString
	err := row.Scan(&rec.ID, &rec.DocumentID, &decision, &storedKey, &from, &to, &rec.ActorID, &rec.Reason, &rec.Target, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan decision record: %w", err)
	}
	rec.Decision = domain.Decision(decision)
	rec.IdempotencyKey = storedKey.String
	rec.FromStatus = domain.Status(from)
	rec.ToStatus = domain.Status(to)
	return &rec, nil
}
