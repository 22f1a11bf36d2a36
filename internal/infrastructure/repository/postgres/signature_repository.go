package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

// SignatureRepository only inserts and reads; signatures are never updated.
type SignatureRepository struct {
	db queryer
}

func NewSignatureRepository(db *sql.DB) *SignatureRepository {
	return &SignatureRepository{db: db}
}

func (r *SignatureRepository) Create(ctx context.Context, sig *domain.Signature) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO signatures (id, document_id, signatory, function_title, signed_at, hash)
VALUES ($1,$2,$3,$4,$5,$6)
`, sig.ID, sig.DocumentID, sig.Signatory, sig.FunctionTitle, sig.SignedAt, sig.Hash)
	if err != nil {
		return fmt.Errorf("insert signature: %w", err)
	}
	return nil
}

func (r *SignatureRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.Signature, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, signatory, function_title, signed_at, hash
FROM signatures
WHERE document_id = $1
ORDER BY signed_at, id
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Signature, 0)
	for rows.Next() {
		var s domain.Signature
		if err := rows.Scan(&s.ID, &s.DocumentID, &s.Signatory, &s.FunctionTitle, &s.SignedAt, &s.Hash); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signatures: %w", err)
	}
	return out, nil
}
