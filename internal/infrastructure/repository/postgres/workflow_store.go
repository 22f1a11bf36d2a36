package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/doc-governance/internal/core/domain"
	"github.com/kirillkom/doc-governance/internal/core/ports"
)

// WorkflowStore writes a status change and its trail records in one
// transaction, reusing the per-table repositories against the tx.
type WorkflowStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewWorkflowStore(db *sql.DB) *WorkflowStore {
	return &WorkflowStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *WorkflowStore) Commit(ctx context.Context, c ports.WorkflowCommit) (err error) {
	if c.Document == nil {
		return domain.WrapError(domain.ErrInvalidInput, "commit workflow", errors.New("document is required"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin workflow tx: %w", err)
	}
	version := c.Document.Version
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			c.Document.Version = version
		}
	}()

	// The document row goes first so a stale version fails before any insert.
	if err = (&DocumentRepository{db: tx}).Save(ctx, c.Document, c.ExpectedVersion); err != nil {
		return err
	}

	corrections := &CorrectionRepository{db: tx, now: s.now}
	for _, id := range c.CompletedCorrections {
		if err = corrections.Complete(ctx, id); err != nil {
			return err
		}
	}
	if c.Correction != nil {
		if err = corrections.Create(ctx, c.Correction); err != nil {
			return err
		}
	}
	if c.Signature != nil {
		if err = (&SignatureRepository{db: tx}).Create(ctx, c.Signature); err != nil {
			return err
		}
	}
	if c.Annotation != nil {
		if err = (&AnnotationRepository{db: tx}).Append(ctx, c.Annotation); err != nil {
			return err
		}
	}
	if c.Record != nil {
		if err = (&DecisionLog{db: tx}).Append(ctx, c.Record); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit workflow tx: %w", err)
	}
	return nil
}
