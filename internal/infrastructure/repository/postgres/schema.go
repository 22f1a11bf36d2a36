package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schemaLockID int64 = 2026031001

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	reference TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	payload JSONB NOT NULL,
	audit_report JSONB,
	version BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);

CREATE TABLE IF NOT EXISTS annotations (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	field TEXT NOT NULL DEFAULT '',
	comment TEXT NOT NULL,
	type TEXT NOT NULL,
	linked_anomaly_id TEXT NOT NULL DEFAULT '',
	author TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_annotations_document ON annotations(document_id, created_at);

CREATE TABLE IF NOT EXISTS anomaly_resolutions (
	document_id TEXT NOT NULL REFERENCES documents(id),
	anomaly_id TEXT NOT NULL,
	resolved_by TEXT NOT NULL,
	resolved_at TIMESTAMPTZ NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (document_id, anomaly_id)
);

CREATE TABLE IF NOT EXISTS correction_requests (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	message TEXT NOT NULL,
	anomaly_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
	expected_docs JSONB NOT NULL DEFAULT '[]'::jsonb,
	deadline TIMESTAMPTZ,
	requested_by TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_corrections_document ON correction_requests(document_id, created_at);

CREATE TABLE IF NOT EXISTS signatures (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	signatory TEXT NOT NULL,
	function_title TEXT NOT NULL DEFAULT '',
	signed_at TIMESTAMPTZ NOT NULL,
	hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS decision_log (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	decision TEXT NOT NULL,
	idempotency_key TEXT,
	from_status TEXT NOT NULL,
	to_status TEXT NOT NULL,
	actor_id TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	target TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_decision_log_idempotency
	ON decision_log(document_id, idempotency_key)
	WHERE idempotency_key IS NOT NULL;
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
