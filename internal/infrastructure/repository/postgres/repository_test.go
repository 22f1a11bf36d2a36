package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func sampleDocument() *domain.Document {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	return &domain.Document{
		ID:          "po-1",
		Kind:        domain.KindPurchaseOrder,
		Reference:   "BC-1",
		Amounts:     domain.Amounts{HT: 100, VAT: 18, TTC: 118},
		Supplier:    &domain.Supplier{ID: "s-1", OrderHistory: 2, Rating: 4},
		Project:     &domain.Project{ID: "p-1", Budget: 1000},
		EmittedAt:   now,
		Attachments: []string{"quote"},
		Status:      domain.StatusPendingReview,
		CreatedAt:   now,
		UpdatedAt:   now,

		PurchaseOrder: &domain.PurchaseOrderDetails{},
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	expectationsMet(t, mock)
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery("SELECT payload, audit_report, status, version").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestGetByIDDecodesPayloadAndReport(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewDocumentRepository(db)

	doc := sampleDocument()
	body, err := payload(doc)
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	report, _ := json.Marshal(domain.AuditReport{ID: "r-1", Score: 90, RiskLevel: domain.RiskLow})

	rows := sqlmock.NewRows([]string{"payload", "audit_report", "status", "version", "created_at", "updated_at"}).
		AddRow(body, report, string(domain.StatusAuditRequired), int64(4), doc.CreatedAt, doc.UpdatedAt)
	mock.ExpectQuery("FROM documents").WithArgs("po-1").WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "po-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != domain.StatusAuditRequired || got.Version != 4 {
		t.Fatalf("expected columns to win over payload, got status=%s version=%d", got.Status, got.Version)
	}
	if got.AuditReport == nil || got.AuditReport.Score != 90 {
		t.Fatalf("unexpected report: %+v", got.AuditReport)
	}
	if got.Supplier == nil || got.Supplier.ID != "s-1" || got.Amounts.TTC != 118 {
		t.Fatalf("unexpected payload decode: %+v", got)
	}
	expectationsMet(t, mock)
}

func TestSaveAdvancesVersion(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewDocumentRepository(db)
	doc := sampleDocument()
	doc.Version = 2

	mock.ExpectQuery("UPDATE documents").
		WithArgs("po-1", int64(2), "BC-1", string(domain.StatusPendingReview), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(3)))

	if err := repo.Save(context.Background(), doc, 2); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if doc.Version != 3 {
		t.Fatalf("expected version 3, got %d", doc.Version)
	}
	expectationsMet(t, mock)
}

func TestSaveReportsConflictOnStaleVersion(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery("UPDATE documents").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT version FROM documents").
		WithArgs("po-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(5)))

	err := repo.Save(context.Background(), sampleDocument(), 4)
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestSaveReportsNotFound(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery("UPDATE documents").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT version FROM documents").WithArgs("po-1").WillReturnError(sql.ErrNoRows)

	err := repo.Save(context.Background(), sampleDocument(), 0)
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestCreateDuplicateIsConflict(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Create(context.Background(), sampleDocument()); !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestMarkResolvedReturnsStoredRecord(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewAnnotationRepository(db)

	first := time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO anomaly_resolutions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM anomaly_resolutions").
		WithArgs("inv-1", "deadline_conformity:overdue").
		WillReturnRows(sqlmock.NewRows([]string{"document_id", "anomaly_id", "resolved_by", "resolved_at", "comment"}).
			AddRow("inv-1", "deadline_conformity:overdue", "u-1", first, "paid"))

	got, err := repo.MarkResolved(context.Background(), domain.AnomalyResolution{
		DocumentID: "inv-1",
		AnomalyID:  "deadline_conformity:overdue",
		ResolvedBy: "u-2",
		ResolvedAt: first.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("MarkResolved() error = %v", err)
	}
	if got.ResolvedBy != "u-1" || !got.ResolvedAt.Equal(first) {
		t.Fatalf("expected first resolution to win, got %+v", got)
	}
	expectationsMet(t, mock)
}

func TestDeleteAnnotationNotFound(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewAnnotationRepository(db)

	mock.ExpectExec("DELETE FROM annotations").WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "missing"); !domain.IsKind(err, domain.ErrAnnotationNotFound) {
		t.Fatalf("expected ErrAnnotationNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestListCorrectionsDecodesJSONColumns(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewCorrectionRepository(db)

	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "document_id", "message", "anomaly_ids", "expected_docs", "deadline", "requested_by", "status", "created_at", "completed_at"}).
		AddRow("c-1", "po-1", "send quote", []byte(`["budget_conformity:budget_overrun"]`), []byte(`["quote"]`), nil, "u-1", "open", now, nil)
	mock.ExpectQuery("FROM correction_requests").WithArgs("po-1").WillReturnRows(rows)

	got, err := repo.ListByDocument(context.Background(), "po-1")
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(got) != 1 || len(got[0].AnomalyIDs) != 1 || got[0].ExpectedDocs[0] != "quote" || got[0].Deadline != nil {
		t.Fatalf("unexpected corrections: %+v", got)
	}
	expectationsMet(t, mock)
}

func TestFindByIdempotencyKeyUnused(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	log := NewDecisionLog(db)

	mock.ExpectQuery("FROM decision_log").WithArgs("po-1", "k-1").WillReturnError(sql.ErrNoRows)

	rec, err := log.FindByIdempotencyKey(context.Background(), "po-1", "k-1")
	if err != nil || rec != nil {
		t.Fatalf("expected no record, got %+v, %v", rec, err)
	}
	expectationsMet(t, mock)
}
