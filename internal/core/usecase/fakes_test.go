package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/doc-governance/internal/core/domain"
	"github.com/kirillkom/doc-governance/internal/core/governance"
	"github.com/kirillkom/doc-governance/internal/core/ports"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine() *governance.Engine {
	return governance.NewEngine(governance.DefaultRules(), governance.FixedClock(testNow))
}

var reviewer = domain.Actor{ID: "u-1", Name: "Awa Diallo", Role: "bureau", FunctionTitle: "Head of Bureau"}

// memStore is an in-memory implementation of every persistence port.
type memStore struct {
	mu          sync.Mutex
	docs        map[string]*domain.Document
	saves       int
	saveErr     error
	failOn      map[string]error
	annotations []domain.Annotation
	resolutions map[string]domain.AnomalyResolution
	corrections []domain.CorrectionRequest
	signatures  []domain.Signature
	decisions   []domain.DecisionRecord
}

func newMemStore(docs ...*domain.Document) *memStore {
	s := &memStore{
		docs:        make(map[string]*domain.Document),
		resolutions: make(map[string]domain.AnomalyResolution),
	}
	for _, d := range docs {
		s.docs[d.ID] = d.Clone()
	}
	return s
}

func (s *memStore) Create(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return domain.ErrConflict
	}
	s.docs[doc.ID] = doc.Clone()
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return doc.Clone(), nil
}

func (s *memStore) Save(_ context.Context, doc *domain.Document, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	current, ok := s.docs[doc.ID]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	if current.Version != expectedVersion {
		return domain.ErrConflict
	}
	doc.Version = expectedVersion + 1
	s.docs[doc.ID] = doc.Clone()
	s.saves++
	return nil
}

// Commit checks every part before writing any, so a failing commit leaves
// the store exactly as it was. failOn keys are signature, correction,
// annotation and decision.
func (s *memStore) Commit(_ context.Context, c ports.WorkflowCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	current, ok := s.docs[c.Document.ID]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	if current.Version != c.ExpectedVersion {
		return domain.ErrConflict
	}
	parts := []struct {
		name    string
		present bool
	}{
		{"correction", c.Correction != nil},
		{"signature", c.Signature != nil},
		{"annotation", c.Annotation != nil},
		{"decision", c.Record != nil},
	}
	for _, p := range parts {
		if err := s.failOn[p.name]; p.present && err != nil {
			return fmt.Errorf("insert %s: %w", p.name, err)
		}
	}
	completed := make([]int, 0, len(c.CompletedCorrections))
	for _, id := range c.CompletedCorrections {
		idx := -1
		for i := range s.corrections {
			if s.corrections[i].ID == id && s.corrections[i].Status == domain.CorrectionOpen {
				idx = i
			}
		}
		if idx < 0 {
			return fmt.Errorf("no open correction request id=%s", id)
		}
		completed = append(completed, idx)
	}

	for _, i := range completed {
		now := testNow
		s.corrections[i].Status = domain.CorrectionCompleted
		s.corrections[i].CompletedAt = &now
	}
	if c.Correction != nil {
		s.corrections = append(s.corrections, *c.Correction)
	}
	if c.Signature != nil {
		s.signatures = append(s.signatures, *c.Signature)
	}
	if c.Annotation != nil {
		s.annotations = append(s.annotations, *c.Annotation)
	}
	if c.Record != nil {
		s.decisions = append(s.decisions, *c.Record)
	}
	c.Document.Version = c.ExpectedVersion + 1
	s.docs[c.Document.ID] = c.Document.Clone()
	s.saves++
	return nil
}

func (s *memStore) doc(id string) *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[id].Clone()
}

type annotationPort struct{ *memStore }

func (a annotationPort) Append(_ context.Context, note *domain.Annotation) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.annotations = append(a.annotations, *note)
	return nil
}

func (a annotationPort) FindByID(_ context.Context, id string) (*domain.Annotation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, n := range a.annotations {
		if n.ID == id {
			out := n
			return &out, nil
		}
	}
	return nil, domain.ErrAnnotationNotFound
}

func (a annotationPort) ListByDocument(_ context.Context, documentID string) ([]domain.Annotation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Annotation, 0)
	for _, n := range a.annotations {
		if n.DocumentID == documentID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (a annotationPort) Update(_ context.Context, note *domain.Annotation) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.annotations {
		if a.annotations[i].ID == note.ID {
			a.annotations[i] = *note
			return nil
		}
	}
	return domain.ErrAnnotationNotFound
}

func (a annotationPort) Delete(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.annotations {
		if a.annotations[i].ID == id {
			a.annotations = append(a.annotations[:i], a.annotations[i+1:]...)
			return nil
		}
	}
	return domain.ErrAnnotationNotFound
}

func (a annotationPort) MarkResolved(_ context.Context, r domain.AnomalyResolution) (domain.AnomalyResolution, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := r.DocumentID + "|" + r.AnomalyID
	if prior, ok := a.resolutions[key]; ok {
		return prior, nil
	}
	a.resolutions[key] = r
	return r, nil
}

type correctionPort struct{ *memStore }

func (c correctionPort) Create(_ context.Context, req *domain.CorrectionRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.corrections = append(c.corrections, *req)
	return nil
}

func (c correctionPort) ListByDocument(_ context.Context, documentID string) ([]domain.CorrectionRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.CorrectionRequest, 0)
	for _, r := range c.corrections {
		if r.DocumentID == documentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c correctionPort) Complete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.corrections {
		if c.corrections[i].ID == id {
			now := testNow
			c.corrections[i].Status = domain.CorrectionCompleted
			c.corrections[i].CompletedAt = &now
			return nil
		}
	}
	return errors.New("correction not found")
}

type signaturePort struct{ *memStore }

func (p signaturePort) Create(_ context.Context, sig *domain.Signature) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signatures = append(p.signatures, *sig)
	return nil
}

func (p signaturePort) ListByDocument(_ context.Context, documentID string) ([]domain.Signature, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Signature, 0)
	for _, s := range p.signatures {
		if s.DocumentID == documentID {
			out = append(out, s)
		}
	}
	return out, nil
}

type decisionPort struct{ *memStore }

func (p decisionPort) Append(_ context.Context, r *domain.DecisionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decisions = append(p.decisions, *r)
	return nil
}

func (p decisionPort) FindByIdempotencyKey(_ context.Context, documentID, key string) (*domain.DecisionRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.decisions {
		if r.DocumentID == documentID && r.IdempotencyKey == key {
			out := r
			return &out, nil
		}
	}
	return nil, nil
}

type publisherFake struct {
	mu          sync.Mutex
	decisions   []domain.DecisionEvent
	escalations []domain.EscalationEvent
	err         error
}

func (p *publisherFake) PublishDecision(_ context.Context, e domain.DecisionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decisions = append(p.decisions, e)
	return p.err
}

func (p *publisherFake) RouteEscalation(_ context.Context, e domain.EscalationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.escalations = append(p.escalations, e)
	return p.err
}

type auditQueueFake struct {
	mu        sync.Mutex
	published []string
}

func (q *auditQueueFake) PublishAuditRequested(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, id)
	return nil
}

func (q *auditQueueFake) SubscribeAuditRequested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type observerFake struct {
	mu        sync.Mutex
	audits    int
	decisions map[string]int
}

func (o *observerFake) ObserveAudit(*domain.AuditReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.audits++
}

func (o *observerFake) ObserveDecision(d domain.Decision, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.decisions == nil {
		o.decisions = make(map[string]int)
	}
	o.decisions[string(d)+":"+outcome]++
}

type harness struct {
	store     *memStore
	publisher *publisherFake
	queue     *auditQueueFake
	observer  *observerFake
	audit     *AuditUseCase
	workflow  *WorkflowUseCase
}

func newHarness(t *testing.T, docs ...*domain.Document) *harness {
	t.Helper()
	store := newMemStore(docs...)
	publisher := &publisherFake{}
	queue := &auditQueueFake{}
	observer := &observerFake{}
	engine := testEngine()
	locks := NewDocumentLocks()
	return &harness{
		store:     store,
		publisher: publisher,
		queue:     queue,
		observer:  observer,
		audit:     NewAuditUseCase(store, annotationPort{store}, engine, locks, observer, testLogger()),
		workflow: NewWorkflowUseCase(WorkflowDeps{
			Repo:        store,
			Store:       store,
			Corrections: correctionPort{store},
			Decisions:   decisionPort{store},
			Publisher:   publisher,
			AuditQueue:  queue,
			Engine:      engine,
			Locks:       locks,
			Observer:    observer,
			Logger:      testLogger(),
		}),
	}
}

// purchaseOrder is above the bureau threshold and over the remaining project
// budget; its audit scores 75 with no blocking anomaly.
func purchaseOrder() *domain.Document {
	return &domain.Document{
		ID:          "po-1",
		Kind:        domain.KindPurchaseOrder,
		Reference:   "BC-2026-001",
		Amounts:     domain.Amounts{HT: 12_711_864, VAT: 2_288_136, TTC: 15_000_000, Currency: "XOF"},
		Supplier:    &domain.Supplier{ID: "sup-1", Name: "Sahel BTP", OrderHistory: 12, Rating: 4.2},
		Project:     &domain.Project{ID: "prj-1", Budget: 20_000_000, Committed: 15_000_000},
		Bureau:      "BA",
		EmittedAt:   testNow.AddDate(0, 0, -3),
		DeadlineAt:  timePtr(testNow.AddDate(0, 1, 0)),
		Attachments: []string{"quote"},
		Status:      domain.StatusPendingReview,

		PurchaseOrder: &domain.PurchaseOrderDetails{DeliveryAddress: "site A"},
	}
}

// overdueInvoice is ten days past due, which is a critical anomaly.
func overdueInvoice() *domain.Document {
	return &domain.Document{
		ID:          "inv-1",
		Kind:        domain.KindInvoice,
		Reference:   "FA-77",
		Amounts:     domain.Amounts{HT: 1_000_000, VAT: 180_000, TTC: 1_180_000},
		Supplier:    &domain.Supplier{ID: "sup-1", OrderHistory: 4, Rating: 4},
		Project:     &domain.Project{ID: "prj-1", Budget: 50_000_000, Committed: 10_000_000},
		EmittedAt:   testNow.AddDate(0, -2, 0),
		DeadlineAt:  timePtr(testNow.AddDate(0, 0, -10)),
		Attachments: []string{"invoice_scan", "delivery_note"},
		Status:      domain.StatusPendingReview,

		Invoice: &domain.InvoiceDetails{PurchaseOrderRef: "BC-2026-001"},
	}
}

func assertStatus(t *testing.T, store *memStore, id string, want domain.Status) {
	t.Helper()
	if got := store.doc(id).Status; got != want {
		t.Fatalf("expected status %s, got %s", want, got)
	}
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if strings.Contains(v, want) {
			return true
		}
	}
	return false
}
