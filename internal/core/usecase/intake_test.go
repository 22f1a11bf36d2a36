package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

func TestRegisterCollapsesLegacyStatus(t *testing.T) {
	store := newMemStore()
	queue := &auditQueueFake{}
	uc := NewIntakeUseCase(store, queue, testEngine(), testLogger())

	in := purchaseOrder()
	in.ID = ""
	in.AuditReport = &domain.AuditReport{Score: 100}
	doc, err := uc.Register(context.Background(), in, "pending_bmo")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if doc.ID == "" || doc.Status != domain.StatusPendingReview || doc.AuditReport != nil {
		t.Fatalf("unexpected registered document: %+v", doc)
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected audit request for %s, got %v", doc.ID, queue.published)
	}
	if _, err := store.GetByID(context.Background(), doc.ID); err != nil {
		t.Fatalf("document not stored: %v", err)
	}
}

func TestRegisterDraftDoesNotRequestAudit(t *testing.T) {
	queue := &auditQueueFake{}
	uc := NewIntakeUseCase(newMemStore(), queue, testEngine(), testLogger())

	doc, err := uc.Register(context.Background(), purchaseOrder(), "draft_ba")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if doc.Status != domain.StatusDraft || len(queue.published) != 0 {
		t.Fatalf("unexpected draft registration: status=%s published=%v", doc.Status, queue.published)
	}
}

func TestRegisterRejectsUnknownStatus(t *testing.T) {
	uc := NewIntakeUseCase(newMemStore(), nil, testEngine(), testLogger())

	if _, err := uc.Register(context.Background(), purchaseOrder(), "archived"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterQueuesInFlightAuditForReview(t *testing.T) {
	store := newMemStore()
	queue := &auditQueueFake{}
	uc := NewIntakeUseCase(store, queue, testEngine(), testLogger())

	doc, err := uc.Register(context.Background(), purchaseOrder(), "auditing")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if doc.Status != domain.StatusPendingReview {
		t.Fatalf("expected pending_review, got %s", doc.Status)
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected audit request for %s, got %v", doc.ID, queue.published)
	}

	h := newHarness(t, store.doc(doc.ID))
	if _, err := h.audit.RunAudit(context.Background(), doc.ID); err != nil {
		t.Fatalf("registered document must be auditable: %v", err)
	}
}

func TestRegisterRefusesTerminalStatus(t *testing.T) {
	for _, raw := range []string{"approved_bmo", "rejected", "sent_supplier"} {
		store := newMemStore()
		uc := NewIntakeUseCase(store, nil, testEngine(), testLogger())

		_, err := uc.Register(context.Background(), purchaseOrder(), raw)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", raw, err)
		}
		if len(store.docs) != 0 {
			t.Fatalf("%s: terminal document must not be stored", raw)
		}
	}
}
