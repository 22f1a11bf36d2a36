package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

func newAnnotationHarness(t *testing.T) (*memStore, *AnnotationUseCase) {
	t.Helper()
	h := auditedHarness(t, purchaseOrder())
	return h.store, NewAnnotationUseCase(h.store, annotationPort{h.store}, testEngine(), testLogger())
}

func TestAnnotateAppendsComment(t *testing.T) {
	store, uc := newAnnotationHarness(t)

	note, err := uc.Annotate(context.Background(), "po-1", domain.AnnotationInput{
		Field:           "amounts.ttc",
		Comment:         "  check with finance ",
		LinkedAnomalyID: "budget_conformity:budget_overrun",
	}, reviewer)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if note.Type != domain.AnnotationComment || note.Comment != "check with finance" || note.Author != reviewer.ID {
		t.Fatalf("unexpected annotation: %+v", note)
	}
	if len(store.annotations) != 1 {
		t.Fatalf("expected one stored annotation, got %d", len(store.annotations))
	}
}

func TestAnnotateValidation(t *testing.T) {
	_, uc := newAnnotationHarness(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input domain.AnnotationInput
		actor domain.Actor
		want  error
	}{
		{"empty comment", domain.AnnotationInput{Comment: " "}, reviewer, domain.ErrInvalidInput},
		{"decision type", domain.AnnotationInput{Comment: "ok", Type: domain.AnnotationApproval}, reviewer, domain.ErrInvalidInput},
		{"unknown anomaly", domain.AnnotationInput{Comment: "ok", LinkedAnomalyID: "x"}, reviewer, domain.ErrAnomalyNotFound},
		{"no actor", domain.AnnotationInput{Comment: "ok"}, domain.Actor{}, domain.ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := uc.Annotate(ctx, "po-1", tc.input, tc.actor); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestEditAndRemoveOwnAnnotation(t *testing.T) {
	store, uc := newAnnotationHarness(t)
	ctx := context.Background()

	note, err := uc.Annotate(ctx, "po-1", domain.AnnotationInput{Comment: "first"}, reviewer)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}

	if _, err := uc.Edit(ctx, note.ID, "changed", domain.Actor{ID: "intruder"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other author, got %v", err)
	}
	edited, err := uc.Edit(ctx, note.ID, "second", reviewer)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Comment != "second" || edited.UpdatedAt == nil {
		t.Fatalf("unexpected edited annotation: %+v", edited)
	}

	if err := uc.Remove(ctx, note.ID, reviewer); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(store.annotations) != 0 {
		t.Fatalf("expected annotation removed, got %d", len(store.annotations))
	}
	if err := uc.Remove(ctx, note.ID, reviewer); !errors.Is(err, domain.ErrAnnotationNotFound) {
		t.Fatalf("expected ErrAnnotationNotFound, got %v", err)
	}
}

func TestDecisionAnnotationsAreImmutable(t *testing.T) {
	h := auditedHarness(t, purchaseOrder())
	ctx := context.Background()
	if _, err := h.workflow.Decide(ctx, "po-1", domain.DecisionPayload{Decision: domain.DecisionReject, Reason: "no"}, reviewer); err != nil {
		t.Fatalf("reject: %v", err)
	}
	uc := NewAnnotationUseCase(h.store, annotationPort{h.store}, testEngine(), testLogger())

	id := h.store.annotations[0].ID
	if _, err := uc.Edit(ctx, id, "rewritten", reviewer); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestListAnnotationsUnknownDocument(t *testing.T) {
	_, uc := newAnnotationHarness(t)

	if _, err := uc.List(context.Background(), "missing"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
