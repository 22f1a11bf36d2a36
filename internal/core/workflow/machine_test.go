package workflow

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

var allStatuses = []domain.Status{
	domain.StatusDraft,
	domain.StatusPendingReview,
	domain.StatusAuditRequired,
	domain.StatusInAudit,
	domain.StatusNeedsComplement,
	domain.StatusApproved,
	domain.StatusRejected,
	domain.StatusSentDownstream,
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from   domain.Status
		action Action
		want   domain.Status
	}{
		{domain.StatusDraft, ActionSubmit, domain.StatusPendingReview},
		{domain.StatusPendingReview, ActionRunAudit, domain.StatusInAudit},
		{domain.StatusAuditRequired, ActionRunAudit, domain.StatusInAudit},
		{domain.StatusPendingReview, ActionApprove, domain.StatusApproved},
		{domain.StatusAuditRequired, ActionApprove, domain.StatusApproved},
		{domain.StatusNeedsComplement, ActionReject, domain.StatusRejected},
		{domain.StatusDraft, ActionReject, domain.StatusRejected},
		{domain.StatusAuditRequired, ActionRequestComplement, domain.StatusNeedsComplement},
		{domain.StatusAuditRequired, ActionEscalate, domain.StatusAuditRequired},
		{domain.StatusPendingReview, ActionEscalate, domain.StatusPendingReview},
		{domain.StatusNeedsComplement, ActionCompleteCorrection, domain.StatusPendingReview},
	}
	for _, tc := range cases {
		got, err := Transition(tc.from, tc.action)
		if err != nil {
			t.Fatalf("Transition(%s, %s) error = %v", tc.from, tc.action, err)
		}
		if got != tc.want {
			t.Fatalf("Transition(%s, %s) = %s, want %s", tc.from, tc.action, got, tc.want)
		}
	}
}

func TestTerminalStatusesAllowNothing(t *testing.T) {
	for _, s := range allStatuses {
		if !s.IsTerminal() {
			continue
		}
		if actions := AllowedActions(s); len(actions) != 0 {
			t.Fatalf("terminal status %s allows %v", s, actions)
		}
		if _, err := Transition(s, ActionReject); !domain.IsKind(err, domain.ErrInvalidTransition) {
			t.Fatalf("expected invalid transition from %s, got %v", s, err)
		}
	}
}

func TestInvalidTransitionKeepsStatus(t *testing.T) {
	got, err := Transition(domain.StatusDraft, ActionApprove)
	if err == nil {
		t.Fatalf("expected error")
	}
	var typed *domain.InvalidTransitionError
	if !errors.As(err, &typed) || typed.From != domain.StatusDraft || typed.Action != "approve" {
		t.Fatalf("expected typed invalid transition error, got %#v", err)
	}
	if got != domain.StatusDraft {
		t.Fatalf("expected status unchanged, got %s", got)
	}
	if _, err := Transition(domain.StatusPendingReview, Action("dispatch")); !domain.IsKind(err, domain.ErrInvalidTransition) {
		t.Fatalf("unknown action must be rejected, got %v", err)
	}
}

func TestAuditOutcome(t *testing.T) {
	if got := AuditOutcome(domain.StatusPendingReview, true); got != domain.StatusAuditRequired {
		t.Fatalf("blocking audit should require audit, got %s", got)
	}
	if got := AuditOutcome(domain.StatusPendingReview, false); got != domain.StatusPendingReview {
		t.Fatalf("clean audit should return to origin, got %s", got)
	}
	if got := AuditOutcome(domain.StatusAuditRequired, false); got != domain.StatusAuditRequired {
		t.Fatalf("clean audit should keep audit_required, got %s", got)
	}
}

func TestAllowedActionsFromPendingReview(t *testing.T) {
	want := []Action{ActionRunAudit, ActionApprove, ActionReject, ActionRequestComplement, ActionEscalate}
	if got := AllowedActions(domain.StatusPendingReview); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
