// Package workflow holds the document status graph. It is pure: callers
// persist the resulting status themselves.
package workflow

import "github.com/kirillkom/doc-governance/internal/core/domain"

type Action string

const (
	ActionSubmit             Action = "submit"
	ActionRunAudit           Action = "run_audit"
	ActionApprove            Action = "approve"
	ActionReject             Action = "reject"
	ActionRequestComplement  Action = "request_complement"
	ActionEscalate           Action = "escalate"
	ActionCompleteCorrection Action = "complete_correction"
)

// edge with an empty target is a self-loop.
type edge struct {
	sources []domain.Status
	target  domain.Status
}

// graph is the single allowed edge set. run_audit targets in_audit; its
// completion is resolved by AuditOutcome.
var graph = map[Action]edge{
	ActionSubmit: {
		sources: []domain.Status{domain.StatusDraft},
		target:  domain.StatusPendingReview,
	},
	ActionRunAudit: {
		sources: []domain.Status{domain.StatusPendingReview, domain.StatusAuditRequired},
		target:  domain.StatusInAudit,
	},
	ActionApprove: {
		sources: []domain.Status{domain.StatusPendingReview, domain.StatusAuditRequired},
		target:  domain.StatusApproved,
	},
	ActionReject: {
		sources: []domain.Status{
			domain.StatusDraft,
			domain.StatusPendingReview,
			domain.StatusAuditRequired,
			domain.StatusInAudit,
			domain.StatusNeedsComplement,
		},
		target: domain.StatusRejected,
	},
	ActionRequestComplement: {
		sources: []domain.Status{domain.StatusPendingReview, domain.StatusAuditRequired},
		target:  domain.StatusNeedsComplement,
	},
	// escalate leaves the status alone so a blocking report stays visible.
	ActionEscalate: {
		sources: []domain.Status{domain.StatusPendingReview, domain.StatusAuditRequired},
	},
	ActionCompleteCorrection: {
		sources: []domain.Status{domain.StatusNeedsComplement},
		target:  domain.StatusPendingReview,
	},
}

// Transition returns the status reached by applying action from status, or
// an *domain.InvalidTransitionError.
func Transition(from domain.Status, action Action) (domain.Status, error) {
	e, ok := graph[action]
	if !ok || !contains(e.sources, from) {
		return from, &domain.InvalidTransitionError{From: from, Action: string(action)}
	}
	if e.target == "" {
		return from, nil
	}
	return e.target, nil
}

// AuditOutcome is the status after an audit started from origin completes.
func AuditOutcome(origin domain.Status, blocking bool) domain.Status {
	if blocking {
		return domain.StatusAuditRequired
	}
	return origin
}

// ActionFor maps an actor decision to its workflow action.
func ActionFor(d domain.Decision) (Action, bool) {
	switch d {
	case domain.DecisionApprove:
		return ActionApprove, true
	case domain.DecisionReject:
		return ActionReject, true
	case domain.DecisionRequestComplement:
		return ActionRequestComplement, true
	case domain.DecisionEscalate:
		return ActionEscalate, true
	default:
		return "", false
	}
}

// AllowedActions lists actions legal from status in a stable order.
func AllowedActions(from domain.Status) []Action {
	order := []Action{
		ActionSubmit,
		ActionRunAudit,
		ActionApprove,
		ActionReject,
		ActionRequestComplement,
		ActionEscalate,
		ActionCompleteCorrection,
	}
	out := make([]Action, 0, len(order))
	for _, a := range order {
		if contains(graph[a].sources, from) {
			out = append(out, a)
		}
	}
	return out
}

func contains(list []domain.Status, s domain.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
