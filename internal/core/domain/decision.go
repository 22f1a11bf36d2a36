package domain

import "time"

type Decision string

const (
	DecisionApprove           Decision = "approve"
	DecisionReject            Decision = "reject"
	DecisionRequestComplement Decision = "request_complement"
	DecisionEscalate          Decision = "escalate"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionApprove, DecisionReject, DecisionRequestComplement, DecisionEscalate:
		return true
	default:
		return false
	}
}

// Actor is the acting user resolved by the identity collaborator.
type Actor struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Role          string `json:"role,omitempty"`
	FunctionTitle string `json:"function_title,omitempty"`
}

type DecisionPayload struct {
	Decision       Decision   `json:"decision"`
	Reason         string     `json:"reason,omitempty"`
	Conditions     []string   `json:"conditions,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	ExpectedDocs   []string   `json:"expected_docs,omitempty"`
	Target         string     `json:"target,omitempty"`
	AnomalyIDs     []string   `json:"anomaly_ids,omitempty"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
}

// Recommendation is the advisory output of the recommender. The workflow
// never relies on it for gating.
type Recommendation struct {
	Decision          Decision  `json:"decision"`
	RiskLevel         RiskLevel `json:"risk_level"`
	Rationale         string    `json:"rationale"`
	EscalationReasons []string  `json:"escalation_reasons"`
	BlockingReasons   []string  `json:"blocking_reasons,omitempty"`
}

type DecisionRecord struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	Decision       Decision  `json:"decision"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	FromStatus     Status    `json:"from_status"`
	ToStatus       Status    `json:"to_status"`
	ActorID        string    `json:"actor_id"`
	Reason         string    `json:"reason,omitempty"`
	Target         string    `json:"target,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type DecisionEvent struct {
	DocumentID string    `json:"document_id"`
	Decision   Decision  `json:"decision"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	ActorID    string    `json:"actor_id"`
	Reason     string    `json:"reason,omitempty"`
	Score      int       `json:"score"`
	RiskLevel  RiskLevel `json:"risk_level,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EscalationEvent struct {
	DocumentID        string    `json:"document_id"`
	Target            string    `json:"target"`
	Reason            string    `json:"reason"`
	EscalationReasons []string  `json:"escalation_reasons,omitempty"`
	RequestedBy       string    `json:"requested_by"`
	OccurredAt        time.Time `json:"occurred_at"`
}
