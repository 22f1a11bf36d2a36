package domain

import "time"

type AnnotationType string

const (
	AnnotationComment    AnnotationType = "comment"
	AnnotationCorrection AnnotationType = "correction"
	AnnotationApproval   AnnotationType = "approval"
	AnnotationRejection  AnnotationType = "rejection"
)

func (t AnnotationType) Valid() bool {
	switch t {
	case AnnotationComment, AnnotationCorrection, AnnotationApproval, AnnotationRejection:
		return true
	default:
		return false
	}
}

type Annotation struct {
	ID              string         `json:"id"`
	DocumentID      string         `json:"document_id"`
	Field           string         `json:"field,omitempty"`
	Comment         string         `json:"comment"`
	Type            AnnotationType `json:"type"`
	LinkedAnomalyID string         `json:"linked_anomaly_id,omitempty"`
	Author          string         `json:"author"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       *time.Time     `json:"updated_at,omitempty"`
}

// AnomalyResolution is the append-only record of an anomaly being resolved.
// At most one exists per (document, anomaly).
type AnomalyResolution struct {
	DocumentID string    `json:"document_id"`
	AnomalyID  string    `json:"anomaly_id"`
	ResolvedBy string    `json:"resolved_by"`
	ResolvedAt time.Time `json:"resolved_at"`
	Comment    string    `json:"comment,omitempty"`
}

type CorrectionStatus string

const (
	CorrectionOpen      CorrectionStatus = "open"
	CorrectionCompleted CorrectionStatus = "completed"
)

type CorrectionRequest struct {
	ID           string           `json:"id"`
	DocumentID   string           `json:"document_id"`
	Message      string           `json:"message"`
	AnomalyIDs   []string         `json:"anomaly_ids"`
	ExpectedDocs []string         `json:"expected_docs,omitempty"`
	Deadline     *time.Time       `json:"deadline,omitempty"`
	RequestedBy  string           `json:"requested_by"`
	Status       CorrectionStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// Signature is created once per approval and never modified.
type Signature struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	Signatory     string    `json:"signatory"`
	FunctionTitle string    `json:"function_title"`
	SignedAt      time.Time `json:"signed_at"`
	Hash          string    `json:"hash"`
}

type AnnotationInput struct {
	Field           string         `json:"field,omitempty"`
	Comment         string         `json:"comment"`
	Type            AnnotationType `json:"type"`
	LinkedAnomalyID string         `json:"linked_anomaly_id,omitempty"`
}

// AuditTrail gathers everything recorded about one document for export.
type AuditTrail struct {
	Document    *Document           `json:"document"`
	Annotations []Annotation        `json:"annotations"`
	Signatures  []Signature         `json:"signatures"`
	Corrections []CorrectionRequest `json:"corrections"`
}
