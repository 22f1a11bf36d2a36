package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrAnnotationNotFound = errors.New("annotation not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTemporary          = errors.New("temporary failure")
	ErrConflict           = errors.New("concurrent modification")

	ErrValidationBlocked = errors.New("validation blocked")
	ErrMissingReason     = errors.New("missing reason")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrAnomalyNotFound   = errors.New("anomaly not found")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ValidationBlockedError is returned when approval is attempted against a
// blocking report or before any audit ran.
type ValidationBlockedError struct {
	DocumentID string
	Reasons    []string
}

func (e *ValidationBlockedError) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("document %s cannot be approved: no audit report", e.DocumentID)
	}
	return fmt.Sprintf("document %s cannot be approved: %v", e.DocumentID, e.Reasons)
}

func (e *ValidationBlockedError) Unwrap() error { return ErrValidationBlocked }

type MissingReasonError struct {
	Decision Decision
	Field    string
}

func (e *MissingReasonError) Error() string {
	field := e.Field
	if field == "" {
		field = "reason"
	}
	return fmt.Sprintf("decision %s requires a non-empty %s", e.Decision, field)
}

func (e *MissingReasonError) Unwrap() error { return ErrMissingReason }

type InvalidTransitionError struct {
	From   Status
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("action %s is not allowed from status %s", e.Action, e.From)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

type AnomalyNotFoundError struct {
	DocumentID string
	AnomalyID  string
}

func (e *AnomalyNotFoundError) Error() string {
	return fmt.Sprintf("anomaly %s not found in current report of document %s", e.AnomalyID, e.DocumentID)
}

func (e *AnomalyNotFoundError) Unwrap() error { return ErrAnomalyNotFound }
