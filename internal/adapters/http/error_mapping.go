package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrMissingReason):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrDocumentNotFound),
		domain.IsKind(err, domain.ErrAnomalyNotFound),
		domain.IsKind(err, domain.ErrAnnotationNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrInvalidTransition), domain.IsKind(err, domain.ErrConflict):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrValidationBlocked):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error   string   `json:"error"`
	Reasons []string `json:"reasons,omitempty"`
}

func errorBody(status int, err error) errorResponse {
	// Internal failures do not leak driver or broker details.
	if status == http.StatusInternalServerError {
		return errorResponse{Error: "internal error"}
	}
	body := errorResponse{Error: err.Error()}
	var blocked *domain.ValidationBlockedError
	if errors.As(err, &blocked) {
		body.Reasons = blocked.Reasons
	}
	return body
}
