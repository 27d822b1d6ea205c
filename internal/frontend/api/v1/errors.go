package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dagr-org/dagr/internal/common/logger"
	"github.com/dagr-org/dagr/internal/models"
	"github.com/dagr-org/dagr/internal/registry"
)

// ErrorCode identifies the category of an API error.
type ErrorCode string

const (
	ErrorCodeNotFound      ErrorCode = "not_found"
	ErrorCodeBadRequest    ErrorCode = "bad_request"
	ErrorCodeAlreadyExists ErrorCode = "already_exists"
	ErrorCodeForbidden     ErrorCode = "forbidden"
	ErrorCodeInternalError ErrorCode = "internal_error"
)

// Error is the typed error returned by API handlers.
type Error struct {
	HTTPStatus int
	Code       ErrorCode
	Message    string
	Details    []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// errorResponse is the JSON body written for failed requests.
type errorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details []string  `json:"details,omitempty"`
}

// handleError translates domain errors into API responses. Domain sentinels
// map to their error kinds; anything unrecognized is an internal error and
// is logged rather than swallowed.
func (a *API) handleError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := &Error{
		HTTPStatus: http.StatusInternalServerError,
		Code:       ErrorCodeInternalError,
		Message:    "An unexpected error occurred",
	}

	var typed *Error
	var validationErr *registry.ValidationError
	switch {
	case errors.As(err, &typed):
		apiErr = typed
	case errors.Is(err, models.ErrDAGNotFound):
		apiErr = &Error{
			HTTPStatus: http.StatusNotFound,
			Code:       ErrorCodeNotFound,
			Message:    err.Error(),
		}
	case errors.Is(err, models.ErrDAGRunsActive):
		apiErr = &Error{
			HTTPStatus: http.StatusConflict,
			Code:       ErrorCodeAlreadyExists,
			Message:    err.Error(),
		}
	case errors.Is(err, registry.ErrInvalidUpdateMask):
		apiErr = &Error{
			HTTPStatus: http.StatusBadRequest,
			Code:       ErrorCodeBadRequest,
			Message:    err.Error(),
		}
	case errors.As(err, &validationErr):
		apiErr = &Error{
			HTTPStatus: http.StatusBadRequest,
			Code:       ErrorCodeBadRequest,
			Message:    "Invalid DAG patch document",
			Details:    validationErr.Messages,
		}
	default:
		logger.Error(r.Context(), "request failed", "err", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	})
}
