package apierror

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/flcore/flquery/internal/filter"
)

type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrBadRequest     ErrorCode = "BAD_REQUEST"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrForbidden      ErrorCode = "FORBIDDEN"
	ErrInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// FromFilterError maps an error returned by the filter engine to an APIError.
// Problems with the submitted specification are the caller's to fix; problems
// with the filter configuration are internal.
func FromFilterError(err error) APIError {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, filter.ErrMalformedSpecification),
		errors.Is(err, filter.ErrUnknownFilter),
		errors.Is(err, filter.ErrInvalidRange):
		return NewAPIError(ErrInvalidInput, err.Error(), err)
	case errors.Is(err, filter.ErrRestrictedAway):
		return NewAPIError(ErrForbidden, err.Error(), err)
	case errors.Is(err, filter.ErrUnknownFilterType),
		errors.Is(err, filter.ErrMissingGenerator),
		errors.Is(err, filter.ErrInvalidDescriptor),
		errors.Is(err, filter.ErrDuplicateGeneratorRegistration),
		errors.Is(err, filter.ErrUnresolvableGenerator):
		return NewAPIError(ErrInternalServer, "filter configuration error", err)
	}
	return NewAPIError(ErrInternalServer, "Internal server error", err)
}

func MapErrorToHTTPStatus(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict:
			return http.StatusConflict
		case ErrInvalidInput, ErrBadRequest:
			return http.StatusBadRequest
		case ErrForbidden:
			return http.StatusForbidden
		case ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
