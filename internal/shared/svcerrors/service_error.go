package svcerrors

import (
	"errors"
	"fmt"
)

const (
	categoryInvalidArgument  = "invalid_argument"
	categoryNotFound         = "not_found"
	categoryPermissionDenied = "permission_denied"
	categoryUnavailable      = "unavailable"
	categoryGone             = "gone"
	categoryDataLoss         = "data_loss"
	categoryInternal         = "internal"
)

const (
	errorCodeInternalPanic     = "SYS_9000"
	errorCodeInternalUndefined = "SYS_9001"
)

// NewInvalidArgumentError creates a new ServiceError with category invalid_argument.
func NewInvalidArgumentError(code, message string, cause error) *ServiceError {
	return &ServiceError{
		Category:       categoryInvalidArgument,
		Code:           code,
		Message:        message,
		Cause:          cause,
		HttpStatusCode: 400,
	}
}

// NewNotFoundError creates a new ServiceError with category not_found.
func NewNotFoundError(code, message string, cause error) *ServiceError {
	return &ServiceError{
		Category:       categoryNotFound,
		Code:           code,
		Message:        message,
		Cause:          cause,
		HttpStatusCode: 404,
	}
}

// NewPermissionDeniedError creates a new ServiceError with category permission_denied.
func NewPermissionDeniedError(code, message string, cause error) *ServiceError {
	return &ServiceError{
		Category:       categoryPermissionDenied,
		Code:           code,
		Message:        message,
		Cause:          cause,
		HttpStatusCode: 403,
	}
}

// NewUnavailableError creates a new ServiceError with category unavailable.
func NewUnavailableError(code, message string, cause error) *ServiceError {
	return &ServiceError{
		Category:       categoryUnavailable,
		Code:           code,
		Message:        message,
		Cause:          cause,
		HttpStatusCode: 503,
	}
}

// NewGoneError creates a new ServiceError with category gone.
func NewGoneError(code, message string, cause error) *ServiceError {
	return &ServiceError{
		Category:       categoryGone,
		Code:           code,
		Message:        message,
		Cause:          cause,
		HttpStatusCode: 410,
	}
}

// NewDataLossError creates a new ServiceError with category data_loss.
func NewDataLossError(code, message string, cause error) *ServiceError {
	return &ServiceError{
		Category:       categoryDataLoss,
		Code:           code,
		Message:        message,
		Cause:          cause,
		HttpStatusCode: 422,
	}
}

// NewInternalError creates a new ServiceError with category internal.
func NewInternalError(code string, cause error) *ServiceError {
	return &ServiceError{
		Category:       categoryInternal,
		Code:           code,
		Message:        "internal server error",
		Cause:          cause,
		HttpStatusCode: 500,
	}
}

// NewInternalErrorUndefined creates a new ServiceError with category internal and code SYS_9001.
func NewInternalErrorUndefined(cause error) *ServiceError {
	return NewInternalError(errorCodeInternalUndefined, cause)
}

func NewInternalErrorPanic(cause error) *ServiceError {
	return NewInternalError(errorCodeInternalPanic, cause)
}

func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

// ServiceError represents a service-level error with category, code, message, and cause.
// It implements the error interface and supports error wrapping.
type ServiceError struct {
	Category       string // one of the category constants above
	Code           string // service-owned stable code (e.g. CAP_1000)
	Message        string // operator-safe, human-readable
	Cause          error  // wrapped underlying error
	HttpStatusCode int    // HTTP status code
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error to support errors.Is and errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// As extracts a ServiceError from the error chain.
// It returns (*ServiceError, true) if err wraps a ServiceError, otherwise (nil, false).
func As(err error) (*ServiceError, bool) {
	return AsServiceError(err)
}

func (e *ServiceError) IsInternalError() bool {
	return e.Category == categoryInternal
}

func (e *ServiceError) IsPermissionDenied() bool {
	return e.Category == categoryPermissionDenied
}

func (e *ServiceError) IsUnavailable() bool {
	return e.Category == categoryUnavailable
}

func (e *ServiceError) IsGone() bool {
	return e.Category == categoryGone
}

func (e *ServiceError) IsDataLoss() bool {
	return e.Category == categoryDataLoss
}

func (e *ServiceError) IsNotFound() bool {
	return e.Category == categoryNotFound
}
