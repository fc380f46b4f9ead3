package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError represents a custom error type for API responses
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Status  int    `json:"-"`
	Details string `json:"-"`
}

// Error returns the error message
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so that wrapped copies still compare equal to the sentinels.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

var (
	ErrInvalidInput = NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest)
	ErrValidation   = NewAPIError("VALIDATION_ERROR", "Request failed validation", http.StatusBadRequest)
	ErrUnauthorized = NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrNotFound     = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrInternal     = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrConflict     = NewAPIError("CONFLICT", "Resource conflict", http.StatusConflict)

	// ErrOrphanedRecord means the identity was deleted upstream but the user
	// record survived and needs reconciling.
	ErrOrphanedRecord = NewAPIError("ORPHANED_RECORD", "Identity deleted but user record remains", http.StatusInternalServerError)
	ErrScanInProgress = NewAPIError("SCAN_IN_PROGRESS", "Inactive user scan already running", http.StatusConflict)
)

func Wrap(err error, code, message string, status int) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return NewAPIError(code, message, status, err.Error())
}

// WithMessage copies a sentinel with a more specific message, keeping its code and status.
func WithMessage(base *APIError, message string) *APIError {
	return &APIError{Code: base.Code, Message: message, Status: base.Status, Details: base.Details}
}

// NotFoundf builds a NOT_FOUND error with a descriptive message.
func NotFoundf(format string, args ...any) *APIError {
	return WithMessage(ErrNotFound, fmt.Sprintf(format, args...))
}

// Validationf builds a VALIDATION_ERROR with a descriptive message.
func Validationf(format string, args ...any) *APIError {
	return WithMessage(ErrValidation, fmt.Sprintf(format, args...))
}
