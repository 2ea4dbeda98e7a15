package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API callers.
const (
	CodeValidation             = "VALIDATION_FAILED"
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeNoDepartmentAvailable  = "NO_DEPARTMENT_AVAILABLE"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeConflict               = "CONFLICT"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeInternal               = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks. They match any DomainError with the same code.
var (
	ErrValidation             = &DomainError{Code: CodeValidation}
	ErrNotFound               = &DomainError{Code: CodeNotFound}
	ErrInvalidTransition      = &DomainError{Code: CodeInvalidTransition}
	ErrNoDepartmentAvailable  = &DomainError{Code: CodeNoDepartmentAvailable}
	ErrConcurrentModification = &DomainError{Code: CodeConcurrentModification}
	ErrConflict               = &DomainError{Code: CodeConflict}
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message == "" {
		return e.Code
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches DomainErrors by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the caller may retry the whole operation.
func (e *DomainError) Retryable() bool {
	return e.Code == CodeConcurrentModification
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewInvalidTransition reports a rejected state machine edge.
func NewInvalidTransition(from, to string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("invalid status transition from %s to %s", from, to),
		http.StatusConflict,
		map[string]any{"from": from, "to": to})
}

func NewNoDepartmentAvailable(category, departmentName string) error {
	return NewDomainError(CodeNoDepartmentAvailable,
		fmt.Sprintf("no active department found for category: %s", category),
		http.StatusUnprocessableEntity,
		map[string]any{"category": category, "department_name": departmentName})
}

func NewConcurrentModification(resource, id string) error {
	return NewDomainError(CodeConcurrentModification,
		fmt.Sprintf("%s was modified concurrently; retry the operation", resource),
		http.StatusConflict,
		map[string]any{"id": id})
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		if domainErr.HTTPStatus == 0 {
			copied := *domainErr
			copied.HTTPStatus = http.StatusInternalServerError
			return &copied
		}
		return domainErr
	}
	return NewInternalError(err).(*DomainError)
}

// HasCode reports whether err carries the given DomainError code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
