package shared

import (
	"errors"
	"fmt"
)

// Error category codes used across the connector
const (
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeIO            = "IO_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeMapping       = "MAPPING_ERROR"
	CodeValidation    = "VALIDATION_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error carrying a cause
func WrapDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewConfigurationError reports an unusable setting (export directory, template, mapping).
func NewConfigurationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeConfiguration, fmt.Sprintf(format, args...))
}

// NewIOError reports a file that could not be opened, read or written.
func NewIOError(message string, err error) *DomainError {
	return WrapDomainError(CodeIO, message, err)
}

// NewNotFoundError reports a missing record
func NewNotFoundError(format string, args ...any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf(format, args...))
}

// NewValidationError reports invalid input
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// CodeOf returns the category code of err, or an empty string when err
// carries no DomainError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError(CodeNotFound, "Resource not found")
	ErrConfiguration = NewDomainError(CodeConfiguration, "Invalid configuration")
	ErrIO            = NewDomainError(CodeIO, "File operation failed")
	ErrMapping       = NewDomainError(CodeMapping, "Status mapping failed")
	ErrValidation    = NewDomainError(CodeValidation, "Invalid input provided")
)
