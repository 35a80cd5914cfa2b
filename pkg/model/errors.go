package model

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a generation failure.
type ErrorCode string

const (
	ErrConfig   ErrorCode = "CONFIG_ERROR"
	ErrCatalog  ErrorCode = "CATALOG_ERROR"
	ErrTemplate ErrorCode = "TEMPLATE_ERROR"
	ErrInternal ErrorCode = "INTERNAL_ERROR"
)

// Error is a structured generation error carrying the failure class
// and, for validation failures, the per-field details.
type Error struct {
	Code    ErrorCode
	Message string
	Details []FieldError
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	for _, d := range e.Details {
		msg += fmt.Sprintf("\n  %s: %s", d.Field, d.Message)
	}
	return msg
}

// FieldError describes a violation on a specific configuration key.
type FieldError struct {
	Field   string
	Message string
}

// NewConfigError creates a CONFIG_ERROR with per-field details.
func NewConfigError(msg string, details ...FieldError) *Error {
	return &Error{Code: ErrConfig, Message: msg, Details: details}
}

// NewCatalogError creates a CATALOG_ERROR.
func NewCatalogError(format string, args ...any) *Error {
	return &Error{Code: ErrCatalog, Message: fmt.Sprintf(format, args...)}
}

// NewTemplateError creates a TEMPLATE_ERROR.
func NewTemplateError(format string, args ...any) *Error {
	return &Error{Code: ErrTemplate, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the ErrorCode of err if a *Error is in its chain,
// ErrInternal otherwise.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal
}
