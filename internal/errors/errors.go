package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a zmd error code.
type ErrorCode string

const (
	ErrConfiguration    ErrorCode = "CONFIGURATION_ERROR" // 500, raised at setup
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"     // 400
	ErrUnknownTarget    ErrorCode = "UNKNOWN_TARGET"      // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"           // 404
	ErrDocumentTooLarge ErrorCode = "DOCUMENT_TOO_LARGE"  // 413
	ErrCanceled         ErrorCode = "CANCELED"            // 499
	ErrInternal         ErrorCode = "INTERNAL"            // 500
)

// ZmdError is a structured error with code, status, and details.
type ZmdError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *ZmdError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *ZmdError) Unwrap() error {
	return e.cause
}

// NewConfiguration creates a setup-time error for invalid configuration.
func NewConfiguration(msg string, details map[string]any) *ZmdError {
	return &ZmdError{
		Code:    ErrConfiguration,
		Status:  500,
		Message: msg,
		Details: details,
	}
}

// NewEmptyDirectiveMap reports a configuration that declares no directives.
func NewEmptyDirectiveMap() *ZmdError {
	return NewConfiguration("directive configuration is empty; declare at least one directive", nil)
}

// NewInvalidDirectiveName reports a directive name the opening marker can never match.
func NewInvalidDirectiveName(name, reason string) *ZmdError {
	return NewConfiguration(
		fmt.Sprintf("invalid directive name %q: %s", name, reason),
		map[string]any{"name": name, "reason": reason},
	)
}

// NewDuplicateDirective reports a name registered twice.
func NewDuplicateDirective(name string) *ZmdError {
	return NewConfiguration(
		fmt.Sprintf("directive %q is already registered", name),
		map[string]any{"name": name},
	)
}

// NewInvalidClassToken reports a malformed class token on a directive definition.
func NewInvalidClassToken(name, token string) *ZmdError {
	return NewConfiguration(
		fmt.Sprintf("directive %q has invalid class token %q", name, token),
		map[string]any{"name": name, "token": token},
	)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ZmdError {
	return &ZmdError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnknownTarget creates a 400 error for an unsupported output target.
func NewUnknownTarget(target string, known []string) *ZmdError {
	return &ZmdError{
		Code:    ErrUnknownTarget,
		Status:  400,
		Message: fmt.Sprintf("unknown target %q (want one of %v)", target, known),
		Details: map[string]any{"target": target, "known": known},
	}
}

// NewNotFound creates a 404 error for a missing cache entry or directive.
func NewNotFound(kind, identifier string) *ZmdError {
	return &ZmdError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewDocumentTooLarge creates a 413 error when a document exceeds the size limit.
func NewDocumentTooLarge(max, actual int) *ZmdError {
	return &ZmdError{
		Code:    ErrDocumentTooLarge,
		Status:  413,
		Message: fmt.Sprintf("document exceeds maximum size: %d chars (max %d)", actual, max),
		Details: map[string]any{"max_chars": max, "actual_chars": actual},
	}
}

// NewCanceled creates a 499 error for a canceled or expired context. The
// context error stays reachable through errors.Is.
func NewCanceled(err error) *ZmdError {
	return &ZmdError{
		Code:    ErrCanceled,
		Status:  499,
		Message: "request canceled: " + err.Error(),
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ZmdError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ZmdError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is reports whether err is, or wraps, a ZmdError with the given code.
func Is(err error, code ErrorCode) bool {
	var zErr *ZmdError
	if stderrors.As(err, &zErr) {
		return zErr.Code == code
	}
	return false
}

// As returns the ZmdError in err's chain, if any.
func As(err error) (*ZmdError, bool) {
	var zErr *ZmdError
	ok := stderrors.As(err, &zErr)
	return zErr, ok
}
