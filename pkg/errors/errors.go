// Package errors provides structured error types for the topolab engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - Typed conflict results for optimistic-concurrency failures
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes are stable kebab-case identifiers that cross the API boundary
// unchanged, so the remote front end can switch on them:
//   - missing-document, nodes-not-a-map: precondition failures that abort
//     a reconciliation transaction with no partial writes
//   - revision-conflict: the command was computed against a stale revision
//   - protocol-mismatch: the client speaks a different protocol version
//
// # Usage
//
//	err := errors.New(errors.CodeMissingDocument, "no parsed document for %s", path)
//	if errors.Is(err, errors.CodeMissingDocument) {
//	    // Handle precondition failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.CodeInternal, origErr, "serialize document %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Precondition failures - fatal for the current transaction.
	CodeMissingDocument Code = "missing-document"
	CodeNodesNotAMap    Code = "nodes-not-a-map"

	// Optimistic-concurrency and protocol errors.
	CodeRevisionConflict Code = "revision-conflict"
	CodeProtocolMismatch Code = "protocol-mismatch"

	// Input validation errors.
	CodeInvalidInput    Code = "invalid-input"
	CodeInvalidEndpoint Code = "invalid-endpoint"
	CodeInvalidCommand  Code = "invalid-command"

	// Resource not found errors.
	CodeNotFound     Code = "not-found"
	CodeFileNotFound Code = "file-not-found"

	// Internal errors.
	CodeInternal    Code = "internal-error"
	CodeUnsupported Code = "unsupported"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
