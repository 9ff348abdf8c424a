// Package errors provides structured error types for scopeview.
//
// The engine itself never fails: it logs and skips what it cannot draw.
// Everything around it (graph import, hierarchy construction, the pipeline
// and the CLI) reports failures as an [*Error] carrying a machine-readable
// [Code], so callers can branch on the kind of failure without matching
// message text.
//
// # Error Codes
//
// Codes follow a category prefix:
//   - INVALID_*: the input graph, a flag or a file format was rejected
//   - *_NOT_FOUND: a node or file does not exist
//   - INTERNAL_ERROR: an unexpected failure, usually a bug
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNodeNotFound, "no node named %q", name)
//	if errors.Is(err, errors.ErrCodeNodeNotFound) {
//	    // suggest a nearby scope
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidGraph, origErr, "build hierarchy of %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidGraph  Code = "INVALID_GRAPH"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidParams Code = "INVALID_PARAMS"
	ErrCodeInvalidName   Code = "INVALID_NAME"

	// Resource not found errors
	ErrCodeNodeNotFound Code = "NODE_NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

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
// Only the outermost *Error in the chain is consulted.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
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

// UserMessage returns the messages of the outermost *Error and its causes
// without their codes, or err.Error() for any other error.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + UserMessage(e.Cause)
}

// ExitCode maps an error to a process exit status: 0 for nil, 2 for input
// problems the user can fix, 1 for everything else.
func ExitCode(err error) int {
	switch GetCode(err) {
	case "":
		if err == nil {
			return 0
		}
		return 1
	case ErrCodeInvalidInput, ErrCodeInvalidGraph, ErrCodeInvalidFormat,
		ErrCodeInvalidParams, ErrCodeInvalidName, ErrCodeNodeNotFound, ErrCodeFileNotFound:
		return 2
	default:
		return 1
	}
}
