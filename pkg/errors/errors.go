// Package errors provides structured error types for pomgraph.
//
// Every failure raised while analyzing a Maven workspace carries a
// machine-readable [Code] so callers can decide how to degrade. Almost all
// codes are recoverable: the analysis driver logs them and continues with a
// partial graph.
//
// # Error Codes
//
//   - PARSE_ERROR, IO_ERROR: a single pom.xml could not be read or decoded
//   - CYCLIC_PARENT, PARENT_NOT_FOUND: parent chain problems
//   - DISCOVERY_*: plugin goal discovery subprocess failures
//   - CACHE_ERROR, INVALID_CONFIG, INVALID_INPUT: ambient failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "workspace root %s is not a directory", root)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// POM model errors
	ErrCodeParse          Code = "PARSE_ERROR"
	ErrCodeIO             Code = "IO_ERROR"
	ErrCodeCyclicParent   Code = "CYCLIC_PARENT"
	ErrCodeParentNotFound Code = "PARENT_NOT_FOUND"

	// Plugin goal discovery errors
	ErrCodeDiscovery        Code = "DISCOVERY_FAILED"
	ErrCodeDiscoveryTimeout Code = "DISCOVERY_TIMEOUT"
	ErrCodePoolClosed       Code = "POOL_CLOSED"

	// Internal errors
	ErrCodeCache    Code = "CACHE_ERROR"
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// coder is implemented by typed errors that map onto a Code.
type coder interface{ ErrorCode() Code }

// Is reports whether err has the given error code.
// It walks the whole chain, so a ParseError wrapped inside an IO_ERROR
// still matches ErrCodeParse.
func Is(err error, code Code) bool {
	for err != nil {
		if c := codeOf(err); c == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the chain holds no coded error.
func GetCode(err error) Code {
	for err != nil {
		if c := codeOf(err); c != "" {
			return c
		}
		err = errors.Unwrap(err)
	}
	return ""
}

func codeOf(err error) Code {
	switch e := err.(type) {
	case *Error:
		return e.Code
	case coder:
		return e.ErrorCode()
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

// ParseError reports a pom.xml that is not well-formed XML or lacks a
// <project> root element.
type ParseError struct {
	Path   string
	Reason string
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ErrorCode returns ErrCodeParse.
func (e *ParseError) ErrorCode() Code { return ErrCodeParse }

// CyclicParentError reports a parent chain that revisits a POM.
// Chain lists the absolute paths in visiting order, ending with the repeat.
type CyclicParentError struct {
	Chain []string
}

func (e *CyclicParentError) Error() string {
	return "cyclic parent chain: " + strings.Join(e.Chain, " -> ")
}

// ErrorCode returns ErrCodeCyclicParent.
func (e *CyclicParentError) ErrorCode() Code { return ErrCodeCyclicParent }
