// Package errors provides structured error types for dllstage.
//
// Errors carry a machine-readable [Code] so the command line can decide how
// to report a failure and which exit status to use:
//   - INVALID_*: bad input (flags, config, dependency names)
//   - FILE_NOT_FOUND: the source binary does not exist
//   - INSPECT_FAILED: the inspection tool is missing or exited non-zero
//   - UNRESOLVED_DEPENDENCIES: one or more DLLs were not found on the search path
//   - COPY_FAILED: staging into the destination failed
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "destination is required")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeCopyFailed, origErr, "copy %s", path)
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
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidPath       Code = "INVALID_PATH"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"
	ErrCodeInvalidDependency Code = "INVALID_DEPENDENCY"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Environment errors
	ErrCodeInspectFailed Code = "INSPECT_FAILED"

	// Resolution and deployment errors
	ErrCodeUnresolved Code = "UNRESOLVED_DEPENDENCIES"
	ErrCodeCopyFailed Code = "COPY_FAILED"

	// Internal errors
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

// coder is implemented by error types that are not *Error but still carry a code.
type coder interface {
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a coded error with a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message (and cause) without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// MissingError reports dependencies that could not be found on the search path.
// It is returned only after every reachable file has been inspected, so it
// lists all missing names at once.
type MissingError struct {
	SearchPath []string            // Directories that were searched, in order
	Missing    []string            // Names that could not be resolved
	NeededBy   map[string][]string // Missing name -> base names of the files declaring it
}

// Error implements the error interface.
func (e *MissingError) Error() string {
	return fmt.Sprintf("%d unresolved dependencies: %s", len(e.Missing), strings.Join(e.Missing, ", "))
}

// Code returns the error code for this error type.
func (e *MissingError) Code() Code {
	return ErrCodeUnresolved
}

// Report renders the search path followed by the missing names, one per line.
func (e *MissingError) Report() string {
	var b strings.Builder
	b.WriteString("search path:\n")
	if len(e.SearchPath) == 0 {
		b.WriteString("  (empty)\n")
	}
	for _, dir := range e.SearchPath {
		fmt.Fprintf(&b, "  %s\n", dir)
	}
	b.WriteString("missing dependencies:\n")
	for _, name := range e.Missing {
		fmt.Fprintf(&b, "  %s%s\n", name, e.neededBy(name))
	}
	return b.String()
}

// neededBy renders " (needed by a.dll, b.dll)" for name, or "" when unknown.
func (e *MissingError) neededBy(name string) string {
	files := e.NeededBy[name]
	if len(files) == 0 {
		return ""
	}
	return " (needed by " + strings.Join(files, ", ") + ")"
}

// exitCoder is implemented by errors that carry a process exit status.
type exitCoder interface {
	ExitStatus() int
}

// ExitCode maps an error to a process exit status.
// Returns 0 for nil, the inspection tool's own status when it exited non-zero,
// and 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		if status := ec.ExitStatus(); status > 0 {
			return status
		}
	}
	return 1
}
