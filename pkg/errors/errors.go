// Package errors provides structured error types for cargo-dylib.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the manifest engine and the CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (malformed manifests, bad names)
//   - *_NOT_FOUND: Missing files or targets
//   - IO_ERROR, SERIALIZE_ERROR: Filesystem and encoding failures
//   - TOOLCHAIN_ERROR: The external cargo process could not be started
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNoBinaryTarget, "manifest %s declares no binary", path)
//	if errors.Is(err, errors.ErrCodeNoBinaryTarget) {
//	    // Handle missing binary
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "create %s", dir)
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidPackage  Code = "INVALID_PACKAGE"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"
	ErrCodeManifestNotFound Code = "MANIFEST_NOT_FOUND"
	ErrCodeNoBinaryTarget   Code = "NO_BINARY_TARGET"

	// Filesystem and encoding errors
	ErrCodeIO             Code = "IO_ERROR"
	ErrCodeSerialize      Code = "SERIALIZE_ERROR"
	ErrCodeWrapperCorrupt Code = "WRAPPER_CORRUPT"

	// External process errors
	ErrCodeToolchain Code = "TOOLCHAIN_ERROR"

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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// The outermost *Error decides; inner codes are not consulted.
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
