// Package errors provides structured error types for looper operations.
package errors

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// KindIO represents I/O errors.
	KindIO ErrorKind = iota
	// KindPath represents path-related errors.
	KindPath
	// KindParse represents clip or config parsing errors.
	KindParse
	// KindConfig represents configuration validation errors.
	KindConfig
	// KindProvider represents curve provider failures (invalid or released clips).
	KindProvider
	// KindNoFilesFound represents no suitable clip files found.
	KindNoFilesFound
	// KindStore represents result history storage errors.
	KindStore
	// KindOperationFailed represents general operation failures.
	KindOperationFailed
	// KindCancelled represents cancelled operations.
	KindCancelled
)

// String returns a string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "I/O error"
	case KindPath:
		return "Path error"
	case KindParse:
		return "Parse error"
	case KindConfig:
		return "Configuration error"
	case KindProvider:
		return "Curve provider error"
	case KindNoFilesFound:
		return "No files found"
	case KindStore:
		return "Store error"
	case KindOperationFailed:
		return "Operation failed"
	case KindCancelled:
		return "Operation cancelled"
	default:
		return "Unknown error"
	}
}

// CoreError is the main error type for looper operations.
type CoreError struct {
	Kind       ErrorKind
	Message    string
	Underlying error
}

func (e *CoreError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target matches this error's kind.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewIOError creates a new I/O error.
func NewIOError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindIO, Message: message, Underlying: underlying}
}

// NewPathError creates a new path-related error.
func NewPathError(message string) *CoreError {
	return &CoreError{Kind: KindPath, Message: message}
}

// NewParseError creates a new parsing error.
func NewParseError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindParse, Message: message, Underlying: underlying}
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindConfig, Message: message, Underlying: underlying}
}

// NewProviderError creates an error for a failed curve provider call.
func NewProviderError(clip string, underlying error) *CoreError {
	return &CoreError{Kind: KindProvider, Message: fmt.Sprintf("clip %q", clip), Underlying: underlying}
}

// NewNoFilesFoundError creates an error for when no clip files are found.
func NewNoFilesFoundError(dir string) *CoreError {
	return &CoreError{Kind: KindNoFilesFound, Message: fmt.Sprintf("no clip files found in %s", dir)}
}

// NewStoreError creates a new result store error.
func NewStoreError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindStore, Message: message, Underlying: underlying}
}

// NewOperationFailedError creates a new general operation failure error.
func NewOperationFailedError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindOperationFailed, Message: message, Underlying: underlying}
}

// NewCancelledError creates an error for cancelled operations.
// The context error, when present, is kept as the underlying cause.
func NewCancelledError(cause error) *CoreError {
	return &CoreError{Kind: KindCancelled, Message: "operation was cancelled", Underlying: cause}
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind ErrorKind) bool {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind == kind
	}
	return false
}

// IsCancelled checks if the error is a cancellation error.
func IsCancelled(err error) bool {
	return IsKind(err, KindCancelled)
}

// IsProvider checks if the error came from the curve provider.
func IsProvider(err error) bool {
	return IsKind(err, KindProvider)
}

// IsNoFilesFound checks if the error is a no-files-found error.
func IsNoFilesFound(err error) bool {
	return IsKind(err, KindNoFilesFound)
}
