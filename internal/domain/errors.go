// Package domain defines domain-specific errors.
// These errors represent visualization failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services and adapters can return.
var (
	// ErrInvalidMode is returned when an unsupported visualization mode is requested.
	ErrInvalidMode = errors.New("invalid visualization mode")

	// ErrInvalidTheme is returned when an unsupported color theme is requested.
	ErrInvalidTheme = errors.New("invalid color theme")

	// ErrTickSkipped is returned when a tick arrives while the previous one is still running.
	ErrTickSkipped = errors.New("tick skipped: previous tick still running")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrFileNotFound is returned when a file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFilePath is returned when a file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrNoTrackLoaded is returned when playback is attempted with no track loaded.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyClosed is returned when a component is used or closed after Close.
	ErrAlreadyClosed = errors.New("component already closed")
)

// AudioSourceError represents an error from an audio source adapter.
// This wraps decoder and output library errors with additional context.
type AudioSourceError struct {
	Op      string // Operation that failed (e.g., "load", "play", "decode")
	Path    string // File path (if applicable)
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AudioSourceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("audio source %s failed for '%s': %s", e.Op, e.Path, e.Message)
	}
	return fmt.Sprintf("audio source %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AudioSourceError) Unwrap() error {
	return e.Err
}

// NewAudioSourceError creates a new AudioSourceError.
func NewAudioSourceError(op, path, message string, err error) *AudioSourceError {
	return &AudioSourceError{
		Op:      op,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// RepositoryError represents an error from a repository.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load")
	Type    string // Repository type (e.g., "preferences")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a rejected argument.
// It unwraps to ErrInvalidMode or ErrInvalidTheme when the field is a mode or theme,
// so callers can test with errors.Is.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap maps well-known fields to their sentinel errors.
func (e *ValidationError) Unwrap() error {
	switch e.Field {
	case "mode":
		return ErrInvalidMode
	case "theme":
		return ErrInvalidTheme
	case "volume":
		return ErrInvalidVolume
	default:
		return nil
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "VisualizerService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// InvariantError reports arithmetic that produced a value the pipeline guarantees
// can never appear (NaN, Inf). It signals a programming error, not bad input.
type InvariantError struct {
	Stage string  // Pipeline stage (e.g., "smoother")
	Index int     // Band or bin index
	Value float64 // Offending value
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: non-finite value %v at index %d", e.Stage, e.Value, e.Index)
}

// NewInvariantError creates a new InvariantError.
func NewInvariantError(stage string, index int, value float64) *InvariantError {
	return &InvariantError{
		Stage: stage,
		Index: index,
		Value: value,
	}
}
