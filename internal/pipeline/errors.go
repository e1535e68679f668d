package pipeline

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline failures for reporting and exit handling.
type ErrorType string

const (
	// ErrTypeConfig covers misconfigured input: an empty data directory, a
	// required column missing from a file header, or input files that
	// disagree on optional-column presence. Always fatal.
	ErrTypeConfig ErrorType = "config"

	// ErrTypeIO covers filesystem failures: an unreadable input file, an
	// output directory that cannot be created, a write that fails. Always
	// fatal.
	ErrTypeIO ErrorType = "io"

	// ErrTypeExecution is the default classification for stage failures
	// that carry no more specific type.
	ErrTypeExecution ErrorType = "execution"
)

// PipelineError represents a fatal, stage-scoped pipeline failure.
// Per-value parse failures never become a PipelineError; they are absorbed
// as missing values and only affect the cleaning stage's removal counts.
type PipelineError struct {
	Type    ErrorType              `json:"type"`
	Stage   string                 `json:"stage,omitempty"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}
	if e.Stage != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewConfigError creates a configuration error for the given stage
func NewConfigError(stage, message string) *PipelineError {
	return &PipelineError{
		Type:    ErrTypeConfig,
		Stage:   stage,
		Message: message,
	}
}

// NewIOError creates an I/O error for the given stage
func NewIOError(stage, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrTypeIO,
		Stage:   stage,
		Message: message,
		Cause:   cause,
	}
}

// WrapError wraps an error with stage context. An existing PipelineError
// keeps its type and gains the stage name if it had none; anything else
// becomes an execution error.
func WrapError(err error, stage, message string) *PipelineError {
	if err == nil {
		return nil
	}

	var pErr *PipelineError
	if errors.As(err, &pErr) {
		if pErr.Stage == "" {
			pErr.Stage = stage
		}
		if message != "" {
			pErr.Message = fmt.Sprintf("%s: %s", message, pErr.Message)
		}
		return pErr
	}

	return &PipelineError{
		Type:    ErrTypeExecution,
		Stage:   stage,
		Message: message,
		Cause:   err,
	}
}

// GetErrorType returns the classification of an error, unwrapping as
// needed. Untyped errors classify as execution errors.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Type
	}
	return ErrTypeExecution
}
