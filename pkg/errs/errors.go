// Package errs provides structured, user-friendly errors with machine-parseable codes.
package errs

import (
	"errors"
	"fmt"
)

// ErrorCode is a machine-parseable error identifier.
type ErrorCode string

const (
	// General
	ErrUnknown    ErrorCode = "ERR-000"
	ErrInternal   ErrorCode = "ERR-001"
	ErrConfig     ErrorCode = "ERR-002"
	ErrValidation ErrorCode = "ERR-003"

	// Interpreter errors
	ErrPythonNotFound ErrorCode = "ERR-PY-001"
	ErrPythonExec     ErrorCode = "ERR-PY-002"
	ErrPythonVersion  ErrorCode = "ERR-PY-003"

	// Environment errors
	ErrVenvCreate  ErrorCode = "ERR-VENV-001"
	ErrVenvMissing ErrorCode = "ERR-VENV-002"
	ErrVenvBroken  ErrorCode = "ERR-VENV-003"

	// Dependency-install errors
	ErrPipInstall  ErrorCode = "ERR-PIP-001"
	ErrPipManifest ErrorCode = "ERR-PIP-002"

	// Packaging errors
	ErrPackagerRun     ErrorCode = "ERR-PKG-001"
	ErrPackagerMissing ErrorCode = "ERR-PKG-002"
	ErrArtifactMissing ErrorCode = "ERR-PKG-003"

	// Hosted-workflow errors
	ErrCIAuth     ErrorCode = "ERR-CI-001"
	ErrCIRepo     ErrorCode = "ERR-CI-002"
	ErrCIDispatch ErrorCode = "ERR-CI-003"
	ErrCIRuns     ErrorCode = "ERR-CI-004"
	ErrCIArtifact ErrorCode = "ERR-CI-005"

	// State errors
	ErrStateRead  ErrorCode = "ERR-STATE-001"
	ErrStateWrite ErrorCode = "ERR-STATE-002"
)

// BuildError is the standard structured error type used across all speedbuild packages.
type BuildError struct {
	Code     ErrorCode // Machine-parseable error code
	Op       string    // Operation chain, e.g., "build.install.requirements"
	Resource string    // Resource identifier (path, package name, run id, etc.)
	Cause    error     // Wrapped upstream error
	Advice   string    // Human-readable remediation hint
}

func (e *BuildError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("[%s] %s (%s): %v", e.Code, e.Op, e.Resource, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Op, e.Cause)
}

func (e *BuildError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the formatted user-facing error message with remediation advice.
func (e *BuildError) UserMessage() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Op)
	if e.Resource != "" {
		msg += fmt.Sprintf(" (resource: %s)", e.Resource)
	}
	if e.Advice != "" {
		msg += fmt.Sprintf("\n  → %s", e.Advice)
	}
	return msg
}

// New creates a new BuildError.
func New(code ErrorCode, op string, cause error) *BuildError {
	return &BuildError{Code: code, Op: op, Cause: cause}
}

// Newf creates a new BuildError with a formatted message as the cause.
func Newf(code ErrorCode, op, format string, args ...any) *BuildError {
	return &BuildError{Code: code, Op: op, Cause: fmt.Errorf(format, args...)}
}

// WithResource sets the resource identifier on a BuildError.
func (e *BuildError) WithResource(resource string) *BuildError {
	e.Resource = resource
	return e
}

// WithAdvice sets the human-readable remediation hint on a BuildError.
func (e *BuildError) WithAdvice(advice string) *BuildError {
	e.Advice = advice
	return e
}

// Wrap wraps an existing error as a BuildError at a new operation boundary.
func Wrap(err error, code ErrorCode, op string) *BuildError {
	if err == nil {
		return nil
	}
	return &BuildError{Code: code, Op: op, Cause: err}
}

// IsCode reports whether err is a BuildError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// AsBuild extracts the *BuildError from err, or returns nil.
func AsBuild(err error) *BuildError {
	var be *BuildError
	if errors.As(err, &be) {
		return be
	}
	return nil
}
