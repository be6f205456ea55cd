// Package errors provides centralized error definitions and error handling utilities
// for the rendezvous codebase. It defines the shared resource sentinel errors, a
// domain error type carrying resource context, semantic error types, and
// classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from the coordinator:
//   - ResourceError: a failure tied to a named shared resource and watcher
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewResourceError("load state", errors.ErrCorruptState).
//	    WithResource("upgrade").
//	    WithWatcher(id)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrLeaderFailed) { ... }
//
//	var resErr *errors.ResourceError
//	if errors.As(err, &resErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Shared resource sentinel errors
var (
	// ErrCorruptState indicates that the state file is not valid JSON or is
	// missing required keys.
	ErrCorruptState = New("shared resource state is corrupt")
	// ErrNotInitialized indicates that the state file does not exist yet.
	ErrNotInitialized = New("shared resource is not initialized")
	// ErrLockFailure indicates that the state file lock could not be acquired.
	ErrLockFailure = New("failed to lock shared resource")
	// ErrActionFailed indicates that the leader's action returned an error.
	ErrActionFailed = New("shared resource action failed")
	// ErrLeaderFailed indicates that a follower observed a terminal leader failure.
	ErrLeaderFailed = New("shared resource leader failed")
	// ErrResourceActive indicates that a resource still has live participants.
	ErrResourceActive = New("shared resource is still active")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// RendezvousError is the base interface for all rendezvous errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type RendezvousError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ResourceError represents a coordinator failure on one shared resource.
//
// Example:
//
//	err := errors.NewResourceError("wait for leader", errors.ErrLeaderFailed).
//	    WithResource("upgrade").WithWatcher("3f2a...").WithStatus("error")
//	fmt.Println(err) // "resource error [resource=upgrade, watcher=3f2a..., status=error]: wait for leader: shared resource leader failed"
type ResourceError struct {
	baseError
	Resource string
	Watcher  string
	Status   string
}

// NewResourceError creates a new ResourceError. Errors wrapping
// ErrNotInitialized are retryable; everything else is fatal.
func NewResourceError(message string, cause error) *ResourceError {
	severity := SeverityError
	if errors.Is(cause, ErrCorruptState) || errors.Is(cause, ErrLockFailure) {
		severity = SeverityCritical
	}
	return &ResourceError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   severity,
			retryable:  errors.Is(cause, ErrNotInitialized),
			userFacing: true,
		},
	}
}

// WithResource adds the resource name to the error context.
func (e *ResourceError) WithResource(name string) *ResourceError {
	e.Resource = name
	return e
}

// WithWatcher adds the watcher ID to the error context.
func (e *ResourceError) WithWatcher(id string) *ResourceError {
	e.Watcher = id
	return e
}

// WithStatus adds the observed leader status to the error context.
func (e *ResourceError) WithStatus(status string) *ResourceError {
	e.Status = status
	return e
}

// WithSeverity sets the error severity.
func (e *ResourceError) WithSeverity(s Severity) *ResourceError {
	e.severity = s
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *ResourceError) WithRetryable(r bool) *ResourceError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *ResourceError) Error() string {
	var parts []string
	if e.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", e.Resource))
	}
	if e.Watcher != "" {
		parts = append(parts, fmt.Sprintf("watcher=%s", e.Watcher))
	}
	if e.Status != "" {
		parts = append(parts, fmt.Sprintf("status=%s", e.Status))
	}

	prefix := "resource error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("resource error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is reports whether target is a *ResourceError. Sentinel matching
// goes through Unwrap.
func (e *ResourceError) Is(target error) bool {
	_, ok := target.(*ResourceError)
	return ok
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("shared resource", "upgrade")
//	fmt.Println(err) // "shared resource not found: upgrade"
type NotFoundError struct {
	ResourceType string
	ResourceID   string
	cause        error
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.ResourceID != "" {
		return fmt.Sprintf("%s not found: %s", e.ResourceType, e.ResourceID)
	}
	return fmt.Sprintf("%s not found", e.ResourceType)
}

// Unwrap returns the underlying error.
func (e *NotFoundError) Unwrap() error {
	return e.cause
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("must not contain a path separator").
//	    WithField("name").WithValue("a/b")
type ValidationError struct {
	Message string
	Field   string
	Value   any
	cause   error
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation error")
	if e.Field != "" {
		sb.WriteString(fmt.Sprintf(" [%s]", e.Field))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Value != nil {
		sb.WriteString(fmt.Sprintf(" (got: %v)", e.Value))
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Is lets validation errors match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. This checks for:
//   - Errors implementing RendezvousError with IsRetryable() returning true
//   - Errors wrapping ErrNotInitialized
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var rErr RendezvousError
	if As(err, &rErr) {
		return rErr.IsRetryable()
	}

	return Is(err, ErrNotInitialized)
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var rErr RendezvousError
	if As(err, &rErr) {
		return rErr.IsUserFacing()
	}

	var notFound *NotFoundError
	var validation *ValidationError
	return As(err, &notFound) || As(err, &validation)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement RendezvousError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var rErr RendezvousError
	if As(err, &rErr) {
		return rErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to read state")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
