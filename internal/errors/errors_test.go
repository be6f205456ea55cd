package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ResourceError Tests
// -----------------------------------------------------------------------------

func TestNewResourceError(t *testing.T) {
	tests := []struct {
		name      string
		cause     error
		severity  Severity
		retryable bool
	}{
		{"not initialized", ErrNotInitialized, SeverityError, true},
		{"corrupt state", ErrCorruptState, SeverityCritical, false},
		{"lock failure", ErrLockFailure, SeverityCritical, false},
		{"leader failed", ErrLeaderFailed, SeverityError, false},
		{"nil cause", nil, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewResourceError("op", tt.cause)
			if err.Severity() != tt.severity {
				t.Errorf("Severity() = %v, want %v", err.Severity(), tt.severity)
			}
			if err.IsRetryable() != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", err.IsRetryable(), tt.retryable)
			}
			if !err.IsUserFacing() {
				t.Error("IsUserFacing() = false, want true")
			}
		})
	}
}

func TestResourceError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ResourceError
		want string
	}{
		{
			name: "no context",
			err:  NewResourceError("load state", nil),
			want: "resource error: load state",
		},
		{
			name: "with resource and cause",
			err:  NewResourceError("load state", ErrCorruptState).WithResource("r1"),
			want: "resource error [resource=r1]: load state: shared resource state is corrupt",
		},
		{
			name: "full context",
			err: NewResourceError("wait", ErrLeaderFailed).
				WithResource("r1").
				WithWatcher("w1").
				WithStatus("error"),
			want: "resource error [resource=r1, watcher=w1, status=error]: wait: shared resource leader failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResourceError_IsAndAs(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewResourceError("wait", ErrLeaderFailed).WithResource("r1"))

	if !errors.Is(err, ErrLeaderFailed) {
		t.Error("errors.Is(err, ErrLeaderFailed) = false, want true")
	}
	if errors.Is(err, ErrCorruptState) {
		t.Error("errors.Is(err, ErrCorruptState) = true, want false")
	}
	if !errors.Is(err, &ResourceError{}) {
		t.Error("errors.Is(err, &ResourceError{}) = false, want true")
	}

	var resErr *ResourceError
	if !errors.As(err, &resErr) {
		t.Fatal("errors.As should find ResourceError")
	}
	if resErr.Resource != "r1" {
		t.Errorf("Resource = %q, want %q", resErr.Resource, "r1")
	}
}

func TestResourceError_WithMethods(t *testing.T) {
	err := NewResourceError("x", nil).
		WithSeverity(SeverityWarning).
		WithRetryable(true)

	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
	if !err.IsRetryable() {
		t.Error("IsRetryable() = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	cause := errors.New("stat failed")
	err := NewNotFoundError("shared resource", "r1").WithCause(cause)

	if got, want := err.Error(), "shared resource not found: r1"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("NotFoundError should unwrap to its cause")
	}
	if got, want := NewNotFoundError("state file", "").Error(), "state file not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("must not be empty").WithField("name").WithValue("")

	if got, want := err.Error(), "validation error [name]: must not be empty (got: )"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"bare not initialized", ErrNotInitialized, true},
		{"wrapped not initialized", Wrap(ErrNotInitialized, "load"), true},
		{"resource error not initialized", NewResourceError("load", ErrNotInitialized), true},
		{"resource error corrupt", NewResourceError("load", ErrCorruptState), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"resource", NewResourceError("x", nil), true},
		{"not found", NewNotFoundError("a", "b"), true},
		{"validation", NewValidationError("bad"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	if got := GetSeverity(nil); got != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %v, want %v", got, SeverityDebug)
	}
	if got := GetSeverity(errors.New("x")); got != SeverityError {
		t.Errorf("GetSeverity(plain) = %v, want %v", got, SeverityError)
	}
	if got := GetSeverity(NewResourceError("x", ErrCorruptState)); got != SeverityCritical {
		t.Errorf("GetSeverity(corrupt) = %v, want %v", got, SeverityCritical)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "x %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	err := Wrapf(ErrLockFailure, "resource %s", "r1")
	if got, want := err.Error(), "resource r1: failed to lock shared resource"; got != want {
		t.Errorf("Wrapf() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrLockFailure) {
		t.Error("Wrapf should preserve the wrapped sentinel")
	}
}
