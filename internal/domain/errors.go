package domain

import "fmt"

// Error types for consistent error handling across the BFA.

// Action hints returned with every error body so the frontend can offer a
// next step instead of a bare failure message.
const (
	ActionRetry          = "retry"
	ActionLogin          = "login"
	ActionRequestNewLink = "request_new_link"
	ActionFixInput       = "fix_input"
	ActionContactAdmin   = "contact_admin"
)

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Status  int
	Err     error
}

func (e *ErrExternalService) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("external service error [%s] status %d: %v", e.Service, e.Status, e.Err)
	}
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrFileConstraint indicates an upload rejected at selection time.
type ErrFileConstraint struct {
	Field  string
	Reason string
}

func (e *ErrFileConstraint) Error() string {
	return fmt.Sprintf("file rejected for '%s': %s", e.Field, e.Reason)
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrUnauthorized indicates invalid credentials or an expired session.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict indicates a resource already exists (e.g. duplicate subdomain).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrExpired indicates a one-time link (invitation, reset token) can no
// longer be used.
type ErrExpired struct {
	Resource string
}

func (e *ErrExpired) Error() string {
	return fmt.Sprintf("%s has expired or was already used", e.Resource)
}

// ErrStepFailed reports which step of a multi-step submission failed.
type ErrStepFailed struct {
	Step string
	Err  error
}

func (e *ErrStepFailed) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *ErrStepFailed) Unwrap() error {
	return e.Err
}
