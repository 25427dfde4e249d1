// Package errors defines the application error taxonomy for the reminder
// service and its reporting pipeline.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError is the canonical error carried across subsystem boundaries.
// Retryable means "a fresh user action may succeed", never "retry
// automatically": the reminder subsystem performs no automatic retries.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewValidationError reports malformed reminder settings or request input.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: fmt.Sprintf("Invalid input. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewUnsupportedPlatformError reports that no notification capability exists
// at all. Terminal: no retry can help.
func NewUnsupportedPlatformError() *AppError {
	return &AppError{
		Code:        "E200",
		Message:     "notifications are not supported on this platform",
		UserMessage: "Reminders are not available on this device",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       nil,
	}
}

// NewPermissionDeniedError reports that the user denied notification
// permission. Terminal for the session; only a fresh explicit user action
// retries.
func NewPermissionDeniedError() *AppError {
	return &AppError{
		Code:        "E201",
		Message:     "notification permission denied",
		UserMessage: "Enable notifications to receive reminders",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewPushUnsupportedError reports that the platform lacks push capability.
func NewPushUnsupportedError() *AppError {
	return &AppError{
		Code:        "E202",
		Message:     "push messaging is not supported on this platform",
		UserMessage: "Push reminders are not available on this device",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       nil,
	}
}

// NewBrokerUnreachableError reports a failed request to the backend broker.
// Surfaced to the caller for a user-visible retry; never retried here.
func NewBrokerUnreachableError(cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("push broker unreachable: %v", cause),
		UserMessage: "Could not reach the reminder server, try again",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewRelayUnreachableError reports a failed operation against the platform
// push relay.
func NewRelayUnreachableError(cause error) *AppError {
	return &AppError{
		Code:        "E301",
		Message:     fmt.Sprintf("push relay unreachable: %v", cause),
		UserMessage: "Could not set up push delivery, try again",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewReconciliationPartialError reports that some dispatcher operations
// failed mid-reconcile. Re-running the synchronizer completes the remaining
// deltas, so this is never fatal.
func NewReconciliationPartialError(failed int, cause error) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     fmt.Sprintf("schedule reconciliation partially failed: %d operation(s)", failed),
		UserMessage: "Some reminder schedules were not synced, run setup again",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewStorageError reports a settings-store or suppression-ledger failure.
func NewStorageError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("storage error: %s", underlyingMsg),
		UserMessage: "Temporary problem, try again later",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}
