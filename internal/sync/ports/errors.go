package ports

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized adapter failure taxonomy. The sync result
// reports failures by category so callers can tell a rate limit from an
// outage without parsing messages.
type ErrorCategory string

const (
	// ErrorTimeout indicates the platform took too long to respond.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorRateLimited indicates the platform throttled us.
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorOutage indicates the platform is unreachable.
	ErrorOutage ErrorCategory = "outage"

	// ErrorBadData indicates the platform returned malformed data.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates the stored connection credentials were
	// rejected; the connection likely needs re-linking.
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorNotFound indicates the linked account no longer exists.
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorInternal indicates an unexpected adapter failure.
	ErrorInternal ErrorCategory = "internal"
)

// AdapterError wraps adapter failures with normalized categorization. One
// platform's AdapterError never aborts the other platforms' fetches.
type AdapterError struct {
	Category   ErrorCategory
	PlatformID string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *AdapterError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("adapter %s [%s]: %s: %v", e.PlatformID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("adapter %s [%s]: %s", e.PlatformID, e.Category, e.Message)
}

func (e *AdapterError) Unwrap() error {
	return e.Underlying
}

// NewAdapterError creates a normalized adapter error. Timeouts, rate limits,
// and outages are retryable by definition.
func NewAdapterError(category ErrorCategory, platformID, message string, underlying error) *AdapterError {
	retryable := category == ErrorTimeout ||
		category == ErrorOutage ||
		category == ErrorRateLimited

	return &AdapterError{
		Category:   category,
		PlatformID: platformID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// CategoryOf extracts the error category from an error chain.
func CategoryOf(err error) ErrorCategory {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Category
	}
	return ErrorInternal
}

// Sentinel errors for wiring-level problems.
var (
	ErrAdapterNotRegistered = errors.New("no adapter registered for platform")
	ErrAllPlatformsFailed   = errors.New("all platform fetches failed")
)
