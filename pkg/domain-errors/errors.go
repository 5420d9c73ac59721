// Package domainerrors provides the domain error taxonomy shared by all
// modules. Import it aliased as dErrors.
//
// Services wrap infrastructure failures (sentinel errors from stores, adapter
// errors from platform clients) into coded domain errors; the HTTP layer maps
// codes to statuses in one place. Codes are part of the API contract, so new
// codes are additive and existing ones never change meaning.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeBadRequest covers malformed requests (bad JSON, missing body).
	CodeBadRequest Code = "bad_request"

	// CodeInvalidInput covers structurally invalid identifiers and fields.
	CodeInvalidInput Code = "invalid_input"

	// CodeValidation covers semantically invalid evidence or payloads.
	CodeValidation Code = "validation_error"

	// CodeUnauthorized covers missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"

	// CodeNotFound covers lookups for entities that do not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict covers retryable concurrency violations, e.g. a second
	// reconciliation attempted while one is in flight for the same identity.
	CodeConflict Code = "conflict"

	// CodeUnresolvableConflict covers high-severity field conflicts that no
	// automatic strategy may resolve. Surfaced for manual adjudication.
	CodeUnresolvableConflict Code = "unresolvable_conflict"

	// CodeStaleData covers snapshots older than the stored value; they are
	// discarded, never merged.
	CodeStaleData Code = "stale_data"

	// CodeAdapterFailure covers per-platform fetch failures. These are
	// isolated per platform and never fail a whole sync cycle.
	CodeAdapterFailure Code = "adapter_failure"

	// CodeTimeout covers deadline and cancellation failures.
	CodeTimeout Code = "timeout"

	// CodeUnavailable covers temporarily unavailable dependencies.
	CodeUnavailable Code = "unavailable"

	// CodeInternal covers unexpected failures. Details are logged, never
	// returned to callers.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Message is safe to surface to callers for
// every code except CodeInternal.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from an error chain. Unknown errors are internal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the error chain carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Retryable reports whether the caller may retry the operation as-is.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeConflict, CodeTimeout, CodeUnavailable:
		return true
	}
	return false
}

// HTTPStatus maps a code to an HTTP status for the transport layer.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeUnresolvableConflict, CodeStaleData:
		return http.StatusConflict
	case CodeAdapterFailure, CodeUnavailable:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
