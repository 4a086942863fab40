// Package errors provides the error types used across the Web3 Shield SDK.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the base error type for all SDK errors.
type Error struct {
	// Kind indicates the category of error
	Kind Kind

	// Op is the operation being performed (e.g., "client.Scan")
	Op string

	// Message is a human-readable description
	Message string

	// Err is the underlying error
	Err error
}

// Kind represents the kind/category of error.
type Kind uint8

const (
	KindUnknown Kind = iota

	// KindValidation marks input rejected before any network call, such as
	// a contract address that does not match the 0x hex pattern.
	KindValidation

	// KindTransport marks a network failure or a malformed response body.
	// Surfaced to the user as a generic retryable message; the SDK never
	// retries scans automatically.
	KindTransport

	// KindServer marks a non-2xx response carrying a detail message. The
	// message is shown verbatim, never interpreted.
	KindServer

	// KindPayment marks the distinguished 402 "payment required" response.
	KindPayment

	// KindAuth marks a missing or rejected sign-in.
	KindAuth

	// KindBusy marks a submission rejected because another scan is already
	// in flight on the same orchestrator.
	KindBusy

	// KindInternal marks SDK-internal failures (storage, encoding).
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindPayment:
		return "payment_required"
	case KindAuth:
		return "auth"
	case KindBusy:
		return "busy"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// =============================================================================
// API Error
// =============================================================================

// APIError represents a non-2xx response from the Web3 Shield backend.
// Detail carries the backend's {"detail": "..."} message verbatim.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Detail     string `json:"detail"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", http.StatusText(e.StatusCode), e.Detail)
	}
	return http.StatusText(e.StatusCode)
}

// =============================================================================
// Constructors
// =============================================================================

// E constructs an Error from the given arguments.
// Arguments can be: Kind, string (Op then Message), error.
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Kind:
			e.Kind = a
		case string:
			if e.Op == "" {
				e.Op = a
			} else {
				e.Message = a
			}
		case error:
			e.Err = a
		}
	}
	return e
}

// New creates a new simple error.
func New(message string) error {
	return &Error{Message: message}
}

// Wrap wraps an error with an operation for context.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// =============================================================================
// Error Checkers
// =============================================================================

// GetKind returns the Kind of the error, or KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsAPIError checks if err is an APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsValidationError checks if the error is a local input-validation error.
func IsValidationError(err error) bool {
	return GetKind(err) == KindValidation
}

// IsPaymentRequired checks if the error is the distinguished 402 response,
// either by Kind or by the underlying status code.
func IsPaymentRequired(err error) bool {
	if GetKind(err) == KindPayment {
		return true
	}
	if apiErr, ok := IsAPIError(err); ok {
		return apiErr.StatusCode == http.StatusPaymentRequired
	}
	return false
}

// IsTransportError checks if the error is a network or decode failure.
func IsTransportError(err error) bool {
	return GetKind(err) == KindTransport
}

// IsServerRejection checks if the error carries a backend detail message.
func IsServerRejection(err error) bool {
	if GetKind(err) == KindServer {
		return true
	}
	_, ok := IsAPIError(err)
	return ok
}

// IsBusy checks if the error is the single-in-flight rejection.
func IsBusy(err error) bool {
	return GetKind(err) == KindBusy
}

// UserMessage returns the text that should be shown to the user for err.
// Server detail messages surface verbatim; transport failures collapse to a
// generic retryable message; everything else uses the error text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := IsAPIError(err); ok && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if IsTransportError(err) {
		return "Network error. Please try again."
	}
	return err.Error()
}

// =============================================================================
// Common Errors
// =============================================================================

var (
	// ErrInvalidAddress is returned when an address fails the hex-pattern check.
	ErrInvalidAddress = &Error{Kind: KindValidation, Message: "invalid contract address"}

	// ErrScanInFlight is returned when a scan is already pending.
	ErrScanInFlight = &Error{Kind: KindBusy, Message: "a scan is already in progress"}

	// ErrNotAuthenticated is returned when a deep scan requires sign-in.
	ErrNotAuthenticated = &Error{Kind: KindAuth, Message: "sign in required"}

	// ErrOutOfCredits is returned when the backend rejects a deep scan with 402.
	ErrOutOfCredits = &Error{Kind: KindPayment, Message: "out of credits"}
)
