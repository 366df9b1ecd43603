package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies a failed call.
type Kind int

const (
	KindUnknown Kind = iota
	// KindRequest is any other 4xx the caller is expected to present
	// (400, 409, 422...).
	KindRequest
	KindAuthExpired
	KindPermissionDenied
	KindRateLimited
	KindNotFound
	KindServer
	// KindTransport means no response was received.
	KindTransport
	// KindExportFailed is a non-OK export response that is neither a rate
	// limit nor a missing record, or an export with the wrong content type.
	KindExportFailed
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindAuthExpired:
		return "auth_expired"
	case KindPermissionDenied:
		return "permission_denied"
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	case KindExportFailed:
		return "export_failed"
	default:
		return "unknown"
	}
}

// Error is the single error type propagated for failed calls.
type Error struct {
	Kind Kind
	// Status is the HTTP status, 0 for transport failures.
	Status int
	// Message is the service-provided message when there was one,
	// otherwise a generic message for the status.
	Message string
	// Details is the optional structured detail sent by the service.
	Details json.RawMessage
	// RateLimit is set only on KindRateLimited errors.
	RateLimit *RateLimitInfo
	// RequestID is the X-Request-ID sent with the failed call.
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("gateway: %s: %s: %v", e.Kind, e.Message, e.Err)
		}
		return fmt.Sprintf("gateway: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("gateway: HTTP %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ValidationError is raised before any request is issued when input fails
// the client-side checks.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsAuthExpired(err error) bool      { return KindOf(err) == KindAuthExpired }
func IsPermissionDenied(err error) bool { return KindOf(err) == KindPermissionDenied }
func IsRateLimited(err error) bool      { return KindOf(err) == KindRateLimited }
func IsNotFound(err error) bool         { return KindOf(err) == KindNotFound }
func IsServer(err error) bool           { return KindOf(err) == KindServer }
func IsTransport(err error) bool        { return KindOf(err) == KindTransport }
