package domain

import (
	"fmt"
	"net/http"
)

// Kind identifies a category of API error. The set is closed: every Kind
// maps to exactly one canonical HTTP status via Status.
type Kind string

const (
	KindBadRequest      Kind = "BAD_REQUEST"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindValidation      Kind = "VALIDATION_ERROR"
	KindRateLimited     Kind = "RATE_LIMITED"
	KindPayloadTooLarge Kind = "PAYLOAD_TOO_LARGE"
	KindInternal        Kind = "INTERNAL_ERROR"
	KindServiceUnavail  Kind = "SERVICE_UNAVAILABLE"
	KindDatabase        Kind = "DATABASE_ERROR"
	KindExternalService Kind = "EXTERNAL_SERVICE_ERROR"
)

var kindStatus = map[Kind]int{
	KindBadRequest:      http.StatusBadRequest,
	KindUnauthorized:    http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindValidation:      http.StatusUnprocessableEntity,
	KindRateLimited:     http.StatusTooManyRequests,
	KindPayloadTooLarge: http.StatusRequestEntityTooLarge,
	KindInternal:        http.StatusInternalServerError,
	KindServiceUnavail:  http.StatusServiceUnavailable,
	KindDatabase:        http.StatusInternalServerError,
	KindExternalService: http.StatusBadGateway,
}

// Status returns the canonical HTTP status for the kind.
// Unknown kinds resolve to 500 so an error response can always be produced.
func (k Kind) Status() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// APIError is a structured application error. It is constructed once at the
// point a rule is violated and never mutated afterwards.
type APIError struct {
	Message string
	Status  int
	Kind    Kind
	Details any

	// Operational marks expected business failures as opposed to bugs.
	Operational bool

	// RetryAfter, when non-empty, is mirrored into the Retry-After response
	// header (seconds or an HTTP-date).
	RetryAfter string
}

func (e *APIError) Error() string { return e.Message }

// NewError builds an APIError for the given kind. An empty message falls back
// to a kind-specific default. Construction never fails.
func NewError(kind Kind, message string, details any) *APIError {
	if message == "" {
		message = defaultMessage(kind)
	}
	return &APIError{
		Message:     message,
		Status:      kind.Status(),
		Kind:        kind,
		Details:     details,
		Operational: kind.Status() < http.StatusInternalServerError,
	}
}

func defaultMessage(kind Kind) string {
	switch kind {
	case KindBadRequest:
		return "Bad request"
	case KindUnauthorized:
		return "Authentication required"
	case KindForbidden:
		return "You do not have permission to perform this action"
	case KindNotFound:
		return "Resource not found"
	case KindConflict:
		return "Resource already exists"
	case KindValidation:
		return "Validation failed"
	case KindRateLimited:
		return "Too many requests"
	case KindPayloadTooLarge:
		return "Request body too large"
	case KindServiceUnavail:
		return "Service temporarily unavailable"
	case KindDatabase:
		return "A database error occurred"
	case KindExternalService:
		return "An upstream service failed"
	default:
		return "An unexpected error occurred"
	}
}

// Named constructors so call sites never hand-assemble status/kind pairs.

func BadRequest(message string) *APIError {
	return NewError(KindBadRequest, message, nil)
}

func Unauthorized(message string) *APIError {
	return NewError(KindUnauthorized, message, nil)
}

func Forbidden(message string) *APIError {
	return NewError(KindForbidden, message, nil)
}

// NotFound names the missing resource, e.g. NotFound("job") -> "job not found".
func NotFound(resource string) *APIError {
	if resource == "" {
		return NewError(KindNotFound, "", nil)
	}
	return NewError(KindNotFound, fmt.Sprintf("%s not found", resource), nil)
}

func Conflict(message string) *APIError {
	return NewError(KindConflict, message, nil)
}

// Validation carries field-level detail, typically a map of field -> message.
func Validation(details any) *APIError {
	return NewError(KindValidation, "", details)
}

// RateLimited sets RetryAfter in whole seconds.
func RateLimited(retryAfterSeconds int) *APIError {
	e := NewError(KindRateLimited, "", nil)
	e.RetryAfter = fmt.Sprintf("%d", retryAfterSeconds)
	return e
}

func PayloadTooLarge(message string) *APIError {
	return NewError(KindPayloadTooLarge, message, nil)
}

func Internal(message string) *APIError {
	e := NewError(KindInternal, message, nil)
	e.Operational = false
	return e
}

func Unavailable(message string) *APIError {
	return NewError(KindServiceUnavail, message, nil)
}

func Database(message string) *APIError {
	e := NewError(KindDatabase, message, nil)
	e.Operational = false
	return e
}

func ExternalService(message string) *APIError {
	return NewError(KindExternalService, message, nil)
}
