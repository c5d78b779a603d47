package api

import (
	"context"
	"net/http"

	"pathways/internal/domain"
)

// Handler is an HTTP handler that reports failures on the error channel
// instead of writing error responses itself. The terminal error middleware
// is the only place an error body is produced.
type Handler func(http.ResponseWriter, *http.Request) error

// TokenVerifier validates a bearer token and returns the principal it names.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Principal, error)
}

// RateLimiter decides whether a request identified by key should be allowed.
type RateLimiter interface {
	Allow(key string) RateLimitResult
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter int // seconds until next token available; 0 if allowed
}

// StatusWriter wraps http.ResponseWriter to capture the status code and
// whether a response has started.
type StatusWriter struct {
	http.ResponseWriter
	Code    int
	Written bool
}

func (sw *StatusWriter) WriteHeader(code int) {
	if !sw.Written {
		sw.Code = code
		sw.Written = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *StatusWriter) Write(p []byte) (int, error) {
	sw.Written = true
	return sw.ResponseWriter.Write(p)
}

// PrincipalFromContext extracts the authenticated principal from a request context.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// ContextWithPrincipal stores the authenticated principal in the context.
func ContextWithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

type principalKey struct{}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID stores the request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

type requestIDKey struct{}
