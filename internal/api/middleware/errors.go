package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pathways/internal/api"
	"pathways/internal/domain"
	"pathways/internal/platform/telemetry"
)

// EnvProduction suppresses internal error detail in responses.
const EnvProduction = "production"

const pgUniqueViolation = "23505"

// classifier pairs a name with a translation attempt. The list below is
// consulted in order and the first match wins, so precedence is explicit
// and testable without constructing any particular library's errors.
type classifier struct {
	name      string
	translate func(err error, env string) (*domain.APIError, bool)
}

var classifiers = []classifier{
	{"pg_unique_violation", func(err error, _ string) (*domain.APIError, bool) {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.Conflict("Resource already exists"), true
		}
		return nil, false
	}},
	{"pg_no_rows", func(err error, _ string) (*domain.APIError, bool) {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotFound(""), true
		}
		return nil, false
	}},
	{"pg_error", func(err error, _ string) (*domain.APIError, bool) {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return domain.Database(""), true
		}
		return nil, false
	}},
	{"validation", func(err error, _ string) (*domain.APIError, bool) {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = "failed on the '" + fe.Tag() + "' rule"
			}
			return domain.Validation(details), true
		}
		return nil, false
	}},
	{"token", func(err error, _ string) (*domain.APIError, bool) {
		if errors.Is(err, jwt.ErrTokenExpired) ||
			errors.Is(err, jwt.ErrTokenMalformed) ||
			errors.Is(err, jwt.ErrSignatureInvalid) ||
			errors.Is(err, jwt.ErrTokenNotValidYet) ||
			errors.Is(err, jwt.ErrTokenUnverifiable) {
			return domain.Unauthorized("Invalid or expired token"), true
		}
		return nil, false
	}},
	{"api_error", func(err error, _ string) (*domain.APIError, bool) {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) {
			return apiErr, true
		}
		return nil, false
	}},
	{"timeout", func(err error, _ string) (*domain.APIError, bool) {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Unavailable("Request timed out, please try again"), true
		}
		return nil, false
	}},
}

// Classify converts any error into an APIError. Unclassified errors become
// INTERNAL_ERROR; their message is suppressed in production and shown
// verbatim otherwise.
func Classify(err error, env string) *domain.APIError {
	for _, c := range classifiers {
		if apiErr, ok := c.translate(err, env); ok {
			return apiErr
		}
	}
	if env == EnvProduction {
		return domain.Internal("An unexpected error occurred")
	}
	return domain.Internal(err.Error())
}

// ErrorHandler is the terminal point for every failed request: it classifies
// the error, logs it at the appropriate severity, and writes exactly one
// response. Handlers must not have written a body before returning an error.
type ErrorHandler struct {
	env     string
	logger  *slog.Logger
	metrics *telemetry.APIMetrics
}

func NewErrorHandler(env string, logger *slog.Logger, m *telemetry.APIMetrics) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{env: env, logger: logger, metrics: m}
}

// Wrap adapts an error-returning handler into an http.Handler.
func (eh *ErrorHandler) Wrap(h api.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			eh.respond(w, r, err)
		}
	})
}

func (eh *ErrorHandler) respond(w http.ResponseWriter, r *http.Request, err error) {
	// A tripped streaming governor keeps the legacy 413 shape and drops the
	// connection rather than draining the rest of the body.
	var sle *StreamLimitError
	if errors.As(err, &sle) {
		eh.logger.Warn("request body over streaming limit",
			"path", r.URL.Path,
			"limit", FormatSize(sle.Limit),
			"remote_addr", clientIP(r),
			"request_id", api.RequestIDFromContext(r.Context()),
		)
		if eh.metrics != nil {
			eh.metrics.RecordSizeLimitRejection(r.Context(), "stream")
		}
		w.Header().Set("Connection", "close")
		writeSizeLimitExceeded(w, sle.Limit)
		return
	}

	apiErr := Classify(err, eh.env)
	principal, _ := api.PrincipalFromContext(r.Context())

	attrs := []any{
		"request_id", api.RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"method", r.Method,
		"code", string(apiErr.Kind),
		"status", apiErr.Status,
		"user_id", principal.ID,
		"remote_addr", clientIP(r),
		"error", err.Error(),
	}
	if apiErr.Status >= http.StatusInternalServerError {
		attrs = append(attrs, "stack", string(debug.Stack()))
		eh.logger.Error("request failed", attrs...)
	} else {
		eh.logger.Warn("request failed", attrs...)
	}

	if eh.metrics != nil {
		eh.metrics.RecordErrorResponse(r.Context(), string(apiErr.Kind), apiErr.Status)
	}

	api.Error(w, r, apiErr)
}
