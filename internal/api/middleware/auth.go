package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"pathways/internal/api"
	"pathways/internal/domain"
	"pathways/internal/platform/telemetry"
)

// Auth returns middleware that validates Bearer tokens via the given
// verifier and attaches the resulting principal to the request context.
// Apply it to route groups that require authentication; public routes are
// simply mounted outside the group.
// The metrics parameter is optional; pass nil to skip metric recording.
func Auth(verifier api.TokenVerifier, m *telemetry.APIMetrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := extractBearerToken(r)
			if !ok {
				if m != nil {
					m.RecordAuthValidation(r.Context(), "failure")
				}
				api.Error(w, r, domain.Unauthorized("Missing or malformed authorization header"))
				return
			}

			principal, err := verifier.Verify(r.Context(), tokenStr)
			if err != nil {
				slog.Debug("auth validation failed", "error", err)
				if m != nil {
					m.RecordAuthValidation(r.Context(), "failure")
				}
				api.Error(w, r, domain.Unauthorized("Invalid or expired token"))
				return
			}

			if m != nil {
				m.RecordAuthValidation(r.Context(), "success")
			}
			ctx := api.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
