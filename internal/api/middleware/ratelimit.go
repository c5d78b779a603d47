package middleware

import (
	"net"
	"net/http"

	"pathways/internal/api"
	"pathways/internal/domain"
	"pathways/internal/platform/telemetry"
)

// RateLimit returns middleware that enforces per-IP rate limits. Denials are
// reported as RATE_LIMITED envelopes with a Retry-After header.
// The metrics parameter is optional; pass nil to skip metric recording.
func RateLimit(limiter api.RateLimiter, m *telemetry.APIMetrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if result := limiter.Allow(ip); !result.Allowed {
				if m != nil {
					m.RecordRateLimitDecision(r.Context(), "ip", "denied")
				}
				api.Error(w, r, domain.RateLimited(result.RetryAfter))
				return
			}

			if m != nil {
				m.RecordRateLimitDecision(r.Context(), "ip", "allowed")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// Use RemoteAddr directly. X-Forwarded-For is client-controlled and
	// must not be trusted without a validated trusted proxy list.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
