package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"pathways/internal/api"
	"pathways/internal/domain"
)

// Recovery catches panics from downstream handlers and converts them into a
// 500 error envelope. A panicking request never takes the process down with it.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic recovered",
					"error", err,
					"request_id", api.RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"method", r.Method,
					"stack", string(debug.Stack()),
				)
				api.Error(w, r, domain.Internal("An unexpected error occurred"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
