package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"pathways/internal/api"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns a correlation ID to each request and mirrors it back on
// the response. An inbound X-Request-ID header is reused verbatim; otherwise
// a "req_" tagged short hex ID is minted. Minted IDs are unique with
// overwhelming probability within a process lifetime; no cross-process
// guarantee is made.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = mintRequestID()
		}
		ctx := api.ContextWithRequestID(r.Context(), id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func mintRequestID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "req_" + hex[:12]
}
