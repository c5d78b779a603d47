package middleware

import (
	"fmt"
	"io"
	"net/http"
)

// StreamLimitError reports that a request body exceeded the streaming limit
// while being read. The terminal error middleware converts it into the same
// 413 rejection the checked governor produces and closes the connection.
type StreamLimitError struct {
	Limit int64
}

func (e *StreamLimitError) Error() string {
	return fmt.Sprintf("request body exceeds %s", FormatSize(e.Limit))
}

// StreamLimit returns the streaming size governor. It counts body bytes as
// downstream handlers read them and fails the read that pushes the running
// total past maxBytes. Unlike the checked governor it does not trust
// Content-Length at all, so it catches bodies that omit or understate it.
// Tripping is a per-request failure; other in-flight requests are unaffected.
func StreamLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = &meteredBody{rc: r.Body, limit: maxBytes}
			}
			next.ServeHTTP(w, r)
		})
	}
}

type meteredBody struct {
	rc      io.ReadCloser
	limit   int64
	count   int64
	tripped bool
}

func (b *meteredBody) Read(p []byte) (int, error) {
	if b.tripped {
		return 0, &StreamLimitError{Limit: b.limit}
	}
	n, err := b.rc.Read(p)
	b.count += int64(n)
	if b.count > b.limit {
		b.tripped = true
		return n, &StreamLimitError{Limit: b.limit}
	}
	return n, err
}

func (b *meteredBody) Close() error {
	// Do not drain the remainder; the connection is abandoned instead.
	return b.rc.Close()
}
