package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"pathways/internal/api"
	"pathways/internal/platform/telemetry"
)

// DefaultSizeLimit is the fallback byte limit used when a size string cannot
// be parsed. Resolving to a safe default instead of failing keeps a bad
// config value from rejecting every request.
const DefaultSizeLimit int64 = 1 << 20 // 1 MiB

// BodyCategory classifies a request body by its Content-Type.
type BodyCategory string

const (
	CategoryJSON       BodyCategory = "json"
	CategoryURLEncoded BodyCategory = "urlencoded"
	CategoryText       BodyCategory = "text"
	CategoryFile       BodyCategory = "file"
	CategoryRaw        BodyCategory = "raw"
)

// SizeLimits holds byte limits per body category.
type SizeLimits struct {
	JSON       int64
	URLEncoded int64
	Text       int64
	File       int64
	Raw        int64
}

func (l SizeLimits) forCategory(c BodyCategory) int64 {
	switch c {
	case CategoryJSON:
		return l.JSON
	case CategoryURLEncoded:
		return l.URLEncoded
	case CategoryText:
		return l.Text
	case CategoryFile:
		return l.File
	default:
		return l.Raw
	}
}

// PathLimits overrides limits for request paths under Prefix.
// A zero field inherits the process-wide default for that category.
type PathLimits struct {
	Prefix string
	SizeLimits
}

// SizeLimitConfig is the immutable size-governance table, constructed once at
// process start. Overrides are consulted in declaration order; the first
// matching prefix wins.
type SizeLimitConfig struct {
	Defaults  SizeLimits
	Overrides []PathLimits
}

// ResolveLimit returns the effective byte limit for a path and body category.
func (c SizeLimitConfig) ResolveLimit(path string, cat BodyCategory) int64 {
	for _, o := range c.Overrides {
		if strings.HasPrefix(path, o.Prefix) {
			if limit := o.forCategory(cat); limit > 0 {
				return limit
			}
			break
		}
	}
	return c.Defaults.forCategory(cat)
}

var sizePattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*(b|kb|mb|gb)?\s*$`)

// ParseSize converts a human size string ("10kb", "1.5 MB", "5000000") into a
// byte count. Unparsable input resolves to DefaultSizeLimit rather than
// failing the request path.
func ParseSize(s string) int64 {
	m := sizePattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return DefaultSizeLimit
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return DefaultSizeLimit
	}
	switch m[2] {
	case "kb":
		n *= 1 << 10
	case "mb":
		n *= 1 << 20
	case "gb":
		n *= 1 << 30
	}
	return int64(n)
}

// FormatSize renders a byte count the way clients see it, e.g. "10.0KB" or
// "10.0MB". Values under a kilobyte render as plain bytes.
func FormatSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fGB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// ClassifyContentType buckets a Content-Type header into a body category.
func ClassifyContentType(ct string) BodyCategory {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "application/json" || strings.HasSuffix(ct, "+json"):
		return CategoryJSON
	case ct == "application/x-www-form-urlencoded":
		return CategoryURLEncoded
	case strings.HasPrefix(ct, "text/"):
		return CategoryText
	case strings.HasPrefix(ct, "multipart/"):
		return CategoryFile
	default:
		return CategoryRaw
	}
}

// sizeLimitBody is the wire shape of a 413 rejection. It predates the
// standard error envelope and is kept for compatibility: existing clients
// key on the "limit" field.
type sizeLimitBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Limit   string `json:"limit"`
}

func writeSizeLimitExceeded(w http.ResponseWriter, limit int64) {
	human := FormatSize(limit)
	api.WriteJSON(w, http.StatusRequestEntityTooLarge, sizeLimitBody{
		Error:   "Payload Too Large",
		Message: fmt.Sprintf("Request body exceeds the maximum allowed size of %s", human),
		Limit:   human,
	})
}

// SizeLimit returns the checked size governor: it rejects requests whose
// declared Content-Length exceeds the limit resolved for their path and body
// category, before any of the body is buffered. A missing or malformed
// Content-Length passes through; the streaming governor is the backstop for
// bodies that lie about their size.
func SizeLimit(cfg SizeLimitConfig, m *telemetry.APIMetrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			declared := r.ContentLength
			if declared < 0 {
				declared = 0
			}

			limit := cfg.ResolveLimit(r.URL.Path, ClassifyContentType(r.Header.Get("Content-Type")))
			if declared > limit {
				slog.Warn("request body over declared limit",
					"path", r.URL.Path,
					"declared_length", declared,
					"limit", FormatSize(limit),
					"remote_addr", clientIP(r),
					"request_id", api.RequestIDFromContext(r.Context()),
				)
				if m != nil {
					m.RecordSizeLimitRejection(r.Context(), "checked")
				}
				writeSizeLimitExceeded(w, limit)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
