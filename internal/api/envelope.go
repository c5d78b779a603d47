package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"pathways/internal/domain"
)

// Envelope is the success wrapper returned by every endpoint.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Meta    any  `json:"meta,omitempty"`
}

// ErrorEnvelope is the failure wrapper. Timestamp is computed at write time.
type ErrorEnvelope struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error"`
	Code      domain.Kind `json:"code"`
	Details   any         `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
	RequestID string      `json:"requestId,omitempty"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPagination computes the page window. A non-positive pageSize or a zero
// total yields totalPages 0 and hasNext false; the divide is guarded.
func NewPagination(total, page, pageSize int) Pagination {
	totalPages := 0
	if pageSize > 0 && total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// WriteJSON writes any payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// Success writes a success envelope. The data shape is not validated.
func Success(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data})
}

// SuccessMeta writes a success envelope with metadata attached.
func SuccessMeta(w http.ResponseWriter, status int, data, meta any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data, Meta: meta})
}

// Paginated writes a list response with pagination metadata.
func Paginated(w http.ResponseWriter, items any, total, page, pageSize int) {
	SuccessMeta(w, http.StatusOK, items, map[string]any{
		"pagination": NewPagination(total, page, pageSize),
	})
}

// Error writes the failure envelope for e, mirroring RetryAfter into the
// response header when present.
func Error(w http.ResponseWriter, r *http.Request, e *domain.APIError) {
	if e.RetryAfter != "" {
		w.Header().Set("Retry-After", e.RetryAfter)
	}
	WriteJSON(w, e.Status, ErrorEnvelope{
		Success:   false,
		Error:     e.Message,
		Code:      e.Kind,
		Details:   e.Details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: RequestIDFromContext(r.Context()),
	})
}
