package app

import (
	"io"
	"net/http"

	"pathways/internal/api"
)

type filesHandler struct{}

// upload drains the request body, relying entirely on the size governors for
// protection. Storage is handled elsewhere; this endpoint acknowledges the
// received byte count.
func (h *filesHandler) upload(w http.ResponseWriter, r *http.Request) error {
	n, err := io.Copy(io.Discard, r.Body)
	if err != nil {
		return err
	}
	api.Success(w, http.StatusCreated, map[string]int64{"received_bytes": n})
	return nil
}
