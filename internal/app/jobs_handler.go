package app

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"pathways/internal/api"
	"pathways/internal/domain"
	"pathways/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type jobsHandler struct {
	store    store.JobStore
	validate *validator.Validate
}

type createJobRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=120"`
	Employer    string `json:"employer" validate:"required,max=120"`
	Location    string `json:"location" validate:"required,max=120"`
	Description string `json:"description" validate:"max=5000"`
}

func (h *jobsHandler) create(w http.ResponseWriter, r *http.Request) error {
	principal, _ := api.PrincipalFromContext(r.Context())
	if !principal.CanPost() {
		return domain.Forbidden("Only employer accounts can post jobs")
	}

	var req createJobRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.validate.Struct(req); err != nil {
		return err
	}

	// Unique violations from the store surface as CONFLICT via the classifier.
	job, err := h.store.Create(r.Context(), domain.Job{
		Title:       req.Title,
		Employer:    req.Employer,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	api.Success(w, http.StatusCreated, job)
	return nil
}

func (h *jobsHandler) get(w http.ResponseWriter, r *http.Request) error {
	job, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	api.Success(w, http.StatusOK, job)
	return nil
}

func (h *jobsHandler) list(w http.ResponseWriter, r *http.Request) error {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", defaultPageSize)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	jobs, total, err := h.store.List(r.Context(), page, pageSize)
	if err != nil {
		return err
	}

	api.Paginated(w, jobs, total, page, pageSize)
	return nil
}

func (h *jobsHandler) delete(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		// Deliberate local recovery: a missing row on delete gets a named
		// resource in the message.
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotFound("job")
		}
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
