// Package app wires the platform's HTTP endpoints to their stores and
// services. Handlers return errors; the terminal error middleware owns every
// error response body.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"pathways/internal/api"
	"pathways/internal/api/adapter/token"
	"pathways/internal/api/middleware"
	"pathways/internal/platform/telemetry"
	"pathways/internal/store"
)

// Deps carries the collaborators the router needs. Logger and Metrics may be
// nil in tests.
type Deps struct {
	Jobs    store.JobStore
	Users   store.UserStore
	Tokens  *token.Service
	Env     string
	Logger  *slog.Logger
	Metrics *telemetry.APIMetrics
}

// NewRouter builds the API route tree. Authentication applies per route
// group; the boundary middleware chain (request id, size governors, rate
// limiting) wraps the returned handler at the server root.
func NewRouter(d Deps) http.Handler {
	eh := middleware.NewErrorHandler(d.Env, d.Logger, d.Metrics)
	v := validator.New(validator.WithRequiredStructEnabled())

	auth := &authHandler{users: d.Users, tokens: d.Tokens, validate: v}
	jobs := &jobsHandler{store: d.Jobs, validate: v}
	files := &filesHandler{}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/auth/login", eh.Wrap(auth.login))
		r.Method(http.MethodPost, "/auth/refresh", eh.Wrap(auth.refresh))
		r.Method(http.MethodGet, "/jobs", eh.Wrap(jobs.list))
		r.Method(http.MethodGet, "/jobs/{id}", eh.Wrap(jobs.get))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.Tokens, d.Metrics))
			r.Method(http.MethodPost, "/jobs", eh.Wrap(jobs.create))
			r.Method(http.MethodDelete, "/jobs/{id}", eh.Wrap(jobs.delete))
			r.Method(http.MethodPost, "/files/upload", eh.Wrap(files.upload))
		})
	})

	return r
}
