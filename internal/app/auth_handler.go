package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"pathways/internal/api"
	"pathways/internal/api/adapter/token"
	"pathways/internal/api/middleware"
	"pathways/internal/domain"
	"pathways/internal/store"
)

type authHandler struct {
	users    store.UserStore
	tokens   *token.Service
	validate *validator.Validate
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.validate.Struct(req); err != nil {
		return err
	}

	principal, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			return domain.Unauthorized("Invalid email or password")
		}
		return err
	}

	return h.issue(w, principal)
}

// refresh re-issues a token from a still-valid bearer token.
func (h *authHandler) refresh(w http.ResponseWriter, r *http.Request) error {
	header := r.Header.Get("Authorization")
	scheme, tokenStr, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || tokenStr == "" {
		return domain.Unauthorized("Missing or malformed authorization header")
	}

	principal, err := h.tokens.Verify(r.Context(), tokenStr)
	if err != nil {
		return err
	}

	return h.issue(w, principal)
}

func (h *authHandler) issue(w http.ResponseWriter, principal domain.Principal) error {
	signed, err := h.tokens.Issue(principal)
	if err != nil {
		return err
	}
	api.Success(w, http.StatusOK, domain.TokenPair{
		AccessToken: signed,
		ExpiresIn:   int(h.tokens.TTL().Seconds()),
		TokenType:   "Bearer",
	})
	return nil
}

// decodeJSON parses a JSON body. A tripped streaming governor propagates
// unchanged so the error middleware can issue its 413; everything else is a
// plain bad request.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var sle *middleware.StreamLimitError
		if errors.As(err, &sle) {
			return err
		}
		return domain.BadRequest("Invalid JSON body")
	}
	return nil
}
