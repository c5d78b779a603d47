package domain_test

import (
	"net/http"
	"testing"

	"pathways/internal/domain"
)

func TestKindStatusMapping(t *testing.T) {
	tests := []struct {
		kind   domain.Kind
		status int
	}{
		{domain.KindBadRequest, http.StatusBadRequest},
		{domain.KindUnauthorized, http.StatusUnauthorized},
		{domain.KindForbidden, http.StatusForbidden},
		{domain.KindNotFound, http.StatusNotFound},
		{domain.KindConflict, http.StatusConflict},
		{domain.KindValidation, http.StatusUnprocessableEntity},
		{domain.KindRateLimited, http.StatusTooManyRequests},
		{domain.KindPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{domain.KindInternal, http.StatusInternalServerError},
		{domain.KindServiceUnavail, http.StatusServiceUnavailable},
		{domain.KindDatabase, http.StatusInternalServerError},
		{domain.KindExternalService, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Status(); got != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, got)
			}
			if e := domain.NewError(tt.kind, "", nil); e.Status != tt.status {
				t.Errorf("constructor: expected status %d, got %d", tt.status, e.Status)
			}
		})
	}
}

func TestUnknownKindFallsBackTo500(t *testing.T) {
	if got := domain.Kind("NO_SUCH_KIND").Status(); got != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", got)
	}
}

func TestConstructorDefaults(t *testing.T) {
	e := domain.NotFound("job")
	if e.Message != "job not found" {
		t.Errorf("unexpected message: %q", e.Message)
	}
	if e.Kind != domain.KindNotFound {
		t.Errorf("unexpected kind: %q", e.Kind)
	}
	if !e.Operational {
		t.Error("4xx errors should be operational")
	}

	if msg := domain.NotFound("").Message; msg != "Resource not found" {
		t.Errorf("unexpected fallback message: %q", msg)
	}
	if msg := domain.Unauthorized("").Message; msg != "Authentication required" {
		t.Errorf("unexpected fallback message: %q", msg)
	}
}

func TestRateLimitedCarriesRetryAfter(t *testing.T) {
	e := domain.RateLimited(17)
	if e.RetryAfter != "17" {
		t.Errorf("expected retry-after '17', got %q", e.RetryAfter)
	}
	if e.Status != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", e.Status)
	}
}

func TestInternalIsNotOperational(t *testing.T) {
	if domain.Internal("boom").Operational {
		t.Error("internal errors should not be operational")
	}
	if domain.Database("down").Operational {
		t.Error("database errors should not be operational")
	}
}

func TestValidationDetails(t *testing.T) {
	details := map[string]string{"email": "must be a valid email"}
	e := domain.Validation(details)
	if e.Kind != domain.KindValidation {
		t.Errorf("unexpected kind: %q", e.Kind)
	}
	got, ok := e.Details.(map[string]string)
	if !ok || got["email"] != "must be a valid email" {
		t.Errorf("details not carried verbatim: %#v", e.Details)
	}
}

func TestRole(t *testing.T) {
	tests := []struct {
		role domain.Role
		name string
	}{
		{domain.RoleMember, "member"},
		{domain.RoleMentor, "mentor"},
		{domain.RoleEmployer, "employer"},
		{domain.RoleAdmin, "admin"},
		{domain.RoleUnknown, "unknown"},
	}
	for _, tt := range tests {
		if tt.role.String() != tt.name {
			t.Errorf("expected %q, got %q", tt.name, tt.role.String())
		}
		if domain.ParseRole(tt.name) != tt.role && tt.role != domain.RoleUnknown {
			t.Errorf("ParseRole(%q) mismatch", tt.name)
		}
	}
	if domain.ParseRole("superuser") != domain.RoleUnknown {
		t.Error("unrecognized role should parse as unknown")
	}
}

func TestCanPost(t *testing.T) {
	if !(domain.Principal{ID: "e-1", Role: domain.RoleEmployer}).CanPost() {
		t.Error("employer should be able to post")
	}
	if (domain.Principal{ID: "m-1", Role: domain.RoleMember}).CanPost() {
		t.Error("member should not be able to post")
	}
}
