package testutil

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"pathways/internal/api"
	"pathways/internal/api/adapter/token"
	"pathways/internal/domain"
	"pathways/internal/store"
)

// TestSecret signs tokens in tests. Long enough for HS256, obviously not
// for anything else.
const TestSecret = "testing-secret-0123456789abcdef"

// NewTokenService builds a token service with test defaults and a real clock.
func NewTokenService() *token.Service {
	return token.New(TestSecret, "pathways-test", 15*time.Minute, time.Now)
}

// NewExpiredTokenService builds a token service whose clock sits far enough in
// the past that anything it issues is already expired.
func NewExpiredTokenService() *token.Service {
	past := time.Now().Add(-2 * time.Hour)
	return token.New(TestSecret, "pathways-test", 15*time.Minute, func() time.Time { return past })
}

// IssueToken signs a token for the given principal, failing the test on error.
func IssueToken(t *testing.T, svc *token.Service, p domain.Principal) string {
	t.Helper()
	signed, err := svc.Issue(p)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

// SeededUserStore returns an in-memory user store with one employer and one
// member account, both using the password "changeme-now".
func SeededUserStore() *store.InMemUserStore {
	users := store.NewInMemUserStore()
	users.Seed("employer@example.org", "changeme-now", domain.Principal{
		ID:   "user-employer",
		Role: domain.RoleEmployer,
	})
	users.Seed("member@example.org", "changeme-now", domain.Principal{
		ID:   "user-member",
		Role: domain.RoleMember,
	})
	return users
}

// DecodeEnvelope decodes a success envelope from r, failing the test on error.
func DecodeEnvelope(t *testing.T, r io.Reader) api.Envelope {
	t.Helper()
	var env api.Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		t.Fatalf("decoding response envelope: %v", err)
	}
	return env
}

// DecodeErrorEnvelope decodes an error envelope from r, failing the test on error.
func DecodeErrorEnvelope(t *testing.T, r io.Reader) api.ErrorEnvelope {
	t.Helper()
	var env api.ErrorEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	return env
}
