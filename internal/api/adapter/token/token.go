package token

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pathways/internal/domain"
)

const maxClockSkew = 30 * time.Second

// Service issues and verifies HS256 access tokens. It satisfies the
// api.TokenVerifier port.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// New creates a token service. clock is injectable for deterministic testing;
// pass time.Now in production.
func New(secret, issuer string, ttl time.Duration, clock func() time.Time) *Service {
	return &Service{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    clock,
	}
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue signs an access token for the principal.
func (s *Service) Issue(p domain.Principal) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  p.ID,
		"role": p.Role.String(),
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
		"iss":  s.issuer,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token and returns the principal it names.
// Errors from the jwt library are returned unwrapped so the error classifier
// can recognize expired and malformed tokens.
func (s *Service) Verify(_ context.Context, tokenStr string) (domain.Principal, error) {
	// SECURITY: only HS256 is accepted, preventing algorithm confusion attacks.
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithLeeway(maxClockSkew),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return domain.Principal{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, jwt.ErrTokenInvalidClaims
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return domain.Principal{}, jwt.ErrTokenInvalidClaims
	}
	role, _ := claims["role"].(string)

	return domain.Principal{ID: sub, Role: domain.ParseRole(role)}, nil
}
