// Package store provides persistence for platform resources. Implementations
// surface driver-level errors (unique violations, missing rows) unchanged so
// the API error classifier can translate them uniformly.
package store

import (
	"context"
	"errors"

	"pathways/internal/domain"
)

// ErrInvalidCredentials is returned by Authenticate on a bad email/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// JobStore persists job-board postings.
type JobStore interface {
	Create(ctx context.Context, job domain.Job) (domain.Job, error)
	GetByID(ctx context.Context, id string) (domain.Job, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Job, int, error)
	Delete(ctx context.Context, id string) error
}

// UserStore authenticates platform accounts.
type UserStore interface {
	Authenticate(ctx context.Context, email, password string) (domain.Principal, error)
}
