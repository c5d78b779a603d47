package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pathways/internal/domain"
)

// InMemJobStore is a JobStore for tests and local development. It mimics the
// postgres error surface (duplicate postings raise a 23505 PgError, missing
// rows raise pgx.ErrNoRows) so the classifier behaves identically.
type InMemJobStore struct {
	mu   sync.Mutex
	jobs map[string]domain.Job
	now  func() time.Time
}

func NewInMemJobStore() *InMemJobStore {
	return &InMemJobStore{jobs: make(map[string]domain.Job), now: time.Now}
}

func duplicateJobError(title, employer string) error {
	return &pgconn.PgError{
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint \"jobs_title_employer_key\"",
		ConstraintName: "jobs_title_employer_key",
		Detail:         "Key (title, employer)=(" + title + ", " + employer + ") already exists.",
	}
}

func (s *InMemJobStore) Create(_ context.Context, job domain.Job) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.jobs {
		if existing.Title == job.Title && existing.Employer == job.Employer {
			return domain.Job{}, duplicateJobError(job.Title, job.Employer)
		}
	}

	job.ID = uuid.NewString()
	job.CreatedAt = s.now()
	s.jobs[job.ID] = job
	return job, nil
}

func (s *InMemJobStore) GetByID(_ context.Context, id string) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, pgx.ErrNoRows
	}
	return job, nil
}

func (s *InMemJobStore) List(_ context.Context, page, pageSize int) ([]domain.Job, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		all = append(all, job)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	start := (page - 1) * pageSize
	if start < 0 || start >= total {
		return []domain.Job{}, total, nil
	}
	end := min(start+pageSize, total)
	return all[start:end], total, nil
}

func (s *InMemJobStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.jobs, id)
	return nil
}

// InMemUserStore holds seeded accounts for tests and local development.
type InMemUserStore struct {
	mu    sync.Mutex
	users map[string]inMemUser
}

type inMemUser struct {
	password  string
	principal domain.Principal
}

func NewInMemUserStore() *InMemUserStore {
	return &InMemUserStore{users: make(map[string]inMemUser)}
}

// Seed registers an account. Intended for wiring demo/test fixtures.
func (s *InMemUserStore) Seed(email, password string, p domain.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = inMemUser{password: password, principal: p}
}

func (s *InMemUserStore) Authenticate(_ context.Context, email, password string) (domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok || u.password != password {
		return domain.Principal{}, ErrInvalidCredentials
	}
	return u.principal, nil
}
