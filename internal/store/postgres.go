package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pathways/internal/domain"
)

// NewPool opens a pgx connection pool and verifies connectivity.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// PostgresJobStore is the pgx-backed JobStore. Driver errors are wrapped, not
// translated: a unique violation or pgx.ErrNoRows propagates to the caller.
type PostgresJobStore struct {
	pool *pgxpool.Pool
}

func NewPostgresJobStore(pool *pgxpool.Pool) *PostgresJobStore {
	return &PostgresJobStore{pool: pool}
}

func (s *PostgresJobStore) Create(ctx context.Context, job domain.Job) (domain.Job, error) {
	job.ID = uuid.NewString()
	row := s.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, title, employer, location, description)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		job.ID, job.Title, job.Employer, job.Location, job.Description,
	)
	if err := row.Scan(&job.CreatedAt); err != nil {
		return domain.Job{}, fmt.Errorf("inserting job: %w", err)
	}
	return job, nil
}

func (s *PostgresJobStore) GetByID(ctx context.Context, id string) (domain.Job, error) {
	var job domain.Job
	row := s.pool.QueryRow(ctx,
		`SELECT id, title, employer, location, description, created_at
		 FROM jobs WHERE id = $1`, id,
	)
	err := row.Scan(&job.ID, &job.Title, &job.Employer, &job.Location, &job.Description, &job.CreatedAt)
	if err != nil {
		return domain.Job{}, fmt.Errorf("fetching job %s: %w", id, err)
	}
	return job, nil
}

func (s *PostgresJobStore) List(ctx context.Context, page, pageSize int) ([]domain.Job, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM jobs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting jobs: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, employer, location, description, created_at
		 FROM jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		pageSize, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]domain.Job, 0, pageSize)
	for rows.Next() {
		var job domain.Job
		if err := rows.Scan(&job.ID, &job.Title, &job.Employer, &job.Location, &job.Description, &job.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, total, nil
}

func (s *PostgresJobStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting job %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting job %s: %w", id, pgx.ErrNoRows)
	}
	return nil
}
