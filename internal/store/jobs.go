package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

func (s *pgStore) CreateJob(ctx context.Context, job *CrawlJob) (*CrawlJob, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO crawl_jobs (owner_id, seed_url, domain, max_pages, include_subdomains, status)
		VALUES ($1,$2,$3,$4,$5,'pending')
		RETURNING id, created_at
	`, job.OwnerID, job.SeedURL, job.Domain, job.MaxPages, job.IncludeSubdomains)

	out := *job
	out.Status = JobPending
	if err := row.Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("store: create job: %w", err)
	}
	return &out, nil
}

func (s *pgStore) GetJob(ctx context.Context, id string) (*CrawlJob, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, seed_url, domain, max_pages, include_subdomains, status, pages_crawled, pages_indexed,
			created_at, started_at, completed_at, error_message
		FROM crawl_jobs WHERE id = $1
	`, id)

	var j CrawlJob
	var ownerID, errMsg *string
	err := row.Scan(&j.ID, &ownerID, &j.SeedURL, &j.Domain, &j.MaxPages, &j.IncludeSubdomains, &j.Status,
		&j.PagesCrawled, &j.PagesIndexed, &j.CreatedAt, &j.StartedAt, &j.CompletedAt, &errMsg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get job: %w", err)
	}
	if ownerID != nil {
		j.OwnerID = *ownerID
	}
	if errMsg != nil {
		j.ErrorMessage = *errMsg
	}
	return &j, nil
}

// StartJob transitions pending -> running, recording started_at.
func (s *pgStore) StartJob(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE crawl_jobs SET status = 'running', started_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return fmt.Errorf("store: start job: %w", err)
	}
	return nil
}

// UpdateJobProgress is a row-level write, not shared memory, so concurrent
// job workers never race on a job's counters in process state.
func (s *pgStore) UpdateJobProgress(ctx context.Context, id string, pagesCrawled, pagesIndexed int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE crawl_jobs SET pages_crawled = $2, pages_indexed = $3
		WHERE id = $1
	`, id, pagesCrawled, pagesIndexed)
	if err != nil {
		return fmt.Errorf("store: update job progress: %w", err)
	}
	return nil
}

func (s *pgStore) CompleteJob(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE crawl_jobs SET status = 'completed', completed_at = now()
		WHERE id = $1 AND status = 'running'
	`, id)
	if err != nil {
		return fmt.Errorf("store: complete job: %w", err)
	}
	return nil
}

func (s *pgStore) FailJob(ctx context.Context, id string, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE crawl_jobs SET status = 'failed', completed_at = now(), error_message = $2
		WHERE id = $1 AND status IN ('pending', 'running')
	`, id, errMsg)
	if err != nil {
		return fmt.Errorf("store: fail job: %w", err)
	}
	return nil
}

// LogSearchQuery is best-effort telemetry: callers should log but not fail
// the search response if this errors.
func (s *pgStore) LogSearchQuery(ctx context.Context, ownerID, query string, numResults, resultsCount, latencyMs int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO search_queries (owner_id, query, num_results, results_count, latency_ms)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5)
	`, ownerID, query, numResults, resultsCount, latencyMs)
	if err != nil {
		return fmt.Errorf("store: log search query: %w", err)
	}
	return nil
}
