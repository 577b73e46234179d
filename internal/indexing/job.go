package indexing

import (
	"context"
	"fmt"

	"ai-search/internal/crawler"
	"ai-search/internal/store"
)

// CrawlSiteRequest is the crawl_site_job operation's input.
type CrawlSiteRequest struct {
	SeedURL           string
	MaxPages          int
	IncludeSubdomains bool
	OwnerID           string
}

// CreateCrawlJob persists a pending CrawlJob row. The caller (HTTP layer)
// is responsible for handing the returned job's ID to a worker pool.
func (s *Service) CreateCrawlJob(ctx context.Context, req CrawlSiteRequest) (*store.CrawlJob, error) {
	if req.SeedURL == "" {
		return nil, fmt.Errorf("indexing: create crawl job: %w: empty seed url", ErrPrecondition)
	}
	if req.MaxPages <= 0 || req.MaxPages > 1000 {
		req.MaxPages = 100
	}

	job := &store.CrawlJob{
		OwnerID:           req.OwnerID,
		SeedURL:           req.SeedURL,
		Domain:            domainOf(req.SeedURL),
		MaxPages:          req.MaxPages,
		IncludeSubdomains: req.IncludeSubdomains,
	}
	return s.store.CreateJob(ctx, job)
}

// GetCrawlJob fetches a job's current status row.
func (s *Service) GetCrawlJob(ctx context.Context, jobID string) (*store.CrawlJob, error) {
	return s.store.GetJob(ctx, jobID)
}

// RunCrawlJob drives crawler.CrawlSite for the job named by jobID, saving
// and indexing each successfully fetched page, and advancing the job's
// status along pending -> running -> (completed|failed). It implements
// jobs.Runner and is meant to run on a background worker, never on the
// request path.
func (s *Service) RunCrawlJob(ctx context.Context, jobID string) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		s.logger.WithError(err).WithField("job_id", jobID).Error("crawl job: load failed")
		return
	}

	if err := s.store.StartJob(ctx, jobID); err != nil {
		s.logger.WithError(err).WithField("job_id", jobID).Error("crawl job: start failed")
		return
	}

	pagesIndexed := 0
	opts := crawler.SiteWalkOptions{MaxPages: job.MaxPages, IncludeSubdomains: job.IncludeSubdomains}

	onProgress := func(completed, total int, last crawler.CrawlResult) {
		if last.Doc != nil {
			page, err := s.store.UpsertPage(ctx, docToPage(last.URL, last.Doc))
			if err != nil {
				s.logger.WithError(err).WithField("url", last.URL).Warn("crawl job: save page failed")
			} else if err := s.indexPage(ctx, page); err != nil {
				s.logger.WithError(err).WithField("url", last.URL).Warn("crawl job: index page failed")
			} else {
				pagesIndexed++
			}
		}
		if err := s.store.UpdateJobProgress(ctx, jobID, completed, pagesIndexed); err != nil {
			s.logger.WithError(err).WithField("job_id", jobID).Warn("crawl job: progress update failed")
		}
	}

	_, err = s.crawler.CrawlSite(ctx, job.SeedURL, opts, onProgress)
	if err != nil {
		if failErr := s.store.FailJob(ctx, jobID, err.Error()); failErr != nil {
			s.logger.WithError(failErr).WithField("job_id", jobID).Error("crawl job: fail transition failed")
		}
		return
	}

	if err := s.store.CompleteJob(ctx, jobID); err != nil {
		s.logger.WithError(err).WithField("job_id", jobID).Error("crawl job: complete transition failed")
	}
}
