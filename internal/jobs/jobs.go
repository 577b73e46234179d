// Package jobs runs CrawlJob execution off the HTTP request path: a pool of
// workers consumes job IDs from a queue and drives the crawl-then-index
// pipeline, reporting progress via row-level store writes.
package jobs

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Runner executes one CrawlJob end to end (crawl, save, index per page,
// transition job status). It is implemented by indexing.Service.
type Runner interface {
	RunCrawlJob(ctx context.Context, jobID string)
}

// Pool is a fixed-size worker pool draining a buffered job-id queue. It is a
// durable-queue stand-in (see DESIGN.md): queued-but-unstarted jobs are lost
// on process restart, though row state in Postgres still reflects the last
// known status.
type Pool struct {
	runner Runner
	queue  chan string
	logger *logrus.Logger
	wg     sync.WaitGroup
}

// NewPool starts workers workers pulling from a queue of the given capacity.
func NewPool(ctx context.Context, runner Runner, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	p := &Pool{
		runner: runner,
		queue:  make(chan string, queueSize),
		logger: logrus.New(),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}

	return p
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case jobID, ok := <-p.queue:
			if !ok {
				return
			}
			p.runner.RunCrawlJob(ctx, jobID)
		}
	}
}

// Enqueue submits a job id for background execution. It returns false if the
// queue is full — the caller (HTTP layer) should surface that as retryable.
func (p *Pool) Enqueue(jobID string) bool {
	select {
	case p.queue <- jobID:
		return true
	default:
		p.logger.WithField("job_id", jobID).Warn("job queue full, dropping enqueue")
		return false
	}
}

// Close stops accepting new jobs and waits for in-flight workers to drain.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}
