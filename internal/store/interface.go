package store

import "context"

// Store is the persistence contract the Indexing Service depends on.
type Store interface {
	UpsertPage(ctx context.Context, page *Page) (*Page, error)
	GetPageByURL(ctx context.Context, url string) (*Page, error)

	// UpsertPageChunks atomically replaces all chunks for pageID with
	// chunks, assigning chunk_index sequentially from 0.
	UpsertPageChunks(ctx context.Context, pageID string, chunks []NewChunk) error

	Search(ctx context.Context, queryVec []float32, k int, filters SearchFilters) ([]SearchResult, error)
	FindSimilarToPage(ctx context.Context, pageID string, k int, excludeSameDomain bool) ([]SearchResult, error)

	CreateJob(ctx context.Context, job *CrawlJob) (*CrawlJob, error)
	GetJob(ctx context.Context, id string) (*CrawlJob, error)
	StartJob(ctx context.Context, id string) error
	UpdateJobProgress(ctx context.Context, id string, pagesCrawled, pagesIndexed int) error
	CompleteJob(ctx context.Context, id string) error
	FailJob(ctx context.Context, id string, errMsg string) error

	LogSearchQuery(ctx context.Context, ownerID, query string, numResults, resultsCount, latencyMs int) error

	Close()
}
