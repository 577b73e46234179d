// Package store persists pages, chunks, and crawl jobs in Postgres with the
// pgvector extension, and runs cosine-similarity search over chunk
// embeddings.
package store

import (
	"time"

	"github.com/google/uuid"
)

// Page is a crawled, extracted web page.
type Page struct {
	ID          uuid.UUID
	URL         string
	Domain      string
	Title       string
	Description string
	Text        string
	Markdown    string
	Author      string
	PublishedAt *time.Time
	Language    string
	ContentHash string
	HTTPStatus  int
	CrawledAt   time.Time
	UpdatedAt   time.Time
}

// Chunk is a page's text slice with its embedding.
type Chunk struct {
	ID         uuid.UUID
	PageID     uuid.UUID
	ChunkIndex int
	Text       string
	StartChar  int
	EndChar    int
	Embedding  []float32
	CreatedAt  time.Time
}

// NewChunk is the input shape for UpsertPageChunks — embedding is required,
// IDs and timestamps are assigned by the store.
type NewChunk struct {
	Text      string
	StartChar int
	EndChar   int
	Embedding []float32
}

// JobStatus is a CrawlJob's lifecycle state.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// CrawlJob tracks a crawl_site_job's progress.
type CrawlJob struct {
	ID                uuid.UUID
	OwnerID           string
	SeedURL           string
	Domain            string
	MaxPages          int
	IncludeSubdomains bool
	Status            JobStatus
	PagesCrawled      int
	PagesIndexed      int
	CreatedAt         time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	ErrorMessage      string
}

// SearchFilters replaces a duck-typed filter object with a single explicit
// value type. All fields are optional; absence means no restriction.
type SearchFilters struct {
	Domains        []string
	ExcludeDomains []string
	StartDate      *time.Time
	EndDate        *time.Time
	Language       string
}

// SearchResult is a scored chunk joined with its page.
type SearchResult struct {
	ChunkID     uuid.UUID
	PageID      uuid.UUID
	URL         string
	Title       string
	Domain      string
	Author      string
	PublishedAt *time.Time
	PageText    string
	ChunkText   string
	Score       float64
}
