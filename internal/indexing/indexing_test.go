package indexing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-search/internal/chunker"
	"ai-search/internal/crawler"
	"ai-search/internal/embedder"
	"ai-search/internal/extractor"
	"ai-search/internal/store"
)

// fakeCrawler lets tests script fetch/crawl outcomes without a browser.
type fakeCrawler struct {
	fetchResults map[string]crawler.CrawlResult
	siteResults  []crawler.CrawlResult
	siteErr      error
	lastOpts     crawler.SiteWalkOptions
}

func (f *fakeCrawler) FetchOne(ctx context.Context, target string) crawler.CrawlResult {
	if r, ok := f.fetchResults[target]; ok {
		return r
	}
	return crawler.CrawlResult{URL: target, Error: "not scripted"}
}

func (f *fakeCrawler) CrawlSite(ctx context.Context, seed string, opts crawler.SiteWalkOptions, onProgress crawler.ProgressFunc) ([]crawler.CrawlResult, error) {
	f.lastOpts = opts
	if f.siteErr != nil {
		return nil, f.siteErr
	}
	for i, r := range f.siteResults {
		if onProgress != nil {
			onProgress(i+1, opts.MaxPages, r)
		}
	}
	return f.siteResults, nil
}

// fakeStore is a minimal in-memory store.Store for orchestration tests.
type fakeStore struct {
	pages        map[string]*store.Page
	chunksByPage map[string][]store.NewChunk
	searchResult []store.SearchResult
	jobs         map[string]*store.CrawlJob
	loggedQuery  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pages:        make(map[string]*store.Page),
		chunksByPage: make(map[string][]store.NewChunk),
		jobs:         make(map[string]*store.CrawlJob),
	}
}

func (f *fakeStore) UpsertPage(ctx context.Context, page *store.Page) (*store.Page, error) {
	out := *page
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	out.CrawledAt = time.Now()
	out.UpdatedAt = out.CrawledAt
	f.pages[page.URL] = &out
	return &out, nil
}

func (f *fakeStore) GetPageByURL(ctx context.Context, url string) (*store.Page, error) {
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) UpsertPageChunks(ctx context.Context, pageID string, chunks []store.NewChunk) error {
	f.chunksByPage[pageID] = chunks
	return nil
}

func (f *fakeStore) Search(ctx context.Context, queryVec []float32, k int, filters store.SearchFilters) ([]store.SearchResult, error) {
	return f.searchResult, nil
}

func (f *fakeStore) FindSimilarToPage(ctx context.Context, pageID string, k int, excludeSameDomain bool) ([]store.SearchResult, error) {
	return f.searchResult, nil
}

func (f *fakeStore) CreateJob(ctx context.Context, job *store.CrawlJob) (*store.CrawlJob, error) {
	out := *job
	out.ID = uuid.New()
	out.Status = store.JobPending
	out.CreatedAt = time.Now()
	f.jobs[out.ID.String()] = &out
	return &out, nil
}

func (f *fakeStore) GetJob(ctx context.Context, id string) (*store.CrawlJob, error) {
	if j, ok := f.jobs[id]; ok {
		return j, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) StartJob(ctx context.Context, id string) error {
	f.jobs[id].Status = store.JobRunning
	return nil
}

func (f *fakeStore) UpdateJobProgress(ctx context.Context, id string, pagesCrawled, pagesIndexed int) error {
	f.jobs[id].PagesCrawled = pagesCrawled
	f.jobs[id].PagesIndexed = pagesIndexed
	return nil
}

func (f *fakeStore) CompleteJob(ctx context.Context, id string) error {
	f.jobs[id].Status = store.JobCompleted
	return nil
}

func (f *fakeStore) FailJob(ctx context.Context, id string, errMsg string) error {
	f.jobs[id].Status = store.JobFailed
	f.jobs[id].ErrorMessage = errMsg
	return nil
}

func (f *fakeStore) LogSearchQuery(ctx context.Context, ownerID, query string, numResults, resultsCount, latencyMs int) error {
	f.loggedQuery = query
	return nil
}

func (f *fakeStore) Close() {}

// fakeEmbedder returns deterministic fixed-length vectors.
type fakeEmbedder struct{ dim int }

func (f *fakeEmbedder) Embed(ctx context.Context, text string, role embedder.Role) ([]float32, error) {
	return make([]float32, f.dim), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, role embedder.Role) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dim }

type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(ctx context.Context, content string, maxWords int) (string, error) {
	return "summary", nil
}

func newTestService(fc *fakeCrawler, fs *fakeStore) *Service {
	return New(fc, extractor.New(), chunker.NewTextChunker(chunker.Config{}), &fakeEmbedder{dim: 4}, fs, fakeSummarizer{})
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc := newTestService(&fakeCrawler{}, newFakeStore())
	_, err := svc.Search(context.Background(), SearchRequest{Query: ""})
	require.Error(t, err)
}

func TestSearchLogsQueryAndReturnsResults(t *testing.T) {
	fs := newFakeStore()
	fs.searchResult = []store.SearchResult{{PageID: uuid.New(), URL: "https://a.test/", Score: 0.9}}
	svc := newTestService(&fakeCrawler{}, fs)

	resp, err := svc.Search(context.Background(), SearchRequest{Query: "fox", K: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalResults)
	assert.Equal(t, "fox", fs.loggedQuery)
}

func TestGetContentsCacheHitSkipsCrawl(t *testing.T) {
	fs := newFakeStore()
	fs.pages["https://a.test/"] = &store.Page{URL: "https://a.test/", Title: "Cached", Text: "cached text"}
	fc := &fakeCrawler{fetchResults: map[string]crawler.CrawlResult{}}
	svc := newTestService(fc, fs)

	resp, err := svc.GetContents(context.Background(), GetContentsRequest{URLs: []string{"https://a.test/"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "success", resp.Results[0].Status)
	assert.Equal(t, "cached text", resp.Results[0].Content)
}

func TestGetContentsCrawlsOnMiss(t *testing.T) {
	fs := newFakeStore()
	fc := &fakeCrawler{fetchResults: map[string]crawler.CrawlResult{
		"https://a.test/": {URL: "https://a.test/", HTTPStatus: 200, Doc: &extractor.Document{URL: "https://a.test/", Title: "Fresh", Text: "fresh text"}},
	}}
	svc := newTestService(fc, fs)

	resp, err := svc.GetContents(context.Background(), GetContentsRequest{URLs: []string{"https://a.test/"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "success", resp.Results[0].Status)
	assert.Equal(t, "fresh text", resp.Results[0].Content)
}

func TestGetContentsPerURLErrorDoesNotFailBatch(t *testing.T) {
	fs := newFakeStore()
	fc := &fakeCrawler{fetchResults: map[string]crawler.CrawlResult{
		"https://bad.test/": {URL: "https://bad.test/", Error: "timeout"},
	}}
	svc := newTestService(fc, fs)

	resp, err := svc.GetContents(context.Background(), GetContentsRequest{URLs: []string{"https://bad.test/"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "error", resp.Results[0].Status)
	assert.Equal(t, "timeout", resp.Results[0].Error)
}

func TestFindSimilarCrawlFailureReturnsEmptyWithError(t *testing.T) {
	fs := newFakeStore()
	fc := &fakeCrawler{fetchResults: map[string]crawler.CrawlResult{
		"https://a.test/": {URL: "https://a.test/", Error: "timeout"},
	}}
	svc := newTestService(fc, fs)

	resp, err := svc.FindSimilar(context.Background(), FindSimilarRequest{URL: "https://a.test/"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.NotEmpty(t, resp.Error)
}

func TestRunCrawlJobTransitionsToCompleted(t *testing.T) {
	fs := newFakeStore()
	job, err := fs.CreateJob(context.Background(), &store.CrawlJob{SeedURL: "https://a.test/", Domain: "a.test", MaxPages: 10})
	require.NoError(t, err)

	fc := &fakeCrawler{siteResults: []crawler.CrawlResult{
		{URL: "https://a.test/", Doc: &extractor.Document{URL: "https://a.test/", Title: "Alpha", Text: "some indexable text content here"}},
	}}
	svc := newTestService(fc, fs)

	svc.RunCrawlJob(context.Background(), job.ID.String())

	got, err := fs.GetJob(context.Background(), job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, store.JobCompleted, got.Status)
	assert.Equal(t, 1, got.PagesCrawled)
	assert.Equal(t, 1, got.PagesIndexed)
}

func TestRunCrawlJobPropagatesIncludeSubdomains(t *testing.T) {
	fs := newFakeStore()
	svc0 := newTestService(&fakeCrawler{}, fs)

	job, err := svc0.CreateCrawlJob(context.Background(), CrawlSiteRequest{
		SeedURL:           "https://a.test/",
		MaxPages:          10,
		IncludeSubdomains: true,
	})
	require.NoError(t, err)
	assert.True(t, job.IncludeSubdomains)

	fc := &fakeCrawler{siteResults: []crawler.CrawlResult{
		{URL: "https://a.test/", Doc: &extractor.Document{URL: "https://a.test/", Title: "Alpha", Text: "some indexable text content here"}},
	}}
	svc := newTestService(fc, fs)

	svc.RunCrawlJob(context.Background(), job.ID.String())

	assert.True(t, fc.lastOpts.IncludeSubdomains)
	assert.Equal(t, 10, fc.lastOpts.MaxPages)
}

func TestRunCrawlJobTransitionsToFailedOnWalkError(t *testing.T) {
	fs := newFakeStore()
	job, err := fs.CreateJob(context.Background(), &store.CrawlJob{SeedURL: "https://a.test/", Domain: "a.test", MaxPages: 10})
	require.NoError(t, err)

	fc := &fakeCrawler{siteErr: assert.AnError}
	svc := newTestService(fc, fs)

	svc.RunCrawlJob(context.Background(), job.ID.String())

	got, err := fs.GetJob(context.Background(), job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, store.JobFailed, got.Status)
	assert.NotEmpty(t, got.ErrorMessage)
}
