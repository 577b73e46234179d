// Package indexing orchestrates the extractor, crawler, chunker, embedder,
// vector store, and summarizer into the four operations callers actually
// invoke: search, get_contents, find_similar, and crawl_site jobs. It is the
// only package that touches all of the others.
package indexing

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ai-search/internal/chunker"
	"ai-search/internal/crawler"
	"ai-search/internal/embedder"
	"ai-search/internal/extractor"
	"ai-search/internal/store"
	"ai-search/internal/summarizer"
)

const maxSummaryContentChars = 5000

// highlightWindow bounds highlight snippet length before truncation.
const highlightWindow = 160

// Crawler is the narrow slice of *crawler.Crawler the Service depends on,
// named here so tests can substitute a fake without a real browser.
type Crawler interface {
	FetchOne(ctx context.Context, target string) crawler.CrawlResult
	CrawlSite(ctx context.Context, seed string, opts crawler.SiteWalkOptions, onProgress crawler.ProgressFunc) ([]crawler.CrawlResult, error)
}

// Service ties the pipeline together. Construct once per process; Close its
// dependencies on shutdown.
type Service struct {
	crawler    Crawler
	extractor  *extractor.Extractor
	chunker    chunker.Chunker
	embedder   embedder.Embedder
	store      store.Store
	summarizer summarizer.Summarizer
	logger     *logrus.Logger
}

// New builds a Service from its already-constructed dependencies.
func New(c Crawler, ex *extractor.Extractor, ch chunker.Chunker, em embedder.Embedder, st store.Store, sm summarizer.Summarizer) *Service {
	return &Service{
		crawler:    c,
		extractor:  ex,
		chunker:    ch,
		embedder:   em,
		store:      st,
		summarizer: sm,
		logger:     logrus.New(),
	}
}

// SearchRequest is the search operation's input.
type SearchRequest struct {
	Query              string
	K                   int
	IncludeText        bool
	IncludeHighlights  bool
	Filters            store.SearchFilters
	OwnerID            string
}

// SearchResponse is the search operation's output.
type SearchResponse struct {
	Query        string
	Results      []store.SearchResult
	Highlights   map[string][]string // keyed by chunk id
	TotalResults int
	TookMS       int64
}

// Search embeds the query, runs vector search, and optionally attaches
// highlights. Query-log writes are best-effort and never affect the response.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()
	if req.Query == "" {
		return nil, fmt.Errorf("indexing: search: %w: empty query", ErrPrecondition)
	}
	if req.K <= 0 {
		req.K = 10
	}

	vec, err := s.embedder.Embed(ctx, req.Query, embedder.RoleQuery)
	if err != nil {
		return nil, fmt.Errorf("indexing: search: embed query: %w", err)
	}

	results, err := s.store.Search(ctx, vec, req.K, req.Filters)
	if err != nil {
		return nil, fmt.Errorf("indexing: search: %w", err)
	}

	resp := &SearchResponse{
		Query:        req.Query,
		Results:      results,
		TotalResults: len(results),
		TookMS:       time.Since(start).Milliseconds(),
	}

	if req.IncludeHighlights {
		resp.Highlights = make(map[string][]string, len(results))
		for _, r := range results {
			resp.Highlights[r.ChunkID.String()] = extractor.Highlights(r.PageText, req.Query, 3, highlightWindow)
		}
	}
	if !req.IncludeText {
		for i := range resp.Results {
			resp.Results[i].PageText = ""
		}
	}

	if err := s.store.LogSearchQuery(ctx, req.OwnerID, req.Query, req.K, len(results), int(resp.TookMS)); err != nil {
		s.logger.WithError(err).Warn("search query log failed")
	}

	return resp, nil
}

// ContentResult is one URL's outcome in a get_contents batch. Exactly one of
// Error or the content fields is meaningful, selected by Status.
type ContentResult struct {
	URL         string
	Title       string
	Content     string
	Markdown    string
	Summary     string
	Author      string
	PublishedAt *time.Time
	Status      string // "success" or "error"
	Error       string
}

// GetContentsRequest is the get_contents operation's input.
type GetContentsRequest struct {
	URLs           []string
	IncludeMarkdown bool
	IncludeSummary bool
	SummaryWords   int
}

// GetContentsResponse is the get_contents operation's output.
type GetContentsResponse struct {
	Results []ContentResult
	TookMS  int64
}

// GetContents resolves each URL against the store first; on a miss it
// crawls, extracts, and saves the page (without indexing it). Per-URL
// failures never fail the whole batch.
func (s *Service) GetContents(ctx context.Context, req GetContentsRequest) (*GetContentsResponse, error) {
	start := time.Now()
	resp := &GetContentsResponse{Results: make([]ContentResult, 0, len(req.URLs))}

	for _, u := range req.URLs {
		resp.Results = append(resp.Results, s.getOneContent(ctx, u, req))
	}

	resp.TookMS = time.Since(start).Milliseconds()
	return resp, nil
}

func (s *Service) getOneContent(ctx context.Context, u string, req GetContentsRequest) ContentResult {
	if page, err := s.store.GetPageByURL(ctx, u); err == nil {
		return s.contentFromPage(ctx, page, req)
	} else if err != store.ErrNotFound {
		return ContentResult{URL: u, Status: "error", Error: err.Error()}
	}

	result := s.crawler.FetchOne(ctx, u)
	if result.Error != "" {
		return ContentResult{URL: u, Status: "error", Error: result.Error}
	}
	if result.Doc == nil {
		return ContentResult{URL: u, Status: "error", Error: "no document extracted"}
	}

	page := docToPage(u, result.Doc)
	saved, err := s.store.UpsertPage(ctx, page)
	if err != nil {
		return ContentResult{URL: u, Status: "error", Error: err.Error()}
	}

	return s.contentFromPage(ctx, saved, req)
}

func (s *Service) contentFromPage(ctx context.Context, page *store.Page, req GetContentsRequest) ContentResult {
	cr := ContentResult{
		URL:         page.URL,
		Title:       page.Title,
		Content:     page.Text,
		Author:      page.Author,
		PublishedAt: page.PublishedAt,
		Status:      "success",
	}
	if req.IncludeMarkdown {
		cr.Markdown = page.Markdown
	}
	if req.IncludeSummary && page.Text != "" {
		content := page.Text
		if len(content) > maxSummaryContentChars {
			content = content[:maxSummaryContentChars]
		}
		words := req.SummaryWords
		if words <= 0 {
			words = 100
		}
		summary, err := s.summarizer.Summarize(ctx, content, words)
		if err != nil {
			s.logger.WithError(err).Warn("summary generation failed")
		} else {
			cr.Summary = summary
		}
	}
	return cr
}

// FindSimilarRequest is the find_similar operation's input.
type FindSimilarRequest struct {
	URL               string
	K                 int
	IncludeText       bool
	ExcludeSourceDomain bool
}

// FindSimilarResponse is the find_similar operation's output.
type FindSimilarResponse struct {
	SourceURL string
	Results   []store.SearchResult
	TookMS    int64
	Error     string
}

// FindSimilar resolves the source URL, crawling-saving-and-indexing it on a
// miss so its embeddings exist, then delegates to the store's
// find-similar-to-page query. A failed initial crawl yields an empty result
// carrying the crawl error rather than a partial index.
func (s *Service) FindSimilar(ctx context.Context, req FindSimilarRequest) (*FindSimilarResponse, error) {
	start := time.Now()
	if req.K <= 0 {
		req.K = 10
	}

	page, err := s.store.GetPageByURL(ctx, req.URL)
	if err == store.ErrNotFound {
		page, err = s.crawlSaveAndIndex(ctx, req.URL)
		if err != nil {
			return &FindSimilarResponse{
				SourceURL: req.URL,
				Error:     err.Error(),
				TookMS:    time.Since(start).Milliseconds(),
			}, nil
		}
	} else if err != nil {
		return nil, fmt.Errorf("indexing: find similar: %w", err)
	}

	results, err := s.store.FindSimilarToPage(ctx, page.ID.String(), req.K, req.ExcludeSourceDomain)
	if err != nil {
		return nil, fmt.Errorf("indexing: find similar: %w", err)
	}
	if !req.IncludeText {
		for i := range results {
			results[i].PageText = ""
		}
	}

	return &FindSimilarResponse{
		SourceURL: req.URL,
		Results:   results,
		TookMS:    time.Since(start).Milliseconds(),
	}, nil
}

// crawlSaveAndIndex fetches url fresh, saves it, and indexes it (chunk +
// embed + upsert) so it has embeddings to serve as a find_similar source.
func (s *Service) crawlSaveAndIndex(ctx context.Context, url string) (*store.Page, error) {
	result := s.crawler.FetchOne(ctx, url)
	if result.Error != "" {
		return nil, fmt.Errorf("crawl failed: %s", result.Error)
	}
	if result.Doc == nil {
		return nil, fmt.Errorf("no document extracted")
	}

	page, err := s.store.UpsertPage(ctx, docToPage(url, result.Doc))
	if err != nil {
		return nil, fmt.Errorf("save page: %w", err)
	}

	if err := s.indexPage(ctx, page); err != nil {
		return nil, fmt.Errorf("index page: %w", err)
	}
	return page, nil
}

// indexPage chunks and embeds a page's text and atomically replaces its
// chunk set. A page with empty text is left unindexed (ExtractEmpty).
func (s *Service) indexPage(ctx context.Context, page *store.Page) error {
	if page.Text == "" {
		return nil
	}

	chunks := s.chunker.Chunk(page.Text)
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vecs, err := s.embedder.EmbedBatch(ctx, texts, embedder.RoleDocument)
	if err != nil {
		return fmt.Errorf("indexing: embed chunks: %w: %v", ErrEmbedFailure, err)
	}

	newChunks := make([]store.NewChunk, len(chunks))
	for i, c := range chunks {
		newChunks[i] = store.NewChunk{
			Text:      c.Text,
			StartChar: c.StartPos,
			EndChar:   c.EndPos,
			Embedding: vecs[i],
		}
	}

	if err := s.store.UpsertPageChunks(ctx, page.ID.String(), newChunks); err != nil {
		return fmt.Errorf("indexing: save chunks: %w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func docToPage(url string, doc *extractor.Document) *store.Page {
	return &store.Page{
		URL:         url,
		Domain:      domainOf(url),
		Title:       doc.Title,
		Description: doc.Description,
		Text:        doc.Text,
		Markdown:    doc.Markdown,
		Author:      doc.Author,
		PublishedAt: doc.PublishedAt,
		Language:    doc.Language,
		ContentHash: crawler.ContentHash(doc.Text),
		HTTPStatus:  200,
	}
}
