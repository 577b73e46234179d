// Package server exposes the Indexing Service over HTTP: search, contents,
// find-similar, and crawl-job submission/status endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"ai-search/internal/indexing"
	"ai-search/internal/jobs"
	"ai-search/internal/store"
)

// Config holds server configuration.
type Config struct {
	Host string
	Port int
}

// Server is the HTTP surface over an indexing.Service and a jobs.Pool.
type Server struct {
	config  Config
	service *indexing.Service
	jobs    *jobs.Pool
	http    *http.Server
	logger  *logrus.Logger
}

// New builds a Server. Call Start to begin serving and Stop to shut down.
func New(config Config, service *indexing.Service, pool *jobs.Pool) *Server {
	if config.Host == "" {
		config.Host = "0.0.0.0"
	}
	if config.Port == 0 {
		config.Port = 8080
	}

	logger := logrus.New()
	s := &Server{config: config, service: service, jobs: pool, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/contents", s.handleContents)
	mux.HandleFunc("/findsimilar", s.handleFindSimilar)
	mux.HandleFunc("/crawl", s.handleCrawl)
	mux.HandleFunc("/crawl/status/", s.handleCrawlStatus)

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.http.Addr).Info("server starting")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errCh:
		return err
	}
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// --- /search ---

type searchRequestBody struct {
	Query             string              `json:"query"`
	NumResults        int                 `json:"num_results"`
	IncludeContent    bool                `json:"include_content"`
	IncludeHighlights bool                `json:"include_highlights"`
	Filters           *searchFiltersBody  `json:"filters,omitempty"`
}

type searchFiltersBody struct {
	Domains        []string `json:"domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
	StartDate      string   `json:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
	Language       string   `json:"language,omitempty"`
}

func (b *searchFiltersBody) toFilters() store.SearchFilters {
	if b == nil {
		return store.SearchFilters{}
	}
	f := store.SearchFilters{Domains: b.Domains, ExcludeDomains: b.ExcludeDomains, Language: b.Language}
	if b.StartDate != "" {
		if t, err := time.Parse(time.RFC3339, b.StartDate); err == nil {
			f.StartDate = &t
		}
	}
	if b.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, b.EndDate); err == nil {
			f.EndDate = &t
		}
	}
	return f
}

type searchResultBody struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	Score         float64    `json:"score"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	Author        string     `json:"author,omitempty"`
	Content       string     `json:"content,omitempty"`
	Highlights    []string   `json:"highlights,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	resp, err := s.service.Search(r.Context(), indexing.SearchRequest{
		Query:             body.Query,
		K:                 body.NumResults,
		IncludeText:       body.IncludeContent,
		IncludeHighlights: body.IncludeHighlights,
		Filters:           body.Filters.toFilters(),
	})
	if err != nil {
		if errors.Is(err, indexing.ErrPrecondition) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.WithError(err).Error("search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	results := make([]searchResultBody, 0, len(resp.Results))
	for _, r := range resp.Results {
		rb := searchResultBody{
			ID:            r.ChunkID.String(),
			URL:           r.URL,
			Title:         r.Title,
			Score:         r.Score,
			PublishedDate: r.PublishedAt,
			Author:        r.Author,
			Content:       r.PageText,
		}
		if resp.Highlights != nil {
			rb.Highlights = resp.Highlights[r.ChunkID.String()]
		}
		results = append(results, rb)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":         resp.Query,
		"results":       results,
		"total_results": resp.TotalResults,
		"took_ms":       resp.TookMS,
	})
}

// --- /contents ---

type contentsRequestBody struct {
	URLs              []string `json:"urls"`
	IncludeMarkdown   bool     `json:"include_markdown"`
	IncludeSummary    bool     `json:"include_summary"`
	SummaryMaxLength  int      `json:"summary_max_length"`
}

func (s *Server) handleContents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body contentsRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(body.URLs) == 0 || len(body.URLs) > 10 {
		writeError(w, http.StatusBadRequest, "urls must contain between 1 and 10 entries")
		return
	}

	resp, err := s.service.GetContents(r.Context(), indexing.GetContentsRequest{
		URLs:            body.URLs,
		IncludeMarkdown: body.IncludeMarkdown,
		IncludeSummary:  body.IncludeSummary,
		SummaryWords:    body.SummaryMaxLength,
	})
	if err != nil {
		s.logger.WithError(err).Error("get_contents failed")
		writeError(w, http.StatusInternalServerError, "contents failed")
		return
	}

	type item struct {
		URL           string     `json:"url"`
		Title         string     `json:"title,omitempty"`
		Content       string     `json:"content,omitempty"`
		Markdown      string     `json:"markdown,omitempty"`
		Summary       string     `json:"summary,omitempty"`
		Author        string     `json:"author,omitempty"`
		PublishedDate *time.Time `json:"published_date,omitempty"`
		Status        string     `json:"status"`
		Error         string     `json:"error,omitempty"`
	}
	items := make([]item, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, item{
			URL: r.URL, Title: r.Title, Content: r.Content, Markdown: r.Markdown,
			Summary: r.Summary, Author: r.Author, PublishedDate: r.PublishedAt,
			Status: r.Status, Error: r.Error,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": items,
		"took_ms": resp.TookMS,
	})
}

// --- /findsimilar ---

type findSimilarRequestBody struct {
	URL                string `json:"url"`
	NumResults         int    `json:"num_results"`
	IncludeContent     bool   `json:"include_content"`
	ExcludeSourceDomain bool  `json:"exclude_source_domain"`
}

func (s *Server) handleFindSimilar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body findSimilarRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	resp, err := s.service.FindSimilar(r.Context(), indexing.FindSimilarRequest{
		URL:                 body.URL,
		K:                   body.NumResults,
		IncludeText:         body.IncludeContent,
		ExcludeSourceDomain: body.ExcludeSourceDomain,
	})
	if err != nil {
		s.logger.WithError(err).Error("find_similar failed")
		writeError(w, http.StatusInternalServerError, "find_similar failed")
		return
	}

	results := make([]searchResultBody, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, searchResultBody{
			ID: r.ChunkID.String(), URL: r.URL, Title: r.Title, Score: r.Score,
			PublishedDate: r.PublishedAt, Author: r.Author, Content: r.PageText,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"source_url": resp.SourceURL,
		"results":    results,
		"took_ms":    resp.TookMS,
		"error":      resp.Error,
	})
}

// --- /crawl and /crawl/status/{job_id} ---

type crawlRequestBody struct {
	URL               string `json:"url"`
	MaxPages          int    `json:"max_pages"`
	IncludeSubdomains bool   `json:"include_subdomains"`
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body crawlRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.MaxPages > 1000 {
		writeError(w, http.StatusBadRequest, "max_pages must be <= 1000")
		return
	}

	job, err := s.service.CreateCrawlJob(r.Context(), indexing.CrawlSiteRequest{
		SeedURL:           body.URL,
		MaxPages:          body.MaxPages,
		IncludeSubdomains: body.IncludeSubdomains,
	})
	if err != nil {
		if errors.Is(err, indexing.ErrPrecondition) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.WithError(err).Error("create crawl job failed")
		writeError(w, http.StatusInternalServerError, "crawl submission failed")
		return
	}

	message := "crawl job queued"
	if !s.jobs.Enqueue(job.ID.String()) {
		message = "crawl job created but not queued: the job queue is full"
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":    job.ID.String(),
		"status":    job.Status,
		"seed_url":  job.SeedURL,
		"max_pages": job.MaxPages,
		"message":   message,
	})
}

func (s *Server) handleCrawlStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jobID := r.URL.Path[len("/crawl/status/"):]
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "missing job id")
		return
	}

	job, err := s.service.GetCrawlJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.WithError(err).Error("get crawl job failed")
		writeError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":         job.ID.String(),
		"status":         job.Status,
		"pages_crawled":  job.PagesCrawled,
		"pages_indexed":  job.PagesIndexed,
		"started_at":     job.StartedAt,
		"completed_at":   job.CompletedAt,
		"error_message":  job.ErrorMessage,
	})
}
