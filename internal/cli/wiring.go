package cli

import (
	"context"
	"fmt"

	"ai-search/internal/chunker"
	"ai-search/internal/config"
	"ai-search/internal/crawler"
	"ai-search/internal/embedder"
	"ai-search/internal/extractor"
	"ai-search/internal/indexing"
	"ai-search/internal/store"
	"ai-search/internal/summarizer"
)

// buildService constructs every dependency of the Indexing Service from cfg.
// The caller owns shutdown: it must call crawler.Close() and st.Close().
func buildService(ctx context.Context, cfg *config.Config) (*indexing.Service, *crawler.Crawler, store.Store, error) {
	st, err := store.NewPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect store: %w", err)
	}

	em, err := embedder.New(ctx, embedder.Config{
		APIKey:     cfg.EmbeddingAPIKey,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDim,
	})
	if err != nil {
		st.Close()
		return nil, nil, nil, fmt.Errorf("build embedder: %w", err)
	}

	cr := crawler.New(crawler.Config{
		MaxConcurrent: cfg.MaxConcurrent,
		FetchTimeout:  cfg.FetchTimeout,
		UserAgent:     cfg.UserAgent,
		ChromeBinPath: cfg.ChromeBinPath,
		Headless:      cfg.ChromeHeadless,
	})

	ch := chunker.NewTextChunker(chunker.Config{ChunkSize: cfg.ChunkSize, OverlapSize: cfg.ChunkOverlap})

	sm := summarizer.New(summarizer.Config{APIKey: cfg.LLMAPIKey, BaseURL: cfg.LLMBaseURL, Model: cfg.LLMModel})

	svc := indexing.New(cr, extractor.New(), ch, em, st, sm)
	return svc, cr, st, nil
}
