// Package embedder generates fixed-dimension embeddings for chunk and query
// text via the Gemini embedding API, with retry/backoff and batched
// concurrency.
package embedder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Role selects the task type the remote API optimizes the embedding for.
type Role int

const (
	RoleDocument Role = iota
	RoleQuery
)

const batchGroupSize = 100

var batchGroupDelay = 500 * time.Millisecond

// Embedder produces embeddings for document and query text.
type Embedder interface {
	Embed(ctx context.Context, text string, role Role) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, role Role) ([][]float32, error)
	Dimensions() int
}

type geminiEmbedder struct {
	client *genai.Client
	model  string
	dim    int
}

// Config holds the Gemini embedding client's settings.
type Config struct {
	APIKey     string
	Model      string
	Dimensions int
}

// New builds an Embedder backed by the Gemini embedding API.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-004"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 768
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("embedder: create genai client: %w", err)
	}

	return &geminiEmbedder{client: client, model: cfg.Model, dim: cfg.Dimensions}, nil
}

func (e *geminiEmbedder) Dimensions() int { return e.dim }

// Embed makes up to 3 attempts with exponential backoff between them (1s,
// capped at 10s) before surfacing the last error.
func (e *geminiEmbedder) Embed(ctx context.Context, text string, role Role) ([]float32, error) {
	var result []float32

	policy := backoff.WithContext(retryPolicy(), ctx)
	operation := func() error {
		vec, err := e.embedOnce(ctx, text, role)
		if err != nil {
			return err
		}
		result = vec
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("embedder: embed failed after retries: %w", err)
	}
	return result, nil
}

func (e *geminiEmbedder) embedOnce(ctx context.Context, text string, role Role) ([]float32, error) {
	em := e.client.EmbeddingModel(e.model)
	switch role {
	case RoleDocument:
		em.TaskType = genai.TaskTypeRetrievalDocument
	case RoleQuery:
		em.TaskType = genai.TaskTypeRetrievalQuery
	}

	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedder: empty embedding response")
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch issues texts in groups of at most 100, all members of a group
// concurrently, sleeping 0.5s between groups. It returns N vectors in input
// order or fails on the first unrecoverable error.
func (e *geminiEmbedder) EmbedBatch(ctx context.Context, texts []string, role Role) ([][]float32, error) {
	return batchEmbed(ctx, texts, func(ctx context.Context, text string) ([]float32, error) {
		return e.Embed(ctx, text, role)
	})
}

// batchEmbed implements the group-of-100-with-inter-group-sleep contract
// independent of the embedding backend, so it can be exercised directly in
// tests without a live API.
func batchEmbed(ctx context.Context, texts []string, embedOne func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	results := make([][]float32, len(texts))

	for start := 0; start < len(texts); start += batchGroupSize {
		end := start + batchGroupSize
		if end > len(texts) {
			end = len(texts)
		}

		var wg sync.WaitGroup
		errs := make([]error, end-start)
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				vec, err := embedOne(ctx, texts[i])
				if err != nil {
					errs[i-start] = err
					return
				}
				results[i] = vec
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}

		if end < len(texts) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(batchGroupDelay):
			}
		}
	}

	return results, nil
}

func retryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 10 * time.Second
	b.Multiplier = 2
	return backoff.WithMaxRetries(b, 2) // 2 retries after the first attempt = 3 attempts total
}
