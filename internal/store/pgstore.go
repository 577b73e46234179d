package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ErrNotFound is returned when a page or job lookup misses.
var ErrNotFound = errors.New("store: not found")

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and returns a Store backed by Postgres+pgvector.
func NewPostgres(ctx context.Context, dsn string) (Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	return &pgStore{pool: pool}, nil
}

func (s *pgStore) Close() {
	s.pool.Close()
}

func (s *pgStore) UpsertPage(ctx context.Context, page *Page) (*Page, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO pages (url, domain, title, description, text, markdown, author,
			published_at, language, content_hash, http_status, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, now())
		ON CONFLICT (url) DO UPDATE SET
			domain = EXCLUDED.domain,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			text = EXCLUDED.text,
			markdown = EXCLUDED.markdown,
			author = EXCLUDED.author,
			published_at = EXCLUDED.published_at,
			language = EXCLUDED.language,
			content_hash = EXCLUDED.content_hash,
			http_status = EXCLUDED.http_status,
			updated_at = now()
		RETURNING id, crawled_at, updated_at
	`, page.URL, page.Domain, page.Title, page.Description, page.Text, page.Markdown,
		page.Author, page.PublishedAt, page.Language, page.ContentHash, page.HTTPStatus)

	var id uuid.UUID
	var crawledAt, updatedAt = page.CrawledAt, page.UpdatedAt
	if err := row.Scan(&id, &crawledAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("store: upsert page: %w", err)
	}

	out := *page
	out.ID = id
	out.CrawledAt = crawledAt
	out.UpdatedAt = updatedAt
	return &out, nil
}

func (s *pgStore) GetPageByURL(ctx context.Context, url string) (*Page, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, url, domain, title, description, text, markdown, author,
			published_at, language, content_hash, http_status, crawled_at, updated_at
		FROM pages WHERE url = $1
	`, url)

	var p Page
	err := row.Scan(&p.ID, &p.URL, &p.Domain, &p.Title, &p.Description, &p.Text, &p.Markdown,
		&p.Author, &p.PublishedAt, &p.Language, &p.ContentHash, &p.HTTPStatus, &p.CrawledAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get page by url: %w", err)
	}
	return &p, nil
}

// UpsertPageChunks wraps the delete-then-insert replace in an explicit
// transaction so a partial failure leaves the prior chunk set intact.
func (s *pgStore) UpsertPageChunks(ctx context.Context, pageID string, chunks []NewChunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE page_id = $1`, pageID); err != nil {
		return fmt.Errorf("store: delete existing chunks: %w", err)
	}

	for i, c := range chunks {
		_, err := tx.Exec(ctx, `
			INSERT INTO chunks (page_id, chunk_index, text, start_char, end_char, embedding)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, pageID, i, c.Text, c.StartChar, c.EndChar, pgvector.NewVector(c.Embedding))
		if err != nil {
			return fmt.Errorf("store: insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit chunk replace: %w", err)
	}
	return nil
}

// Search runs top-k cosine similarity search with the given filters,
// deduplicating results so each page appears at most once (highest score).
func (s *pgStore) Search(ctx context.Context, queryVec []float32, k int, filters SearchFilters) ([]SearchResult, error) {
	query := `
		SELECT
			c.id, c.page_id, p.url, p.title, p.domain, p.author, p.published_at, p.text, c.text,
			1 - (c.embedding <=> $1::vector) AS score
		FROM chunks c
		JOIN pages p ON p.id = c.page_id
		WHERE c.embedding IS NOT NULL`

	args := []any{pgvector.NewVector(queryVec)}
	query, args = appendSearchFilters(query, args, filters)

	query += " ORDER BY score DESC LIMIT " + fmt.Sprintf("$%d", len(args)+1)
	args = append(args, k*3) // over-fetch; we dedup by page below

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	return dedupByPage(rows, k)
}

func appendSearchFilters(query string, args []any, f SearchFilters) (string, []any) {
	if len(f.Domains) > 0 {
		args = append(args, f.Domains)
		query += fmt.Sprintf(" AND p.domain = ANY($%d)", len(args))
	}
	if len(f.ExcludeDomains) > 0 {
		args = append(args, f.ExcludeDomains)
		query += fmt.Sprintf(" AND p.domain != ALL($%d)", len(args))
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		query += fmt.Sprintf(" AND p.published_at >= $%d", len(args))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		query += fmt.Sprintf(" AND p.published_at <= $%d", len(args))
	}
	if f.Language != "" {
		args = append(args, f.Language)
		query += fmt.Sprintf(" AND p.language = $%d", len(args))
	}
	return query, args
}

func dedupByPage(rows pgx.Rows, k int) ([]SearchResult, error) {
	var all []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ChunkID, &r.PageID, &r.URL, &r.Title, &r.Domain, &r.Author,
			&r.PublishedAt, &r.PageText, &r.ChunkText, &r.Score); err != nil {
			return nil, fmt.Errorf("store: scan search result: %w", err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate search results: %w", err)
	}
	return dedupResultsByPage(all, k), nil
}

// dedupResultsByPage keeps the first (i.e. highest-scoring, since results
// arrive ORDER BY score DESC) row per page_id, up to k results.
func dedupResultsByPage(results []SearchResult, k int) []SearchResult {
	seen := make(map[uuid.UUID]bool)
	var out []SearchResult
	for _, r := range results {
		if seen[r.PageID] {
			continue
		}
		seen[r.PageID] = true
		out = append(out, r)
		if len(out) >= k {
			break
		}
	}
	return out
}

// FindSimilarToPage uses the source page's first chunk as the representative
// query vector, excludes the source page (and optionally its domain), and
// over-fetches 3k rows before deduping by page.
func (s *pgStore) FindSimilarToPage(ctx context.Context, pageID string, k int, excludeSameDomain bool) ([]SearchResult, error) {
	var repVec pgvector.Vector
	var sourceDomain string
	err := s.pool.QueryRow(ctx, `
		SELECT c.embedding, p.domain
		FROM chunks c
		JOIN pages p ON p.id = c.page_id
		WHERE c.page_id = $1
		ORDER BY c.chunk_index
		LIMIT 1
	`, pageID).Scan(&repVec, &sourceDomain)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: find representative chunk: %w", err)
	}

	query := `
		SELECT
			c.id, c.page_id, p.url, p.title, p.domain, p.author, p.published_at, p.text, c.text,
			1 - (c.embedding <=> $1::vector) AS score
		FROM chunks c
		JOIN pages p ON p.id = c.page_id
		WHERE c.embedding IS NOT NULL AND p.id != $2`

	args := []any{repVec, pageID}
	if excludeSameDomain {
		args = append(args, sourceDomain)
		query += fmt.Sprintf(" AND p.domain != $%d", len(args))
	}

	query += fmt.Sprintf(" ORDER BY score DESC LIMIT $%d", len(args)+1)
	args = append(args, k*3)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: find similar: %w", err)
	}
	defer rows.Close()

	return dedupByPage(rows, k)
}
