package crawler

import (
	"context"
	"net/url"

	"ai-search/internal/extractor"
)

// SiteWalkOptions configures a bounded BFS crawl.
type SiteWalkOptions struct {
	MaxPages          int
	IncludeSubdomains bool
}

// ProgressFunc is invoked once per fetched URL, for each result of a batch
// after the whole batch completes. Callers must keep it cheap and
// non-blocking.
type ProgressFunc func(completed, total int, last CrawlResult)

// CrawlSite performs a breadth-first walk starting at seed, bounded by
// opts.MaxPages, enqueuing only in-scope outbound links. Per-URL failures are
// recorded in the returned results and do not abort the walk.
func (c *Crawler) CrawlSite(ctx context.Context, seed string, opts SiteWalkOptions, onProgress ProgressFunc) ([]CrawlResult, error) {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}

	seedURL, err := url.Parse(seed)
	if err != nil {
		return nil, err
	}
	baseDomain := seedURL.Hostname()

	visited := make(map[string]bool)
	seedKey, err := extractor.NormalizeURL(seed)
	if err != nil {
		return nil, err
	}
	visited[seedKey] = true

	frontier := []string{seed}
	var results []CrawlResult

	for len(frontier) > 0 && len(results) < opts.MaxPages {
		batchSize := c.config.MaxConcurrent
		if remaining := opts.MaxPages - len(results); remaining < batchSize {
			batchSize = remaining
		}
		if batchSize > len(frontier) {
			batchSize = len(frontier)
		}

		batch := frontier[:batchSize]
		frontier = frontier[batchSize:]

		batchResults := c.FetchMany(ctx, batch)
		for _, r := range batchResults {
			results = append(results, r)
			if onProgress != nil {
				onProgress(len(results), opts.MaxPages, r)
			}

			if r.Doc == nil {
				continue
			}
			for _, rawLink := range r.Doc.Links {
				resolved, err := resolveLink(r.URL, rawLink)
				if err != nil {
					continue
				}
				if !isInScope(resolved, baseDomain, opts.IncludeSubdomains) {
					continue
				}
				key, err := extractor.NormalizeURL(resolved.String())
				if err != nil {
					continue
				}
				if visited[key] {
					continue
				}
				visited[key] = true
				frontier = append(frontier, resolved.String())
			}
		}
	}

	return results, nil
}

func resolveLink(pageURL, link string) (*url.URL, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	ref, err := url.Parse(link)
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(ref), nil
}
