// Package crawler fetches pages through a headless browser and walks sites
// breadth-first within a configured scope.
package crawler

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"ai-search/internal/extractor"
)

// Config holds crawler tuning.
type Config struct {
	MaxConcurrent int
	FetchTimeout  time.Duration
	UserAgent     string
	ChromeBinPath string
	Headless      bool
}

// CrawlResult is the outcome of fetching a single URL.
type CrawlResult struct {
	URL        string
	HTTPStatus int
	Doc        *extractor.Document
	Error      string
	At         time.Time
}

// Crawler is a headless-browser fetch pool with a bounded-BFS site walker.
type Crawler struct {
	config     Config
	sem        chan struct{}
	allocCtx   context.Context
	allocClose context.CancelFunc
	extractor  *extractor.Extractor
	logger     *logrus.Logger
}

// New launches a browser allocator and returns a ready-to-use Crawler.
// Call Close when done to tear down the browser.
func New(config Config) *Crawler {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 5
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "ai-search/1.0"
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.UserAgent(config.UserAgent),
		chromedp.WindowSize(1280, 720),
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if config.ChromeBinPath != "" {
		opts = append(opts, chromedp.ExecPath(config.ChromeBinPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	return &Crawler{
		config:     config,
		sem:        make(chan struct{}, config.MaxConcurrent),
		allocCtx:   allocCtx,
		allocClose: cancel,
		extractor:  extractor.New(),
		logger:     logger,
	}
}

// Close releases the browser allocator.
func (c *Crawler) Close() {
	c.allocClose()
}

// FetchOne fetches and extracts a single URL. The returned page is always
// closed on every exit path; errors are reported in the result, not returned.
func (c *Crawler) FetchOne(ctx context.Context, target string) CrawlResult {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	return c.fetch(ctx, target)
}

// FetchMany fans FetchOne out in parallel, bounded by the pool cap, and
// returns results in the same order as the input URLs.
func (c *Crawler) FetchMany(ctx context.Context, urls []string) []CrawlResult {
	results := make([]CrawlResult, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = c.FetchOne(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return results
}

func (c *Crawler) fetch(ctx context.Context, target string) CrawlResult {
	at := time.Now()
	taskCtx, cancelTask := chromedp.NewContext(c.allocCtx)
	defer cancelTask()

	timeoutCtx, cancelTimeout := context.WithTimeout(taskCtx, c.config.FetchTimeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		status := 0
		message := err.Error()
		if timeoutCtx.Err() == context.DeadlineExceeded {
			message = "timeout"
		}
		c.logger.WithField("url", target).WithError(err).Debug("fetch failed")
		return CrawlResult{URL: target, HTTPStatus: status, Error: message, At: at}
	}

	doc, err := c.extractor.Extract(target, html)
	if err != nil {
		return CrawlResult{URL: target, HTTPStatus: 0, Error: err.Error(), At: at}
	}

	return CrawlResult{URL: target, HTTPStatus: 200, Doc: doc, At: at}
}

// ContentHash returns the SHA-256 hex digest of extracted text, used as
// Page.ContentHash.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", sum)
}

// isInScope reports whether link's host falls within the base domain given
// the include-subdomains policy.
func isInScope(link *url.URL, baseDomain string, includeSubdomains bool) bool {
	if link.Scheme != "http" && link.Scheme != "https" {
		return false
	}
	host := strings.ToLower(link.Hostname())
	base := strings.ToLower(baseDomain)
	if includeSubdomains {
		return host == base || strings.HasSuffix(host, "."+base)
	}
	return host == base
}
