package cli

import (
	"context"
	"fmt"
	"time"

	"ai-search/internal/config"
	"ai-search/internal/indexing"

	"github.com/spf13/cobra"
)

var (
	crawlURL               string
	crawlMaxPages          int
	crawlIncludeSubdomains bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a site and index its pages synchronously",
	Long: `Crawl a site starting from a seed URL, extracting, chunking, embedding,
and indexing each page as it's fetched. Runs to completion in the foreground
rather than through the background job queue used by the server.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().StringVarP(&crawlURL, "url", "u", "", "Seed URL to crawl (required)")
	crawlCmd.Flags().IntVarP(&crawlMaxPages, "max-pages", "m", 50, "Maximum pages to crawl")
	crawlCmd.Flags().BoolVarP(&crawlIncludeSubdomains, "include-subdomains", "s", false, "Follow links on subdomains of the seed's host")
	crawlCmd.MarkFlagRequired("url")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.EmbeddingAPIKey == "" {
		return fmt.Errorf("EMBEDDING_API_KEY is required for indexing")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	svc, cr, st, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cr.Close()
	defer st.Close()

	job, err := svc.CreateCrawlJob(ctx, indexing.CrawlSiteRequest{
		SeedURL:           crawlURL,
		MaxPages:          crawlMaxPages,
		IncludeSubdomains: crawlIncludeSubdomains,
	})
	if err != nil {
		return fmt.Errorf("create crawl job: %w", err)
	}

	fmt.Printf("Crawling %s (max_pages=%d, include_subdomains=%v)\n", crawlURL, crawlMaxPages, crawlIncludeSubdomains)
	svc.RunCrawlJob(ctx, job.ID.String())

	final, err := svc.GetCrawlJob(ctx, job.ID.String())
	if err != nil {
		return fmt.Errorf("fetch final job status: %w", err)
	}

	fmt.Printf("Done. status=%s pages_crawled=%d pages_indexed=%d\n", final.Status, final.PagesCrawled, final.PagesIndexed)
	if final.ErrorMessage != "" {
		fmt.Printf("error: %s\n", final.ErrorMessage)
	}
	return nil
}
