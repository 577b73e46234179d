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
	searchQuery string
	searchK     int
)

// searchCmd runs a one-off query against the index from the command line.
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a search query against the index",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Search query (required)")
	searchCmd.Flags().IntVarP(&searchK, "k", "k", 10, "Number of results to return")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc, cr, st, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cr.Close()
	defer st.Close()

	resp, err := svc.Search(ctx, indexing.SearchRequest{Query: searchQuery, K: searchK, IncludeText: true})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	fmt.Printf("%d results in %dms\n", resp.TotalResults, resp.TookMS)
	for i, r := range resp.Results {
		fmt.Printf("%d. [%.3f] %s — %s\n", i+1, r.Score, r.Title, r.URL)
	}
	return nil
}
