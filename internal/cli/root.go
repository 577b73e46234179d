package cli

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ai-search",
	Short: "Self-hosted semantic web search",
	Long: `ai-search crawls sites with a headless browser, extracts clean
article content, chunks and embeds it into a pgvector index, and serves
semantic search, URL-similarity lookups, and content fetches over HTTP.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(migrateCmd)
}
