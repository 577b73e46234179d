// Command ai-search runs the self-hosted semantic web search service: the
// HTTP server, a foreground crawl, a one-off search query, or schema
// migrations, depending on the subcommand.
package main

import (
	"fmt"
	"os"

	"ai-search/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
