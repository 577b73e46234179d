// Package migrations embeds the goose schema migrations for the pgvector
// store so the binary can apply them without a separate migration tool.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
