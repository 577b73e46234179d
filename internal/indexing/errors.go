package indexing

import (
	"errors"
	"net/url"
	"strings"
)

// ErrPrecondition marks caller input errors (invalid URL, empty query) that
// carry no side effects and should surface directly to the HTTP caller.
var ErrPrecondition = errors.New("precondition failed")

// ErrEmbedFailure marks an embedding-provider error encountered while
// indexing a page. indexPage returns it before any chunk is written, so a
// page's previous chunk set is left untouched rather than partially
// replaced.
var ErrEmbedFailure = errors.New("embed failure")

// ErrStoreUnavailable marks a store write failure encountered while
// indexing a page. Callers log and continue rather than fail the
// enclosing crawl or batch operation.
var ErrStoreUnavailable = errors.New("store unavailable")

// domainOf extracts the lowercased host from a URL, returning "" if raw
// does not parse.
func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
