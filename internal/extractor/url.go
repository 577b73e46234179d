package extractor

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL returns the dedup key for a URL: scheme + lowercased host +
// path with any trailing slash stripped + the query string verbatim.
// Fragments are dropped. The original URL (not this normalized form) is
// still what gets fetched.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("extractor: parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("extractor: url %q missing scheme or host", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	path := strings.TrimSuffix(u.Path, "/")

	normalized := scheme + "://" + host + path
	if u.RawQuery != "" {
		normalized += "?" + u.RawQuery
	}
	return normalized, nil
}
