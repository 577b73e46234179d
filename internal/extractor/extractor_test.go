package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTitlePrecedence(t *testing.T) {
	e := New()
	html := `<html><head>
		<meta property="og:title" content="OG Title">
		<title>Tag Title</title>
	</head><body><h1>H1 Title</h1><p>Some content here that is long enough to matter for extraction.</p></body></html>`

	doc, err := e.Extract("https://example.test/a", html)
	require.NoError(t, err)
	assert.Equal(t, "OG Title", doc.Title)
}

func TestExtractFallsBackToH1(t *testing.T) {
	e := New()
	html := `<html><head></head><body><h1>Only H1</h1><p>Body text.</p></body></html>`
	doc, err := e.Extract("https://example.test/a", html)
	require.NoError(t, err)
	assert.Equal(t, "Only H1", doc.Title)
}

func TestExtractLanguageFromHTMLLang(t *testing.T) {
	e := New()
	html := `<html lang="en-US"><head></head><body><p>text</p></body></html>`
	doc, err := e.Extract("https://example.test/a", html)
	require.NoError(t, err)
	assert.Equal(t, "en", doc.Language)
}

func TestExtractLinksSkipsNonNavigable(t *testing.T) {
	e := New()
	html := `<html><body>
		<a href="#top">top</a>
		<a href="javascript:void(0)">js</a>
		<a href="mailto:a@b.com">mail</a>
		<a href="tel:+123">tel</a>
		<a href="/page">page</a>
	</body></html>`
	doc, err := e.Extract("https://example.test/", html)
	require.NoError(t, err)
	assert.Equal(t, []string{"/page"}, doc.Links)
}

func TestHighlightsScoresAndTruncates(t *testing.T) {
	text := "The fox runs fast. The dog sleeps. The quick fox jumps over the lazy dog."
	hl := Highlights(text, "fox dog", 2, 10)
	require.Len(t, hl, 2)
	// Highest scoring sentence (both terms) should come first.
	assert.Contains(t, hl[0], "fox jumps")
	// window=10 caps the 38-char sentence at 20 chars plus an ellipsis.
	assert.Equal(t, "The quick fox jumps ...", hl[0])
}

func TestNormalizeURLDropsFragmentAndTrailingSlash(t *testing.T) {
	got, err := NormalizeURL("HTTPS://Example.TEST/path/?b=1&a=2#frag")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/path?b=1&a=2", got)
}

func TestNormalizeURLIsIdempotent(t *testing.T) {
	first, err := NormalizeURL("https://Example.test/a/")
	require.NoError(t, err)
	second, err := NormalizeURL(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
