// Package extractor turns raw HTML into a structured document: title,
// description, author, publish date, language, plain text, markdown, and
// outbound links. It performs no I/O — callers fetch the HTML elsewhere.
package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/araddon/dateparse"
	readability "codeberg.org/readeck/go-readability/v2"
)

// dateFormats is the ordered list tried before falling back to dateparse.
var dateFormats = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

var linkSkipPrefixes = []string{"#", "javascript:", "mailto:", "tel:"}

const maxLinkLen = 2000

// Document is the extractor's output. PublishedAt, Text, and Markdown may all
// be nil/empty — downstream code must tolerate missing fields.
type Document struct {
	URL         string
	Title       string
	Description string
	Author      string
	PublishedAt *time.Time
	Language    string
	Text        string
	Markdown    string
	Links       []string
	WordCount   int
}

// Extractor extracts structured documents from HTML.
type Extractor struct {
	readability readability.Parser
}

// New builds an Extractor with default readability thresholds.
func New() *Extractor {
	return &Extractor{readability: readability.NewParser()}
}

// Extract parses html (sourced from pageURL) into a Document. It never
// performs network I/O. A page that yields no main text still produces a
// valid Document with Text == "" — callers decide whether that's indexable.
func (e *Extractor) Extract(pageURL, html string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("extractor: parse html: %w", err)
	}

	d := &Document{
		URL:         pageURL,
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
		Author:      extractAuthor(doc),
		Language:    extractLanguage(doc),
		Links:       extractLinks(doc),
	}
	d.PublishedAt = extractPublishedAt(doc)

	text, markdown := e.extractContent(html)
	d.Text = text
	d.Markdown = markdown
	d.WordCount = len(strings.Fields(text))

	return d, nil
}

// extractContent parses the page with readability once and renders the
// article twice: as plain text, and as HTML that is then converted to
// markdown. Either may come back empty.
func (e *Extractor) extractContent(html string) (text, markdown string) {
	article, err := e.readability.Parse(strings.NewReader(html), nil)
	if err != nil || article.Node == nil {
		return "", ""
	}

	var textBuf bytes.Buffer
	if err := article.RenderText(&textBuf); err == nil {
		text = strings.TrimSpace(textBuf.String())
	}

	var htmlBuf bytes.Buffer
	if err := article.RenderHTML(&htmlBuf); err == nil {
		if mdOut, err := md.ConvertString(htmlBuf.String()); err == nil {
			markdown = strings.TrimSpace(mdOut)
		}
	}

	return text, markdown
}

func extractTitle(doc *goquery.Document) string {
	if v, ok := metaProperty(doc, "og:title"); ok && v != "" {
		return v
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return ""
}

func extractDescription(doc *goquery.Document) string {
	if v, ok := metaProperty(doc, "og:description"); ok && v != "" {
		return v
	}
	if v, ok := metaName(doc, "description"); ok && v != "" {
		return v
	}
	return ""
}

func extractAuthor(doc *goquery.Document) string {
	if v, ok := metaName(doc, "author"); ok && v != "" {
		return v
	}
	if v, ok := metaProperty(doc, "article:author"); ok && v != "" {
		return v
	}
	if sel := doc.Find("[itemprop='author']").First(); sel.Length() > 0 {
		if name := sel.Find("[itemprop='name']").First(); name.Length() > 0 {
			if t := strings.TrimSpace(name.Text()); t != "" {
				return t
			}
		}
		if t := strings.TrimSpace(sel.Text()); t != "" {
			return t
		}
	}
	return ""
}

func extractPublishedAt(doc *goquery.Document) *time.Time {
	var raw string

	candidates := []struct {
		attr, val string
	}{
		{"property", "article:published_time"},
		{"property", "og:published_time"},
		{"name", "date"},
		{"name", "pubdate"},
		{"itemprop", "datePublished"},
	}
	for _, c := range candidates {
		sel := doc.Find(fmt.Sprintf("meta[%s='%s']", c.attr, c.val)).First()
		if v, ok := sel.Attr("content"); ok && strings.TrimSpace(v) != "" {
			raw = v
			break
		}
	}
	if raw == "" {
		if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok && v != "" {
			raw = v
		}
	}
	if raw == "" {
		return nil
	}
	return parseDate(raw)
}

func parseDate(raw string) *time.Time {
	truncated := raw
	if len(truncated) > 30 {
		truncated = truncated[:30]
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, truncated); err == nil {
			return &t
		}
	}
	if t, err := dateparse.ParseAny(raw); err == nil {
		return &t
	}
	return nil
}

func extractLanguage(doc *goquery.Document) string {
	if v, ok := doc.Find("html").First().Attr("lang"); ok && v != "" {
		return strings.ToLower(strings.SplitN(v, "-", 2)[0])
	}
	if v, ok := metaHTTPEquiv(doc, "content-language"); ok && v != "" {
		return strings.ToLower(strings.SplitN(v, "-", 2)[0])
	}
	return ""
}

func extractLinks(doc *goquery.Document) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if len(href) > maxLinkLen {
			return
		}
		for _, prefix := range linkSkipPrefixes {
			if strings.HasPrefix(href, prefix) {
				return
			}
		}
		links = append(links, href)
	})
	return links
}

func metaProperty(doc *goquery.Document, property string) (string, bool) {
	sel := doc.Find(fmt.Sprintf("meta[property='%s']", property)).First()
	v, ok := sel.Attr("content")
	return strings.TrimSpace(v), ok
}

func metaName(doc *goquery.Document, name string) (string, bool) {
	sel := doc.Find(fmt.Sprintf("meta[name='%s']", name)).First()
	v, ok := sel.Attr("content")
	return strings.TrimSpace(v), ok
}

func metaHTTPEquiv(doc *goquery.Document, name string) (string, bool) {
	sel := doc.Find(fmt.Sprintf("meta[http-equiv='%s']", name)).First()
	v, ok := sel.Attr("content")
	return strings.TrimSpace(v), ok
}
