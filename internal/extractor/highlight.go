package extractor

import (
	"regexp"
	"sort"
	"strings"
)

var sentenceSplit = regexp.MustCompile(`[.!?]+\s+`)

// Highlights splits text into sentences, scores each by the number of
// whitespace-separated query terms it contains (case-insensitive substring
// match; a term repeated in the query counts once per repetition), and
// returns the top k by score. Ties are broken by earliest position in the
// text. Sentences longer than 2*window characters are truncated with an
// ellipsis.
func Highlights(text, query string, k, window int) []string {
	if text == "" || query == "" || k <= 0 {
		return nil
	}

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	sentences := sentenceSplit.Split(text, -1)

	type scored struct {
		score int
		pos   int
		text  string
	}
	var candidates []scored

	for i, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		lower := strings.ToLower(sentence)
		score := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{score: score, pos: i, text: sentence})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].pos < candidates[j].pos
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	limit := window * 2
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		s := c.text
		if limit > 0 && len(s) > limit {
			s = s[:limit] + "..."
		}
		out = append(out, s)
	}
	return out
}

// Highlights is also exposed as a method so callers holding an *Extractor
// don't need the package-level function directly.
func (e *Extractor) Highlights(text, query string, k, window int) []string {
	return Highlights(text, query, k, window)
}
