// Package chunker splits page text into overlapping windows sized for
// embedding, following a tail-region separator search rather than naive
// fixed-width slicing.
package chunker

import (
	"fmt"
	"strings"
)

// separators are tried in this order within the tail search region; the
// first one found (scanning right to left) wins.
var separators = []string{". ", ".\n", "! ", "!\n", "? ", "?\n"}

// Chunker splits text into overlapping chunks.
type Chunker interface {
	Chunk(text string) []*Chunk
}

// Chunk is a contiguous slice of a page's text with its character offsets.
type Chunk struct {
	ID       string
	Text     string
	StartPos int
	EndPos   int
	Metadata map[string]interface{}
}

// Config holds chunker sizing.
type Config struct {
	ChunkSize   int
	OverlapSize int
}

type textChunker struct {
	size    int
	overlap int
}

// NewTextChunker builds a Chunker with the given size/overlap, defaulting to
// 1000/200 when unset.
func NewTextChunker(config Config) Chunker {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.OverlapSize == 0 {
		config.OverlapSize = 200
	}
	return &textChunker{size: config.ChunkSize, overlap: config.OverlapSize}
}

// Chunk implements the spec's windowing algorithm: for input longer than the
// configured size, each window's end is pulled back to the nearest sentence
// separator found in the tail 20% of the window, and the next window starts
// `overlap` characters before that end — but never at or before the previous
// window's start, which would loop forever on pathological input.
func (c *textChunker) Chunk(text string) []*Chunk {
	if text == "" {
		return nil
	}

	n := len(text)
	if n <= c.size {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []*Chunk{c.build(0, trimmed, 0, n)}
	}

	var chunks []*Chunk
	prevStart := -1
	start := 0
	idx := 0

	for start < n {
		end := start + c.size
		if end > n {
			end = n
		}

		if end < n {
			tailFrom := start + int(float64(c.size)*0.8)
			if tailFrom < start {
				tailFrom = start
			}
			if cut, ok := findSeparatorEnd(text, tailFrom, end); ok {
				end = cut
			}
		}

		chunkText := strings.TrimSpace(text[start:end])
		if chunkText != "" {
			chunks = append(chunks, c.build(idx, chunkText, start, end))
			idx++
		}

		nextStart := end - c.overlap
		if nextStart <= prevStart || nextStart <= start {
			nextStart = end
		}
		prevStart = start
		start = nextStart
		if end >= n {
			break
		}
	}

	return chunks
}

// findSeparatorEnd searches [from, to) right-to-left for the last occurrence
// of any configured separator and returns the offset just past it.
func findSeparatorEnd(text string, from, to int) (int, bool) {
	if from < 0 {
		from = 0
	}
	if to > len(text) {
		to = len(text)
	}
	if from >= to {
		return 0, false
	}
	window := text[from:to]

	best := -1
	bestLen := 0
	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i != -1 && i > best {
			best = i
			bestLen = len(sep)
		}
	}
	if best == -1 {
		return 0, false
	}
	return from + best + bestLen, true
}

func (c *textChunker) build(id int, text string, start, end int) *Chunk {
	return &Chunk{
		ID:       fmt.Sprintf("chunk-%d", id),
		Text:     text,
		StartPos: start,
		EndPos:   end,
		Metadata: map[string]interface{}{"chunk_size": len(text)},
	}
}
