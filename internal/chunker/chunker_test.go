package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkShortTextReturnsSingleChunk(t *testing.T) {
	c := NewTextChunker(Config{ChunkSize: 1000, OverlapSize: 200})
	chunks := c.Chunk("The quick brown fox jumps over the lazy dog.")
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].StartPos)
}

func TestChunkEmptyTextReturnsNoChunks(t *testing.T) {
	c := NewTextChunker(Config{})
	assert.Empty(t, c.Chunk(""))
}

func TestChunkLongTextIsDenseAndOrdered(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog. "
	text := strings.Repeat(sentence, 100)

	c := NewTextChunker(Config{ChunkSize: 300, OverlapSize: 50})
	chunks := c.Chunk(text)

	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.LessOrEqual(t, ch.StartPos, ch.EndPos)
		assert.LessOrEqual(t, ch.EndPos, len(text))
		if i > 0 {
			assert.Greater(t, ch.StartPos, chunks[i-1].StartPos, "chunk starts must strictly advance")
		}
	}
}

func TestChunkTerminatesOnPathologicalInput(t *testing.T) {
	// No separators anywhere in the tail region: must not infinite loop.
	text := strings.Repeat("x", 5000)
	c := NewTextChunker(Config{ChunkSize: 300, OverlapSize: 290})
	chunks := c.Chunk(text)
	assert.NotEmpty(t, chunks)
}
