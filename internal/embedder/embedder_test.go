package embedder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchEmbedPreservesOrder(t *testing.T) {
	orig := batchGroupDelay
	batchGroupDelay = time.Millisecond
	defer func() { batchGroupDelay = orig }()

	texts := make([]string, 250) // spans 3 groups of <=100
	for i := range texts {
		texts[i] = string(rune('a' + i%26))
	}

	vecs, err := batchEmbed(context.Background(), texts, func(_ context.Context, text string) ([]float32, error) {
		return []float32{float32(text[0])}, nil
	})
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	for i, v := range vecs {
		assert.Equal(t, []float32{float32(texts[i][0])}, v)
	}
}

func TestBatchEmbedFailsOnFirstUnrecoverableError(t *testing.T) {
	orig := batchGroupDelay
	batchGroupDelay = time.Millisecond
	defer func() { batchGroupDelay = orig }()

	texts := []string{"a", "bad", "c"}
	_, err := batchEmbed(context.Background(), texts, func(_ context.Context, text string) ([]float32, error) {
		if text == "bad" {
			return nil, errors.New("boom")
		}
		return []float32{1}, nil
	})
	assert.Error(t, err)
}
