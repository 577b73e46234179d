package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDedupResultsByPageKeepsHighestScore(t *testing.T) {
	pageA := uuid.New()
	pageB := uuid.New()

	results := []SearchResult{
		{PageID: pageA, Score: 0.9},
		{PageID: pageB, Score: 0.8},
		{PageID: pageA, Score: 0.5}, // lower-scoring duplicate, should be dropped
	}

	out := dedupResultsByPage(results, 10)
	assert.Len(t, out, 2)
	assert.Equal(t, 0.9, out[0].Score)
}

func TestDedupResultsByPageRespectsLimit(t *testing.T) {
	results := make([]SearchResult, 5)
	for i := range results {
		results[i] = SearchResult{PageID: uuid.New(), Score: float64(5 - i)}
	}
	out := dedupResultsByPage(results, 2)
	assert.Len(t, out, 2)
}

func TestAppendSearchFiltersBuildsClauses(t *testing.T) {
	start := time.Now()
	f := SearchFilters{
		Domains:        []string{"a.test"},
		ExcludeDomains: []string{"b.test"},
		StartDate:      &start,
		Language:       "en",
	}
	query, args := appendSearchFilters("SELECT 1", []any{"base"}, f)
	assert.Contains(t, query, "= ANY(")
	assert.Contains(t, query, "!= ALL(")
	assert.Contains(t, query, "published_at >=")
	assert.Contains(t, query, "language = ")
	assert.Len(t, args, 5)
}

func TestAppendSearchFiltersNoFiltersNoOp(t *testing.T) {
	query, args := appendSearchFilters("SELECT 1", []any{"base"}, SearchFilters{})
	assert.Equal(t, "SELECT 1", query)
	assert.Len(t, args, 1)
}
