package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUpsertAndSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.EnsureCollection(ctx, "chunks", 3, MetricCosine))

	require.NoError(t, store.Upsert(ctx, "chunks", []Point{
		{ID: "a", Vector: []float32{1, 0, 0}, Payload: map[string]any{"document_id": "d1"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Payload: map[string]any{"document_id": "d2"}},
	}))

	results, err := store.Search(ctx, "chunks", []float32{1, 0, 0}, Filter{}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
}

func TestMemoryDeleteByFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.EnsureCollection(ctx, "chunks", 3, MetricCosine))
	require.NoError(t, store.Upsert(ctx, "chunks", []Point{
		{ID: "a", Vector: []float32{1, 0, 0}, Payload: map[string]any{"document_id": "d1"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Payload: map[string]any{"document_id": "d2"}},
	}))

	require.NoError(t, store.Delete(ctx, "chunks", Filter{Must: []Predicate{{Field: "document_id", Eq: "d1"}}}))

	results, err := store.Search(ctx, "chunks", []float32{1, 0, 0}, Filter{}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}

func TestMemoryScrollPagination(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.EnsureCollection(ctx, "chunks", 3, MetricCosine))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Upsert(ctx, "chunks", []Point{{ID: id, Vector: []float32{1, 0, 0}}}))
	}

	page1, cursor, err := store.Scroll(ctx, "chunks", Filter{}, 2, "")
	require.NoError(t, err)
	assert.Len(t, page1, 2)
	assert.NotEmpty(t, cursor)

	page2, cursor2, err := store.Scroll(ctx, "chunks", Filter{}, 2, cursor)
	require.NoError(t, err)
	assert.Len(t, page2, 1)
	assert.Empty(t, cursor2)
}
