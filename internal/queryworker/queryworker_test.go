package queryworker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragcore/internal/llmprovider"
	"ragcore/internal/retrieval"
	"ragcore/internal/vectorstore"
)

// fakeEmbedder returns a fixed vector for any input, regardless of text.
type fakeEmbedder struct{}

func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{0.1, 0.2, 0.3}
	}
	return vecs, nil
}
func (fakeEmbedder) Name() string   { return "fake" }
func (fakeEmbedder) Dimension() int { return 3 }

func seedChunks(t *testing.T, v *vectorstore.Memory, collection string) {
	t.Helper()
	err := v.EnsureCollection(context.Background(), collection, 3, vectorstore.MetricCosine)
	require.NoError(t, err)
	err = v.Upsert(context.Background(), collection, []vectorstore.Point{
		{ID: "c1", Vector: []float32{0.1, 0.2, 0.3}, Payload: map[string]any{"document_id": "d1", "text": "refunds take 30 days", "section": "Refunds", "content_type": "chunk"}},
		{ID: "c2", Vector: []float32{0.1, 0.2, 0.3}, Payload: map[string]any{"document_id": "d1", "text": "contact support for help", "section": "Support", "content_type": "chunk"}},
	})
	require.NoError(t, err)
}

func TestQueryEmbedCacheHitAvoidsRecompute(t *testing.T) {
	t.Parallel()
	c := newQueryEmbedCache(4)

	_, ok := c.get("what is refunds policy")
	assert.False(t, ok)

	c.put("what is refunds policy", []float32{0.1, 0.2})
	vec, ok := c.get("what is refunds policy")
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
}

func TestQueryEmbedCacheEvictsOldestWhenFull(t *testing.T) {
	t.Parallel()
	c := newQueryEmbedCache(2)
	c.put("a", []float32{1})
	c.put("b", []float32{2})
	c.put("c", []float32{3})

	_, ok := c.get("a")
	assert.False(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}

// TestRunStopsAtExactlyMaxIterationsWithAlwaysRefineEvaluator reproduces spec §8 scenario 5: with
// max_iterations=2 and an evaluator that always wants to refine, the loop
// must run exactly 2 passes, the second forced to Proceed rather than
// calling the evaluator a third time.
func TestRunStopsAtExactlyMaxIterationsWithAlwaysRefineEvaluator(t *testing.T) {
	t.Parallel()
	vectors := vectorstore.NewMemory()
	seedChunks(t, vectors, "chunks")

	fake := &llmprovider.Fake{Responses: []string{
		"1,2",   // rerank, iteration 1
		`{"decision":"refine","confidence":0.2,"reasoning":"not enough","refined_query":"a better query"}`, // evaluate, iteration 1
		"1,2",   // rerank, iteration 2
		"Refunds take 30 days [1].", // answer, once forced to Proceed
	}}

	w := &Worker{
		Store:     nil,
		Retriever: &retrieval.Retriever{Vectors: vectors},
		Embedder:  fakeEmbedder{},
		Provider:  fake,
		Model:     "model",
		Cfg: Config{
			MaxIterations:    2,
			TopK:             2,
			RerankTop:        2,
			ChunksCollection: "chunks",
		},
		embedCache: newQueryEmbedCache(16),
	}

	res, citations, debug, err := w.run(context.Background(), "how do refunds work", nil)
	require.NoError(t, err)
	require.Len(t, debug, 2)
	assert.Equal(t, "refine", debug[0].Decision)
	assert.Equal(t, "proceed", debug[1].Decision)
	assert.Equal(t, "Refunds take 30 days [1].", res.Answer)
	require.Len(t, citations, 1)
	assert.Equal(t, 4, fake.Calls())
}
