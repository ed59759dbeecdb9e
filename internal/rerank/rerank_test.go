package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragcore/internal/llmprovider"
	"ragcore/internal/retrieval"
)

func candidates(n int) []retrieval.Candidate {
	out := make([]retrieval.Candidate, n)
	for i := range out {
		out[i] = retrieval.Candidate{ID: string(rune('a' + i)), Text: "text"}
	}
	return out
}

func TestRerankParsesOrderAndStampsPosition(t *testing.T) {
	t.Parallel()
	fake := &llmprovider.Fake{Responses: []string{"3,1,2"}}
	out, err := Rerank(context.Background(), fake, "model", "q", candidates(4), 3)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "c", out[0].ID)
	assert.Equal(t, 1, out[0].RerankPosition)
	assert.Equal(t, "a", out[1].ID)
	assert.Equal(t, 2, out[1].RerankPosition)
	assert.Equal(t, "b", out[2].ID)
	assert.Equal(t, 3, out[2].RerankPosition)
}

func TestRerankFallsBackOnParseFailure(t *testing.T) {
	t.Parallel()
	fake := &llmprovider.Fake{Responses: []string{"not a valid response"}}
	out, err := Rerank(context.Background(), fake, "model", "q", candidates(4), 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}
