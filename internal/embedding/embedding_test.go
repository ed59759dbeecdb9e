package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragcore/internal/tokenizer"
)

func TestEmbedBatchPreservesOrder(t *testing.T) {
	t.Parallel()
	backend := &Deterministic{Dim: 16}
	client := NewClient(backend, "det", 16, 2, 0, nil)

	texts := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	vectors, err := client.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	again, err := client.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	for i := range texts {
		assert.Equal(t, vectors[i], again[i], "embedding for %q should be deterministic", texts[i])
	}
}

func TestEmbedBatchTruncatesOverCap(t *testing.T) {
	t.Parallel()
	tok, err := tokenizer.New("cl100k_base")
	require.NoError(t, err)
	backend := &Deterministic{Dim: 8}
	client := NewClient(backend, "det", 8, 10, 5, tok)

	_, err = client.EmbedBatch(context.Background(), []string{"one two three four five six seven eight nine ten"})
	require.NoError(t, err)
}

type erroringBackend struct{}

func (erroringBackend) Embed(context.Context, string, []string) ([][]float32, error) {
	return nil, assertErr
}

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }

func TestEmbedBatchFailsAllOrNothing(t *testing.T) {
	t.Parallel()
	client := NewClient(erroringBackend{}, "m", 8, 10, 0, nil)
	_, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}
