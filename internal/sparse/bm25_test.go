package sparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRanksMoreRelevantHigher(t *testing.T) {
	t.Parallel()
	idx := New(map[string]string{
		"a": "the quick brown fox jumps over the lazy dog",
		"b": "a dog barked at the quick fox",
		"c": "completely unrelated text about weather",
	}, 1.2, 0.75)

	results := idx.Search("quick fox", 10)
	require.NotEmpty(t, results)
	assert.Contains(t, []string{"a", "b"}, results[0].ID)
	for _, r := range results {
		assert.NotEqual(t, "c", r.ID)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	t.Parallel()
	idx := New(map[string]string{"a": "some text"}, 1.2, 0.75)
	assert.Empty(t, idx.Search("", 10))
}

func TestSearchTopKLimit(t *testing.T) {
	t.Parallel()
	docs := map[string]string{}
	for i := 0; i < 10; i++ {
		docs[string(rune('a'+i))] = "repeated term appears here"
	}
	idx := New(docs, 1.2, 0.75)
	results := idx.Search("term", 3)
	assert.Len(t, results, 3)
}
