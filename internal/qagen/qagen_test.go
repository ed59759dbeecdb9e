package qagen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragcore/internal/llmprovider"
	"ragcore/internal/tree"
)

func TestGenerateSmallDocumentSingleCall(t *testing.T) {
	t.Parallel()
	fake := &llmprovider.Fake{Responses: []string{
		`{"qa_pairs":[{"question":"What is the policy?","answer":"See section 1.","type":"factual"}]}`,
	}}
	cfg := Config{SmallMediumThreshold: 1000, LargeThreshold: 5000}

	pairs, err := Generate(context.Background(), fake, "model", tree.Tree{Text: "short doc text"}, cfg)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, TypeFactual, pairs[0].Type)
}

func TestGenerateDedupsExactAndNearMatches(t *testing.T) {
	t.Parallel()
	pairs := []Pair{
		{Question: "What is the refund window?", Answer: "30 days", Type: TypeFactual},
		{Question: "what is the refund window?", Answer: "30 days", Type: TypeFactual},
		{Question: "What is the refund window", Answer: "30 days", Type: TypeFactual},
		{Question: "How do I request a refund?", Answer: "Contact support.", Type: TypeProcedural},
	}
	out := dedup(pairs, 10)
	require.Len(t, out, 2)
}

func TestGenerateRejectsNonStrictJSON(t *testing.T) {
	t.Parallel()
	fake := &llmprovider.Fake{Responses: []string{"not json at all"}}
	cfg := Config{SmallMediumThreshold: 1000}

	_, err := Generate(context.Background(), fake, "model", tree.Tree{Text: "doc"}, cfg)
	assert.Error(t, err)
}

func TestGenerateLargeDocumentPerSectionWithFloor(t *testing.T) {
	t.Parallel()
	fake := &llmprovider.Fake{Responses: []string{
		`{"qa_pairs":[{"question":"Q1","answer":"A1","type":"factual"},{"question":"Q2","answer":"A2","type":"factual"}]}`,
		`{"qa_pairs":[{"question":"Q3","answer":"A3","type":"overview"},{"question":"Q4","answer":"A4","type":"overview"}]}`,
	}}
	cfg := Config{SmallMediumThreshold: 1, LargeThreshold: 2, LargeTargetCount: 15, MaxConcurrentRequests: 2}
	tr := tree.Tree{
		Text: "a document long enough to not be small or medium",
		Sections: []tree.Section{
			{Title: "Intro", Content: "short"},
			{Title: "Body", Content: "a much longer section with more content than intro"},
		},
	}

	pairs, err := Generate(context.Background(), fake, "model", tr, cfg)
	require.NoError(t, err)
	assert.Len(t, pairs, 4)
}
