package summarize

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragcore/internal/llmprovider"
	"ragcore/internal/tree"
)

func TestSummarizeShortDocumentSinglePass(t *testing.T) {
	t.Parallel()
	fake := &llmprovider.Fake{Responses: []string{"Overview: short doc."}}
	cfg := Config{ShortDocThreshold: 1000, FinalSummaryMaxTokens: 200}

	out, err := Summarize(context.Background(), fake, "model", tree.Tree{Text: "a short document"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "Overview: short doc.", out)
	assert.Equal(t, 1, fake.Calls())
}

func TestSummarizeLongDocumentMapReduce(t *testing.T) {
	t.Parallel()
	fake := &llmprovider.Fake{Responses: []string{"section summary", "section summary", "final summary"}}
	cfg := Config{
		ShortDocThreshold:       10,
		MinSectionSize:          0,
		MaxSectionSize:          10000,
		MaxConcurrentRequests:   2,
		SectionSummaryMaxTokens: 100,
		FinalSummaryMaxTokens:   200,
	}
	longText := strings.Repeat("x", 50)
	tr := tree.Tree{
		Text: longText,
		Sections: []tree.Section{
			{Title: "Intro", Content: longText},
			{Title: "Body", Content: longText},
		},
	}

	out, err := Summarize(context.Background(), fake, "model", tr, cfg)
	require.NoError(t, err)
	assert.Equal(t, "final summary", out)
	assert.Equal(t, 3, fake.Calls())
}

func TestSummarizeSkipsTinySections(t *testing.T) {
	t.Parallel()
	tr := tree.Tree{
		Text: "doc",
		Sections: []tree.Section{
			{Title: "tiny", Content: "x"},
		},
	}
	cfg := Config{ShortDocThreshold: 0, MinSectionSize: 50, MaxSectionSize: 1000}
	parts := splitSections(tr, cfg)
	assert.Empty(t, parts)
}
