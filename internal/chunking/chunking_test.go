package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragcore/internal/tokenizer"
)

func newTok(t *testing.T) *tokenizer.Tokenizer {
	t.Helper()
	tok, err := tokenizer.New("cl100k_base")
	require.NoError(t, err)
	return tok
}

func TestSimpleChunkingOfRepeatedText(t *testing.T) {
	t.Parallel()
	tok := newTok(t)
	text := strings.Repeat("word ", 400)
	cfg := Config{ChunkSize: 50, ChunkOverlap: 10}

	chunks := Simple{Tok: tok}.Chunk(text, cfg)
	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		if i < len(chunks)-1 {
			assert.Equal(t, 50, c.TokenCount, "chunk %d", i)
		}
		if i == 0 {
			assert.False(t, c.HasOverlap)
		} else {
			assert.True(t, c.HasOverlap)
			assert.Equal(t, 10, c.OverlapTokens)
		}
	}
}

func TestAutoSelectStrategyThresholds(t *testing.T) {
	t.Parallel()
	cfg := Config{HierarchicalThresholdChar: 1000, SemanticThresholdChar: 500, MinHeadersForSemantic: 1}

	big := "# H\n" + strings.Repeat("x", 1001)
	assert.Equal(t, StrategyHierarchical, AutoSelectStrategy(len(big), 1, cfg))

	medium := "# H\n" + strings.Repeat("x", 600)
	assert.Equal(t, StrategySemantic, AutoSelectStrategy(len(medium), 1, cfg))

	small := strings.Repeat("x", 500)
	assert.Equal(t, StrategySimple, AutoSelectStrategy(len(small), 0, cfg))
}

func TestHierarchicalParentChildIntegrity(t *testing.T) {
	t.Parallel()
	tok := newTok(t)
	body := strings.Repeat("sentence one. sentence two. sentence three. ", 40)
	text := "# Section A\n" + body + "\n# Section B\n" + body + "\n# Section C\n" + body

	cfg := Config{ChunkSize: 50, ChunkOverlap: 5, MinChunkSize: 10, ParentSummaryMaxLength: 200}
	chunks := Hierarchical{Tok: tok}.Chunk(text, cfg)

	parents := map[int]Chunk{}
	var parentCount int
	for _, c := range chunks {
		if c.Type == TypeParent {
			parentCount++
			parents[c.Index] = c
		}
	}
	assert.Equal(t, 3, parentCount)

	for _, c := range chunks {
		if c.Type != TypeChild {
			continue
		}
		require.NotNil(t, c.ParentIndex)
		parent, ok := parents[*c.ParentIndex]
		require.True(t, ok)
		assert.Equal(t, parent.Text, c.ParentSummary)
	}
}
