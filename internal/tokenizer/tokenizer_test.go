package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	tok, err := New("cl100k_base")
	require.NoError(t, err)

	cases := []string{
		"hello world",
		"",
		"The quick brown fox jumps over the lazy dog.",
		"多言語のテキストも通す",
	}
	for _, s := range cases {
		got := tok.Decode(tok.Encode(s))
		assert.Equal(t, s, got)
		assert.Equal(t, len(tok.Encode(s)), tok.Count(s))
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	tok, err := New("cl100k_base")
	require.NoError(t, err)

	s := "word " // repeated below
	text := ""
	for i := 0; i < 400; i++ {
		text += s
	}

	truncated := tok.Truncate(text, 50)
	assert.LessOrEqual(t, tok.Count(truncated), 50)
}

func TestLastN(t *testing.T) {
	t.Parallel()
	tok, err := New("cl100k_base")
	require.NoError(t, err)

	text := "one two three four five six seven eight nine ten"
	tail := tok.LastN(text, 3)
	assert.LessOrEqual(t, tok.Count(tail), 3)
}
