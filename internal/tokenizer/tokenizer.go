// Package tokenizer wraps a byte-pair encoding so every chunker, the
// summarizer, and the Q&A generator measure size in the same unit.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer encodes and decodes text using a fixed scheme chosen by name.
// decode(encode(s)) == s for every input the encoding accepts.
type Tokenizer struct {
	name string
	enc  *tiktoken.Tiktoken
}

// New builds a Tokenizer for the named encoding (e.g. "cl100k_base",
// "o200k_base"). Encoding lookups are cached by the underlying library.
func New(encodingName string) (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer encoding %q: %w", encodingName, err)
	}
	return &Tokenizer{name: encodingName, enc: enc}, nil
}

// ForModel builds a Tokenizer using the encoding tiktoken associates with
// the named chat/embedding model, falling back to cl100k_base.
func ForModel(model string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("load fallback tokenizer encoding: %w", err)
		}
	}
	return &Tokenizer{name: model, enc: enc}, nil
}

// Name is the encoding name passed to New, or the model name passed to
// ForModel.
func (t *Tokenizer) Name() string { return t.name }

// Encode converts text to its token ids.
func (t *Tokenizer) Encode(s string) []int {
	return t.enc.Encode(s, nil, nil)
}

// Decode converts token ids back to text.
func (t *Tokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Count returns the exact number of tokens s encodes to.
func (t *Tokenizer) Count(s string) int {
	return len(t.Encode(s))
}

// Truncate returns s cut down to at most maxTokens tokens, decoded back to
// text. If s already fits, it is returned unchanged.
func (t *Tokenizer) Truncate(s string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	tokens := t.Encode(s)
	if len(tokens) <= maxTokens {
		return s
	}
	return t.Decode(tokens[:maxTokens])
}

// LastN returns the text corresponding to the last n tokens of s. Used by
// the semantic chunker to prepend overlap text from the previous chunk.
func (t *Tokenizer) LastN(s string, n int) string {
	if n <= 0 {
		return ""
	}
	tokens := t.Encode(s)
	if len(tokens) <= n {
		return s
	}
	return t.Decode(tokens[len(tokens)-n:])
}

// Join is a small helper shared by callers that build " ... " overlap
// markers; kept here so every strategy formats the ellipsis identically.
func Join(ellipsis, text string) string {
	var b strings.Builder
	b.WriteString(ellipsis)
	b.WriteString(text)
	return b.String()
}
