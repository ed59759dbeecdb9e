// Package answer implements the Answer Generator (C16): assembling a
// numbered context, prompting for [n]-cited prose, and extracting the
// citation list the answer actually referenced.
package answer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ragcore/internal/llmprovider"
	"ragcore/internal/retrieval"
	"ragcore/internal/rerrors"
)

const insufficientInformation = "There is not enough information in the indexed documents to answer this question."

const prompt = `Answer the question using only the numbered context below. Cite sources inline using [n] markers.

Question: %s

Context:
%s`

// Citation is one answer reference, numbered per its appearance in the
// numbered context (not necessarily the order it's cited in prose).
type Citation struct {
	Position    int
	ChunkID     string
	DocumentID  string
	Section     string
	ContentType string
	Text        string
}

// Result is the generator's output.
type Result struct {
	Answer    string
	Citations []Citation
}

var citationRe = regexp.MustCompile(`\[(\d+)\]`)

// Generate produces an answer and its referenced citations. Zero candidates
// short-circuits to a canned response with no citations and no LLM call.
func Generate(ctx context.Context, provider llmprovider.Provider, model, query string, candidates []retrieval.Candidate) (Result, error) {
	if len(candidates) == 0 {
		return Result{Answer: insufficientInformation}, nil
	}

	numbered := numberedContext(candidates)
	resp, err := provider.Complete(ctx, llmprovider.CompletionRequest{
		Model:       model,
		Prompt:      fmt.Sprintf(prompt, query, numbered),
		Temperature: 0.2,
	})
	if err != nil {
		return Result{}, rerrors.Retrieval("answer generation failed", err)
	}

	return Result{Answer: resp.Text, Citations: extractCitations(resp.Text, candidates)}, nil
}

func numberedContext(candidates []retrieval.Candidate) string {
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, c.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// extractCitations scans the answer for [n] markers and, for each distinct
// n that indexes a real candidate, emits one citation in first-appearance
// order.
func extractCitations(text string, candidates []retrieval.Candidate) []Citation {
	seen := make(map[int]bool)
	var out []Citation
	for _, m := range citationRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(candidates) || seen[n] {
			continue
		}
		seen[n] = true
		c := candidates[n-1]
		out = append(out, Citation{
			Position:    n,
			ChunkID:     c.ID,
			DocumentID:  c.DocumentID,
			Section:     c.Section,
			ContentType: c.ContentType,
			Text:        c.Text,
		})
	}
	return out
}
