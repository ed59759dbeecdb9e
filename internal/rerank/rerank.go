// Package rerank implements the Reranker (C14): an LLM call that reorders
// the top-N retrieval candidates by relevance.
package rerank

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"ragcore/internal/llmprovider"
	"ragcore/internal/logging"
	"ragcore/internal/retrieval"
)

const promptTemplate = `Query: %s

Candidates:
%s

Return the indices of the top %d most relevant candidates, most relevant first, as a single comma-separated line of integers (e.g. "3,1,5"). Output nothing else.`

// Reranked is a Candidate stamped with its 1-indexed position after
// reranking.
type Reranked struct {
	retrieval.Candidate
	RerankPosition int
}

// Rerank asks the LLM to order candidates by relevance to query and returns
// the top topK in that order. On parse failure it falls back to the input
// order truncated to topK.
func Rerank(ctx context.Context, provider llmprovider.Provider, model, query string, candidates []retrieval.Candidate, topK int) ([]Reranked, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if topK <= 0 || topK > len(candidates) {
		topK = len(candidates)
	}

	var listing strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&listing, "[%d] %s\n", i+1, c.Text)
	}

	resp, err := provider.Complete(ctx, llmprovider.CompletionRequest{
		Model:       model,
		Prompt:      fmt.Sprintf(promptTemplate, query, listing.String(), topK),
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		return fallback(candidates, topK), nil
	}

	order, ok := parseIndices(resp.Text, len(candidates))
	if !ok {
		logging.Log.WithField("component", "rerank").Warn("failed to parse rerank response, falling back to input order")
		return fallback(candidates, topK), nil
	}

	out := make([]Reranked, 0, topK)
	for _, idx := range order {
		if len(out) == topK {
			break
		}
		out = append(out, Reranked{Candidate: candidates[idx], RerankPosition: len(out) + 1})
	}
	if len(out) == 0 {
		return fallback(candidates, topK), nil
	}
	return out, nil
}

func fallback(candidates []retrieval.Candidate, topK int) []Reranked {
	out := make([]Reranked, 0, topK)
	for i := 0; i < topK && i < len(candidates); i++ {
		out = append(out, Reranked{Candidate: candidates[i], RerankPosition: i + 1})
	}
	return out
}

// parseIndices parses a comma-separated list of 1-indexed candidate
// positions, discards non-numeric tokens and values outside [1,n],
// deduplicates while preserving order, and returns them as 0-indexed slice
// positions.
func parseIndices(text string, n int) ([]int, bool) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, false
	}

	seen := make(map[int]bool)
	var order []int
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		if v < 1 || v > n {
			continue
		}
		idx := v - 1
		if seen[idx] {
			continue
		}
		seen[idx] = true
		order = append(order, idx)
	}
	if len(order) == 0 {
		return nil, false
	}
	return order, true
}
