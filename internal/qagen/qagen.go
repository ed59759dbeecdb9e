// Package qagen implements the Q&A Generator (C9): size-adaptive question
// generation with strict-JSON parsing and near-duplicate rejection.
package qagen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"ragcore/internal/llmprovider"
	"ragcore/internal/rerrors"
	"ragcore/internal/tree"
)

const temperature = 0.3

// Pair is one generated question/answer.
type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Type     string `json:"type"`
}

const (
	TypeFactual    = "factual"
	TypeOverview   = "overview"
	TypeProcedural = "procedural"
	TypeComparison = "comparison"
	TypeReasoning  = "reasoning"
)

// Config sizes the generation run per §4.9.
type Config struct {
	SmallMediumThreshold  int // document char length boundary between "small" (N=8) and "medium" (N=12)
	LargeThreshold        int // above this, generate per-section
	LargeTargetCount      int
	MaxConcurrentRequests int
	// DuplicateLengthTolerance is the length-delta threshold under which a
	// near-substring match is still considered a duplicate.
	DuplicateLengthTolerance int
}

type qaResponse struct {
	QAPairs []Pair `json:"qa_pairs"`
}

const singleCallPrompt = `Generate exactly %d question/answer pairs covering this document. Each pair's "type" must be one of factual, overview, procedural, comparison, reasoning. Respond strictly as JSON: {"qa_pairs":[{"question":"...","answer":"...","type":"..."}]}.

%s`

const sectionPrompt = `Generate %d question/answer pairs about this section. Each pair's "type" must be one of factual, overview, procedural, comparison, reasoning. Respond strictly as JSON: {"qa_pairs":[{"question":"...","answer":"...","type":"..."}]}.

Section: %s

%s`

// Generate produces a deduplicated Q&A set for the document.
func Generate(ctx context.Context, provider llmprovider.Provider, model string, t tree.Tree, cfg Config) ([]Pair, error) {
	textLen := len(t.Text)

	var all []Pair
	switch {
	case textLen <= cfg.SmallMediumThreshold:
		pairs, err := generateOne(ctx, provider, model, 8, t.Text)
		if err != nil {
			return nil, err
		}
		all = pairs
	case textLen <= cfg.LargeThreshold || len(t.Sections) == 0:
		pairs, err := generateOne(ctx, provider, model, 12, t.Text)
		if err != nil {
			return nil, err
		}
		all = pairs
	default:
		pairs, err := generatePerSection(ctx, provider, model, t, cfg)
		if err != nil {
			return nil, err
		}
		all = pairs
	}

	return dedup(all, cfg.DuplicateLengthTolerance), nil
}

func generateOne(ctx context.Context, provider llmprovider.Provider, model string, n int, text string) ([]Pair, error) {
	resp, err := provider.Complete(ctx, llmprovider.CompletionRequest{
		Model:       model,
		Prompt:      fmt.Sprintf(singleCallPrompt, n, text),
		Temperature: temperature,
		JSONMode:    true,
	})
	if err != nil {
		return nil, rerrors.DocumentProcessing("qagen", "qa generation call failed", err)
	}
	return parseStrict(resp.Text)
}

// generatePerSection targets 15 pairs distributed proportionally to
// section length, with a floor of 2 per section.
func generatePerSection(ctx context.Context, provider llmprovider.Provider, model string, t tree.Tree, cfg Config) ([]Pair, error) {
	target := cfg.LargeTargetCount
	if target <= 0 {
		target = 15
	}
	totalLen := 0
	for _, s := range t.Sections {
		totalLen += len(s.Content)
	}
	if totalLen == 0 {
		return nil, nil
	}

	counts := make([]int, len(t.Sections))
	for i, s := range t.Sections {
		n := target * len(s.Content) / totalLen
		if n < 2 {
			n = 2
		}
		counts[i] = n
	}

	results := make([][]Pair, len(t.Sections))
	g, gctx := errgroup.WithContext(ctx)
	limit := cfg.MaxConcurrentRequests
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, sec := range t.Sections {
		i, sec, n := i, sec, counts[i]
		g.Go(func() error {
			resp, err := provider.Complete(gctx, llmprovider.CompletionRequest{
				Model:       model,
				Prompt:      fmt.Sprintf(sectionPrompt, n, sec.Title, sec.Content),
				Temperature: temperature,
				JSONMode:    true,
			})
			if err != nil {
				return rerrors.DocumentProcessing("qagen", "section qa generation failed", err).WithDetail("section", sec.Title)
			}
			pairs, err := parseStrict(resp.Text)
			if err != nil {
				return err
			}
			results[i] = pairs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Pair
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

func parseStrict(raw string) ([]Pair, error) {
	var resp qaResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &resp); err != nil {
		return nil, rerrors.DocumentProcessing("qagen", "qa response was not strict JSON", err)
	}
	return resp.QAPairs, nil
}

// dedup rejects exact (case-insensitive, trimmed) question matches, then
// near-substring matches when the length delta is below tolerance.
func dedup(pairs []Pair, lengthTolerance int) []Pair {
	if lengthTolerance <= 0 {
		lengthTolerance = 10
	}
	var out []Pair
	var seen []string
	for _, p := range pairs {
		q := strings.ToLower(strings.TrimSpace(p.Question))
		if q == "" {
			continue
		}
		if isDuplicate(q, seen, lengthTolerance) {
			continue
		}
		seen = append(seen, q)
		out = append(out, p)
	}
	return out
}

func isDuplicate(q string, seen []string, lengthTolerance int) bool {
	for _, s := range seen {
		if q == s {
			return true
		}
		delta := len(q) - len(s)
		if delta < 0 {
			delta = -delta
		}
		if delta < lengthTolerance && (strings.Contains(q, s) || strings.Contains(s, q)) {
			return true
		}
	}
	return false
}
