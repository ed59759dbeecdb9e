// Package agentloop implements the Agent Evaluator (C15): the state
// machine that decides whether the Query Worker should accept the current
// candidate set, refine the query, expand retrieval, or stop.
package agentloop

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ragcore/internal/llmprovider"
	"ragcore/internal/retrieval"
)

type Decision string

const (
	Proceed  Decision = "proceed"
	Refine   Decision = "refine"
	Expand   Decision = "expand"
	Terminal Decision = "terminal"
)

// Evaluation is the evaluator's verdict for one iteration.
type Evaluation struct {
	Decision     Decision
	Confidence   float64
	Reasoning    string
	RefinedQuery string
}

type rawEvaluation struct {
	Decision     string  `json:"decision"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
	RefinedQuery string  `json:"refined_query"`
}

const prompt = `You are evaluating whether retrieved passages sufficiently answer a query.

Query: %s
Iteration: %d of %d

Top candidates:
%s

Decide one of: proceed, refine, expand, terminal. Respond strictly as JSON:
{"decision":"...","confidence":0.0,"reasoning":"...","refined_query":"..."}`

// Evaluate applies the §4.15 hard rules, calling the LLM only when none of
// them short-circuit the decision. iteration is the 1-indexed number of the
// pass about to run; forcing Proceed once iteration reaches maxIterations
// ensures the loop never executes more than maxIterations passes (§8).
func Evaluate(ctx context.Context, provider llmprovider.Provider, model, query string, candidates []retrieval.Candidate, iteration, maxIterations int) Evaluation {
	if iteration >= maxIterations {
		return Evaluation{Decision: Proceed, Confidence: 1.0, Reasoning: "max iterations reached"}
	}

	resp, err := provider.Complete(ctx, llmprovider.CompletionRequest{
		Model:       model,
		Prompt:      fmt.Sprintf(prompt, query, iteration, maxIterations, formatCandidates(candidates)),
		Temperature: 0.0,
		JSONMode:    true,
	})
	if err != nil {
		return Evaluation{Decision: Proceed, Confidence: 0.5, Reasoning: fmt.Sprintf("evaluator call failed: %v", err)}
	}

	var raw rawEvaluation
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Text)), &raw); err != nil {
		return Evaluation{Decision: Proceed, Confidence: 0.5, Reasoning: "evaluator response failed to parse"}
	}

	decision := Decision(strings.ToLower(strings.TrimSpace(raw.Decision)))
	if decision == Refine && strings.TrimSpace(raw.RefinedQuery) == "" {
		decision = Proceed
	}
	switch decision {
	case Proceed, Refine, Expand, Terminal:
	default:
		decision = Proceed
	}

	return Evaluation{
		Decision:     decision,
		Confidence:   raw.Confidence,
		Reasoning:    raw.Reasoning,
		RefinedQuery: raw.RefinedQuery,
	}
}

func formatCandidates(candidates []retrieval.Candidate) string {
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, c.Section, truncate(c.Text, 300))
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
