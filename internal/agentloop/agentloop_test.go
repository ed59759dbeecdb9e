package agentloop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"ragcore/internal/llmprovider"
	"ragcore/internal/retrieval"
)

func TestEvaluateMaxIterationsForcesProceed(t *testing.T) {
	t.Parallel()
	fake := &llmprovider.Fake{Responses: []string{`{"decision":"refine","confidence":0.4,"refined_query":"narrower"}`}}
	eval := Evaluate(context.Background(), fake, "model", "q", nil, 3, 3)
	assert.Equal(t, Proceed, eval.Decision)
	assert.Equal(t, 0, fake.Calls())
}

func TestEvaluateEmptyRefinedQueryTreatedAsProceed(t *testing.T) {
	t.Parallel()
	fake := &llmprovider.Fake{Responses: []string{`{"decision":"refine","confidence":0.6,"refined_query":""}`}}
	eval := Evaluate(context.Background(), fake, "model", "q", nil, 0, 3)
	assert.Equal(t, Proceed, eval.Decision)
}

func TestEvaluateParseFailureProceedsWithHalfConfidence(t *testing.T) {
	t.Parallel()
	fake := &llmprovider.Fake{Responses: []string{"not json"}}
	eval := Evaluate(context.Background(), fake, "model", "q", nil, 0, 3)
	assert.Equal(t, Proceed, eval.Decision)
	assert.Equal(t, 0.5, eval.Confidence)
}

func TestEvaluateRefineWithQueryLoops(t *testing.T) {
	t.Parallel()
	fake := &llmprovider.Fake{Responses: []string{`{"decision":"refine","confidence":0.3,"refined_query":"better query"}`}}
	eval := Evaluate(context.Background(), fake, "model", "q", []retrieval.Candidate{{Text: "x", Section: "s"}}, 0, 3)
	assert.Equal(t, Refine, eval.Decision)
	assert.Equal(t, "better query", eval.RefinedQuery)
}

func TestEvaluateAtMaxIterationsFloorForcesProceedWithoutCall(t *testing.T) {
	t.Parallel()
	fake := &llmprovider.Fake{Responses: []string{`{"decision":"refine","confidence":0.4,"refined_query":"narrower"}`}}
	eval := Evaluate(context.Background(), fake, "model", "q", nil, 1, 1)
	assert.Equal(t, Proceed, eval.Decision)
	assert.Equal(t, 0, fake.Calls())
}

func TestEvaluateBelowMaxIterationsStillCallsProvider(t *testing.T) {
	t.Parallel()
	fake := &llmprovider.Fake{Responses: []string{`{"decision":"refine","confidence":0.4,"refined_query":"narrower"}`}}
	eval := Evaluate(context.Background(), fake, "model", "q", nil, 1, 2)
	assert.Equal(t, Refine, eval.Decision)
	assert.Equal(t, 1, fake.Calls())
}
