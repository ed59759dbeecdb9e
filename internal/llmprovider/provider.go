// Package llmprovider abstracts the single completion-style LLM call used
// by the summarizer, Q&A generator, reranker, agent evaluator, and answer
// generator — none of them need tool calling or streaming, only a prompt
// in and text out.
package llmprovider

import "context"

// CompletionRequest is one non-streaming chat completion call.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSONMode instructs the provider to constrain output to a JSON object,
	// used by the Q&A generator.
	JSONMode bool
}

// CompletionResponse is the provider's reply.
type CompletionResponse struct {
	Text         string
	FinishReason string
}

// Provider is the contract every LLM backend satisfies.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}
