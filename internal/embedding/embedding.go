// Package embedding implements the Embedder (C10): batched, order-preserving
// vector generation with bounded concurrency and all-or-nothing batch
// semantics.
package embedding

import (
	"context"
	"time"

	"ragcore/internal/rerrors"
	"ragcore/internal/tokenizer"
)

// Embedder converts text to embedding vectors.
type Embedder interface {
	// EmbedBatch returns one vector per input text, in the same order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
	Dimension() int
}

// Client calls an OpenAI-compatible embeddings endpoint in batches of a
// fixed size, truncating any input that exceeds the provider's per-item
// token cap, and pausing briefly between batches to respect rate limits.
type Client struct {
	Backend      Backend
	BatchSize    int
	PerItemCap   int
	Tok          *tokenizer.Tokenizer
	InterBatchPause time.Duration
	dim          int
	model        string
}

// Backend is the low-level call a Client delegates to; OpenAIBackend is the
// production implementation.
type Backend interface {
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// NewClient builds a batched Embedder over backend.
func NewClient(backend Backend, model string, dim, batchSize, perItemCap int, tok *tokenizer.Tokenizer) *Client {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Client{
		Backend:         backend,
		BatchSize:       batchSize,
		PerItemCap:      perItemCap,
		Tok:             tok,
		InterBatchPause: 50 * time.Millisecond,
		dim:             dim,
		model:           model,
	}
}

func (c *Client) Name() string   { return c.model }
func (c *Client) Dimension() int { return c.dim }

func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	prepared := make([]string, len(texts))
	for i, t := range texts {
		if c.Tok != nil && c.PerItemCap > 0 {
			prepared[i] = c.Tok.Truncate(t, c.PerItemCap)
		} else {
			prepared[i] = t
		}
	}

	out := make([][]float32, 0, len(prepared))
	for i := 0; i < len(prepared); i += c.BatchSize {
		end := i + c.BatchSize
		if end > len(prepared) {
			end = len(prepared)
		}
		batch := prepared[i:end]

		vectors, err := c.Backend.Embed(ctx, c.model, batch)
		if err != nil {
			return nil, rerrors.Embedding("embedding batch failed", err).WithDetail("batch_start", i).WithDetail("batch_size", len(batch))
		}
		if len(vectors) != len(batch) {
			return nil, rerrors.Embedding("embedding backend returned a mismatched vector count", nil).
				WithDetail("expected", len(batch)).WithDetail("got", len(vectors))
		}
		out = append(out, vectors...)

		if end < len(prepared) && c.InterBatchPause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.InterBatchPause):
			}
		}
	}
	return out, nil
}
