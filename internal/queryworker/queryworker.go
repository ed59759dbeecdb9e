// Package queryworker implements the Query Worker (C18): the agentic
// retrieval loop that embeds a query, retrieves and reranks candidates,
// asks the evaluator whether to proceed, refine, or expand, and finally
// generates a cited answer.
package queryworker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ragcore/internal/agentloop"
	"ragcore/internal/answer"
	"ragcore/internal/embedding"
	"ragcore/internal/llmprovider"
	"ragcore/internal/logging"
	"ragcore/internal/rerank"
	"ragcore/internal/retrieval"
	"ragcore/internal/rerrors"
	"ragcore/internal/store"
)

// Config bounds the agentic loop and the retrieval widths it uses.
type Config struct {
	MaxIterations     int
	TopK              int
	RerankTop         int
	RRFK              int
	ExpandTopKStep    int
	ChunksCollection  string
	SummaryCollection string
	QACollection      string
}

// Worker answers one query at a time, driving C13 through C16.
type Worker struct {
	Store     *store.Store
	Retriever *retrieval.Retriever
	Embedder  embedding.Embedder
	Provider  llmprovider.Provider
	Model     string
	Cfg       Config

	// embedCache avoids re-embedding an identical query text within the
	// lifetime of one worker process.
	embedCache *queryEmbedCache
}

// NewWorker constructs a Worker with its query-embedding cache initialized.
func NewWorker(s *store.Store, retriever *retrieval.Retriever, embedder embedding.Embedder, provider llmprovider.Provider, model string, cfg Config) *Worker {
	return &Worker{
		Store:      s,
		Retriever:  retriever,
		Embedder:   embedder,
		Provider:   provider,
		Model:      model,
		Cfg:        cfg,
		embedCache: newQueryEmbedCache(256),
	}
}

// IterationTrace records one agentic-loop iteration for the debug trail.
type IterationTrace struct {
	Iteration              int
	CandidatesBeforeFusion int
	CandidatesAfterRerank  int
	Decision               agentloop.Decision
	LatencyMS              int64
}

// Answer runs the full agentic loop for one query and persists the result.
func (w *Worker) Answer(ctx context.Context, queryID uuid.UUID, queryText string, documentFilter []string) error {
	result, citations, debug, err := w.run(ctx, queryText, documentFilter)
	if err != nil {
		logging.Log.WithField("query_id", queryID).WithField("error", err).Error("query processing failed")
		if markErr := w.Store.CompleteQuery(ctx, queryID, store.QueryFailed, err.Error(), nil, nil, 0); markErr != nil {
			return rerrors.Database("mark query failed status failed", markErr)
		}
		return err
	}

	var totalMS int64
	for _, d := range debug {
		totalMS += d.LatencyMs
	}
	if err := w.Store.CompleteQuery(ctx, queryID, store.QueryCompleted, result.Answer, citations, debug, totalMS); err != nil {
		return rerrors.Database("mark query completed failed", err)
	}
	return nil
}

func (w *Worker) run(ctx context.Context, queryText string, documentFilter []string) (answer.Result, []store.Citation, []store.IterationDebug, error) {
	topK := w.Cfg.TopK
	currentQuery := queryText
	var debug []store.IterationDebug
	var candidates []retrieval.Candidate

	// iteration is 1-indexed: Evaluate forces Proceed once iteration reaches
	// MaxIterations, so the loop never runs more than MaxIterations passes.
	for iteration := 1; ; iteration++ {
		start := time.Now()

		queryVec, err := w.embedQuery(ctx, currentQuery)
		if err != nil {
			return answer.Result{}, nil, nil, err
		}

		fused, prov, err := w.Retriever.Retrieve(ctx, retrieval.Request{
			QueryEmbedding:    queryVec,
			QueryText:         currentQuery,
			TopK:              topK,
			DocumentFilter:    documentFilter,
			ChunksCollection:  w.Cfg.ChunksCollection,
			SummaryCollection: w.Cfg.SummaryCollection,
			QACollection:      w.Cfg.QACollection,
			RRFK:              w.Cfg.RRFK,
		})
		if err != nil {
			return answer.Result{}, nil, nil, err
		}

		reranked, err := rerank.Rerank(ctx, w.Provider, w.Model, currentQuery, fused, w.Cfg.RerankTop)
		if err != nil {
			return answer.Result{}, nil, nil, err
		}
		candidates = make([]retrieval.Candidate, len(reranked))
		for i, r := range reranked {
			candidates[i] = r.Candidate
		}

		eval := agentloop.Evaluate(ctx, w.Provider, w.Model, currentQuery, candidates, iteration, w.Cfg.MaxIterations)

		debug = append(debug, store.IterationDebug{
			Iteration:              iteration,
			CandidatesBeforeFusion: prov.VectorChunks + prov.VectorSummaries + prov.VectorQA + prov.KeywordBM25,
			CandidatesBeforeRerank: len(fused),
			CandidatesAfterRerank:  len(candidates),
			Decision:               string(eval.Decision),
			LatencyMs:              time.Since(start).Milliseconds(),
		})

		switch eval.Decision {
		case agentloop.Refine:
			currentQuery = eval.RefinedQuery
			continue
		case agentloop.Expand:
			topK += w.expandStep()
			continue
		case agentloop.Terminal:
			return answer.Result{Answer: "The available information is insufficient to answer this question reliably."}, nil, debug, nil
		default: // Proceed
			res, err := answer.Generate(ctx, w.Provider, w.Model, currentQuery, candidates)
			if err != nil {
				return answer.Result{}, nil, nil, err
			}
			return res, toStoreCitations(res.Citations), debug, nil
		}
	}
}

func (w *Worker) expandStep() int {
	if w.Cfg.ExpandTopKStep > 0 {
		return w.Cfg.ExpandTopKStep
	}
	return 10
}

func (w *Worker) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := w.embedCache.get(text); ok {
		return vec, nil
	}
	vecs, err := w.Embedder.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	vec := vecs[0]
	w.embedCache.put(text, vec)
	return vec, nil
}

func toStoreCitations(cs []answer.Citation) []store.Citation {
	out := make([]store.Citation, len(cs))
	for i, c := range cs {
		out[i] = store.Citation{
			Position: c.Position,
			ChunkID:  c.ChunkID,
			Snippet:  c.Text,
			Section:  c.Section,
		}
	}
	return out
}
