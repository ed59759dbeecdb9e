// Package retrieval implements the Hybrid Retriever (C13): four ranked
// queries (vector-chunks, vector-summaries, vector-qa, BM25-chunks) fused
// with Reciprocal Rank Fusion, plus a per-request provenance record.
package retrieval

import (
	"context"
	"sort"

	"ragcore/internal/sparse"
	"ragcore/internal/vectorstore"
)

// ContentType discriminants stamped on every vector point payload.
const (
	ContentTypeChunk    = "chunk"
	ContentTypeSummary  = "summary"
	ContentTypeQuestion = "question"
	ContentTypeAnswer   = "answer"
)

// Candidate is one retrieved item, already dereferenced from its source
// payload, before rerank.
type Candidate struct {
	ID            string
	DocumentID    string
	ChunkIndex    int
	Text          string
	Section       string
	HierarchyPath string
	ContentType   string
	Score         float64
}

// Provenance counts contributions from each retrieval source, per spec
// §4.13.
type Provenance struct {
	VectorChunks    int
	VectorSummaries int
	VectorQA        int
	KeywordBM25     int
	AfterMerge      int
}

// Request bundles the inputs to one hybrid retrieval call.
type Request struct {
	QueryEmbedding  []float32
	QueryText       string
	TopK            int
	DocumentFilter  []string
	ChunksCollection   string
	SummaryCollection  string
	QACollection       string
	RRFK            int
}

// Retriever runs the four ranked queries and fuses them.
type Retriever struct {
	Vectors vectorstore.Store
	Sparse  *sparse.Index
}

func documentFilter(docIDs []string) vectorstore.Filter {
	if len(docIDs) == 0 {
		return vectorstore.Filter{}
	}
	values := make([]any, len(docIDs))
	for i, id := range docIDs {
		values[i] = id
	}
	return vectorstore.Filter{Must: []vectorstore.Predicate{{Field: "document_id", In: values}}}
}

// Retrieve runs vector-over-chunks (top_k), vector-over-summaries (5),
// vector-over-Q&A (5), and BM25-over-chunks (top_k), then fuses all four
// ranked lists via RRF. BM25 hits raise the fused score of ids that a vector
// search also returned; an id returned only by BM25 is dropped from the
// result and is not counted in AfterMerge, because sparse.Result carries no
// payload to build a Candidate from.
func (r *Retriever) Retrieve(ctx context.Context, req Request) ([]Candidate, Provenance, error) {
	filter := documentFilter(req.DocumentFilter)
	rrfK := req.RRFK
	if rrfK <= 0 {
		rrfK = 60
	}

	vecChunks, err := r.Vectors.Search(ctx, req.ChunksCollection, req.QueryEmbedding, filter, req.TopK)
	if err != nil {
		return nil, Provenance{}, err
	}
	vecSummaries, err := r.Vectors.Search(ctx, req.SummaryCollection, req.QueryEmbedding, filter, 5)
	if err != nil {
		return nil, Provenance{}, err
	}
	vecQA, err := r.Vectors.Search(ctx, req.QACollection, req.QueryEmbedding, filter, 5)
	if err != nil {
		return nil, Provenance{}, err
	}

	var bm25 []sparse.Result
	if r.Sparse != nil {
		bm25 = r.Sparse.Search(req.QueryText, req.TopK)
	}

	lists := []rankedList{
		scoredPointsToList(vecChunks),
		scoredPointsToList(vecSummaries),
		scoredPointsToList(vecQA),
		bm25ResultsToList(bm25),
	}

	fusedIDs := FuseRRF(lists, rrfK)

	byID := make(map[string]Candidate, len(fusedIDs))
	for _, p := range vecChunks {
		byID[p.ID] = candidateFromPoint(p.Point)
	}
	for _, p := range vecSummaries {
		if _, ok := byID[p.ID]; !ok {
			byID[p.ID] = candidateFromPoint(p.Point)
		}
	}
	for _, p := range vecQA {
		if _, ok := byID[p.ID]; !ok {
			byID[p.ID] = candidateFromPoint(p.Point)
		}
	}
	for _, res := range bm25 {
		if c, ok := byID[res.ID]; ok {
			byID[res.ID] = c
		}
	}

	out := make([]Candidate, 0, len(fusedIDs))
	for _, fid := range fusedIDs {
		c, ok := byID[fid.id]
		if !ok {
			continue
		}
		c.Score = fid.score
		out = append(out, c)
	}
	if req.TopK > 0 && len(out) > req.TopK {
		out = out[:req.TopK]
	}

	provenance := Provenance{
		VectorChunks:    len(vecChunks),
		VectorSummaries: len(vecSummaries),
		VectorQA:        len(vecQA),
		KeywordBM25:     len(bm25),
		AfterMerge:      len(out),
	}
	return out, provenance, nil
}

func candidateFromPoint(p vectorstore.Point) Candidate {
	c := Candidate{ID: p.ID}
	if v, ok := p.Payload["document_id"].(string); ok {
		c.DocumentID = v
	}
	if v, ok := p.Payload["text"].(string); ok {
		c.Text = v
	}
	if v, ok := p.Payload["section"].(string); ok {
		c.Section = v
	}
	if v, ok := p.Payload["hierarchy_path"].(string); ok {
		c.HierarchyPath = v
	}
	if v, ok := p.Payload["content_type"].(string); ok {
		c.ContentType = v
	}
	if v, ok := p.Payload["chunk_index"].(int); ok {
		c.ChunkIndex = v
	}
	return c
}

type rankedList []string // ids, 1-indexed by position

func scoredPointsToList(points []vectorstore.ScoredPoint) rankedList {
	ids := make(rankedList, len(points))
	for i, p := range points {
		ids[i] = p.ID
	}
	return ids
}

func bm25ResultsToList(results []sparse.Result) rankedList {
	ids := make(rankedList, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

type fusedID struct {
	id    string
	score float64
}

// FuseRRF sums 1/(k+rank) contributions for each id across every ranked
// list, then sorts the union descending by fused score. A ranked id that
// appears in a better rank in any list, with all other lists unchanged,
// never sees its fused score decrease.
func FuseRRF(lists []rankedList, k int) []fusedID {
	scores := make(map[string]float64)
	order := make([]string, 0)
	seen := make(map[string]bool)

	for _, list := range lists {
		for rank, id := range list {
			if id == "" {
				continue
			}
			scores[id] += 1.0 / float64(k+rank+1)
			if !seen[id] {
				seen[id] = true
				order = append(order, id)
			}
		}
	}

	out := make([]fusedID, 0, len(order))
	for _, id := range order {
		out = append(out, fusedID{id: id, score: scores[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].id < out[j].id
	})
	return out
}
