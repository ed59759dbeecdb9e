package ingestworker

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragcore/internal/chunking"
	"ragcore/internal/convert"
	"ragcore/internal/llmprovider"
	"ragcore/internal/objectstore"
	"ragcore/internal/qagen"
	"ragcore/internal/summarize"
	"ragcore/internal/tokenizer"
	"ragcore/internal/vectorstore"
)

// fakeConverter ignores the source file entirely and always returns the
// same plain-text document, with no headers so both the summarizer and the
// Q&A generator take their single-call paths deterministically.
type fakeConverter struct{ text string }

func (f fakeConverter) Convert(_ context.Context, _, _, _ string) (convert.Result, error) {
	return convert.Result{Markdown: f.text}, nil
}

// fakeEmbedder returns a fixed-dimension vector for any input.
type fakeEmbedder struct{}

func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{0.1, 0.2, 0.3}
	}
	return vecs, nil
}
func (fakeEmbedder) Name() string   { return "fake" }
func (fakeEmbedder) Dimension() int { return 3 }

// fakeStore is a minimal in-memory DocumentStore recording every lifecycle
// call a test needs to assert on.
type fakeStore struct {
	mu         sync.Mutex
	started    []uuid.UUID
	completed  []uuid.UUID
	failed     []string
	deleted    []uuid.UUID
	chunkCount int
}

func (f *fakeStore) MarkStarted(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, id)
	return nil
}

func (f *fakeStore) MarkCompleted(_ context.Context, id uuid.UUID, _, _ string, _ bool, _ []string, chunkCount, _, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, id)
	f.chunkCount = chunkCount
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, _ uuid.UUID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, errMsg)
	return nil
}

func (f *fakeStore) PutChunks(_ context.Context, _ uuid.UUID, _ []chunking.Chunk) error {
	return nil
}

func (f *fakeStore) DeleteDocument(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestWorker(t *testing.T, st *fakeStore, vectors vectorstore.Store) *Worker {
	t.Helper()
	tok, err := tokenizer.New("cl100k_base")
	require.NoError(t, err)

	objects := objectstore.NewMemoryStore()
	_, err = objects.Put(context.Background(), "doc.txt",
		strings.NewReader("Refunds take 30 days. Contact support for help."), objectstore.PutOptions{})
	require.NoError(t, err)

	fake := &llmprovider.Fake{Responses: []string{
		"This document covers refund and support policy.", // summarize, single-pass
		`{"qa_pairs":[{"question":"How long do refunds take?","answer":"30 days","type":"factual"}]}`, // qagen, single-call
	}}

	return &Worker{
		Objects:       objects,
		Store:         st,
		Vectors:       vectors,
		Converter:     fakeConverter{text: "Refunds take 30 days. Contact support for help."},
		ChunkOrch:     chunking.Orchestrator{Tok: tok},
		Embedder:      fakeEmbedder{},
		Provider:      fake,
		Model:         "model",
		ChunkStrategy: chunking.StrategySimple,
		ChunkCfg:      chunking.Config{ChunkSize: 200, ChunkOverlap: 0},
		SummaryCfg:    summarize.Config{ShortDocThreshold: 100000, FinalSummaryMaxTokens: 200},
		QACfg:         qagen.Config{SmallMediumThreshold: 100000},
		Collections:   Collections{Chunks: "chunks", Summaries: "summaries", QA: "qa"},
	}
}

func TestProcessDocumentEndToEndMarksCompletedAndPersistsVectors(t *testing.T) {
	t.Parallel()
	st := &fakeStore{}
	vectors := vectorstore.NewMemory()
	w := newTestWorker(t, st, vectors)

	documentID := uuid.New()
	err := w.ProcessDocument(context.Background(), documentID, "doc.txt", "doc.txt", "text/plain")
	require.NoError(t, err)

	require.Len(t, st.started, 1)
	assert.Equal(t, documentID, st.started[0])
	require.Len(t, st.completed, 1)
	assert.Equal(t, documentID, st.completed[0])
	assert.Empty(t, st.failed)
	assert.Greater(t, st.chunkCount, 0)

	chunkPoints, _, err := vectors.Scroll(context.Background(), "chunks",
		vectorstore.Filter{Must: []vectorstore.Predicate{{Field: "document_id", Eq: documentID.String()}}}, 100, "")
	require.NoError(t, err)
	assert.NotEmpty(t, chunkPoints)

	summaryPoints, _, err := vectors.Scroll(context.Background(), "summaries",
		vectorstore.Filter{Must: []vectorstore.Predicate{{Field: "document_id", Eq: documentID.String()}}}, 100, "")
	require.NoError(t, err)
	assert.Len(t, summaryPoints, 1)

	qaPoints, _, err := vectors.Scroll(context.Background(), "qa",
		vectorstore.Filter{Must: []vectorstore.Predicate{{Field: "document_id", Eq: documentID.String()}}}, 100, "")
	require.NoError(t, err)
	assert.Len(t, qaPoints, 1)
}

func TestProcessDocumentMarksFailedWhenConversionErrors(t *testing.T) {
	t.Parallel()
	st := &fakeStore{}
	w := newTestWorker(t, st, vectorstore.NewMemory())
	w.Objects = objectstore.NewMemoryStore() // no "doc.txt" object put into this one

	documentID := uuid.New()
	err := w.ProcessDocument(context.Background(), documentID, "doc.txt", "doc.txt", "text/plain")
	require.Error(t, err)

	require.Len(t, st.started, 1)
	assert.Empty(t, st.completed)
	require.Len(t, st.failed, 1)
}

// TestDeleteDocumentCascadesToEveryVectorCollection covers the Deletion
// property: once a document is deleted, a document_id-filtered scroll over
// each of its collections returns zero points for it.
func TestDeleteDocumentCascadesToEveryVectorCollection(t *testing.T) {
	t.Parallel()
	st := &fakeStore{}
	vectors := vectorstore.NewMemory()
	w := newTestWorker(t, st, vectors)

	documentID := uuid.New()
	require.NoError(t, w.ProcessDocument(context.Background(), documentID, "doc.txt", "doc.txt", "text/plain"))

	otherDocumentID := uuid.New()
	require.NoError(t, w.upsertChunks(context.Background(), otherDocumentID,
		[]chunking.Chunk{{Index: 0, Text: "unrelated chunk"}}, [][]float32{{0.4, 0.5, 0.6}}))

	require.NoError(t, w.DeleteDocument(context.Background(), documentID))
	require.Len(t, st.deleted, 1)
	assert.Equal(t, documentID, st.deleted[0])

	for _, collection := range []string{"chunks", "summaries", "qa"} {
		points, _, err := vectors.Scroll(context.Background(), collection,
			vectorstore.Filter{Must: []vectorstore.Predicate{{Field: "document_id", Eq: documentID.String()}}}, 100, "")
		require.NoError(t, err)
		assert.Empty(t, points, "collection %s still has points for the deleted document", collection)
	}

	remaining, _, err := vectors.Scroll(context.Background(), "chunks",
		vectorstore.Filter{Must: []vectorstore.Predicate{{Field: "document_id", Eq: otherDocumentID.String()}}}, 100, "")
	require.NoError(t, err)
	assert.Len(t, remaining, 1, "unrelated document's vectors must survive the cascade delete")
}
