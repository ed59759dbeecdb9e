// Package ingestworker implements the Ingestion Worker (C17): the pipeline
// state machine that turns one queued document into persisted chunks,
// vectors, and enrichment artifacts.
package ingestworker

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"ragcore/internal/chunking"
	"ragcore/internal/convert"
	"ragcore/internal/embedding"
	"ragcore/internal/language"
	"ragcore/internal/llmprovider"
	"ragcore/internal/logging"
	"ragcore/internal/objectstore"
	"ragcore/internal/qagen"
	"ragcore/internal/retrieval"
	"ragcore/internal/rerrors"
	"ragcore/internal/summarize"
	"ragcore/internal/tree"
	"ragcore/internal/vectorstore"
)

// Collections names the three vector collections a Worker writes to.
type Collections struct {
	Chunks    string
	Summaries string
	QA        string
}

// Converter produces unified Markdown plus structure from a raw document.
// *convert.Converter satisfies this.
type Converter interface {
	Convert(ctx context.Context, path, originalFilename, mimeType string) (convert.Result, error)
}

// DocumentStore is the relational persistence surface ProcessDocument and
// document deletion depend on. *store.Store satisfies this.
type DocumentStore interface {
	MarkStarted(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID, summary, language string, multilingual bool, tags []string, chunkCount, vectorCount, qaCount int) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	PutChunks(ctx context.Context, documentID uuid.UUID, chunks []chunking.Chunk) error
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

// Worker wires every stage C5 through C11 behind one ProcessDocument call.
type Worker struct {
	Objects       objectstore.ObjectStore
	Store         DocumentStore
	Vectors       vectorstore.Store
	Converter     Converter
	ChunkOrch     chunking.Orchestrator
	Embedder      embedding.Embedder
	Provider      llmprovider.Provider
	Model         string
	ChunkStrategy string
	ChunkCfg      chunking.Config
	SummaryCfg    summarize.Config
	QACfg         qagen.Config
	Collections   Collections
}

// ProcessDocument drives one document through C5→C6→C7→C8→C9→C4→C10→C11,
// marking the document COMPLETED or FAILED in the relational store. When a
// pipeline stage fails, the FAILED status is persisted before the error is
// returned, and the queue message should be acknowledged without requeue
// (§4.17 rule 4). When a store call (MarkStarted, MarkFailed, MarkCompleted)
// fails, that error is returned and no terminal status may have been
// persisted.
func (w *Worker) ProcessDocument(ctx context.Context, documentID uuid.UUID, objectKey, originalFilename, mimeType string) error {
	if err := w.Store.MarkStarted(ctx, documentID); err != nil {
		return rerrors.Database("mark document started failed", err)
	}

	result, err := w.runPipeline(ctx, documentID, objectKey, originalFilename, mimeType)
	if err != nil {
		logging.Log.WithField("document_id", documentID).WithField("error", err).Error("ingestion failed")
		if markErr := w.Store.MarkFailed(ctx, documentID, err.Error()); markErr != nil {
			return rerrors.Database("mark document failed status failed", markErr)
		}
		return err
	}

	if err := w.Store.MarkCompleted(ctx, documentID, result.summary, result.language, result.multilingual,
		nil, len(result.chunks), len(result.chunks), len(result.qaPairs)); err != nil {
		return rerrors.Database("mark document completed failed", err)
	}
	return nil
}

// DeleteDocument cascades a document delete across the relational store and
// every vector collection it may have populated. The relational delete runs
// first and its failure aborts the whole call, since a surviving document
// row means the document was never really deleted; each vector collection
// delete that follows is best-effort and log-and-continue (§7), so one
// collection's failure does not block the others.
func (w *Worker) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	if err := w.Store.DeleteDocument(ctx, documentID); err != nil {
		return rerrors.Database("delete document failed", err)
	}

	filter := vectorstore.Filter{Must: []vectorstore.Predicate{{Field: "document_id", Eq: documentID.String()}}}
	for _, collection := range []string{w.Collections.Chunks, w.Collections.Summaries, w.Collections.QA} {
		if collection == "" {
			continue
		}
		if err := w.Vectors.Delete(ctx, collection, filter); err != nil {
			logging.Log.WithField("document_id", documentID).WithField("collection", collection).
				WithField("error", err).Error("vector delete failed during document cascade")
		}
	}
	return nil
}

type pipelineResult struct {
	chunks       []chunking.Chunk
	qaPairs      []qagen.Pair
	summary      string
	language     string
	multilingual bool
}

func (w *Worker) runPipeline(ctx context.Context, documentID uuid.UUID, objectKey, originalFilename, mimeType string) (pipelineResult, error) {
	localPath, cleanup, err := w.fetchToTemp(ctx, objectKey)
	if err != nil {
		return pipelineResult{}, rerrors.DocumentProcessing("convert", "fetching source object failed", err)
	}
	defer cleanup()

	// C5: convert.
	converted, err := w.Converter.Convert(ctx, localPath, originalFilename, mimeType)
	if err != nil {
		return pipelineResult{}, err
	}

	// C6: tree.
	doc := tree.Build(converted.Markdown, converted.Structure)

	// C7: language.
	lang := language.Detect(doc.Text)

	// C8: summarize.
	summary, err := summarize.Summarize(ctx, w.Provider, w.Model, doc, w.SummaryCfg)
	if err != nil {
		return pipelineResult{}, err
	}

	// C9: qagen.
	qaPairs, err := qagen.Generate(ctx, w.Provider, w.Model, doc, w.QACfg)
	if err != nil {
		return pipelineResult{}, err
	}

	// C4 (C1/C2/C3): chunk.
	chunks := w.ChunkOrch.Chunk(doc.Text, w.ChunkStrategy, w.ChunkCfg)

	// C10: embed every chunk, plus the summary and each Q&A pair.
	chunkTexts := make([]string, len(chunks))
	for i, c := range chunks {
		chunkTexts[i] = c.Text
	}
	chunkVectors, err := w.Embedder.EmbedBatch(ctx, chunkTexts)
	if err != nil {
		return pipelineResult{}, err
	}

	var summaryVectors [][]float32
	if summary != "" {
		summaryVectors, err = w.Embedder.EmbedBatch(ctx, []string{summary})
		if err != nil {
			return pipelineResult{}, err
		}
	}

	qaTexts := make([]string, len(qaPairs))
	for i, p := range qaPairs {
		qaTexts[i] = p.Question
	}
	qaVectors, err := w.Embedder.EmbedBatch(ctx, qaTexts)
	if err != nil {
		return pipelineResult{}, err
	}

	// C11: persist vectors.
	if err := w.upsertChunks(ctx, documentID, chunks, chunkVectors); err != nil {
		return pipelineResult{}, err
	}
	if len(summaryVectors) > 0 {
		if err := w.upsertSummary(ctx, documentID, summary, summaryVectors[0]); err != nil {
			return pipelineResult{}, err
		}
	}
	if err := w.upsertQA(ctx, documentID, qaPairs, qaVectors); err != nil {
		return pipelineResult{}, err
	}

	if err := w.Store.PutChunks(ctx, documentID, chunks); err != nil {
		return pipelineResult{}, err
	}

	return pipelineResult{
		chunks:       chunks,
		qaPairs:      qaPairs,
		summary:      summary,
		language:     lang.Primary,
		multilingual: lang.IsMultilingual,
	}, nil
}

func (w *Worker) fetchToTemp(ctx context.Context, objectKey string) (string, func(), error) {
	rc, _, err := w.Objects.Get(ctx, objectKey)
	if err != nil {
		return "", func() {}, err
	}
	defer rc.Close()

	f, err := os.CreateTemp("", "ingest-*")
	if err != nil {
		return "", func() {}, err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", func() {}, err
	}
	f.Close()
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

func (w *Worker) upsertChunks(ctx context.Context, documentID uuid.UUID, chunks []chunking.Chunk, vectors [][]float32) error {
	if err := w.Vectors.EnsureCollection(ctx, w.Collections.Chunks, w.Embedder.Dimension(), vectorstore.MetricCosine); err != nil {
		return rerrors.Retrieval("ensure chunks collection failed", err)
	}
	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		var parentID string
		if c.ParentIndex != nil {
			parentID = fmt.Sprintf("%d", *c.ParentIndex)
		}
		points[i] = vectorstore.Point{
			ID:     fmt.Sprintf("%s-chunk-%d", documentID, c.Index),
			Vector: vectors[i],
			Payload: map[string]any{
				"document_id":    documentID.String(),
				"content_type":   retrieval.ContentTypeChunk,
				"text":           c.Text,
				"section":        c.SectionTitle,
				"hierarchy_path": c.HierarchyPath,
				"chunk_index":    c.Index,
				"chunk_type":     c.Type,
				"parent_id":      parentID,
			},
		}
	}
	if len(points) == 0 {
		return nil
	}
	if err := w.Vectors.Upsert(ctx, w.Collections.Chunks, points); err != nil {
		return rerrors.Retrieval("upsert chunk vectors failed", err)
	}
	return nil
}

func (w *Worker) upsertSummary(ctx context.Context, documentID uuid.UUID, summary string, vector []float32) error {
	if err := w.Vectors.EnsureCollection(ctx, w.Collections.Summaries, w.Embedder.Dimension(), vectorstore.MetricCosine); err != nil {
		return rerrors.Retrieval("ensure summaries collection failed", err)
	}
	point := vectorstore.Point{
		ID:     fmt.Sprintf("%s-summary", documentID),
		Vector: vector,
		Payload: map[string]any{
			"document_id":  documentID.String(),
			"content_type": retrieval.ContentTypeSummary,
			"text":         summary,
		},
	}
	if err := w.Vectors.Upsert(ctx, w.Collections.Summaries, []vectorstore.Point{point}); err != nil {
		return rerrors.Retrieval("upsert summary vector failed", err)
	}
	return nil
}

func (w *Worker) upsertQA(ctx context.Context, documentID uuid.UUID, pairs []qagen.Pair, vectors [][]float32) error {
	if len(pairs) == 0 {
		return nil
	}
	if err := w.Vectors.EnsureCollection(ctx, w.Collections.QA, w.Embedder.Dimension(), vectorstore.MetricCosine); err != nil {
		return rerrors.Retrieval("ensure qa collection failed", err)
	}
	points := make([]vectorstore.Point, len(pairs))
	for i, p := range pairs {
		points[i] = vectorstore.Point{
			ID:     fmt.Sprintf("%s-qa-%d", documentID, i),
			Vector: vectors[i],
			Payload: map[string]any{
				"document_id":  documentID.String(),
				"content_type": retrieval.ContentTypeQuestion,
				"text":         p.Question,
				"answer":       p.Answer,
				"qa_type":      p.Type,
			},
		}
	}
	if err := w.Vectors.Upsert(ctx, w.Collections.QA, points); err != nil {
		return rerrors.Retrieval("upsert qa vectors failed", err)
	}
	return nil
}
