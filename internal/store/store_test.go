package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"ragcore/internal/chunking"
)

// requires a live Postgres; skipped unless DATABASE_URL is set.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := NewPool(context.Background(), dsn)
	require.NoError(t, err)
	st := NewStore(pool)
	require.NoError(t, st.Init(context.Background()))
	return st
}

func TestDocumentLifecycle(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	doc := Document{Filename: "report.pdf", MimeType: "application/pdf", ByteSize: 1024}
	require.NoError(t, st.CreateDocument(ctx, doc))

	got, err := st.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, DocumentPending, got.Status)

	require.NoError(t, st.MarkStarted(ctx, doc.ID))
	require.NoError(t, st.MarkCompleted(ctx, doc.ID, "a summary", "en", false, []string{"finance"}, 10, 10, 5))

	got, err = st.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, DocumentCompleted, got.Status)
	require.Equal(t, 10, got.ChunkCount)

	require.NoError(t, st.DeleteDocument(ctx, doc.ID))
	_, err = st.GetDocument(ctx, doc.ID)
	require.Error(t, err)
}

func TestPutChunksResolvesParentIndex(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	doc := Document{Filename: "doc.md", MimeType: "text/markdown", ByteSize: 100}
	require.NoError(t, st.CreateDocument(ctx, doc))

	parentIdx := 0
	chunks := []chunking.Chunk{
		{Index: 0, Text: "parent summary", Type: chunking.TypeParent, Strategy: chunking.StrategyHierarchical},
		{Index: 1, Text: "child one", Type: chunking.TypeChild, Strategy: chunking.StrategyHierarchical, ParentIndex: &parentIdx},
	}
	require.NoError(t, st.PutChunks(ctx, doc.ID, chunks))

	rows, err := st.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Nil(t, rows[0].ParentID)
	require.NotNil(t, rows[1].ParentID)
	require.Equal(t, rows[0].ID, *rows[1].ParentID)

	require.NoError(t, st.DeleteDocument(ctx, doc.ID))
}

func TestQueryLifecycle(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	id, err := st.CreateQuery(ctx, Query{QueryText: "what is the refund policy?"})
	require.NoError(t, err)

	citations := []Citation{{Position: 1, ChunkID: uuid.New().String(), Snippet: "...", Section: "Refunds"}}
	debug := []IterationDebug{{Iteration: 1, Decision: "proceed"}}
	require.NoError(t, st.CompleteQuery(ctx, id, QueryCompleted, "answer text [1]", citations, debug, 420))

	got, err := st.GetQuery(ctx, id)
	require.NoError(t, err)
	require.Equal(t, QueryCompleted, got.Status)
	require.Len(t, got.Citations, 1)
	require.Equal(t, "Refunds", got.Citations[0].Section)
}
