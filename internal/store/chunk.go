package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ragcore/internal/chunking"
	"ragcore/internal/rerrors"
)

// Chunk is the persisted row form of a chunking.Chunk, carrying the
// document-scoped identity and parent linkage the in-memory type only
// expresses as a slice index.
type Chunk struct {
	ID            uuid.UUID
	DocumentID    uuid.UUID
	Index         int
	Text          string
	TokenCount    int
	HierarchyPath string
	SectionTitle  string
	Strategy      string
	Type          string
	ParentID      *uuid.UUID
	ParentSummary string
	HasOverlap    bool
	OverlapTokens int
	TokenStart    int
	TokenEnd      int
}

// PutChunks persists the output of a chunking run in one transaction,
// translating each chunk's ParentIndex (a position in the slice) into the
// generated UUID of that slice element. Replaces any existing chunks for
// the document.
func (s *Store) PutChunks(ctx context.Context, documentID uuid.UUID, chunks []chunking.Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return rerrors.Database("begin chunk transaction failed", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return rerrors.Database("clear existing chunks failed", err)
	}

	ids := make([]uuid.UUID, len(chunks))
	for i := range chunks {
		ids[i] = uuid.New()
	}

	for i, c := range chunks {
		var parentID *uuid.UUID
		if c.ParentIndex != nil {
			if *c.ParentIndex < 0 || *c.ParentIndex >= len(ids) {
				return rerrors.Validation("chunk parent index out of range", nil).WithDetail("index", i)
			}
			parentID = &ids[*c.ParentIndex]
		}
		_, err := tx.Exec(ctx, `
INSERT INTO chunks (id, document_id, chunk_index, text, token_count, hierarchy_path,
    section_title, strategy, chunk_type, parent_id, parent_summary, has_overlap,
    overlap_tokens, token_start, token_end)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			ids[i], documentID, c.Index, c.Text, c.TokenCount, c.HierarchyPath,
			c.SectionTitle, c.Strategy, c.Type, parentID, c.ParentSummary, c.HasOverlap,
			c.OverlapTokens, c.TokenStart, c.TokenEnd)
		if err != nil {
			return rerrors.Database("insert chunk failed", err).WithDetail("chunk_index", c.Index)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return rerrors.Database("commit chunk transaction failed", err)
	}
	return nil
}

func (s *Store) ListChunks(ctx context.Context, documentID uuid.UUID) ([]Chunk, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, document_id, chunk_index, text, token_count, hierarchy_path, section_title,
       strategy, chunk_type, parent_id, parent_summary, has_overlap, overlap_tokens,
       token_start, token_end
FROM chunks WHERE document_id = $1 ORDER BY chunk_index`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetChunk(ctx context.Context, id uuid.UUID) (Chunk, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, document_id, chunk_index, text, token_count, hierarchy_path, section_title,
       strategy, chunk_type, parent_id, parent_summary, has_overlap, overlap_tokens,
       token_start, token_end
FROM chunks WHERE id = $1`, id)
	return scanChunk(row)
}

func scanChunk(row pgx.Row) (Chunk, error) {
	var c Chunk
	if err := row.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Text, &c.TokenCount, &c.HierarchyPath,
		&c.SectionTitle, &c.Strategy, &c.Type, &c.ParentID, &c.ParentSummary, &c.HasOverlap,
		&c.OverlapTokens, &c.TokenStart, &c.TokenEnd); err != nil {
		if err == pgx.ErrNoRows {
			return Chunk{}, rerrors.NotFound("chunk", "")
		}
		return Chunk{}, err
	}
	return c, nil
}
