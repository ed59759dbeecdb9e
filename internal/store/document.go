package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ragcore/internal/rerrors"
)

// DocumentStatus is the lifecycle state of an ingested Document.
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
)

// Document is the primary ingest entity (spec §3).
type Document struct {
	ID              uuid.UUID
	Filename        string
	MimeType        string
	ByteSize        int64
	UploadedAt      time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	Status          DocumentStatus
	ChunkCount      int
	VectorCount     int
	QACount         int
	PrimaryLanguage string
	Multilingual    bool
	Summary         string
	Tags            []string
	ErrorMessage    string
}

// Store is relational persistence for Documents, Chunks, and Queries.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an already-connected pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Init creates the schema if it does not already exist. Safe to call on
// every startup.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS documents (
    id UUID PRIMARY KEY,
    filename TEXT NOT NULL,
    mime_type TEXT NOT NULL,
    byte_size BIGINT NOT NULL,
    uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    started_at TIMESTAMPTZ,
    completed_at TIMESTAMPTZ,
    status TEXT NOT NULL DEFAULT 'pending',
    chunk_count INTEGER NOT NULL DEFAULT 0,
    vector_count INTEGER NOT NULL DEFAULT 0,
    qa_count INTEGER NOT NULL DEFAULT 0,
    primary_language TEXT NOT NULL DEFAULT '',
    multilingual BOOLEAN NOT NULL DEFAULT FALSE,
    summary TEXT NOT NULL DEFAULT '',
    tags TEXT[] NOT NULL DEFAULT '{}',
    error_message TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS chunks (
    id UUID PRIMARY KEY,
    document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    chunk_index INTEGER NOT NULL,
    text TEXT NOT NULL,
    token_count INTEGER NOT NULL,
    hierarchy_path TEXT NOT NULL DEFAULT '',
    section_title TEXT NOT NULL DEFAULT '',
    strategy TEXT NOT NULL,
    chunk_type TEXT NOT NULL,
    parent_id UUID REFERENCES chunks(id) ON DELETE SET NULL,
    parent_summary TEXT NOT NULL DEFAULT '',
    has_overlap BOOLEAN NOT NULL DEFAULT FALSE,
    overlap_tokens INTEGER NOT NULL DEFAULT 0,
    token_start INTEGER NOT NULL DEFAULT 0,
    token_end INTEGER NOT NULL DEFAULT 0,
    UNIQUE(document_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS chunks_document_idx ON chunks(document_id);

CREATE TABLE IF NOT EXISTS queries (
    id UUID PRIMARY KEY,
    query_text TEXT NOT NULL,
    document_filter UUID[] NOT NULL DEFAULT '{}',
    status TEXT NOT NULL DEFAULT 'pending',
    answer_text TEXT NOT NULL DEFAULT '',
    citations JSONB NOT NULL DEFAULT '[]',
    debug JSONB NOT NULL DEFAULT '[]',
    total_latency_ms BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ
);
`)
	return err
}

func (s *Store) CreateDocument(ctx context.Context, doc Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO documents (id, filename, mime_type, byte_size, status)
VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.Filename, doc.MimeType, doc.ByteSize, DocumentPending)
	if err != nil {
		return rerrors.Database("insert document failed", err)
	}
	return nil
}

func (s *Store) MarkStarted(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
UPDATE documents SET status = $2, started_at = NOW() WHERE id = $1`,
		id, DocumentProcessing)
	return err
}

// MarkCompleted finalizes a successful ingestion run, stamping enrichment
// artifacts and derived counts in one statement.
func (s *Store) MarkCompleted(ctx context.Context, id uuid.UUID, summary, language string, multilingual bool, tags []string, chunkCount, vectorCount, qaCount int) error {
	_, err := s.pool.Exec(ctx, `
UPDATE documents SET
    status = $2, completed_at = NOW(), summary = $3, primary_language = $4,
    multilingual = $5, tags = $6, chunk_count = $7, vector_count = $8, qa_count = $9
WHERE id = $1`,
		id, DocumentCompleted, summary, language, multilingual, tags, chunkCount, vectorCount, qaCount)
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
UPDATE documents SET status = $2, completed_at = NOW(), error_message = $3 WHERE id = $1`,
		id, DocumentFailed, errMsg)
	return err
}

func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, filename, mime_type, byte_size, uploaded_at, started_at, completed_at,
       status, chunk_count, vector_count, qa_count, primary_language, multilingual,
       summary, tags, error_message
FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, filename, mime_type, byte_size, uploaded_at, started_at, completed_at,
       status, chunk_count, vector_count, qa_count, primary_language, multilingual,
       summary, tags, error_message
FROM documents ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// DeleteDocument removes the document row; ON DELETE CASCADE takes its
// chunks with it. Associated vector points live in a different store and
// must be deleted by the caller (see §7 on best-effort cross-store deletes).
func (s *Store) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return rerrors.Database("delete document failed", err)
	}
	if tag.RowsAffected() == 0 {
		return rerrors.NotFound("document", id.String())
	}
	return nil
}

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	if err := row.Scan(&d.ID, &d.Filename, &d.MimeType, &d.ByteSize, &d.UploadedAt,
		&d.StartedAt, &d.CompletedAt, &d.Status, &d.ChunkCount, &d.VectorCount, &d.QACount,
		&d.PrimaryLanguage, &d.Multilingual, &d.Summary, &d.Tags, &d.ErrorMessage); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, rerrors.NotFound("document", "")
		}
		return Document{}, err
	}
	return d, nil
}
