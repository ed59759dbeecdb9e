package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ragcore/internal/rerrors"
)

type QueryStatus string

const (
	QueryPending   QueryStatus = "pending"
	QueryRunning   QueryStatus = "running"
	QueryCompleted QueryStatus = "completed"
	QueryFailed    QueryStatus = "failed"
)

// Citation is one 1-indexed entry in a Query's answer. ChunkID references
// the vector point the citation was drawn from, not a relational chunk
// row: the two ID spaces are distinct (§4.16).
type Citation struct {
	Position int    `json:"position"`
	ChunkID  string `json:"chunk_id"`
	Snippet  string `json:"snippet"`
	Section  string `json:"section"`
}

// IterationDebug records one pass of the agentic query loop (spec §4.15).
type IterationDebug struct {
	Iteration           int    `json:"iteration"`
	CandidatesBeforeFusion int `json:"candidates_before_fusion"`
	CandidatesBeforeRerank int `json:"candidates_before_rerank"`
	CandidatesAfterRerank  int `json:"candidates_after_rerank"`
	Decision            string `json:"decision"`
	LatencyMs           int64  `json:"latency_ms"`
}

type Query struct {
	ID              uuid.UUID
	QueryText       string
	DocumentFilter  []uuid.UUID
	Status          QueryStatus
	AnswerText      string
	Citations       []Citation
	Debug           []IterationDebug
	TotalLatencyMs  int64
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

func (s *Store) CreateQuery(ctx context.Context, q Query) (uuid.UUID, error) {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO queries (id, query_text, document_filter, status)
VALUES ($1, $2, $3, $4)`,
		q.ID, q.QueryText, q.DocumentFilter, QueryPending)
	if err != nil {
		return uuid.Nil, rerrors.Database("insert query failed", err)
	}
	return q.ID, nil
}

// CompleteQuery stamps the final answer, citations, and per-iteration debug
// trail. A Query is mutated exactly once, to a terminal state.
func (s *Store) CompleteQuery(ctx context.Context, id uuid.UUID, status QueryStatus, answer string, citations []Citation, debug []IterationDebug, totalLatencyMs int64) error {
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return rerrors.Internal("marshal citations failed", err)
	}
	debugJSON, err := json.Marshal(debug)
	if err != nil {
		return rerrors.Internal("marshal debug trail failed", err)
	}

	_, err = s.pool.Exec(ctx, `
UPDATE queries SET
    status = $2, answer_text = $3, citations = $4, debug = $5,
    total_latency_ms = $6, completed_at = NOW()
WHERE id = $1`,
		id, status, answer, citationsJSON, debugJSON, totalLatencyMs)
	if err != nil {
		return rerrors.Database("complete query failed", err)
	}
	return nil
}

func (s *Store) GetQuery(ctx context.Context, id uuid.UUID) (Query, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, query_text, document_filter, status, answer_text, citations, debug,
       total_latency_ms, created_at, completed_at
FROM queries WHERE id = $1`, id)
	return scanQuery(row)
}

func scanQuery(row pgx.Row) (Query, error) {
	var q Query
	var citationsJSON, debugJSON []byte
	if err := row.Scan(&q.ID, &q.QueryText, &q.DocumentFilter, &q.Status, &q.AnswerText,
		&citationsJSON, &debugJSON, &q.TotalLatencyMs, &q.CreatedAt, &q.CompletedAt); err != nil {
		if err == pgx.ErrNoRows {
			return Query{}, rerrors.NotFound("query", "")
		}
		return Query{}, err
	}
	if len(citationsJSON) > 0 {
		if err := json.Unmarshal(citationsJSON, &q.Citations); err != nil {
			return Query{}, err
		}
	}
	if len(debugJSON) > 0 {
		if err := json.Unmarshal(debugJSON, &q.Debug); err != nil {
			return Query{}, err
		}
	}
	return q, nil
}
