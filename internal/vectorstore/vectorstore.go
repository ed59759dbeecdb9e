// Package vectorstore defines the pluggable vector store contract (C11):
// upsert/search/scroll/delete over named collections with payload filters,
// plus Qdrant and in-memory backends.
package vectorstore

import "context"

// Point is a (id, vector, payload) triple.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is a Point returned from a similarity search, carrying its
// cosine (or configured metric) score.
type ScoredPoint struct {
	Point
	Score float64
}

// Predicate is one equality or IN condition on a payload field. Exactly one
// of Eq or In should be set.
type Predicate struct {
	Field string
	Eq    any
	In    []any
}

// Filter is a conjunction (AND) of Predicates.
type Filter struct {
	Must []Predicate
}

// Matches reports whether payload satisfies every predicate in f. Used by
// the in-memory backend and by callers who need to evaluate a filter
// locally (e.g. the sparse index rebuild).
func (f Filter) Matches(payload map[string]any) bool {
	for _, p := range f.Must {
		v, ok := payload[p.Field]
		if !ok {
			return false
		}
		if p.Eq != nil {
			if v != p.Eq {
				return false
			}
			continue
		}
		if len(p.In) > 0 {
			found := false
			for _, candidate := range p.In {
				if v == candidate {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// Store is the contract every vector store backend satisfies.
type Store interface {
	// EnsureCollection is idempotent: repeated calls with the same
	// parameters do not alter an existing collection.
	EnsureCollection(ctx context.Context, name string, dim int, metric string) error

	// Upsert writes points in one batch, all-or-nothing.
	Upsert(ctx context.Context, name string, points []Point) error

	// Search runs cosine (or configured-metric) similarity search, limited
	// to points whose payload satisfies filter.
	Search(ctx context.Context, name string, vector []float32, filter Filter, topK int) ([]ScoredPoint, error)

	// Scroll paginates over every point matching filter. An empty cursor
	// starts from the beginning; an empty returned cursor means the
	// enumeration is exhausted.
	Scroll(ctx context.Context, name string, filter Filter, limit int, cursor string) (points []Point, nextCursor string, err error)

	// Delete removes every point matching filter.
	Delete(ctx context.Context, name string, filter Filter) error

	Close() error
}

// Metric name constants recognized by EnsureCollection.
const (
	MetricCosine    = "cosine"
	MetricL2        = "l2"
	MetricDot       = "dot"
	MetricManhattan = "manhattan"
)
