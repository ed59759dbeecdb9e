package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// Memory is an in-process Store used by tests and local development so
// suites don't require a running Qdrant instance.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Point // collection -> point id -> point
	order       map[string][]string         // collection -> insertion order, for stable scroll cursors
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]Point),
		order:       make(map[string][]string),
	}
}

func (m *Memory) EnsureCollection(_ context.Context, name string, _ int, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; !ok {
		m.collections[name] = make(map[string]Point)
	}
	return nil
}

func (m *Memory) Upsert(_ context.Context, name string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[name]
	if !ok {
		coll = make(map[string]Point)
		m.collections[name] = coll
	}
	for _, p := range points {
		if _, exists := coll[p.ID]; !exists {
			m.order[name] = append(m.order[name], p.ID)
		}
		coll[p.ID] = p
	}
	return nil
}

func (m *Memory) Search(_ context.Context, name string, vector []float32, filter Filter, topK int) ([]ScoredPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if topK <= 0 {
		topK = 10
	}
	coll := m.collections[name]

	scored := make([]ScoredPoint, 0, len(coll))
	for _, p := range coll {
		if !filter.Matches(p.Payload) {
			continue
		}
		scored = append(scored, ScoredPoint{Point: p, Score: cosineSimilarity(vector, p.Vector)})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func (m *Memory) Scroll(_ context.Context, name string, filter Filter, limit int, cursor string) ([]Point, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	ids := m.order[name]
	coll := m.collections[name]

	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}

	var out []Point
	next := ""
	for i := start; i < len(ids); i++ {
		p, ok := coll[ids[i]]
		if !ok || !filter.Matches(p.Payload) {
			continue
		}
		if len(out) == limit {
			next = ids[i-1]
			return out, next, nil
		}
		out = append(out, p)
	}
	return out, "", nil
}

func (m *Memory) Delete(_ context.Context, name string, filter Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[name]
	if !ok {
		return nil
	}
	var remainingOrder []string
	for _, id := range m.order[name] {
		p, exists := coll[id]
		if exists && filter.Matches(p.Payload) {
			delete(coll, id)
			continue
		}
		remainingOrder = append(remainingOrder, id)
	}
	m.order[name] = remainingOrder
	return nil
}

func (m *Memory) Close() error { return nil }

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
