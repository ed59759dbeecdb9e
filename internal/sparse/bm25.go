// Package sparse implements a whitespace-tokenized BM25 index (C12) over
// the chunk corpus, rebuildable on demand from the vector store's scroll
// API. No pack library provides a canonical BM25 implementation (see
// DESIGN.md); this is a stdlib-only in-memory scorer.
package sparse

import (
	"math"
	"sort"
	"strings"
)

// Result is one scored document from a BM25 query.
type Result struct {
	ID    string
	Score float64
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

type postingEntry struct {
	docIndex int
	freq     int
}

// Index is an in-memory BM25 index over a fixed corpus snapshot.
type Index struct {
	k1 float64
	b  float64

	ids       []string
	docLen    []int
	avgDocLen float64
	postings  map[string][]postingEntry
}

// New builds a BM25 index over documents, keyed by id -> text. k1 and b are
// the standard BM25 tuning parameters (commonly 1.2 and 0.75).
func New(documents map[string]string, k1, b float64) *Index {
	idx := &Index{
		k1:       k1,
		b:        b,
		postings: make(map[string][]postingEntry),
	}
	idx.ids = make([]string, 0, len(documents))
	idx.docLen = make([]int, 0, len(documents))

	totalLen := 0
	for id, text := range documents {
		docIndex := len(idx.ids)
		idx.ids = append(idx.ids, id)
		tokens := tokenize(text)
		idx.docLen = append(idx.docLen, len(tokens))
		totalLen += len(tokens)

		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		for tok, freq := range freqs {
			idx.postings[tok] = append(idx.postings[tok], postingEntry{docIndex: docIndex, freq: freq})
		}
	}
	if len(idx.ids) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(idx.ids))
	}
	return idx
}

// Size returns the number of documents in the index.
func (idx *Index) Size() int { return len(idx.ids) }

// Search scores every document containing at least one query token and
// returns the results sorted descending by score.
func (idx *Index) Search(query string, topK int) []Result {
	n := len(idx.ids)
	if n == 0 {
		return nil
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	scores := make(map[int]float64)
	seen := map[string]bool{}
	for _, term := range terms {
		if seen[term] {
			continue
		}
		seen[term] = true
		entries, ok := idx.postings[term]
		if !ok {
			continue
		}
		idf := math.Log(1 + (float64(n)-float64(len(entries))+0.5)/(float64(len(entries))+0.5))
		for _, e := range entries {
			dl := float64(idx.docLen[e.docIndex])
			denom := float64(e.freq) + idx.k1*(1-idx.b+idx.b*dl/idx.avgDocLen)
			scores[e.docIndex] += idf * (float64(e.freq) * (idx.k1 + 1) / denom)
		}
	}

	results := make([]Result, 0, len(scores))
	for docIndex, score := range scores {
		results = append(results, Result{ID: idx.ids[docIndex], Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
