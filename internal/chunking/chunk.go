// Package chunking implements the Simple, Semantic, and Hierarchical chunk
// strategies (C3) behind a common contract, plus the orchestrator (C4) that
// auto-selects among them from document size and structure.
package chunking

import (
	"ragcore/internal/logging"
	"ragcore/internal/tokenizer"
)

// Strategy names recognized by the orchestrator and stamped on every chunk.
const (
	StrategySimple       = "simple"
	StrategySemantic     = "semantic"
	StrategyHierarchical = "hierarchical"
)

// Chunk type discriminants.
const (
	TypeStandalone = "standalone"
	TypeParent     = "parent"
	TypeChild      = "child"
)

// Chunk is a unit of retrievable text produced by a strategy.
type Chunk struct {
	Index         int
	Text          string
	TokenCount    int
	HierarchyPath string // ancestor section titles joined by " > "; empty for unstructured
	SectionTitle  string
	Strategy      string
	Type          string
	ParentIndex   *int // set when Type == TypeChild
	ParentSummary string
	HasOverlap    bool
	OverlapTokens int
	TokenStart    int
	TokenEnd      int
}

// Config carries every tunable named in spec §6 that affects chunk
// strategies.
type Config struct {
	ChunkSize                 int
	ChunkOverlap              int
	MinChunkSize              int
	MaxChunkSize              int
	ParentChunkMultiplier     int
	ParentSummaryMaxLength    int
	SemanticOverlapEnabled    bool
	SemanticOverlapTokens     int
	HierarchicalThresholdChar int
	SemanticThresholdChar     int
	MinHeadersForSemantic     int
}

// Strategy turns text into chunks under a common signature.
type Strategy interface {
	Chunk(text string, cfg Config) []Chunk
}

// warnOutOfBounds logs a warning for every chunk whose size falls outside
// [min_chunk_size, max_chunk_size], matching the shared base behavior all
// three strategies rely on. Parent chunks are exempt from the minimum check.
func warnOutOfBounds(strategy string, chunks []Chunk, cfg Config) {
	log := logging.Log.WithField("component", "chunking").WithField("strategy", strategy)
	log.WithField("count", len(chunks)).Info("chunking complete")
	for _, c := range chunks {
		if cfg.MinChunkSize > 0 && c.TokenCount < cfg.MinChunkSize && c.Type != TypeParent {
			log.WithField("chunk_index", c.Index).WithField("tokens", c.TokenCount).
				Warn("chunk below min_chunk_size")
		}
		if cfg.MaxChunkSize > 0 && c.TokenCount > cfg.MaxChunkSize {
			log.WithField("chunk_index", c.Index).WithField("tokens", c.TokenCount).
				Warn("chunk exceeds max_chunk_size")
		}
	}
}

// splitAtSentenceBoundaries breaks text into pieces of at most maxTokens,
// cutting only at sentence ends. A single sentence longer than maxTokens
// becomes its own piece and is not cut further. Used by the Semantic
// strategy when a single section exceeds chunk_size.
func splitAtSentenceBoundaries(tok *tokenizer.Tokenizer, text string, maxTokens int) []string {
	sentences := sentencesOf(text)
	if len(sentences) == 0 {
		return nil
	}
	var out []string
	var cur string
	curTokens := 0
	for _, s := range sentences {
		st := tok.Count(s)
		if curTokens > 0 && curTokens+st > maxTokens {
			out = append(out, cur)
			cur = s
			curTokens = st
			continue
		}
		if cur == "" {
			cur = s
		} else {
			cur = cur + " " + s
		}
		curTokens += st
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}
