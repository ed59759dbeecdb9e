package chunking

import (
	"ragcore/internal/logging"
	"ragcore/internal/markdown"
	"ragcore/internal/tokenizer"
)

// Orchestrator routes to a Strategy, auto-selecting one from document size
// and structure when the configured strategy name is "auto" or empty. An
// unknown name falls back to the Simple strategy.
type Orchestrator struct {
	Tok *tokenizer.Tokenizer
}

// AutoSelectStrategy is a pure function of (len(text), header_count,
// thresholds) — see spec §4.4 and the testable "auto-strategy determinism"
// property.
func AutoSelectStrategy(textLen, headerCount int, cfg Config) string {
	switch {
	case textLen > cfg.HierarchicalThresholdChar:
		return StrategyHierarchical
	case headerCount >= cfg.MinHeadersForSemantic && textLen > cfg.SemanticThresholdChar:
		return StrategySemantic
	case headerCount >= cfg.MinHeadersForSemantic && textLen > 3000:
		return StrategySemantic
	default:
		return StrategySimple
	}
}

// Chunk dispatches text to the named strategy (or auto-selects one),
// falling back to Simple with a warning for unrecognized names.
func (o Orchestrator) Chunk(text, strategyName string, cfg Config) []Chunk {
	name := strategyName
	if name == "" || name == "auto" {
		name = AutoSelectStrategy(len(text), markdown.HeaderCount(text), cfg)
	}

	switch name {
	case StrategySimple:
		return Simple{Tok: o.Tok}.Chunk(text, cfg)
	case StrategySemantic:
		return Semantic{Tok: o.Tok}.Chunk(text, cfg)
	case StrategyHierarchical:
		return Hierarchical{Tok: o.Tok}.Chunk(text, cfg)
	default:
		logging.Log.WithField("component", "chunking").
			WithField("strategy", name).Warn("unknown chunking strategy, falling back to simple")
		return Simple{Tok: o.Tok}.Chunk(text, cfg)
	}
}
