package chunking

import "ragcore/internal/tokenizer"

// Simple slides a token window of chunk_size over the input, advancing by
// chunk_size - chunk_overlap each step. hierarchy_path is always empty.
type Simple struct {
	Tok *tokenizer.Tokenizer
}

func (s Simple) Chunk(text string, cfg Config) []Chunk {
	tokens := s.Tok.Encode(text)
	if len(tokens) == 0 {
		return nil
	}

	size := cfg.ChunkSize
	overlap := cfg.ChunkOverlap
	stride := size - overlap
	if stride <= 0 {
		// overlap >= size would loop forever; fall back to a non-overlapping
		// window so the strategy always makes progress.
		stride = size
	}

	var chunks []Chunk
	index := 0
	for start := 0; start < len(tokens); start += stride {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[start:end]
		c := Chunk{
			Index:      index,
			Text:       s.Tok.Decode(window),
			TokenCount: len(window),
			Strategy:   StrategySimple,
			Type:       TypeStandalone,
			TokenStart: start,
			TokenEnd:   end,
		}
		if index > 0 {
			c.HasOverlap = true
			c.OverlapTokens = overlap
		}
		chunks = append(chunks, c)
		index++
		if end == len(tokens) {
			break
		}
	}

	warnOutOfBounds(StrategySimple, chunks, cfg)
	return chunks
}
