package chunking

import (
	"strings"

	"ragcore/internal/markdown"
	"ragcore/internal/tokenizer"
)

// Semantic partitions text along parsed Markdown sections, aggregating
// small consecutive sections and splitting oversized sections at sentence
// boundaries.
type Semantic struct {
	Tok *tokenizer.Tokenizer
}

func (s Semantic) Chunk(text string, cfg Config) []Chunk {
	sections := markdown.Parse(text)
	if len(sections) == 0 {
		return nil
	}

	var chunks []Chunk
	var aggText strings.Builder
	var aggTitle, aggHierarchy string
	aggTokens := 0
	index := 0

	flush := func() {
		if aggTokens == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Index:         index,
			Text:          strings.TrimSpace(aggText.String()),
			TokenCount:    aggTokens,
			HierarchyPath: aggHierarchy,
			SectionTitle:  aggTitle,
			Strategy:      StrategySemantic,
			Type:          TypeStandalone,
		})
		index++
		aggText.Reset()
		aggTitle, aggHierarchy = "", ""
		aggTokens = 0
	}

	appendOversizedSection := func(sec markdown.Section, pieces []string) {
		flush()
		for _, p := range pieces {
			chunks = append(chunks, Chunk{
				Index:         index,
				Text:          p,
				TokenCount:    s.Tok.Count(p),
				HierarchyPath: sec.HierarchyPath,
				SectionTitle:  sec.Title,
				Strategy:      StrategySemantic,
				Type:          TypeStandalone,
			})
			index++
		}
	}

	for _, sec := range sections {
		secText := sec.Content
		if sec.Title != "" {
			secText = sec.Title + "\n" + secText
		}
		secTokens := s.Tok.Count(secText)

		if secTokens > cfg.ChunkSize {
			pieces := splitAtSentenceBoundaries(s.Tok, secText, cfg.ChunkSize)
			appendOversizedSection(sec, pieces)
			continue
		}

		if aggTokens > 0 && aggTokens+secTokens > cfg.ChunkSize {
			flush()
		}
		if aggTokens == 0 {
			aggTitle = sec.Title
		}
		if aggText.Len() > 0 {
			aggText.WriteString("\n\n")
		}
		aggText.WriteString(secText)
		aggHierarchy = sec.HierarchyPath
		aggTokens += secTokens
	}
	flush()

	if cfg.SemanticOverlapEnabled {
		applySemanticOverlap(s.Tok, chunks, cfg.SemanticOverlapTokens)
	}

	warnOutOfBounds(StrategySemantic, chunks, cfg)
	return chunks
}

// applySemanticOverlap prepends the tail of each chunk's text to the next
// chunk, preceded by an ellipsis marker, and stamps the overlap metadata.
func applySemanticOverlap(tok *tokenizer.Tokenizer, chunks []Chunk, overlapTokens int) {
	if overlapTokens <= 0 {
		return
	}
	for i := len(chunks) - 1; i > 0; i-- {
		tail := tok.LastN(chunks[i-1].Text, overlapTokens)
		if tail == "" {
			continue
		}
		chunks[i].Text = "… " + tail + "\n\n" + chunks[i].Text
		chunks[i].TokenCount = tok.Count(chunks[i].Text)
		chunks[i].HasOverlap = true
		chunks[i].OverlapTokens = overlapTokens
	}
}
