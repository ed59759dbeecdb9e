package chunking

import (
	"strings"

	"ragcore/internal/markdown"
	"ragcore/internal/tokenizer"
)

// Hierarchical emits one parent chunk per qualifying section (a summary of
// its first meaningful paragraph) followed by sliding-window child chunks
// over the section's body, each carrying a reference back to its parent.
type Hierarchical struct {
	Tok *tokenizer.Tokenizer
}

func (h Hierarchical) Chunk(text string, cfg Config) []Chunk {
	sections := markdown.Parse(text)
	if len(sections) == 0 {
		return nil
	}

	var chunks []Chunk
	index := 0

	for _, sec := range sections {
		if h.Tok.Count(sec.Content) < cfg.MinChunkSize {
			continue
		}

		parentIndex := index
		summary := parentSummary(sec.Title, sec.Content, cfg.ParentSummaryMaxLength)
		chunks = append(chunks, Chunk{
			Index:         parentIndex,
			Text:          summary,
			TokenCount:    h.Tok.Count(summary),
			HierarchyPath: sec.HierarchyPath,
			SectionTitle:  sec.Title,
			Strategy:      StrategyHierarchical,
			Type:          TypeParent,
			ParentSummary: summary,
		})
		index++

		stride := cfg.ChunkSize - cfg.ChunkOverlap
		if stride <= 0 {
			stride = cfg.ChunkSize
		}
		tokens := h.Tok.Encode(sec.Content)
		childLocal := 0
		for start := 0; start < len(tokens); start += stride {
			end := start + cfg.ChunkSize
			if end > len(tokens) {
				end = len(tokens)
			}
			window := tokens[start:end]
			parentRef := parentIndex
			chunks = append(chunks, Chunk{
				Index:         index,
				Text:          h.Tok.Decode(window),
				TokenCount:    len(window),
				HierarchyPath: sec.HierarchyPath,
				SectionTitle:  sec.Title,
				Strategy:      StrategyHierarchical,
				Type:          TypeChild,
				ParentIndex:   &parentRef,
				ParentSummary: summary,
				HasOverlap:    childLocal > 0,
				OverlapTokens: cfg.ChunkOverlap,
				TokenStart:    start,
				TokenEnd:      end,
			})
			index++
			childLocal++
			if end == len(tokens) {
				break
			}
		}
	}

	warnOutOfBounds(StrategyHierarchical, chunks, cfg)
	return chunks
}

// parentSummary extracts the first meaningful (non-empty) paragraph of
// content, bounds it to maxLen characters, and prefixes the bolded title.
func parentSummary(title, content string, maxLen int) string {
	var firstParagraph string
	for _, p := range strings.Split(content, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			firstParagraph = p
			break
		}
	}
	if maxLen > 0 && len(firstParagraph) > maxLen {
		firstParagraph = strings.TrimSpace(firstParagraph[:maxLen])
	}
	if title == "" {
		return firstParagraph
	}
	return "**" + title + "**\n\n" + firstParagraph
}
