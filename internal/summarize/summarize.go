// Package summarize implements the size-adaptive Summarizer (C8):
// single-pass for short documents, map-reduce with bounded section-level
// parallelism otherwise.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"ragcore/internal/llmprovider"
	"ragcore/internal/rerrors"
	"ragcore/internal/tree"
)

const temperature = 0.1

// Config holds the size thresholds and token budgets of §4.8.
type Config struct {
	ShortDocThreshold       int
	MinSectionSize          int
	MaxSectionSize          int
	MaxConcurrentRequests   int
	SectionSummaryMaxTokens int
	FinalSummaryMaxTokens   int
}

const singlePassPrompt = `Summarize the following document in the document's own language, with these sections: Overview, Key Points, Important Data, Conclusions.

%s`

const sectionPrompt = `Summarize the following section in the document's own language in at most a few sentences.

Section: %s

%s`

const reducePrompt = `Compose a final document summary in the document's own language from these labeled section summaries, organized as Overview, Key Points, Important Data, Conclusions.

%s`

// Summarize produces a whole-document summary, choosing single-pass or
// map-reduce by document length.
func Summarize(ctx context.Context, provider llmprovider.Provider, model string, t tree.Tree, cfg Config) (string, error) {
	if len(t.Text) <= cfg.ShortDocThreshold {
		resp, err := provider.Complete(ctx, llmprovider.CompletionRequest{
			Model:       model,
			Prompt:      fmt.Sprintf(singlePassPrompt, t.Text),
			Temperature: temperature,
			MaxTokens:   cfg.FinalSummaryMaxTokens,
		})
		if err != nil {
			return "", rerrors.DocumentProcessing("summarize", "single-pass summary failed", err)
		}
		return resp.Text, nil
	}

	parts := splitSections(t, cfg)
	if len(parts) == 0 {
		return "", nil
	}

	summaries := make([]string, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	limit := cfg.MaxConcurrentRequests
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, part := range parts {
		i, part := i, part
		g.Go(func() error {
			resp, err := provider.Complete(gctx, llmprovider.CompletionRequest{
				Model:       model,
				Prompt:      fmt.Sprintf(sectionPrompt, part.label, part.content),
				Temperature: temperature,
				MaxTokens:   cfg.SectionSummaryMaxTokens,
			})
			if err != nil {
				return rerrors.DocumentProcessing("summarize", "section summary failed", err).WithDetail("section", part.label)
			}
			summaries[i] = fmt.Sprintf("%s: %s", part.label, resp.Text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	resp, err := provider.Complete(ctx, llmprovider.CompletionRequest{
		Model:       model,
		Prompt:      fmt.Sprintf(reducePrompt, strings.Join(summaries, "\n\n")),
		Temperature: temperature,
		MaxTokens:   cfg.FinalSummaryMaxTokens,
	})
	if err != nil {
		return "", rerrors.DocumentProcessing("summarize", "reduce summary failed", err)
	}
	return resp.Text, nil
}

type section struct {
	label   string
	content string
}

// splitSections implements the §4.8 split step: natural sections when
// available (skipping tiny ones, splitting oversized ones on paragraph
// boundaries), or numbered size-splits for unstructured documents.
func splitSections(t tree.Tree, cfg Config) []section {
	if len(t.Sections) == 0 {
		return sizeSplit(t.Text, cfg.MaxSectionSize)
	}

	var out []section
	for _, sec := range t.Sections {
		if len(sec.Content) < cfg.MinSectionSize {
			continue
		}
		if len(sec.Content) <= cfg.MaxSectionSize {
			out = append(out, section{label: sec.Title, content: sec.Content})
			continue
		}
		paragraphs := strings.Split(sec.Content, "\n\n")
		var buf strings.Builder
		partNum := 1
		flush := func() {
			if buf.Len() == 0 {
				return
			}
			out = append(out, section{label: fmt.Sprintf("%s (part %d)", sec.Title, partNum), content: buf.String()})
			partNum++
			buf.Reset()
		}
		for _, p := range paragraphs {
			if buf.Len()+len(p) > cfg.MaxSectionSize {
				flush()
			}
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			buf.WriteString(p)
		}
		flush()
	}
	return out
}

func sizeSplit(text string, maxSize int) []section {
	if maxSize <= 0 {
		maxSize = len(text)
	}
	var out []section
	n := 1
	for i := 0; i < len(text); i += maxSize {
		end := i + maxSize
		if end > len(text) {
			end = len(text)
		}
		out = append(out, section{label: fmt.Sprintf("Section %d", n), content: text[i:end]})
		n++
	}
	return out
}
