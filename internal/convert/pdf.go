package convert

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"ragcore/internal/rerrors"
)

var allCapsHeadingRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9 .,:/&'()-]{2,80}$`)

// convertPDF extracts page text natively and classifies lines into
// title/sectionHeading/body/pageNumber paragraphs. Embedded images are not
// extracted or described, even when c.ImageDescriber is configured.
func (c *Converter) convertPDF(ctx context.Context, path string) (Result, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return Result{}, rerrors.DocumentProcessing("convert", "opening PDF failed", err)
	}
	defer f.Close()

	var paragraphs []Paragraph
	var pages []int
	seenHeading := false

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, i)

		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			role := classifyPDFLine(line, &seenHeading)
			paragraphs = append(paragraphs, Paragraph{Content: line, Role: role, Page: i})
		}
	}

	if len(paragraphs) == 0 {
		return Result{Markdown: "", Structure: Structure{}}, nil
	}

	return Result{
		Markdown:  assembleMarkdown(paragraphs, nil),
		Structure: Structure{Pages: pages, Paragraphs: paragraphs},
	}, nil
}

func classifyPDFLine(line string, seenHeading *bool) string {
	if isPageNumberLine(line) {
		return RolePageNumber
	}
	if !*seenHeading && allCapsHeadingRe.MatchString(line) && len(line) <= 80 {
		*seenHeading = true
		return RoleTitle
	}
	if allCapsHeadingRe.MatchString(line) && len(line) <= 60 {
		return RoleSectionHeading
	}
	return RoleBody
}

func isPageNumberLine(line string) bool {
	trimmed := strings.TrimSpace(strings.Trim(line, "-–— "))
	if trimmed == "" {
		return false
	}
	if _, err := strconv.Atoi(trimmed); err == nil && len(trimmed) <= 4 {
		return true
	}
	lower := strings.ToLower(trimmed)
	return strings.HasPrefix(lower, "page ") && len(trimmed) <= 12
}
