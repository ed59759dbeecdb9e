// Package convert implements the Document Converter (C5): turning a raw
// upload of any supported type into unified Markdown plus a structural
// record the Tree Builder (C6) folds into a section tree.
package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"ragcore/internal/rerrors"
)

// Paragraph role, mirroring the converter's source document analysis.
const (
	RoleTitle          = "title"
	RoleSectionHeading = "sectionHeading"
	RolePageHeader     = "pageHeader"
	RolePageFooter     = "pageFooter"
	RolePageNumber     = "pageNumber"
	RoleBody           = "body"
)

// Paragraph is one structural unit of a converted document.
type Paragraph struct {
	Content string
	Role    string
	Page    int
}

// Table is a rectangular grid of cell text, in reading order.
type Table struct {
	Rows [][]string
}

// Structure is the structural record that accompanies the unified Markdown.
type Structure struct {
	Pages      []int
	Tables     []Table
	Paragraphs []Paragraph
	Styles     []string
}

// Result is the Document Converter's output.
type Result struct {
	Markdown  string
	Structure Structure
}

// ImageDescriber produces a short natural-language description of an image,
// used to inline `[Image: <description>]` markers when configured.
type ImageDescriber interface {
	Describe(ctx context.Context, data []byte) (string, error)
}

// Converter dispatches to a format-specific conversion routine by file
// extension or declared MIME type.
type Converter struct {
	ImageDescriber ImageDescriber
}

// Convert reads the file at path (whose original filename/mimeType are
// supplied for extension sniffing) and returns unified Markdown.
func (c *Converter) Convert(ctx context.Context, path, originalFilename, mimeType string) (Result, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))

	switch {
	case ext == ".pdf" || mimeType == "application/pdf":
		return c.convertPDF(ctx, path)
	case ext == ".docx" || mimeType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return c.convertDOCX(ctx, path)
	case ext == ".pptx" || mimeType == "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return c.convertPPTX(ctx, path)
	case ext == ".xlsx" || mimeType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return c.convertXLSX(path)
	case ext == ".json" || mimeType == "application/json":
		return convertJSON(path)
	case ext == ".md" || ext == ".markdown" || mimeType == "text/markdown":
		return convertPlainText(path, true)
	case ext == ".png" || ext == ".jpg" || ext == ".jpeg" || strings.HasPrefix(mimeType, "image/"):
		return c.convertImage(ctx, path)
	case ext == ".txt" || mimeType == "" || strings.HasPrefix(mimeType, "text/"):
		return convertPlainText(path, false)
	default:
		return convertPlainText(path, false)
	}
}

// assembleMarkdown applies the §4.5 paragraph-role policy and appends a
// trailing "Tables" section collecting every table the converter found.
func assembleMarkdown(paragraphs []Paragraph, tables []Table) string {
	var b strings.Builder
	for _, p := range paragraphs {
		switch p.Role {
		case RoleTitle:
			b.WriteString("# " + p.Content + "\n\n")
		case RoleSectionHeading:
			b.WriteString("## " + p.Content + "\n\n")
		case RolePageHeader, RolePageFooter:
			b.WriteString("*" + p.Content + "*\n\n")
		case RolePageNumber:
			// dropped
		default:
			b.WriteString(p.Content + "\n\n")
		}
	}
	if len(tables) > 0 {
		b.WriteString("## Tables\n\n")
		for _, t := range tables {
			b.WriteString(tableToMarkdown(t))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func tableToMarkdown(t Table) string {
	if len(t.Rows) == 0 {
		return ""
	}
	var b strings.Builder
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = escapeCell(c)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		if i == 0 {
			sep := make([]string, len(row))
			for j := range sep {
				sep[j] = "---"
			}
			b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func convertJSON(path string) (Result, error) {
	raw, err := readFile(path)
	if err != nil {
		return Result{}, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Result{}, rerrors.DocumentProcessing("convert", "invalid JSON input", err)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Result{}, rerrors.Internal("re-marshal JSON failed", err)
	}
	md := "```json\n" + string(pretty) + "\n```\n"
	return Result{Markdown: md, Structure: Structure{Paragraphs: []Paragraph{{Content: md, Role: RoleBody}}}}, nil
}

// convertPlainText passes plain-text or Markdown input through, decoding
// as UTF-8 when valid and as Latin-1 otherwise (see decodeText). There is
// no separate CP1252 or replacement-character step.
func convertPlainText(path string, isMarkdown bool) (Result, error) {
	raw, err := readFile(path)
	if err != nil {
		return Result{}, err
	}
	text := decodeText(raw)
	if isMarkdown {
		return Result{Markdown: text, Structure: Structure{Paragraphs: []Paragraph{{Content: text, Role: RoleBody}}}}, nil
	}
	paragraphs := splitParagraphs(text)
	return Result{Markdown: assembleMarkdown(paragraphs, nil), Structure: Structure{Paragraphs: paragraphs}}, nil
}

func splitParagraphs(text string) []Paragraph {
	var out []Paragraph
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, Paragraph{Content: p, Role: RoleBody})
	}
	return out
}

// decodeText tries UTF-8 first, then falls back to a byte-is-rune Latin-1
// interpretation, never failing outright.
func decodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}

func (c *Converter) convertImage(ctx context.Context, path string) (Result, error) {
	if c.ImageDescriber == nil {
		return Result{Markdown: "", Structure: Structure{}}, nil
	}
	data, err := readFile(path)
	if err != nil {
		return Result{}, err
	}
	desc, err := c.ImageDescriber.Describe(ctx, data)
	if err != nil {
		return Result{}, rerrors.DocumentProcessing("convert", "image description failed", err)
	}
	md := fmt.Sprintf("[Image: %s]\n", desc)
	return Result{Markdown: md, Structure: Structure{Paragraphs: []Paragraph{{Content: md, Role: RoleBody}}}}, nil
}
