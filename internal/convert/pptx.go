package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"ragcore/internal/rerrors"
)

var slideNumberRe = regexp.MustCompile(`slide(\d+)\.xml$`)

// convertPPTX reads each ppt/slides/slideN.xml in order and emits one
// section-heading paragraph ("Slide N") followed by its body text.
func (c *Converter) convertPPTX(ctx context.Context, path string) (Result, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Result{}, rerrors.DocumentProcessing("convert", "opening PPTX failed", err)
	}
	defer r.Close()

	slideFiles := make(map[int]*zip.File)
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			m := slideNumberRe.FindStringSubmatch(f.Name)
			if len(m) == 2 {
				if n, err := strconv.Atoi(m[1]); err == nil {
					slideFiles[n] = f
				}
			}
		}
	}

	nums := make([]int, 0, len(slideFiles))
	for n := range slideFiles {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var paragraphs []Paragraph
	for _, n := range nums {
		rc, err := slideFiles[n].Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		text := extractPPTXSlideText(data)
		if text == "" {
			continue
		}
		paragraphs = append(paragraphs, Paragraph{Content: fmt.Sprintf("Slide %d", n), Role: RoleSectionHeading})
		paragraphs = append(paragraphs, Paragraph{Content: text, Role: RoleBody})
	}

	return Result{
		Markdown:  assembleMarkdown(paragraphs, nil),
		Structure: Structure{Paragraphs: paragraphs},
	}, nil
}

func extractPPTXSlideText(slideXML []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(slideXML))
	var lines []string
	var buf strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				var s string
				if err := dec.DecodeElement(&s, &t); err == nil {
					buf.WriteString(s)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" && buf.Len() > 0 {
				lines = append(lines, strings.TrimSpace(buf.String()))
				buf.Reset()
			}
		}
	}
	if buf.Len() > 0 {
		lines = append(lines, strings.TrimSpace(buf.String()))
	}
	return strings.Join(lines, "\n")
}
