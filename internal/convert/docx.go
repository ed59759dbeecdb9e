package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"ragcore/internal/rerrors"
)

// convertDOCX reads word/document.xml out of the OOXML zip container and
// classifies each paragraph's role from its style id.
func (c *Converter) convertDOCX(ctx context.Context, path string) (Result, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Result{}, rerrors.DocumentProcessing("convert", "opening DOCX failed", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return Result{}, rerrors.DocumentProcessing("convert", "word/document.xml missing from DOCX", nil)
	}

	rc, err := docFile.Open()
	if err != nil {
		return Result{}, rerrors.DocumentProcessing("convert", "opening document.xml failed", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return Result{}, rerrors.DocumentProcessing("convert", "reading document.xml failed", err)
	}

	paragraphs, err := parseDocxParagraphs(data)
	if err != nil {
		return Result{}, rerrors.DocumentProcessing("convert", "parsing document.xml failed", err)
	}

	return Result{
		Markdown:  assembleMarkdown(paragraphs, nil),
		Structure: Structure{Paragraphs: paragraphs},
	}, nil
}

func parseDocxParagraphs(docXML []byte) ([]Paragraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(docXML))

	var paragraphs []Paragraph
	var textBuf strings.Builder
	var styleVal string
	inPara := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				textBuf.Reset()
				styleVal = ""
			case "pStyle":
				for _, a := range t.Attr {
					if a.Name.Local == "val" {
						styleVal = a.Value
					}
				}
			case "t":
				var s string
				if err := dec.DecodeElement(&s, &t); err == nil {
					textBuf.WriteString(s)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inPara {
				inPara = false
				content := strings.TrimSpace(textBuf.String())
				if content != "" {
					paragraphs = append(paragraphs, Paragraph{Content: content, Role: docxRoleFromStyle(styleVal)})
				}
			}
		}
	}
	return paragraphs, nil
}

func docxRoleFromStyle(style string) string {
	lower := strings.ToLower(style)
	switch {
	case lower == "title":
		return RoleTitle
	case strings.HasPrefix(lower, "heading"):
		return RoleSectionHeading
	case lower == "header":
		return RolePageHeader
	case lower == "footer":
		return RolePageFooter
	default:
		return RoleBody
	}
}
