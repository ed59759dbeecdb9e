package convert

import (
	"github.com/xuri/excelize/v2"

	"ragcore/internal/rerrors"
)

// convertXLSX renders each sheet as one Markdown table, headed by a
// section-heading paragraph naming the sheet.
func (c *Converter) convertXLSX(path string) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, rerrors.DocumentProcessing("convert", "opening XLSX failed", err)
	}
	defer f.Close()

	var paragraphs []Paragraph
	var tables []Table

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		paragraphs = append(paragraphs, Paragraph{Content: sheet, Role: RoleSectionHeading})
		tables = append(tables, Table{Rows: rows})
	}

	return Result{
		Markdown:  assembleMarkdown(paragraphs, tables),
		Structure: Structure{Paragraphs: paragraphs, Tables: tables},
	}, nil
}
