package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragcore/internal/convert"
)

func TestBuildOpensSectionsOnHeadings(t *testing.T) {
	t.Parallel()
	structure := convert.Structure{
		Pages: []int{1, 2},
		Paragraphs: []convert.Paragraph{
			{Content: "Employee Handbook", Role: convert.RoleTitle},
			{Content: "intro text", Role: convert.RoleBody},
			{Content: "Leave Policy", Role: convert.RoleSectionHeading},
			{Content: "policy details", Role: convert.RoleBody},
			{Content: "3", Role: convert.RolePageNumber},
		},
	}
	tr := Build("full text", structure)
	require.Len(t, tr.Sections, 2)
	assert.Equal(t, "Employee Handbook", tr.Sections[0].Title)
	assert.Equal(t, "intro text", tr.Sections[0].Content)
	assert.Equal(t, "Leave Policy", tr.Sections[1].Title)
	assert.Equal(t, "policy details", tr.Sections[1].Content)
	assert.Equal(t, 2, tr.Metadata.TotalPages)
	assert.Equal(t, 2, tr.Metadata.TotalSections)
}

func TestBuildAttachesTablesToLastOpenSection(t *testing.T) {
	t.Parallel()
	structure := convert.Structure{
		Paragraphs: []convert.Paragraph{
			{Content: "Pricing", Role: convert.RoleSectionHeading},
		},
		Tables: []convert.Table{{Rows: [][]string{{"Plan", "Price"}}}},
	}
	tr := Build("text", structure)
	require.Len(t, tr.Sections, 1)
	require.Len(t, tr.Sections[0].Tables, 1)
	assert.Equal(t, 1, tr.Metadata.TotalTables)
}

func TestBuildWithNoHeadingsOpensImplicitSection(t *testing.T) {
	t.Parallel()
	structure := convert.Structure{
		Paragraphs: []convert.Paragraph{
			{Content: "just a plain paragraph", Role: convert.RoleBody},
		},
	}
	tr := Build("text", structure)
	require.Len(t, tr.Sections, 1)
	assert.Equal(t, "", tr.Sections[0].Title)
}
