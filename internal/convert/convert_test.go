package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleMarkdownAppliesRolePolicy(t *testing.T) {
	t.Parallel()
	paragraphs := []Paragraph{
		{Content: "Annual Report", Role: RoleTitle},
		{Content: "Introduction", Role: RoleSectionHeading},
		{Content: "Revenue grew steadily.", Role: RoleBody},
		{Content: "Confidential", Role: RolePageHeader},
		{Content: "3", Role: RolePageNumber},
	}
	md := assembleMarkdown(paragraphs, nil)
	assert.Contains(t, md, "# Annual Report")
	assert.Contains(t, md, "## Introduction")
	assert.Contains(t, md, "*Confidential*")
	assert.Contains(t, md, "Revenue grew steadily.")
	assert.NotContains(t, md, "\n3\n")
}

func TestAssembleMarkdownCollectsTablesAtEnd(t *testing.T) {
	t.Parallel()
	tables := []Table{{Rows: [][]string{{"Name", "Value"}, {"A", "1"}}}}
	md := assembleMarkdown([]Paragraph{{Content: "body", Role: RoleBody}}, tables)
	assert.Contains(t, md, "## Tables")
	assert.Contains(t, md, "| Name | Value |")
	assert.True(t, indexOf(md, "body") < indexOf(md, "## Tables"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestConvertJSONPrettyPrints(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1,"b":[2,3]}`), 0o644))

	res, err := convertJSON(path)
	require.NoError(t, err)
	assert.Contains(t, res.Markdown, "```json")
	assert.Contains(t, res.Markdown, "\"a\": 1")
}

func TestConvertPlainTextSplitsParagraphs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("first paragraph\n\nsecond paragraph"), 0o644))

	res, err := convertPlainText(path, false)
	require.NoError(t, err)
	require.Len(t, res.Structure.Paragraphs, 2)
	assert.Equal(t, "first paragraph", res.Structure.Paragraphs[0].Content)
	assert.Equal(t, "second paragraph", res.Structure.Paragraphs[1].Content)
}

func TestConvertDispatchesByExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "readme.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\nbody"), 0o644))

	c := &Converter{}
	res, err := c.Convert(context.Background(), path, "readme.md", "")
	require.NoError(t, err)
	assert.Contains(t, res.Markdown, "# Title")
}
