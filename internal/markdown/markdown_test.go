package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNoHeadings(t *testing.T) {
	t.Parallel()
	sections := Parse("just some plain text\nwith two lines")
	if assert.Len(t, sections, 1) {
		assert.Equal(t, 0, sections[0].Level)
		assert.Equal(t, "", sections[0].Title)
	}
}

func TestParseHierarchyPath(t *testing.T) {
	t.Parallel()
	text := strings.Join([]string{
		"# Top",
		"intro text",
		"## Child A",
		"a body",
		"## Child B",
		"b body",
		"# Second Top",
		"other body",
	}, "\n")

	sections := Parse(text)
	require := func(cond bool) {
		if !cond {
			t.Fatalf("unexpected sections: %+v", sections)
		}
	}
	require(len(sections) == 4)
	assert.Equal(t, "Top", sections[0].HierarchyPath)
	assert.Equal(t, "Top > Child A", sections[1].HierarchyPath)
	assert.Equal(t, "Top > Child B", sections[2].HierarchyPath)
	assert.Equal(t, "Second Top", sections[3].HierarchyPath)
}

func TestParseDropsPageNumbers(t *testing.T) {
	t.Parallel()
	text := "# Title\nsome content\n12\nmore content"
	sections := Parse(text)
	if assert.Len(t, sections, 1) {
		assert.NotContains(t, sections[0].Content, "12")
	}
}

func TestParseTablesCollected(t *testing.T) {
	t.Parallel()
	text := "# Title\nprose\n\n| a | b |\n| - | - |\n| 1 | 2 |\n"
	sections := Parse(text)
	last := sections[len(sections)-1]
	assert.Equal(t, "Tables", last.Title)
	assert.Contains(t, last.Content, "| a | b |")
}

func TestHeaderCount(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 2, HeaderCount("# A\ntext\n## B\nmore"))
	assert.Equal(t, 0, HeaderCount("no headings here"))
}
