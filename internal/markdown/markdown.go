// Package markdown parses a Markdown document into a flat ordered list of
// sections, tracking the header hierarchy so every section can be traced
// back to its ancestor titles.
package markdown

import (
	"regexp"
	"strings"
)

// Section is one heading-delimited region of a document.
type Section struct {
	Title        string
	Level        int // 1..6, or 0 for the headerless document body
	Content      string
	StartLine    int
	HierarchyPath string // ancestor titles joined by " > "
}

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)

// pageNumberRe matches a line that is only a page number, optionally framed
// by dashes or the word "Page" (artifacts left by document converters).
var pageNumberRe = regexp.MustCompile(`(?i)^\s*(-\s*)?(page\s+)?\d{1,5}(\s*-)?\s*$`)

// Parse splits markdown text into an ordered list of sections. Text with no
// headings yields a single level-0 section containing the whole body.
// Tables (GFM pipe tables) are extracted and collected under a trailing
// "Tables" section so inline tables don't fragment prose sections.
func Parse(text string) []Section {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	type stackEntry struct {
		title string
		level int
	}
	var stack []stackEntry
	hierarchyOf := func() string {
		titles := make([]string, len(stack))
		for i, e := range stack {
			titles[i] = e.title
		}
		return strings.Join(titles, " > ")
	}

	var sections []Section
	var tableLines []string
	inTable := false

	var cur *Section
	flush := func() {
		if cur != nil {
			cur.Content = strings.TrimSpace(cur.Content)
			sections = append(sections, *cur)
			cur = nil
		}
	}

	for i, line := range lines {
		if pageNumberRe.MatchString(line) {
			continue
		}
		if isTableLine(line) {
			tableLines = append(tableLines, line)
			inTable = true
			continue
		}
		if inTable && strings.TrimSpace(line) == "" {
			inTable = false
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			level := len(m[1])
			title := m[2]

			for len(stack) > 0 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, stackEntry{title: title, level: level})

			cur = &Section{
				Title:         title,
				Level:         level,
				StartLine:     i + 1,
				HierarchyPath: hierarchyOf(),
			}
			continue
		}

		if cur == nil {
			cur = &Section{Title: "", Level: 0, StartLine: i + 1, HierarchyPath: hierarchyOf()}
		}
		cur.Content += line + "\n"
	}
	flush()

	if len(tableLines) > 0 {
		sections = append(sections, Section{
			Title:   "Tables",
			Level:   1,
			Content: strings.TrimSpace(strings.Join(tableLines, "\n")),
		})
	}

	if len(sections) == 0 {
		return []Section{{Title: "", Level: 0, Content: strings.TrimSpace(text), StartLine: 1}}
	}
	return sections
}

func isTableLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") {
		return false
	}
	return strings.Count(trimmed, "|") >= 2
}

// HeaderCount returns the number of heading lines in text, used by the
// chunking orchestrator's auto-strategy decision.
func HeaderCount(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if headingRe.MatchString(line) {
			count++
		}
	}
	return count
}
