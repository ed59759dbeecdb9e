// Package tree implements the Tree Builder (C6): folding a converter's flat
// paragraph stream into a hierarchical section tree by paragraph role.
package tree

import "ragcore/internal/convert"

// Section is one node of the document's section tree.
type Section struct {
	Title    string
	Level    int // 1 for title-rooted sections, 2 for sub-headings
	Content  string
	Tables   []convert.Table
	Images   []Image
}

// Image is a typed child of a section. Build does not populate it.
type Image struct {
	Description string
	Page        int
}

// Metadata summarizes the built tree.
type Metadata struct {
	TotalPages    int
	TotalSections int
	TotalTables   int
	TotalImages   int
}

// Tree is the C6 output: the unified text, the section structure, and
// summary counts.
type Tree struct {
	Text     string
	Sections []Section
	Tables   []convert.Table
	Images   []Image
	Metadata Metadata
}

// Build folds paragraphs (in document order) into a section tree. Each
// title/sectionHeading paragraph opens a new section; everything else
// accumulates into the current section's content. Every table is attached
// to the last section opened, whatever its position in the document, and
// Tree.Tables lists all tables as well; with no section, tables appear only
// in Tree.Tables. Images are not collected: Section.Images, Tree.Images and
// Metadata.TotalImages stay empty.
func Build(text string, structure convert.Structure) Tree {
	var sections []Section
	var cur *Section

	openSection := func(title string, level int) {
		sections = append(sections, Section{Title: title, Level: level})
		cur = &sections[len(sections)-1]
	}

	for _, p := range structure.Paragraphs {
		switch p.Role {
		case convert.RoleTitle:
			openSection(p.Content, 1)
		case convert.RoleSectionHeading:
			openSection(p.Content, 2)
		case convert.RolePageHeader, convert.RolePageFooter, convert.RolePageNumber:
			// structural noise, not section content
		default:
			if cur == nil {
				openSection("", 1)
			}
			if cur.Content != "" {
				cur.Content += "\n\n"
			}
			cur.Content += p.Content
		}
	}

	totalImages := 0
	if len(structure.Tables) > 0 && len(sections) > 0 {
		sections[len(sections)-1].Tables = append(sections[len(sections)-1].Tables, structure.Tables...)
	}

	return Tree{
		Text:     text,
		Sections: sections,
		Tables:   structure.Tables,
		Metadata: Metadata{
			TotalPages:    len(structure.Pages),
			TotalSections: len(sections),
			TotalTables:   len(structure.Tables),
			TotalImages:   totalImages,
		},
	}
}
